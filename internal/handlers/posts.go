package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/database"
	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/util"
	"github.com/snapgram/backend/internal/websocket"
	"gorm.io/gorm"
)

// CreatePost creates a post from a caption and an uploaded image.
// POST /api/v1/post/addpost
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	caption := c.PostForm("caption")
	if caption == "" {
		util.Fail(c, http.StatusBadRequest, "Caption is required")
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "Image is required")
		return
	}
	defer file.Close()

	if h.uploader == nil {
		util.Fail(c, http.StatusServiceUnavailable, "Image uploads are not available.")
		return
	}
	if !util.IsValidImageFile(header.Filename) {
		util.Fail(c, http.StatusBadRequest, "Unsupported image format.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "Could not read uploaded file.")
		return
	}

	result, err := h.uploader.UploadImage(c.Request.Context(), data, userID, header.Filename)
	if err != nil {
		logger.ErrorWithFields("post image upload failed", err)
		util.Fail(c, http.StatusInternalServerError, "An error occurred while adding the post")
		return
	}

	post := models.Post{
		AuthorID: userID,
		Caption:  caption,
		ImageURL: result.URL,
	}
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
	if txErr != nil {
		logger.ErrorWithFields("post create failed", txErr)
		util.Fail(c, http.StatusInternalServerError, "An error occurred while adding the post")
		return
	}

	if err := database.DB.Preload("Author").First(&post, "id = ?", post.ID).Error; err != nil {
		logger.ErrorWithFields("post reload failed", err)
	}

	util.OK(c, http.StatusCreated, gin.H{
		"message": "New post added",
		"post":    post,
	})
}

// GetAllPosts returns the global feed, newest first.
// GET /api/v1/post/all
func (h *Handlers) GetAllPosts(c *gin.Context) {
	var posts []models.Post
	if err := database.DB.
		Preload("Author").
		Preload("Comments.Author").
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		logger.ErrorWithFields("feed lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "An error occurred while fetching posts")
		return
	}

	util.OK(c, http.StatusOK, gin.H{"posts": posts})
}

// GetUserPosts returns one author's posts, newest first.
// GET /api/v1/post/userpost/:id
func (h *Handlers) GetUserPosts(c *gin.Context) {
	authorID := c.Param("id")
	if !util.IsValidUserID(authorID) {
		util.Fail(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	var posts []models.Post
	if err := database.DB.
		Preload("Author").
		Preload("Comments.Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		logger.ErrorWithFields("user posts lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "An error occurred while fetching user's posts")
		return
	}

	util.OK(c, http.StatusOK, gin.H{"posts": posts})
}

// LikePost records a like on a post. Liking an already-liked post is a
// no-op. The post owner gets a realtime notification unless they liked their
// own post.
// GET /api/v1/post/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.Fail(c, http.StatusNotFound, "Post not found")
		return
	}

	var existing models.PostLike
	err := database.DB.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
	if err == nil {
		util.OK(c, http.StatusOK, gin.H{"message": "Post liked"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.ErrorWithFields("like lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if txErr != nil {
		logger.ErrorWithFields("like failed", txErr)
		util.Fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if post.AuthorID != userID {
		var liker models.User
		if err := database.DB.First(&liker, "id = ?", userID).Error; err == nil {
			h.notifier.Notify(post.AuthorID, websocket.Event{
				Kind: websocket.EventLike,
				Payload: websocket.NotificationPayload{
					Type:        string(websocket.EventLike),
					UserID:      userID,
					UserDetails: liker.Public(),
					PostID:      postID,
					Message:     "Your post was liked",
				},
			})
		}
	}

	util.OK(c, http.StatusOK, gin.H{"message": "Post liked"})
}

// DislikePost removes a like from a post. The post must currently be liked
// by the caller.
// GET /api/v1/post/:id/dislike
func (h *Handlers) DislikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.Fail(c, http.StatusNotFound, "Post not found")
		return
	}

	var existing models.PostLike
	err := database.DB.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Fail(c, http.StatusBadRequest, "Post not liked by user")
		return
	}
	if err != nil {
		logger.ErrorWithFields("like lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&existing).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if txErr != nil {
		logger.ErrorWithFields("dislike failed", txErr)
		util.Fail(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if post.AuthorID != userID {
		var disliker models.User
		if err := database.DB.First(&disliker, "id = ?", userID).Error; err == nil {
			h.notifier.Notify(post.AuthorID, websocket.Event{
				Kind: websocket.EventDislike,
				Payload: websocket.NotificationPayload{
					Type:        string(websocket.EventDislike),
					UserID:      userID,
					UserDetails: disliker.Public(),
					PostID:      postID,
					Message:     "Your post was disliked",
				},
			})
		}
	}

	util.OK(c, http.StatusOK, gin.H{"message": "Post disliked"})
}

// DeletePost deletes the caller's own post along with its comments and
// likes.
// DELETE /api/v1/post/delete/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.Fail(c, http.StatusNotFound, "Post not found")
		return
	}
	if post.AuthorID != userID {
		util.Fail(c, http.StatusForbidden, "Unauthorized")
		return
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
	if txErr != nil {
		logger.ErrorWithFields("post delete failed", txErr)
		util.Fail(c, http.StatusInternalServerError, "An error occurred")
		return
	}

	util.OK(c, http.StatusOK, gin.H{"message": "Post deleted"})
}

// BookmarkPost toggles a bookmark on a post for the caller.
// GET /api/v1/post/:id/bookmark
func (h *Handlers) BookmarkPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.Fail(c, http.StatusNotFound, "Post not found")
		return
	}

	var existing models.Bookmark
	err := database.DB.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
	if err == nil {
		if err := database.DB.Delete(&existing).Error; err != nil {
			logger.ErrorWithFields("bookmark removal failed", err)
			util.Fail(c, http.StatusInternalServerError, "An internal server error occurred")
			return
		}
		util.OK(c, http.StatusOK, gin.H{
			"type":    "unsaved",
			"message": "Post removed from bookmarks",
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.ErrorWithFields("bookmark lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "An internal server error occurred")
		return
	}

	if err := database.DB.Create(&models.Bookmark{PostID: postID, UserID: userID}).Error; err != nil {
		logger.ErrorWithFields("bookmark create failed", err)
		util.Fail(c, http.StatusInternalServerError, "An internal server error occurred")
		return
	}

	util.OK(c, http.StatusOK, gin.H{
		"type":    "saved",
		"message": "Post bookmarked",
	})
}
