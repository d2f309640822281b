package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/database"
	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/util"
	"github.com/snapgram/backend/internal/websocket"
	"gorm.io/gorm"
)

// AddComment adds a comment to a post and notifies the post owner.
// POST /api/v1/post/:id/comment
func (h *Handlers) AddComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		util.Fail(c, http.StatusBadRequest, "Text is required")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.Fail(c, http.StatusNotFound, "Post not found")
		return
	}

	comment := models.Comment{
		PostID:   postID,
		AuthorID: userID,
		Text:     req.Text,
	}
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if txErr != nil {
		logger.ErrorWithFields("comment create failed", txErr)
		util.Fail(c, http.StatusInternalServerError, "An error occurred")
		return
	}

	if err := database.DB.Preload("Author").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.ErrorWithFields("comment reload failed", err)
	}

	if post.AuthorID != userID {
		h.notifier.Notify(post.AuthorID, websocket.Event{
			Kind: websocket.EventComment,
			Payload: websocket.NotificationPayload{
				Type:        string(websocket.EventComment),
				UserID:      userID,
				UserDetails: comment.Author.Public(),
				PostID:      postID,
				Message:     "Someone commented on your post",
			},
		})
	}

	util.OK(c, http.StatusCreated, gin.H{
		"message": "Comment Added",
		"comment": comment,
	})
}

// GetComments returns all comments on a post.
// GET /api/v1/post/:id/comment/all
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")

	var comments []models.Comment
	if err := database.DB.
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		logger.ErrorWithFields("comments lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "An error occurred")
		return
	}

	if len(comments) == 0 {
		util.Fail(c, http.StatusNotFound, "No comments found for this post")
		return
	}

	util.OK(c, http.StatusOK, gin.H{"comments": comments})
}
