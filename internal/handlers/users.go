package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/auth"
	"github.com/snapgram/backend/internal/database"
	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/util"
	"github.com/snapgram/backend/internal/websocket"
	"gorm.io/gorm"
)

const tokenCookieMaxAge = 24 * 60 * 60

// Register creates a new account.
// POST /api/v1/user/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "Please provide username, email, and password.")
		return
	}
	if err := util.ValidateUsername(req.Username); err != nil {
		util.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	_, err := h.auth.Register(req)
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		util.Fail(c, http.StatusBadRequest, "Email already in use.")
		return
	case errors.Is(err, auth.ErrUsernameExists):
		util.Fail(c, http.StatusBadRequest, "Username already taken.")
		return
	case err != nil:
		logger.ErrorWithFields("registration failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	util.OK(c, http.StatusCreated, gin.H{"message": "Account created successfully."})
}

// Login authenticates an account and sets the token cookie.
// POST /api/v1/user/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "Please provide both email and password.")
		return
	}

	resp, err := h.auth.Login(req)
	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
		util.Fail(c, http.StatusUnauthorized, "Incorrect email or password")
		return
	case err != nil:
		logger.ErrorWithFields("login failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("token", resp.Token, tokenCookieMaxAge, "/", "", false, true)

	util.OK(c, http.StatusOK, gin.H{
		"message": "Welcome back " + resp.User.Username,
		"user":    resp.User,
		"token":   resp.Token,
	})
}

// Logout clears the token cookie.
// POST /api/v1/user/logout
func (h *Handlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("token", "", -1, "/", "", false, true)
	util.OK(c, http.StatusOK, gin.H{"message": "Successfully logged out."})
}

// GetProfile returns a user's profile with their posts and bookmarks.
// GET /api/v1/user/:id/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	userID := c.Param("id")
	if !util.IsValidUserID(userID) {
		util.Fail(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Fail(c, http.StatusNotFound, "User not found.")
			return
		}
		logger.ErrorWithFields("profile lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	var posts []models.Post
	if err := database.DB.
		Preload("Comments").
		Where("author_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		logger.ErrorWithFields("profile posts lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	var bookmarked []models.Post
	if err := database.DB.
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC").
		Find(&bookmarked).Error; err != nil {
		logger.ErrorWithFields("profile bookmarks lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	util.OK(c, http.StatusOK, gin.H{
		"user":      user,
		"posts":     posts,
		"bookmarks": bookmarked,
	})
}

// EditProfile updates the authenticated user's bio, username and profile
// picture.
// PATCH /api/v1/user/profile/edit
func (h *Handlers) EditProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	bio := c.PostForm("bio")
	username := c.PostForm("username")

	if username != "" && username != user.Username {
		if err := util.ValidateUsername(username); err != nil {
			util.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		var existing models.User
		err := database.DB.Where("LOWER(username) = LOWER(?) AND id <> ?", username, user.ID).First(&existing).Error
		if err == nil {
			util.Fail(c, http.StatusBadRequest, "Username already taken.")
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.ErrorWithFields("username check failed", err)
			util.Fail(c, http.StatusInternalServerError, "Internal server error.")
			return
		}
		user.Username = username
	}
	if bio != "" {
		user.Bio = bio
	}

	if file, header, err := c.Request.FormFile("profile_picture"); err == nil {
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

		result, err := h.uploader.UploadImage(c.Request.Context(), data, user.ID, header.Filename)
		if err != nil {
			logger.ErrorWithFields("profile picture upload failed", err)
			util.Fail(c, http.StatusInternalServerError, "Internal server error.")
			return
		}
		user.ProfilePictureURL = result.URL
	}

	if err := database.DB.Save(user).Error; err != nil {
		logger.ErrorWithFields("profile update failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	util.OK(c, http.StatusOK, gin.H{
		"message": "Profile updated successfully.",
		"user":    user,
	})
}

// GetSuggestedUsers returns other accounts annotated with whether the
// current user already follows them.
// GET /api/v1/user/suggested
func (h *Handlers) GetSuggestedUsers(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var users []models.User
	if err := database.DB.
		Where("id <> ?", userID).
		Order("created_at DESC").
		Limit(20).
		Find(&users).Error; err != nil {
		logger.ErrorWithFields("suggested users lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	var edges []models.Follow
	if err := database.DB.Where("follower_id = ?", userID).Find(&edges).Error; err != nil {
		logger.ErrorWithFields("follow edges lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}
	following := make(map[string]bool, len(edges))
	for _, e := range edges {
		following[e.FolloweeID] = true
	}

	type suggestedUser struct {
		models.User
		IsFollowing bool `json:"isFollowing"`
	}
	suggested := make([]suggestedUser, 0, len(users))
	for _, u := range users {
		suggested = append(suggested, suggestedUser{User: u, IsFollowing: following[u.ID]})
	}

	util.OK(c, http.StatusOK, gin.H{"users": suggested})
}

// FollowOrUnfollow toggles the follow edge from the current user to the
// target. A new follow pushes a realtime notification to the target.
// POST /api/v1/user/followorunfollow/:id
func (h *Handlers) FollowOrUnfollow(c *gin.Context) {
	currentUserID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	targetUserID := c.Param("id")
	if !util.IsValidUserID(targetUserID) {
		util.Fail(c, http.StatusBadRequest, "Invalid target user ID format.")
		return
	}
	if currentUserID == targetUserID {
		util.Fail(c, http.StatusBadRequest, "You cannot follow or unfollow yourself.")
		return
	}

	var current, target models.User
	if err := database.DB.First(&current, "id = ?", currentUserID).Error; err != nil {
		util.Fail(c, http.StatusNotFound, "User not found.")
		return
	}
	if err := database.DB.First(&target, "id = ?", targetUserID).Error; err != nil {
		util.Fail(c, http.StatusNotFound, "User not found.")
		return
	}

	var edge models.Follow
	err := database.DB.
		Where("follower_id = ? AND followee_id = ?", currentUserID, targetUserID).
		First(&edge).Error

	if err == nil {
		// Already following: unfollow.
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&edge).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", currentUserID).
				UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", targetUserID).
				UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error
		})
		if txErr != nil {
			logger.ErrorWithFields("unfollow failed", txErr)
			util.Fail(c, http.StatusInternalServerError, "Internal server error.")
			return
		}
		util.OK(c, http.StatusOK, gin.H{"message": "Successfully unfollowed."})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.ErrorWithFields("follow edge lookup failed", err)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Follow{FollowerID: currentUserID, FolloweeID: targetUserID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", currentUserID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", targetUserID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error
	})
	if txErr != nil {
		logger.ErrorWithFields("follow failed", txErr)
		util.Fail(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	h.notifier.Notify(targetUserID, websocket.Event{
		Kind: websocket.EventFollow,
		Payload: websocket.NotificationPayload{
			Type:        string(websocket.EventFollow),
			UserID:      currentUserID,
			UserDetails: current.Public(),
			Message:     current.Username + " started following you",
		},
	})

	util.OK(c, http.StatusOK, gin.H{"message": "Successfully followed."})
}
