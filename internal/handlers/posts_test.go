package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postRouter(env *testEnv, user *models.User) *gin.Engine {
	r := gin.New()
	group := r.Group("/api/v1/post")
	group.Use(asUser(user))
	group.GET("/all", env.handlers.GetAllPosts)
	group.GET("/userpost/:id", env.handlers.GetUserPosts)
	group.GET("/:id/like", env.handlers.LikePost)
	group.GET("/:id/dislike", env.handlers.DislikePost)
	group.POST("/:id/comment", env.handlers.AddComment)
	group.GET("/:id/comment/all", env.handlers.GetComments)
	group.DELETE("/delete/:id", env.handlers.DeletePost)
	group.GET("/:id/bookmark", env.handlers.BookmarkPost)
	return r
}

func TestLikePostNotifiesOwner(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	liker := env.createUser(t, "liker", "liker@example.com")
	post := env.createPost(t, owner.ID, "sunset")

	r := postRouter(env, &liker)
	w := perform(r, "GET", "/api/v1/post/"+post.ID+"/like", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Post
	require.NoError(t, env.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 1, reloaded.LikeCount)

	require.Len(t, env.notifier.calls, 1)
	assert.Equal(t, owner.ID, env.notifier.calls[0].target)
	assert.Equal(t, websocket.EventLike, env.notifier.calls[0].evt.Kind)

	payload := env.notifier.calls[0].evt.Payload.(websocket.NotificationPayload)
	assert.Equal(t, "like", payload.Type)
	assert.Equal(t, liker.ID, payload.UserID)
	assert.Equal(t, post.ID, payload.PostID)
}

func TestLikeOwnPostDoesNotNotify(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	post := env.createPost(t, owner.ID, "selfie")

	r := postRouter(env, &owner)
	w := perform(r, "GET", "/api/v1/post/"+post.ID+"/like", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, env.notifier.calls)
}

func TestLikePostIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	liker := env.createUser(t, "liker", "liker@example.com")
	post := env.createPost(t, owner.ID, "sunset")

	r := postRouter(env, &liker)
	require.Equal(t, http.StatusOK, perform(r, "GET", "/api/v1/post/"+post.ID+"/like", nil).Code)
	require.Equal(t, http.StatusOK, perform(r, "GET", "/api/v1/post/"+post.ID+"/like", nil).Code)

	var reloaded models.Post
	require.NoError(t, env.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 1, reloaded.LikeCount)
}

func TestDislikeRequiresExistingLike(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	other := env.createUser(t, "other", "other@example.com")
	post := env.createPost(t, owner.ID, "sunset")

	r := postRouter(env, &other)

	w := perform(r, "GET", "/api/v1/post/"+post.ID+"/dislike", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	require.Equal(t, http.StatusOK, perform(r, "GET", "/api/v1/post/"+post.ID+"/like", nil).Code)
	require.Equal(t, http.StatusOK, perform(r, "GET", "/api/v1/post/"+post.ID+"/dislike", nil).Code)

	var reloaded models.Post
	require.NoError(t, env.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 0, reloaded.LikeCount)
}

func TestAddCommentNotifiesPostOwner(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	commenter := env.createUser(t, "commenter", "commenter@example.com")
	post := env.createPost(t, owner.ID, "sunset")

	r := postRouter(env, &commenter)
	w := perform(r, "POST", "/api/v1/post/"+post.ID+"/comment", gin.H{"text": "nice shot"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	comment := body["comment"].(map[string]interface{})
	assert.Equal(t, "nice shot", comment["text"])

	var reloaded models.Post
	require.NoError(t, env.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 1, reloaded.CommentCount)

	require.Len(t, env.notifier.calls, 1)
	assert.Equal(t, owner.ID, env.notifier.calls[0].target)
	assert.Equal(t, websocket.EventComment, env.notifier.calls[0].evt.Kind)
}

func TestAddCommentRequiresText(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	post := env.createPost(t, owner.ID, "sunset")

	r := postRouter(env, &owner)
	w := perform(r, "POST", "/api/v1/post/"+post.ID+"/comment", gin.H{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCommentsEmptyReturns404(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	post := env.createPost(t, owner.ID, "sunset")

	r := postRouter(env, &owner)
	w := perform(r, "GET", "/api/v1/post/"+post.ID+"/comment/all", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePostOnlyByOwner(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	other := env.createUser(t, "other", "other@example.com")
	post := env.createPost(t, owner.ID, "sunset")

	otherRouter := postRouter(env, &other)
	w := perform(otherRouter, "DELETE", "/api/v1/post/delete/"+post.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	ownerRouter := postRouter(env, &owner)
	w = perform(ownerRouter, "DELETE", "/api/v1/post/delete/"+post.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	env.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestBookmarkToggle(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	reader := env.createUser(t, "reader", "reader@example.com")
	post := env.createPost(t, owner.ID, "sunset")

	r := postRouter(env, &reader)

	w := perform(r, "GET", "/api/v1/post/"+post.ID+"/bookmark", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "saved", decode(t, w)["type"])

	w = perform(r, "GET", "/api/v1/post/"+post.ID+"/bookmark", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unsaved", decode(t, w)["type"])
}

func TestGetAllPostsNewestFirst(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", "owner@example.com")
	env.createPost(t, owner.ID, "first")
	env.createPost(t, owner.ID, "second")

	r := postRouter(env, &owner)
	w := perform(r, "GET", "/api/v1/post/all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	posts := body["posts"].([]interface{})
	require.Len(t, posts, 2)
}
