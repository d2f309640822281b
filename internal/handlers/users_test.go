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

func userRouter(env *testEnv, user *models.User) *gin.Engine {
	r := gin.New()
	group := r.Group("/api/v1/user")
	group.POST("/register", env.handlers.Register)
	group.POST("/login", env.handlers.Login)
	group.POST("/logout", env.handlers.Logout)
	if user != nil {
		authed := group.Group("")
		authed.Use(asUser(user))
		authed.GET("/:id/profile", env.handlers.GetProfile)
		authed.GET("/suggested", env.handlers.GetSuggestedUsers)
		authed.POST("/followorunfollow/:id", env.handlers.FollowOrUnfollow)
	}
	return r
}

func TestRegisterCreatesAccount(t *testing.T) {
	env := setupTestEnv(t)
	r := userRouter(env, nil)

	w := perform(r, "POST", "/api/v1/user/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	var user models.User
	require.NoError(t, env.db.First(&user, "username = ?", "alice").Error)
	assert.Equal(t, "alice@example.com", user.Email)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "password123", *user.PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")
	r := userRouter(env, nil)

	w := perform(r, "POST", "/api/v1/user/register", gin.H{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestLoginSetsTokenCookie(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")
	r := userRouter(env, nil)

	w := perform(r, "POST", "/api/v1/user/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["message"], "alice")
	assert.NotEmpty(t, body["token"])

	cookies := w.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == "token" && cookie.Value != "" {
			found = true
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, found, "login must set the token cookie")
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")
	r := userRouter(env, nil)

	w := perform(r, "POST", "/api/v1/user/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFollowNotifiesTarget(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")

	r := userRouter(env, &alice)
	w := perform(r, "POST", "/api/v1/user/followorunfollow/"+bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var reloadedBob, reloadedAlice models.User
	require.NoError(t, env.db.First(&reloadedBob, "id = ?", bob.ID).Error)
	require.NoError(t, env.db.First(&reloadedAlice, "id = ?", alice.ID).Error)
	assert.Equal(t, 1, reloadedBob.FollowerCount)
	assert.Equal(t, 1, reloadedAlice.FollowingCount)

	require.Len(t, env.notifier.calls, 1)
	assert.Equal(t, bob.ID, env.notifier.calls[0].target)
	assert.Equal(t, websocket.EventFollow, env.notifier.calls[0].evt.Kind)

	payload := env.notifier.calls[0].evt.Payload.(websocket.NotificationPayload)
	assert.Equal(t, "follow", payload.Type)
	assert.Equal(t, alice.ID, payload.UserID)
	assert.Equal(t, "alice", payload.UserDetails.Username)
}

func TestUnfollowDoesNotNotify(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")

	r := userRouter(env, &alice)
	require.Equal(t, http.StatusOK,
		perform(r, "POST", "/api/v1/user/followorunfollow/"+bob.ID, nil).Code)
	env.notifier.calls = nil

	w := perform(r, "POST", "/api/v1/user/followorunfollow/"+bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, env.notifier.calls)

	var reloadedBob models.User
	require.NoError(t, env.db.First(&reloadedBob, "id = ?", bob.ID).Error)
	assert.Equal(t, 0, reloadedBob.FollowerCount)
}

func TestFollowSelfRejected(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")

	r := userRouter(env, &alice)
	w := perform(r, "POST", "/api/v1/user/followorunfollow/"+alice.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProfileNotFound(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")

	r := userRouter(env, &alice)

	w := perform(r, "GET", "/api/v1/user/not-a-uuid/profile", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, "GET", "/api/v1/user/00000000-0000-0000-0000-000000000000/profile", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSuggestedUsersMarksFollowing(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")
	env.createUser(t, "charlie", "charlie@example.com")

	r := userRouter(env, &alice)
	require.Equal(t, http.StatusOK,
		perform(r, "POST", "/api/v1/user/followorunfollow/"+bob.ID, nil).Code)

	w := perform(r, "GET", "/api/v1/user/suggested", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	users := body["users"].([]interface{})
	require.Len(t, users, 2)

	byName := map[string]bool{}
	for _, raw := range users {
		u := raw.(map[string]interface{})
		byName[u["username"].(string)] = u["isFollowing"].(bool)
	}
	assert.True(t, byName["bob"])
	assert.False(t, byName["charlie"])
	assert.NotContains(t, byName, "alice")
}
