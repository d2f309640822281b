package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/auth"
	"github.com/snapgram/backend/internal/chat"
	"github.com/snapgram/backend/internal/database"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingNotifier captures every realtime push a handler attempts.
type recordingNotifier struct {
	calls []struct {
		target string
		evt    websocket.Event
	}
}

func (n *recordingNotifier) Notify(targetUserID string, evt websocket.Event) bool {
	n.calls = append(n.calls, struct {
		target string
		evt    websocket.Event
	}{targetUserID, evt})
	return true
}

// testEnv wires handlers against an in-memory database.
type testEnv struct {
	handlers *Handlers
	notifier *recordingNotifier
	db       *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.PostLike{},
		&models.Comment{},
		&models.Bookmark{},
		&models.Conversation{},
		&models.Message{},
	))

	// Handlers reach the database through the package global.
	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	notifier := &recordingNotifier{}
	authService := auth.NewService([]byte("test-secret"))
	chatService := chat.NewService(chat.NewStore(db), notifier)

	return &testEnv{
		handlers: NewHandlers(authService, chatService, notifier),
		notifier: notifier,
		db:       db,
	}
}

// createUser inserts a user with a known password.
func (e *testEnv) createUser(t *testing.T, username, email string) models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	hashedStr := string(hashed)

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: &hashedStr,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

// createPost inserts a post for the given author.
func (e *testEnv) createPost(t *testing.T, authorID, caption string) models.Post {
	t.Helper()

	post := models.Post{
		AuthorID: authorID,
		Caption:  caption,
		ImageURL: "https://cdn.example.com/img.jpg",
	}
	require.NoError(t, e.db.Create(&post).Error)
	return post
}

// asUser returns a middleware that injects the identity the auth middleware
// would normally resolve from the token.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// perform runs a request against a router and returns the recorder.
func perform(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decode parses a JSON response body into a generic map.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
