package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/database"
	"github.com/snapgram/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) *Service {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	return NewService([]byte("test-secret"))
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc := setupAuthTest(t)

	resp, err := svc.Register(RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)

	loggedIn, err := svc.Login(LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	user, err := svc.ValidateToken(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.NotNil(t, user.LastActiveAt)
}

func TestRegisterDuplicateChecksAreCaseInsensitive(t *testing.T) {
	svc := setupAuthTest(t)

	_, err := svc.Register(RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Register(RegisterRequest{
		Email:    "ALICE@example.com",
		Username: "other",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.Register(RegisterRequest{
		Email:    "other@example.com",
		Username: "Alice",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLoginWrongPasswordAndUnknownUser(t *testing.T) {
	svc := setupAuthTest(t)

	_, err := svc.Register(RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Login(LoginRequest{Email: "alice@example.com", Password: "nope-nope-nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := setupAuthTest(t)

	resp, err := svc.Register(RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	other := NewService([]byte("different-secret"))
	_, err = other.ValidateToken(resp.Token)
	assert.Error(t, err)
}

func TestMiddlewareAcceptsCookieHeaderAndQuery(t *testing.T) {
	svc := setupAuthTest(t)

	resp, err := svc.Register(RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", svc.Middleware(), func(c *gin.Context) {
		userID := c.GetString("user_id")
		c.JSON(http.StatusOK, gin.H{"id": userID})
	})

	cases := []struct {
		name    string
		prepare func(req *http.Request)
		want    int
	}{
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "token", Value: resp.Token})
		}, http.StatusOK},
		{"bearer header", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+resp.Token)
		}, http.StatusOK},
		{"query param", func(req *http.Request) {
			q := req.URL.Query()
			q.Set("token", resp.Token)
			req.URL.RawQuery = q.Encode()
		}, http.StatusOK},
		{"missing token", func(req *http.Request) {}, http.StatusUnauthorized},
		{"garbage token", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer not.a.token")
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			tc.prepare(req)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
