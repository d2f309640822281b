package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/database"
	"github.com/snapgram/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(NewRegistry())
	r := gin.New()
	r.GET("/ws", h.HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return h, srv
}

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user_id=" + userID
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func setupPresenceDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	database.DB = db
	t.Cleanup(func() { database.DB = nil })
	return db
}

func userIsOnline(db *gorm.DB, id string) bool {
	var u models.User
	return db.First(&u, "id = ?", id).Error == nil && u.IsOnline
}

func TestHandleConnectionRegistersSession(t *testing.T) {
	h, srv := newTestServer(t)

	conn := dialWS(t, srv, "u1")
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return h.Registry().IsOnline("u1") },
		2*time.Second, 10*time.Millisecond, "connection must register a session")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeOnlineUsers, msg.Type)

	var online []string
	require.NoError(t, msg.ParsePayload(&online))
	assert.Contains(t, online, "u1")

	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return !h.Registry().IsOnline("u1") },
		2*time.Second, 10*time.Millisecond, "disconnect must unregister the session")
}

func TestReconnectReplacesPriorConnection(t *testing.T) {
	h, srv := newTestServer(t)

	first := dialWS(t, srv, "u1")
	require.Eventually(t, func() bool { return h.Registry().IsOnline("u1") },
		2*time.Second, 10*time.Millisecond)

	second := dialWS(t, srv, "u1")
	defer second.Close(websocket.StatusNormalClosure, "")

	// The server closes the replaced connection; drain it until the close
	// frame surfaces.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var err error
	for err == nil {
		_, _, err = first.Read(ctx)
	}
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))

	assert.True(t, h.Registry().IsOnline("u1"))
	assert.Equal(t, 1, h.Registry().Len())
}

func TestIdleConnectionSurvivesPingCycles(t *testing.T) {
	prevPeriod := pingPeriod
	pingPeriod = 20 * time.Millisecond
	t.Cleanup(func() { pingPeriod = prevPeriod })

	h, srv := newTestServer(t)

	conn := dialWS(t, srv, "u1")
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Keep a reader running so the client answers the server's pings.
	readCtx, readCancel := context.WithCancel(context.Background())
	defer readCancel()
	go func() {
		for {
			if _, _, err := conn.Read(readCtx); err != nil {
				return
			}
		}
	}()

	require.Eventually(t, func() bool { return h.Registry().IsOnline("u1") },
		2*time.Second, 10*time.Millisecond)

	// Many ping cycles pass with no application frames in either direction;
	// the idle session must stay registered and deliverable.
	time.Sleep(300 * time.Millisecond)
	assert.True(t, h.Registry().IsOnline("u1"))

	delivered := NewDispatcher(h.Registry()).Notify("u1", Event{
		Kind:    EventLike,
		Payload: NotificationPayload{Type: "like", UserID: "u2"},
	})
	assert.True(t, delivered)
}

func TestPresenceMirroredToUserRecord(t *testing.T) {
	db := setupPresenceDB(t)
	require.NoError(t, db.Create(&models.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
	}).Error)

	h, srv := newTestServer(t)

	conn := dialWS(t, srv, "u1")
	require.Eventually(t, func() bool { return userIsOnline(db, "u1") },
		2*time.Second, 10*time.Millisecond, "connect must mark the user online")

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return h.Registry().Len() == 0 },
		2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !userIsOnline(db, "u1") },
		2*time.Second, 10*time.Millisecond, "disconnect must mark the user offline")
}

func TestRapidReconnectEndsOffline(t *testing.T) {
	db := setupPresenceDB(t)
	require.NoError(t, db.Create(&models.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
	}).Error)

	h, srv := newTestServer(t)

	// Churn through quick connect/disconnect cycles without waiting for the
	// server side to settle in between.
	for i := 0; i < 5; i++ {
		conn := dialWS(t, srv, "u1")
		conn.Close(websocket.StatusNormalClosure, "")
	}

	require.Eventually(t, func() bool { return h.Registry().Len() == 0 },
		2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !userIsOnline(db, "u1") },
		2*time.Second, 10*time.Millisecond, "presence record must settle offline")
}
