package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/database"
	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/metrics"
	"github.com/snapgram/backend/internal/models"
	"go.uber.org/zap"
)

// Handler is the session manager: it accepts websocket upgrades, maintains
// the registry through connect/disconnect, and broadcasts the presence
// snapshot after every registry change.
type Handler struct {
	registry *Registry

	// Serializes durable presence writes so a slow write from an old
	// connection cannot land after a newer one.
	presenceMu sync.Mutex
}

// NewHandler creates a session manager over the given registry.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Registry returns the registry the handler maintains.
func (h *Handler) Registry() *Registry {
	return h.registry
}

// HandleConnection upgrades the request and runs the session until the peer
// disconnects.
//
// The claimed user identity comes from the gin context when the auth
// middleware ran, otherwise from the user_id handshake query parameter. The
// session manager does not verify the value; validating it is the caller's
// responsibility.
func (h *Handler) HandleConnection(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		userID = c.Query("user_id")
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "user_id is required"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := newSession(conn, userID)
	session.RemoteAddr = c.ClientIP()

	// Last-connect-wins: evict and close any previous connection for this
	// identity.
	if prev := h.registry.Register(userID, session); prev != nil {
		prev.close(websocket.StatusPolicyViolation, "replaced by newer connection")
	}

	metrics.WSConnectionsTotal.Inc()
	metrics.WSActiveConnections.Inc()
	logger.Log.Info("client connected",
		zap.String("user_id", userID),
		zap.Int("online", h.registry.Len()))

	h.syncPresence(userID)
	h.BroadcastOnlineUsers()

	go session.writePump()
	session.readPump() // blocks until disconnect

	metrics.WSActiveConnections.Dec()

	// Only the session that still owns the registry entry tears it down; a
	// stale disconnect racing a reconnect must not evict the new session.
	if h.registry.Unregister(userID, session) {
		h.syncPresence(userID)
		h.BroadcastOnlineUsers()
	}

	logger.Log.Info("client disconnected",
		zap.String("user_id", userID),
		zap.Int("online", h.registry.Len()))
}

// BroadcastOnlineUsers pushes the current presence snapshot to every live
// session. Sends are non-blocking; a session that cannot keep up misses the
// snapshot and catches the next one.
func (h *Handler) BroadcastOnlineUsers() {
	snapshot := h.registry.OnlineUsers()

	data, err := json.Marshal(NewMessage(MessageTypeOnlineUsers, snapshot))
	if err != nil {
		logger.Log.Error("failed to encode presence snapshot", zap.Error(err))
		return
	}

	for _, session := range h.registry.Sessions() {
		session.enqueue(data)
	}
}

// syncPresence mirrors the user's presence into the durable user record. The
// registry is read under the same lock that orders the writes, so whichever
// write lands last carries the registry state current at that moment.
func (h *Handler) syncPresence(userID string) {
	if database.DB == nil {
		return
	}

	h.presenceMu.Lock()
	defer h.presenceMu.Unlock()

	updates := map[string]interface{}{
		"is_online":      h.registry.IsOnline(userID),
		"last_active_at": time.Now().UTC(),
	}
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		logger.WarnWithFields("failed to update user presence", err)
	}
}

// HandleOnlineStatus reports whether each requested user holds a live
// session.
// POST /api/v1/ws/online
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	statuses := make(map[string]bool, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		statuses[userID] = h.registry.IsOnline(userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"statuses":  statuses,
		"timestamp": time.Now().UTC(),
	})
}

// HandleMetrics returns the realtime state for monitoring.
// GET /api/v1/ws/metrics
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"online_users": h.registry.OnlineUsers(),
		"connections":  h.registry.Len(),
		"timestamp":    time.Now().UTC(),
	})
}

// Shutdown closes every live connection. The registry empties as each
// session's read pump unwinds.
func (h *Handler) Shutdown() {
	for _, session := range h.registry.Sessions() {
		session.close(websocket.StatusGoingAway, "server shutdown")
	}
}
