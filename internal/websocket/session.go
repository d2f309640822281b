package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/snapgram/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 32 * 1024

	// Outbound buffer size per session
	sendBufferSize = 256
)

// Ping cadence. Clients never send application frames, so liveness is checked
// from the write side; a dead peer surfaces as a ping failure. A var so tests
// can shorten the cycle.
var pingPeriod = 54 * time.Second

// Session is the ephemeral pairing of one user identity with one live
// connection. It is owned by the registry entry that maps to it; once
// replaced or unregistered it only drains and dies.
type Session struct {
	conn *websocket.Conn

	UserID     string
	CreatedAt  time.Time
	RemoteAddr string

	// Buffered channel of outbound frames. Writers never block: a full
	// buffer means the frame is dropped.
	send chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newSession(conn *websocket.Conn, userID string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		conn:      conn,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		send:      make(chan []byte, sendBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// enqueue offers a frame to the outbound buffer without blocking. It returns
// false when the session is shutting down or the buffer is full; the caller
// treats that as a drop.
func (s *Session) enqueue(data []byte) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}

	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// readPump consumes inbound frames until the peer disconnects. Clients do not
// send application messages on this channel; the loop exists to notice the
// disconnect and to let the library answer control frames. Reads block on the
// session context alone: an idle connection is healthy for as long as it
// keeps answering pings.
func (s *Session) readPump() {
	defer s.close(websocket.StatusNormalClosure, "closing")

	s.conn.SetReadLimit(maxMessageSize)

	for {
		_, _, err := s.conn.Read(s.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Log.Debug("client disconnected", zap.String("user_id", s.UserID))
			} else if s.ctx.Err() == nil {
				logger.Log.Debug("read error, dropping connection",
					zap.String("user_id", s.UserID), zap.Error(err))
			}
			return
		}
	}
}

// writePump drains the outbound buffer onto the connection and keeps the
// peer alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close(websocket.StatusNormalClosure, "closing")
	}()

	for {
		select {
		case <-s.ctx.Done():
			return

		case data := <-s.send:
			writeCtx, writeCancel := context.WithTimeout(s.ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, data)
			writeCancel()

			if err != nil {
				logger.Log.Debug("write error, dropping connection",
					zap.String("user_id", s.UserID), zap.Error(err))
				return
			}

		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(s.ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			pingCancel()

			if err != nil {
				return
			}
		}
	}
}

// close shuts the session down exactly once.
func (s *Session) close(status websocket.StatusCode, reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	if s.conn != nil {
		_ = s.conn.Close(status, reason)
	}
}

// IsClosed reports whether the session has been shut down.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
