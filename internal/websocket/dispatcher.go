package websocket

import (
	"encoding/json"

	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/metrics"
	"go.uber.org/zap"
)

// Dispatcher routes a transient event to the live session of its target
// user, if there is one.
//
// Delivery is at-most-once and non-durable: the event is offered to the
// session's outbound buffer exactly once, at call time. No registered
// session, a closing session, or a full buffer all count as a drop. Drops
// are reported to the caller only through the boolean return; they are never
// errors.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Notify pushes evt to targetUserID's current session. Returns true when the
// event was handed to the session's outbound buffer, false when it was
// dropped. A false return has no side effects.
func (d *Dispatcher) Notify(targetUserID string, evt Event) bool {
	session, ok := d.registry.Lookup(targetUserID)
	if !ok {
		metrics.NotificationsDropped.WithLabelValues(string(evt.Kind)).Inc()
		return false
	}

	data, err := json.Marshal(NewMessage(wireType(evt.Kind), evt.Payload))
	if err != nil {
		logger.Log.Error("failed to encode notification",
			zap.String("kind", string(evt.Kind)), zap.Error(err))
		metrics.NotificationsDropped.WithLabelValues(string(evt.Kind)).Inc()
		return false
	}

	if !session.enqueue(data) {
		// Session is closing or its buffer is full. Best-effort contract:
		// the event is lost.
		logger.Log.Debug("notification dropped",
			zap.String("user_id", targetUserID),
			zap.String("kind", string(evt.Kind)))
		metrics.NotificationsDropped.WithLabelValues(string(evt.Kind)).Inc()
		return false
	}

	metrics.NotificationsDelivered.WithLabelValues(string(evt.Kind)).Inc()
	return true
}
