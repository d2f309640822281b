package websocket

import (
	"encoding/json"
	"time"

	"github.com/snapgram/backend/internal/models"
)

// Wire message types pushed to clients
const (
	// MessageTypeOnlineUsers carries the full presence snapshot, emitted to
	// every live session after each registry change.
	MessageTypeOnlineUsers = "getOnlineUsers"

	// MessageTypeNewMessage carries the full direct-message record, sent to
	// the receiver only.
	MessageTypeNewMessage = "newMessage"

	// MessageTypeNotification carries like/dislike/comment/follow events,
	// sent to the owning user only.
	MessageTypeNotification = "notification"

	MessageTypeSystem = "system"
	MessageTypeError  = "error"
)

// Message is the envelope for everything written to a client connection.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates an envelope with the current timestamp.
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ParsePayload unmarshals the payload into a concrete type. Useful on the
// receiving side of tests where Payload decoded as map[string]interface{}.
func (m *Message) ParsePayload(target interface{}) error {
	if m.Payload == nil {
		return nil
	}
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// EventKind classifies a notification event.
type EventKind string

const (
	EventNewMessage EventKind = "new-message"
	EventLike       EventKind = "like"
	EventDislike    EventKind = "dislike"
	EventComment    EventKind = "comment"
	EventFollow     EventKind = "follow"
)

// Event is the transient value handed to the dispatcher: a kind plus the
// payload to push. It exists only for the duration of a Notify call and is
// never persisted.
type Event struct {
	Kind    EventKind
	Payload interface{}
}

// wireType maps an event kind to the message type clients listen on. New
// messages ride their own event; everything else is a generic notification.
func wireType(kind EventKind) string {
	if kind == EventNewMessage {
		return MessageTypeNewMessage
	}
	return MessageTypeNotification
}

// NotificationPayload is the body of a like/dislike/comment/follow push.
type NotificationPayload struct {
	Type        string            `json:"type"`
	UserID      string            `json:"userId"`
	UserDetails models.PublicUser `json:"userDetails"`
	PostID      string            `json:"postId,omitempty"`
	Message     string            `json:"message"`
}

// SystemPayload is the body of server-originated housekeeping messages.
type SystemPayload struct {
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
}
