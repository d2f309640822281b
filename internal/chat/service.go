package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/models"
	"github.com/snapgram/backend/internal/util"
	"github.com/snapgram/backend/internal/websocket"
	"go.uber.org/zap"
)

var (
	// ErrInvalidParticipant rejects a send before any side effect.
	ErrInvalidParticipant = errors.New("sender or receiver ID is missing or invalid")

	// ErrEmptyMessage rejects a send with no text payload.
	ErrEmptyMessage = errors.New("message text is required")
)

// Durable writes get a conservative deadline; the happy path completes in
// bounded local time regardless.
const writeTimeout = 5 * time.Second

// Notifier is the live-push half of the pipeline. Satisfied by
// *websocket.Dispatcher.
type Notifier interface {
	Notify(targetUserID string, evt websocket.Event) bool
}

// Service orchestrates the message delivery pipeline: validate, find or
// create the conversation, append the message durably, then attempt exactly
// one live push. The durable write decides the caller's response; the push
// result never does.
type Service struct {
	store    *Store
	notifier Notifier
}

// NewService creates the delivery pipeline.
func NewService(store *Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// SendMessage runs the full pipeline for one direct message and returns the
// persisted record.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, text string) (*models.Message, error) {
	if !util.IsValidUserID(senderID) || !util.IsValidUserID(receiverID) {
		return nil, ErrInvalidParticipant
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	conv, err := s.store.FindOrCreateConversation(writeCtx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
	}
	if err := s.store.AppendMessage(writeCtx, conv, msg); err != nil {
		return nil, err
	}

	// Best-effort live push. The send already succeeded; an offline
	// receiver just means the event is dropped.
	delivered := s.notifier.Notify(receiverID, websocket.Event{
		Kind:    websocket.EventNewMessage,
		Payload: msg,
	})
	if !delivered {
		logger.Log.Debug("receiver offline, live push dropped",
			zap.String("receiver_id", receiverID),
			zap.String("message_id", msg.ID))
	}

	return msg, nil
}

// GetConversation returns the ordered message history between two users. A
// pair that has never exchanged a message yields an empty slice, not an
// error.
func (s *Service) GetConversation(ctx context.Context, userA, userB string) ([]models.Message, error) {
	if !util.IsValidUserID(userA) || !util.IsValidUserID(userB) {
		return nil, ErrInvalidParticipant
	}

	readCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	conv, err := s.store.FindConversation(readCtx, userA, userB)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return []models.Message{}, nil
	}

	return s.store.ListMessages(readCtx, conv.ID)
}
