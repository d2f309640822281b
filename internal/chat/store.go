// Package chat owns the durable conversation/message record and the message
// delivery pipeline that keeps it consistent with best-effort live pushes.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/snapgram/backend/internal/models"
	"gorm.io/gorm"
)

// Store is the durable record of participant pairs and their ordered message
// history. No other component mutates message history.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// normalizePair orders two user IDs so the unordered participant pair has a
// single canonical representation.
func normalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// FindOrCreateConversation returns the conversation for the unordered pair
// (userA, userB), creating it on first contact. The pair is stored
// normalized under a unique index, so a concurrent duplicate create loses
// and the loser fetches the winner's row.
func (s *Store) FindOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	ua, ub := normalizePair(userA, userB)

	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_a = ? AND user_b = ?", ua, ub).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("conversation lookup failed: %w", err)
	}

	conv = models.Conversation{UserA: ua, UserB: ub}
	if createErr := s.db.WithContext(ctx).Create(&conv).Error; createErr != nil {
		// Lost the first-message race: the unique pair index rejected the
		// duplicate, so the other writer's row must exist now.
		var existing models.Conversation
		if fetchErr := s.db.WithContext(ctx).
			Where("user_a = ? AND user_b = ?", ua, ub).
			First(&existing).Error; fetchErr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("conversation create failed: %w", createErr)
	}

	return &conv, nil
}

// FindConversation returns the conversation for the unordered pair, or
// (nil, nil) when the pair has never exchanged a message.
func (s *Store) FindConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	ua, ub := normalizePair(userA, userB)

	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_a = ? AND user_b = ?", ua, ub).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation lookup failed: %w", err)
	}
	return &conv, nil
}

// appendAttempts bounds the retries when concurrent sends race for the same
// position slot.
const appendAttempts = 3

// AppendMessage persists msg and appends it to the conversation's sequence.
// Both writes commit in one transaction so a failure cannot leave a message
// outside any conversation. Two concurrent appends can compute the same
// position; the unique position index rejects the loser, which retries
// against the winner's committed count.
func (s *Store) AppendMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) error {
	var err error
	for attempt := 0; attempt < appendAttempts; attempt++ {
		err = s.appendOnce(ctx, conv, msg)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

func (s *Store) appendOnce(ctx context.Context, conv *models.Conversation, msg *models.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ?", conv.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("message count failed: %w", err)
		}

		msg.ConversationID = conv.ID
		msg.Position = int(count) + 1

		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("message create failed: %w", err)
		}

		// Touch the conversation so its updated_at reflects the append.
		if err := tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			Update("updated_at", time.Now().UTC()).Error; err != nil {
			return fmt.Errorf("conversation update failed: %w", err)
		}

		return nil
	})
}

// ListMessages returns the conversation's full message sequence in append
// order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("position ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("message list failed: %w", err)
	}
	return messages, nil
}
