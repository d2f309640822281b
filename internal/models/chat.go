package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation groups every message exchanged between exactly two users.
//
// The participant pair is stored normalized (UserA < UserB lexicographically)
// and covered by a unique index, so lookups are order-independent and two
// concurrent first-messages between the same pair cannot create two rows.
type Conversation struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	UserA string `gorm:"not null;index;uniqueIndex:idx_conversation_pair" json:"user_a"`
	UserB string `gorm:"not null;index;uniqueIndex:idx_conversation_pair" json:"user_b"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Message is one direct message. Immutable once created; Position is its
// 1-based slot in the conversation's append order.
type Message struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ConversationID string `gorm:"not null;index;uniqueIndex:idx_message_position" json:"conversation_id"`
	Position       int    `gorm:"not null;uniqueIndex:idx_message_position" json:"-"`

	SenderID   string `gorm:"not null;index" json:"senderId"`
	ReceiverID string `gorm:"not null;index" json:"receiverId"`
	Text       string `gorm:"type:text;not null" json:"message"`

	CreatedAt time.Time `json:"createdAt"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
