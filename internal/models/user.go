package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a Snapgram account.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Bio      string `gorm:"type:text" json:"bio"`

	// Password is nullable so accounts created through an external identity
	// provider can exist without one.
	PasswordHash *string `gorm:"type:text" json:"-"`

	ProfilePictureURL string `json:"profile_picture"`

	// Cached social stats, maintained by the follow/post handlers
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	// Activity tracking, maintained by the realtime session manager
	LastActiveAt *time.Time `json:"last_active_at"`
	IsOnline     bool       `gorm:"default:false" json:"is_online"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID so the same model works on Postgres and the
// sqlite driver used in tests.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// PublicUser is the trimmed shape embedded in notifications and comment lists.
type PublicUser struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture"`
}

// Public returns the user fields safe to embed in another user's payload.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:                u.ID,
		Username:          u.Username,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}

// Follow is a directed edge: follower follows followee.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;index;uniqueIndex:idx_follow_edge" json:"follower_id"`
	FolloweeID string `gorm:"not null;index;uniqueIndex:idx_follow_edge" json:"followee_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// Bookmark marks a post saved by a user.
type Bookmark struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_bookmark" json:"user_id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_bookmark" json:"post_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (b *Bookmark) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
