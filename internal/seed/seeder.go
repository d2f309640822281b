// Package seed fills the database with realistic development data.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/snapgram/backend/internal/chat"
	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations.
type Seeder struct {
	db    *gorm.DB
	store *chat.Store
}

// NewSeeder creates a new seeder instance.
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, store: chat.NewStore(db)}
}

// SeedDev seeds the development database with realistic data.
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follow edges...")
	if err := s.seedFollows(users, 200); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, 150)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, posts, 400); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating likes...")
	if err := s.seedLikes(users, posts, 600); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	log("Creating conversations...")
	if err := s.seedConversations(users, 30); err != nil {
		return fmt.Errorf("failed to seed conversations: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with minimal, deterministic data.
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		username string
		email    string
	}{
		{"alice", "alice@example.com"},
		{"bob", "bob@example.com"},
		{"charlie", "charlie@example.com"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		user = models.User{
			Email:             spec.email,
			Username:          spec.username,
			PasswordHash:      &hashedPasswordStr,
			ProfilePictureURL: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	posts, err := s.seedPosts(users, 5)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}
	if err := s.seedComments(users, posts, 10); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	return nil
}

// Clean removes all seed data. Deletes run in reverse dependency order.
func (s *Seeder) Clean() error {
	tables := []string{
		"messages", "conversations", "bookmarks", "post_likes",
		"comments", "posts", "follows", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

// seedUsers creates users with realistic data. Existing seed users are
// reused instead of duplicated.
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		var users []models.User
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing users, skipping creation",
			zap.Int("total_users", len(users)))
		return users, nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPasswordStr := string(hashedPassword)

	var users []models.User
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := gofakeit.Email()

		var existing models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = gofakeit.Email()
		}

		user := models.User{
			Email:             email,
			Username:          username,
			Bio:               gofakeit.HipsterSentence(),
			PasswordHash:      &hashedPasswordStr,
			ProfilePictureURL: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			IsOnline:          rand.Float32() < 0.3,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// seedFollows creates random follow edges and keeps the cached counters in
// step.
func (s *Seeder) seedFollows(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		follower := users[rand.Intn(len(users))]
		followee := users[rand.Intn(len(users))]
		if follower.ID == followee.ID {
			continue
		}

		var existing models.Follow
		if err := s.db.Where("follower_id = ? AND followee_id = ?", follower.ID, followee.ID).
			First(&existing).Error; err == nil {
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", follower.ID).
				UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", followee.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error
		})
		if err != nil {
			return err
		}
		created++
	}

	return nil
}

// seedPosts creates posts with placeholder images.
func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}

	var posts []models.Post
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := models.Post{
			AuthorID: author.ID,
			Caption:  gofakeit.Sentence(rand.Intn(10) + 3),
			ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&post).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", author.ID).
				UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// seedComments creates comments on random posts.
func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		err := s.db.Transaction(func(tx *gorm.DB) error {
			comment := models.Comment{
				PostID:   post.ID,
				AuthorID: author.ID,
				Text:     gofakeit.Sentence(rand.Intn(8) + 2),
			}
			if err := tx.Create(&comment).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
		})
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
	}

	return nil
}

// seedLikes creates likes on random posts, skipping duplicates.
func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		var existing models.PostLike
		if err := s.db.Where("post_id = ? AND user_id = ?", post.ID, user.ID).
			First(&existing).Error; err == nil {
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&models.PostLike{PostID: post.ID, UserID: user.ID}).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		})
		if err != nil {
			return err
		}
		created++
	}

	return nil
}

// seedConversations creates direct-message threads between random pairs,
// using the same store the API uses so positions stay consistent.
func (s *Seeder) seedConversations(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	ctx := context.Background()
	for i := 0; i < count; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		conv, err := s.store.FindOrCreateConversation(ctx, a.ID, b.ID)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		messageCount := rand.Intn(8) + 2
		for j := 0; j < messageCount; j++ {
			sender, receiver := a, b
			if rand.Intn(2) == 0 {
				sender, receiver = b, a
			}
			msg := &models.Message{
				SenderID:   sender.ID,
				ReceiverID: receiver.ID,
				Text:       gofakeit.Sentence(rand.Intn(10) + 1),
			}
			if err := s.store.AppendMessage(ctx, conv, msg); err != nil {
				return fmt.Errorf("failed to append message: %w", err)
			}
		}
	}

	return nil
}
