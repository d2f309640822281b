// Package handlers contains all HTTP handlers for the API.
package handlers

import (
	"github.com/snapgram/backend/internal/auth"
	"github.com/snapgram/backend/internal/chat"
	"github.com/snapgram/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API.
type Handlers struct {
	auth     *auth.Service
	chat     *chat.Service
	notifier chat.Notifier
	uploader storage.ImageUploader
}

// NewHandlers creates a new handlers instance.
func NewHandlers(authService *auth.Service, chatService *chat.Service, notifier chat.Notifier) *Handlers {
	return &Handlers{
		auth:     authService,
		chat:     chatService,
		notifier: notifier,
	}
}

// SetUploader sets the image uploader. Without one, endpoints that accept
// image uploads reject them.
func (h *Handlers) SetUploader(uploader storage.ImageUploader) {
	h.uploader = uploader
}
