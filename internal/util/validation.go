package util

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// IsValidUserID reports whether s is a well-formed user identity.
func IsValidUserID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// IsValidImageFile checks if a filename has a valid image extension
func IsValidImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// ValidateUsername checks the constraints on a username
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > 30 {
		return errors.New("username must be at most 30 characters")
	}
	for _, r := range username {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '.' {
			return errors.New("username may contain only letters, digits, '_' and '.'")
		}
	}
	return nil
}
