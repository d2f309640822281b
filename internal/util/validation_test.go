package util

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsValidUserID(t *testing.T) {
	assert.True(t, IsValidUserID(uuid.New().String()))
	assert.False(t, IsValidUserID(""))
	assert.False(t, IsValidUserID("not-a-uuid"))
	assert.False(t, IsValidUserID("12345"))
}

func TestIsValidImageFile(t *testing.T) {
	assert.True(t, IsValidImageFile("photo.jpg"))
	assert.True(t, IsValidImageFile("photo.JPEG"))
	assert.True(t, IsValidImageFile("sticker.webp"))
	assert.False(t, IsValidImageFile("track.mp3"))
	assert.False(t, IsValidImageFile("archive"))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.NoError(t, ValidateUsername("al_ice.99"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("has space"))
	assert.Error(t, ValidateUsername("emoji🔥"))
}
