package storage

import "context"

// ImageUploader is the interface handlers depend on, so tests can swap in a
// fake without touching AWS.
type ImageUploader interface {
	UploadImage(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements ImageUploader
var _ ImageUploader = (*S3Uploader)(nil)
