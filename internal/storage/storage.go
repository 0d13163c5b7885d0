package storage

import (
	"context"
	"io"
)

// Store defines the interface for asset file storage. Keys are
// forward-slash-separated relative paths such as "products/<uuid>.jpg".
type Store interface {
	// Upload writes a file under the given key and returns its key and URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes a file by its key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a file with the given key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// UploadInput holds the parameters for uploading a file.
type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Key string
	URL string
}
