package port

import (
	"context"
	"time"
)

// BlobStore is the object-storage boundary for archive artifacts.
type BlobStore interface {
	// Put stores data under key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// PresignedGet returns a time-limited download URL for key.
	PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
