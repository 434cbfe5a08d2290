// internal/storage/blob.go
package storage

import (
	"context"
	"io"
	"time"
)

// DefaultSignedURLTTL is the longest validity SigV4 presigning allows.
const DefaultSignedURLTTL = 7 * 24 * time.Hour

type BlobObject struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// BlobStore uploads an object and returns a time-limited read URL for it.
type BlobStore interface {
	Upload(ctx context.Context, r io.Reader, name, contentType string) (*BlobObject, error)
}
