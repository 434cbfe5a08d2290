// internal/storage/gcs_blob.go
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient opens a client from a service account key file, or from
// application default credentials when keyPath is empty.
func NewGCSClient(ctx context.Context, keyPath string) (*gcs.Client, error) {
	var opts []option.ClientOption
	if keyPath != "" {
		opts = append(opts, option.WithCredentialsFile(keyPath))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return client, nil
}

type GCSBlobStore struct {
	bucket *gcs.BucketHandle
	name   string
	ttl    time.Duration
}

func NewGCSBlobStore(client *gcs.Client, bucket string, ttl time.Duration) *GCSBlobStore {
	if ttl <= 0 || ttl > DefaultSignedURLTTL {
		ttl = DefaultSignedURLTTL
	}
	return &GCSBlobStore{bucket: client.Bucket(bucket), name: bucket, ttl: ttl}
}

func (s *GCSBlobStore) Upload(ctx context.Context, r io.Reader, name, contentType string) (*BlobObject, error) {
	writer := s.bucket.Object(name).NewWriter(ctx)
	writer.ContentType = contentType

	size, err := io.Copy(writer, r)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to copy upload to gs://%s/%s: %w: %v", s.name, name, ErrUnavailable, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer for %s: %w: %v", name, ErrUnavailable, err)
	}

	expires := time.Now().UTC().Add(s.ttl)
	url, err := s.bucket.SignedURL(name, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: expires,
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign URL for %s: %w", name, err)
	}

	return &BlobObject{
		Key:         name,
		URL:         url,
		Size:        size,
		ContentType: contentType,
		ExpiresAt:   expires,
	}, nil
}
