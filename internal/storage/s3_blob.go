// internal/storage/s3_blob.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// NewS3Client builds a client from static credentials, falling back to the
// default credential chain when no key is configured.
func NewS3Client(opts S3Options) (*s3.S3, error) {
	cfg := &aws.Config{Region: aws.String(opts.Region)}
	if opts.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, "")
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return s3.New(sess), nil
}

type S3BlobStore struct {
	client *s3.S3
	bucket string
	ttl    time.Duration
}

func NewS3BlobStore(client *s3.S3, bucket string, ttl time.Duration) *S3BlobStore {
	if ttl <= 0 || ttl > DefaultSignedURLTTL {
		ttl = DefaultSignedURLTTL
	}
	return &S3BlobStore{client: client, bucket: bucket, ttl: ttl}
}

func (s *S3BlobStore) Upload(ctx context.Context, r io.Reader, name, contentType string) (*BlobObject, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w: %v", ErrUnavailable, err)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	url, err := req.Presign(s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &BlobObject{
		Key:         name,
		URL:         url,
		Size:        int64(len(body)),
		ContentType: contentType,
		ExpiresAt:   time.Now().UTC().Add(s.ttl),
	}, nil
}
