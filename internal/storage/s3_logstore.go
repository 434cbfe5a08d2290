// internal/storage/s3_logstore.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3LogStore keeps log files as objects under a bucket prefix.
type S3LogStore struct {
	client *s3.S3
	bucket string
	prefix string
}

func NewS3LogStore(client *s3.S3, bucket, prefix string) *S3LogStore {
	return &S3LogStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3LogStore) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

func (s *S3LogStore) Append(ctx context.Context, category, fileName, content string) (string, error) {
	path := LogPath(category, fileName, time.Now())

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(path)),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to write log %s: %w: %v", path, ErrUnavailable, err)
	}
	return path, nil
}

func (s *S3LogStore) List(ctx context.Context, category string) ([]string, error) {
	var paths []string
	prefix := s.key(category + "/")

	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if s.prefix != "" {
				key = strings.TrimPrefix(key, s.prefix+"/")
			}
			paths = append(paths, key)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list logs in %s: %w: %v", category, ErrUnavailable, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func (s *S3LogStore) Read(ctx context.Context, path string) (string, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return "", fmt.Errorf("log %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("failed to read log %s: %w: %v", path, ErrUnavailable, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read log %s: %w", path, err)
	}
	return string(data), nil
}
