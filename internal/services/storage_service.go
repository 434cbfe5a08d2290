// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/abc-retail/internal/storage"
	"github.com/javajoker/abc-retail/internal/utils"
)

// DefaultMaxImageSize applies when no limit is configured.
const DefaultMaxImageSize = 10 * 1024 * 1024

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type StorageService struct {
	blobs   storage.BlobStore
	maxSize int64
	now     func() time.Time
}

type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type UploadResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type"`
	Checksum  string    `json:"checksum"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func NewStorageService(blobs storage.BlobStore, maxSize int64) *StorageService {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	return &StorageService{blobs: blobs, maxSize: maxSize, now: time.Now}
}

// UploadImage validates the file and stores it under folder. Rejections are
// reported as a FieldError on "image".
func (s *StorageService) UploadImage(ctx context.Context, upload *ImageUpload, folder string) (*UploadResult, error) {
	if upload == nil || upload.Content == nil {
		return nil, &FieldError{Field: "image", Message: "no file provided"}
	}
	if upload.Size > s.maxSize {
		return nil, &FieldError{
			Field:   "image",
			Message: fmt.Sprintf("file size %d bytes exceeds maximum allowed size %d bytes", upload.Size, s.maxSize),
		}
	}

	ext := strings.ToLower(filepath.Ext(upload.FileName))
	if !allowedImageExtensions[ext] {
		return nil, &FieldError{Field: "image", Message: fmt.Sprintf("file type %s is not allowed", ext)}
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, s.maxSize+1))
	if err != nil {
		return nil, &FieldError{Field: "image", Message: "failed to read file", Err: err}
	}
	if int64(len(data)) > s.maxSize {
		return nil, &FieldError{Field: "image", Message: "file exceeds maximum allowed size"}
	}
	if !isValidImageType(data) {
		return nil, &FieldError{Field: "image", Message: "invalid image file"}
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.generateFileName(upload.FileName, folder)
	obj, err := s.blobs.Upload(ctx, bytes.NewReader(data), key, contentType)
	if err != nil {
		return nil, &FieldError{Field: "image", Message: "failed to upload image", Err: err}
	}

	return &UploadResult{
		URL:       obj.URL,
		Key:       obj.Key,
		Size:      obj.Size,
		MimeType:  contentType,
		Checksum:  utils.HashBytes(data),
		ExpiresAt: obj.ExpiresAt,
	}, nil
}

func (s *StorageService) generateFileName(originalName, folder string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	filename := fmt.Sprintf("%s_%s%s", s.now().UTC().Format("20060102"), uuid.NewString()[:8], ext)
	if folder != "" {
		return folder + "/" + filename
	}
	return filename
}

func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}
	// PNG
	if len(buffer) >= 8 && bytes.Equal(buffer[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) {
		return true
	}
	// GIF
	if len(buffer) >= 6 && (string(buffer[:6]) == "GIF87a" || string(buffer[:6]) == "GIF89a") {
		return true
	}
	// WebP
	if len(buffer) >= 12 && string(buffer[:4]) == "RIFF" && string(buffer[8:12]) == "WEBP" {
		return true
	}
	return false
}
