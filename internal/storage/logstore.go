// internal/storage/logstore.go
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LogStore is an append-only file store organized by category. Every append
// creates a new file; nothing is ever overwritten.
type LogStore interface {
	Append(ctx context.Context, category, fileName, content string) (string, error)
	List(ctx context.Context, category string) ([]string, error)
	Read(ctx context.Context, path string) (string, error)
}

// LogPath builds "category/20060102_150405_abcd1234_fileName".
func LogPath(category, fileName string, at time.Time) string {
	return fmt.Sprintf("%s/%s_%s_%s",
		category,
		at.UTC().Format("20060102_150405"),
		uuid.NewString()[:8],
		fileName,
	)
}

// CategoryOf returns the category segment of a stored log path.
func CategoryOf(path string) string {
	category, _, _ := strings.Cut(path, "/")
	return category
}
