// internal/storage/table.go
package storage

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/abc-retail/internal/models"
)

var (
	ErrNotFound    = errors.New("entity not found")
	ErrConflict    = errors.New("entity conflict")
	ErrUnavailable = errors.New("storage unavailable")
	ErrBatchSize   = errors.New("batch exceeds maximum size")
)

// MaxBatchSize is the largest number of operations a single batch may carry.
const MaxBatchSize = 100

// Entity is implemented by every model embedding models.TableEntity.
type Entity interface {
	Entity() *models.TableEntity
}

// Filter narrows a query. An empty PartitionKey scans all partitions.
type Filter[T any] struct {
	PartitionKey string
	Match        func(*T) bool
}

func (f Filter[T]) matches(e *T) bool {
	return f.Match == nil || f.Match(e)
}

type Table[T any] interface {
	Get(ctx context.Context, partitionKey, rowKey string) (*T, error)
	Query(ctx context.Context, filter Filter[T]) iter.Seq2[*T, error]
	Insert(ctx context.Context, entity *T) error
	Upsert(ctx context.Context, entity *T) error
	// Update replaces the stored entity only if its etag still equals etag.
	Update(ctx context.Context, entity *T, etag string) error
	Delete(ctx context.Context, partitionKey, rowKey string) error
	// DeleteBatch removes up to MaxBatchSize rows of one partition atomically.
	DeleteBatch(ctx context.Context, partitionKey string, rowKeys []string) error
}

// Collect drains a query into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[*T, error]) ([]T, error) {
	var out []T
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// Chunk splits keys into slices no longer than MaxBatchSize.
func Chunk(keys []string) [][]string {
	var chunks [][]string
	for len(keys) > MaxBatchSize {
		chunks = append(chunks, keys[:MaxBatchSize])
		keys = keys[MaxBatchSize:]
	}
	if len(keys) > 0 {
		chunks = append(chunks, keys)
	}
	return chunks
}

// stamp assigns a fresh etag and timestamp before a write.
func stamp(e *models.TableEntity) {
	e.ETag = uuid.NewString()
	e.Timestamp = time.Now().UTC()
}
