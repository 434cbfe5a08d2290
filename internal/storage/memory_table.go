// internal/storage/memory_table.go
package storage

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
)

// MemoryTable is an in-process Table used for development and tests.
type MemoryTable[T any, PT interface {
	*T
	Entity
}] struct {
	mu   sync.RWMutex
	rows map[string]map[string]T
}

func NewMemoryTable[T any, PT interface {
	*T
	Entity
}]() *MemoryTable[T, PT] {
	return &MemoryTable[T, PT]{rows: make(map[string]map[string]T)}
}

func (t *MemoryTable[T, PT]) Get(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.rows[partitionKey][rowKey]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", partitionKey, rowKey, ErrNotFound)
	}
	return &e, nil
}

// Query snapshots the matching rows under the read lock, then yields them lazily.
func (t *MemoryTable[T, PT]) Query(ctx context.Context, filter Filter[T]) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		t.mu.RLock()
		var snapshot []T
		for pk, partition := range t.rows {
			if filter.PartitionKey != "" && pk != filter.PartitionKey {
				continue
			}
			for _, e := range partition {
				snapshot = append(snapshot, e)
			}
		}
		t.mu.RUnlock()

		sort.Slice(snapshot, func(i, j int) bool {
			a, b := PT(&snapshot[i]).Entity(), PT(&snapshot[j]).Entity()
			if a.PartitionKey != b.PartitionKey {
				return a.PartitionKey < b.PartitionKey
			}
			return a.RowKey < b.RowKey
		})

		for i := range snapshot {
			e := snapshot[i]
			if !filter.matches(&e) {
				continue
			}
			if !yield(&e, nil) {
				return
			}
		}
	}
}

func (t *MemoryTable[T, PT]) Insert(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta := PT(entity).Entity()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.rows[meta.PartitionKey][meta.RowKey]; exists {
		return fmt.Errorf("%s/%s already exists: %w", meta.PartitionKey, meta.RowKey, ErrConflict)
	}
	stamp(meta)
	t.put(meta.PartitionKey, meta.RowKey, *entity)
	return nil
}

func (t *MemoryTable[T, PT]) Upsert(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta := PT(entity).Entity()

	t.mu.Lock()
	defer t.mu.Unlock()

	stamp(meta)
	t.put(meta.PartitionKey, meta.RowKey, *entity)
	return nil
}

func (t *MemoryTable[T, PT]) Update(ctx context.Context, entity *T, etag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta := PT(entity).Entity()

	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.rows[meta.PartitionKey][meta.RowKey]
	if !ok {
		return fmt.Errorf("%s/%s: %w", meta.PartitionKey, meta.RowKey, ErrNotFound)
	}
	if PT(&current).Entity().ETag != etag {
		return fmt.Errorf("%s/%s etag is stale: %w", meta.PartitionKey, meta.RowKey, ErrConflict)
	}
	stamp(meta)
	t.put(meta.PartitionKey, meta.RowKey, *entity)
	return nil
}

func (t *MemoryTable[T, PT]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[partitionKey][rowKey]; !ok {
		return fmt.Errorf("%s/%s: %w", partitionKey, rowKey, ErrNotFound)
	}
	delete(t.rows[partitionKey], rowKey)
	return nil
}

func (t *MemoryTable[T, PT]) DeleteBatch(ctx context.Context, partitionKey string, rowKeys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rowKeys) > MaxBatchSize {
		return fmt.Errorf("%d rows: %w", len(rowKeys), ErrBatchSize)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, rk := range rowKeys {
		delete(t.rows[partitionKey], rk)
	}
	return nil
}

// Len returns the number of stored rows across all partitions.
func (t *MemoryTable[T, PT]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, partition := range t.rows {
		n += len(partition)
	}
	return n
}

func (t *MemoryTable[T, PT]) put(pk, rk string, e T) {
	partition, ok := t.rows[pk]
	if !ok {
		partition = make(map[string]T)
		t.rows[pk] = partition
	}
	partition[rk] = e
}
