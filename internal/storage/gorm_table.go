// internal/storage/gorm_table.go
package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"iter"
	"net"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/abc-retail/internal/database"
)

// GormTable stores one entity type in a PostgreSQL table keyed by
// (partition_key, row_key).
type GormTable[T any, PT interface {
	*T
	Entity
}] struct {
	db *gorm.DB
}

func NewGormTable[T any, PT interface {
	*T
	Entity
}](db *gorm.DB) *GormTable[T, PT] {
	return &GormTable[T, PT]{db: db}
}

func (t *GormTable[T, PT]) Get(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	var e T
	err := t.db.WithContext(ctx).
		Where("partition_key = ? AND row_key = ?", partitionKey, rowKey).
		Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", partitionKey, rowKey, ErrNotFound)
		}
		return nil, classify("get", err)
	}
	return &e, nil
}

// Query streams rows with a server-side cursor; Match is applied in process.
func (t *GormTable[T, PT]) Query(ctx context.Context, filter Filter[T]) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		q := t.db.WithContext(ctx).Model(new(T))
		if filter.PartitionKey != "" {
			q = q.Where("partition_key = ?", filter.PartitionKey)
		}

		rows, err := q.Order("partition_key").Order("row_key").Rows()
		if err != nil {
			yield(nil, classify("query", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var e T
			if err := t.db.ScanRows(rows, &e); err != nil {
				yield(nil, classify("scan", err))
				return
			}
			if !filter.matches(&e) {
				continue
			}
			if !yield(&e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, classify("query", err))
		}
	}
}

func (t *GormTable[T, PT]) Insert(ctx context.Context, entity *T) error {
	meta := PT(entity).Entity()
	prev := *meta
	stamp(meta)

	if err := t.db.WithContext(ctx).Create(entity).Error; err != nil {
		*meta = prev
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s/%s already exists: %w", meta.PartitionKey, meta.RowKey, ErrConflict)
		}
		return classify("insert", err)
	}
	return nil
}

func (t *GormTable[T, PT]) Upsert(ctx context.Context, entity *T) error {
	meta := PT(entity).Entity()
	prev := *meta
	stamp(meta)

	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "partition_key"}, {Name: "row_key"}},
			UpdateAll: true,
		}).
		Create(entity).Error
	if err != nil {
		*meta = prev
		return classify("upsert", err)
	}
	return nil
}

func (t *GormTable[T, PT]) Update(ctx context.Context, entity *T, etag string) error {
	meta := PT(entity).Entity()
	prev := *meta
	stamp(meta)

	res := t.db.WithContext(ctx).
		Model(entity).
		Where("etag = ?", etag).
		Select("*").
		Updates(entity)
	if res.Error != nil {
		*meta = prev
		return classify("update", res.Error)
	}
	if res.RowsAffected == 0 {
		*meta = prev
		if _, err := t.Get(ctx, meta.PartitionKey, meta.RowKey); err != nil {
			return err
		}
		return fmt.Errorf("%s/%s etag is stale: %w", meta.PartitionKey, meta.RowKey, ErrConflict)
	}
	return nil
}

func (t *GormTable[T, PT]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	res := t.db.WithContext(ctx).
		Where("partition_key = ? AND row_key = ?", partitionKey, rowKey).
		Delete(new(T))
	if res.Error != nil {
		return classify("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", partitionKey, rowKey, ErrNotFound)
	}
	return nil
}

func (t *GormTable[T, PT]) DeleteBatch(ctx context.Context, partitionKey string, rowKeys []string) error {
	if len(rowKeys) > MaxBatchSize {
		return fmt.Errorf("%d rows: %w", len(rowKeys), ErrBatchSize)
	}
	if len(rowKeys) == 0 {
		return nil
	}

	err := database.WithTransaction(t.db.WithContext(ctx), func(tx *gorm.DB) error {
		return tx.Where("partition_key = ? AND row_key IN ?", partitionKey, rowKeys).
			Delete(new(T)).Error
	})
	if err != nil {
		return classify("delete batch", err)
	}
	return nil
}

// classify marks connection-level failures as ErrUnavailable.
func classify(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
