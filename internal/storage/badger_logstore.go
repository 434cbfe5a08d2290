// internal/storage/badger_logstore.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

const badgerLogPrefix = "log/"

// OpenBadger opens an embedded database at path, or in memory when path is empty.
func OpenBadger(path string, logger logrus.FieldLogger) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}

	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// badgerLogger adapts logrus to badger's Logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// BadgerLogStore keeps log files as keys "log/<path>" in an embedded database.
type BadgerLogStore struct {
	db *badger.DB
}

func NewBadgerLogStore(db *badger.DB) *BadgerLogStore {
	return &BadgerLogStore{db: db}
}

func (s *BadgerLogStore) Append(ctx context.Context, category, fileName, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := LogPath(category, fileName, time.Now())
	key := []byte(badgerLogPrefix + path)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("log %s: %w", path, ErrConflict)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, []byte(content))
	})
	if err != nil {
		return "", fmt.Errorf("failed to write log %s: %w", path, err)
	}
	return path, nil
}

func (s *BadgerLogStore) List(ctx context.Context, category string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(badgerLogPrefix + category + "/")
	var paths []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			paths = append(paths, string(it.Item().KeyCopy(nil)[len(badgerLogPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list logs in %s: %w", category, err)
	}
	return paths, nil
}

func (s *BadgerLogStore) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var content []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerLogPrefix + path))
		if err != nil {
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", fmt.Errorf("log %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("failed to read log %s: %w", path, err)
	}
	return string(content), nil
}
