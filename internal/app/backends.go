// internal/app/backends.go
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/abc-retail/internal/config"
	"github.com/javajoker/abc-retail/internal/database"
	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/storage"
)

// Backends holds the opened storage primitives and the resources to release
// on shutdown.
type Backends struct {
	services.Backends
	DB *gorm.DB

	closers []func()
}

// Open connects every backend selected in cfg. On error, anything already
// opened is closed.
func Open(ctx context.Context, cfg *config.Config) (_ *Backends, err error) {
	b := &Backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	b.MaxImageSize = cfg.Blob.MaxImageSize

	if err := b.openTables(cfg); err != nil {
		return nil, err
	}
	if err := b.openQueues(cfg); err != nil {
		return nil, err
	}

	var s3Client *s3.S3
	if cfg.Backends.Blob == "s3" || cfg.Backends.Log == "s3" {
		s3Client, err = storage.NewS3Client(storage.S3Options{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.Endpoint,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := b.openBlobs(ctx, cfg, s3Client); err != nil {
		return nil, err
	}
	if err := b.openLogs(cfg, s3Client); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"table": cfg.Backends.Table,
		"queue": cfg.Backends.Queue,
		"blob":  cfg.Backends.Blob,
		"log":   cfg.Backends.Log,
	}).Info("Storage backends ready")
	return b, nil
}

func (b *Backends) openTables(cfg *config.Config) error {
	switch cfg.Backends.Table {
	case "postgres":
		db, err := database.Initialize(cfg.Database)
		if err != nil {
			return err
		}
		b.DB = db
		b.closers = append(b.closers, func() { database.Close(db) })

		b.Products = storage.NewGormTable[models.Product](db)
		b.Customers = storage.NewGormTable[models.Customer](db)
		b.Carts = storage.NewGormTable[models.CartItem](db)
		b.Orders = storage.NewGormTable[models.Order](db)
	default:
		b.Products = storage.NewMemoryTable[models.Product]()
		b.Customers = storage.NewMemoryTable[models.Customer]()
		b.Carts = storage.NewMemoryTable[models.CartItem]()
		b.Orders = storage.NewMemoryTable[models.Order]()
	}
	return nil
}

func (b *Backends) openQueues(cfg *config.Config) error {
	if cfg.Backends.Queue != "rabbitmq" {
		b.Queues = services.Queues{
			OrderProcessing: storage.NewMemoryQueue(services.QueueOrderProcessing),
			InventoryUpdate: storage.NewMemoryQueue(services.QueueInventoryUpdate),
			OrderLifecycle:  storage.NewMemoryQueue(services.QueueOrderLifecycle),
			AdminActivity:   storage.NewMemoryQueue(services.QueueAdminActivity),
		}
		return nil
	}

	broker, err := storage.DialAMQP(cfg.RabbitMQ.URL, services.QueueNames...)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, broker.Close)

	queue := func(name string) storage.Queue {
		q, _ := broker.Queue(name)
		return q
	}
	b.Queues = services.Queues{
		OrderProcessing: queue(services.QueueOrderProcessing),
		InventoryUpdate: queue(services.QueueInventoryUpdate),
		OrderLifecycle:  queue(services.QueueOrderLifecycle),
		AdminActivity:   queue(services.QueueAdminActivity),
	}
	return nil
}

func (b *Backends) openBlobs(ctx context.Context, cfg *config.Config, s3Client *s3.S3) error {
	switch cfg.Backends.Blob {
	case "s3":
		b.Blobs = storage.NewS3BlobStore(s3Client, cfg.AWS.S3Bucket, cfg.Blob.SignedURLTTL)
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS.CredentialsFile)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, func() { client.Close() })
		b.Blobs = storage.NewGCSBlobStore(client, cfg.GCS.Bucket, cfg.Blob.SignedURLTTL)
	default:
		local, err := storage.NewLocalBlobStore(cfg.Blob.LocalDir, cfg.Server.BaseURL+"/uploads")
		if err != nil {
			return err
		}
		b.Blobs = local
	}
	return nil
}

func (b *Backends) openLogs(cfg *config.Config, s3Client *s3.S3) error {
	if cfg.Backends.Log == "s3" {
		b.Logs = storage.NewS3LogStore(s3Client, cfg.AWS.LogBucket, cfg.AWS.LogPrefix)
		return nil
	}

	db, err := storage.OpenBadger(cfg.LogStore.BadgerPath, logrus.WithField("component", "badger"))
	if err != nil {
		return fmt.Errorf("failed to open log store: %w", err)
	}
	b.closers = append(b.closers, func() { db.Close() })
	b.Logs = storage.NewBadgerLogStore(db)
	return nil
}

// Close releases resources in reverse order of opening.
func (b *Backends) Close() {
	if b == nil {
		return
	}
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
