// internal/services/queue_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/storage"
	"github.com/javajoker/abc-retail/internal/telemetry"
)

// Queue names
const (
	QueueOrderProcessing = "order-processing"
	QueueInventoryUpdate = "inventory-update"
	QueueOrderLifecycle  = "order-lifecycle"
	QueueAdminActivity   = "admin-activity"
)

var QueueNames = []string{
	QueueOrderProcessing,
	QueueInventoryUpdate,
	QueueOrderLifecycle,
	QueueAdminActivity,
}

type Queues struct {
	OrderProcessing storage.Queue
	InventoryUpdate storage.Queue
	OrderLifecycle  storage.Queue
	AdminActivity   storage.Queue
}

// QueueService serializes typed messages onto the four work queues.
type QueueService struct {
	queues Queues
}

type QueueLength struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
}

func NewQueueService(queues Queues) *QueueService {
	return &QueueService{queues: queues}
}

func (s *QueueService) SendOrderProcessing(ctx context.Context, msg *models.OrderProcessingMessage) error {
	return enqueue(ctx, s.queues.OrderProcessing, msg)
}

func (s *QueueService) SendInventoryUpdate(ctx context.Context, msg *models.InventoryUpdateMessage) error {
	return enqueue(ctx, s.queues.InventoryUpdate, msg)
}

func (s *QueueService) SendOrderLifecycle(ctx context.Context, msg *models.OrderLifecycleMessage) error {
	return enqueue(ctx, s.queues.OrderLifecycle, msg)
}

func (s *QueueService) SendAdminActivity(ctx context.Context, msg *models.AdminActivityMessage) error {
	if msg.SchemaVersion == 0 {
		msg.SchemaVersion = models.AdminActivitySchemaVersion
	}
	return enqueue(ctx, s.queues.AdminActivity, msg)
}

// Lengths queries every queue concurrently.
func (s *QueueService) Lengths(ctx context.Context) ([]QueueLength, error) {
	all := s.all()
	lengths := make([]QueueLength, len(all))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range all {
		g.Go(func() error {
			n, err := q.ApproximateLength(gctx)
			if err != nil {
				return fmt.Errorf("failed to read length of %s: %w", q.Name(), err)
			}
			lengths[i] = QueueLength{Name: q.Name(), Length: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(lengths, func(i, j int) bool { return lengths[i].Name < lengths[j].Name })
	return lengths, nil
}

// Queue resolves a queue by name.
func (s *QueueService) Queue(name string) (storage.Queue, error) {
	for _, q := range s.all() {
		if q.Name() == name {
			return q, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, name)
}

func (s *QueueService) all() []storage.Queue {
	return []storage.Queue{
		s.queues.OrderProcessing,
		s.queues.InventoryUpdate,
		s.queues.OrderLifecycle,
		s.queues.AdminActivity,
	}
}

func enqueue[M any](ctx context.Context, q storage.Queue, msg *M) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", q.Name(), err)
	}
	if err := q.Enqueue(ctx, body); err != nil {
		return fmt.Errorf("failed to enqueue on %s: %w", q.Name(), err)
	}
	telemetry.QueueMessages.WithLabelValues(q.Name(), "enqueue").Inc()
	return nil
}

// receive dequeues one message and decodes it. A nil delivery means the queue
// was empty. A message that cannot be decoded is reported as
// ErrMalformedMessage together with its still-held delivery.
func receive[M any](ctx context.Context, q storage.Queue) (*M, *storage.Delivery, error) {
	d, err := q.Dequeue(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dequeue from %s: %w", q.Name(), err)
	}
	if d == nil {
		telemetry.QueueMessages.WithLabelValues(q.Name(), "empty").Inc()
		return nil, nil, nil
	}

	var msg M
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return nil, d, fmt.Errorf("%w on %s (message %s): %v", ErrMalformedMessage, q.Name(), d.ID, err)
	}
	return &msg, d, nil
}

func release(ctx context.Context, q storage.Queue, d *storage.Delivery) {
	telemetry.QueueMessages.WithLabelValues(q.Name(), "released").Inc()
	if err := d.Release(ctx); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"queue":      q.Name(),
			"message_id": d.ID,
		}).Error("Failed to release queue message")
	}
}
