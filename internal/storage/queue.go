// internal/storage/queue.go
package storage

import (
	"context"
)

// Queue is a FIFO work queue with at-least-once delivery.
type Queue interface {
	Name() string
	Enqueue(ctx context.Context, body []byte) error
	// Dequeue receives at most one message. It returns nil, nil when the
	// queue is empty. The caller must Delete or Release the delivery.
	Dequeue(ctx context.Context) (*Delivery, error)
	ApproximateLength(ctx context.Context) (int, error)
}

// Delivery is a received message that is hidden from other consumers until
// it is deleted or released.
type Delivery struct {
	ID          string
	Body        []byte
	Redelivered bool

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error
}

// Delete removes the message from the queue for good.
func (d *Delivery) Delete(ctx context.Context) error {
	return d.ack(ctx)
}

// Release hands the message back so a later dequeue receives it again.
func (d *Delivery) Release(ctx context.Context) error {
	return d.nack(ctx)
}
