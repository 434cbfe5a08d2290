// internal/storage/memory_queue.go
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type memoryMessage struct {
	id          string
	body        []byte
	redelivered bool
}

// MemoryQueue is an in-process Queue for development and tests.
type MemoryQueue struct {
	name     string
	mu       sync.Mutex
	pending  []memoryMessage
	inflight map[string]memoryMessage
}

func NewMemoryQueue(name string) *MemoryQueue {
	return &MemoryQueue{
		name:     name,
		inflight: make(map[string]memoryMessage),
	}
}

func (q *MemoryQueue) Name() string {
	return q.name
}

func (q *MemoryQueue) Enqueue(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, memoryMessage{
		id:   uuid.NewString(),
		body: append([]byte(nil), body...),
	})
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, nil
	}
	msg := q.pending[0]
	q.pending = q.pending[1:]
	q.inflight[msg.id] = msg

	return &Delivery{
		ID:          msg.id,
		Body:        msg.body,
		Redelivered: msg.redelivered,
		ack: func(context.Context) error {
			q.mu.Lock()
			defer q.mu.Unlock()
			if _, ok := q.inflight[msg.id]; !ok {
				return fmt.Errorf("message %s on %s: %w", msg.id, q.name, ErrNotFound)
			}
			delete(q.inflight, msg.id)
			return nil
		},
		nack: func(context.Context) error {
			q.mu.Lock()
			defer q.mu.Unlock()
			m, ok := q.inflight[msg.id]
			if !ok {
				return fmt.Errorf("message %s on %s: %w", msg.id, q.name, ErrNotFound)
			}
			delete(q.inflight, msg.id)
			m.redelivered = true
			q.pending = append([]memoryMessage{m}, q.pending...)
			return nil
		},
	}, nil
}

// ApproximateLength counts pending and in-flight messages.
func (q *MemoryQueue) ApproximateLength(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) + len(q.inflight), nil
}

// Pending returns copies of the bodies waiting to be dequeued, oldest first.
func (q *MemoryQueue) Pending() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([][]byte, len(q.pending))
	for i, m := range q.pending {
		out[i] = append([]byte(nil), m.body...)
	}
	return out
}
