// internal/storage/amqp_queue.go
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBroker owns the RabbitMQ connection shared by the work queues.
type AMQPBroker struct {
	conn   *amqp.Connection
	queues map[string]*AMQPQueue
}

func DialAMQP(url string, names ...string) (*AMQPBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w: %v", ErrUnavailable, err)
	}

	b := &AMQPBroker{conn: conn, queues: make(map[string]*AMQPQueue)}
	for _, name := range names {
		q, err := newAMQPQueue(conn, name)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.queues[name] = q
	}
	return b, nil
}

func (b *AMQPBroker) Queue(name string) (*AMQPQueue, bool) {
	q, ok := b.queues[name]
	return q, ok
}

func (b *AMQPBroker) Close() {
	for _, q := range b.queues {
		if q.channel != nil {
			q.channel.Close()
		}
	}
	if b.conn != nil {
		b.conn.Close()
	}
}

// AMQPQueue maps the Queue contract onto a durable RabbitMQ queue. Dequeue
// uses basic.get without auto-ack, so a delivery stays unacknowledged until
// Delete (ack) or Release (nack with requeue).
type AMQPQueue struct {
	name    string
	mu      sync.Mutex
	channel *amqp.Channel
}

func newAMQPQueue(conn *amqp.Connection, name string) (*AMQPQueue, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel for %s: %w", name, err)
	}

	_, err = channel.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	return &AMQPQueue{name: name, channel: channel}, nil
}

func (q *AMQPQueue) Name() string {
	return q.name
}

func (q *AMQPQueue) Enqueue(ctx context.Context, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.channel.PublishWithContext(ctx,
		"",     // default exchange
		q.name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w: %v", q.name, ErrUnavailable, err)
	}
	return nil
}

func (q *AMQPQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	msg, ok, err := q.channel.Get(q.name, false)
	q.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to receive from %s: %w: %v", q.name, ErrUnavailable, err)
	}
	if !ok {
		return nil, nil
	}

	return &Delivery{
		ID:          msg.MessageId,
		Body:        msg.Body,
		Redelivered: msg.Redelivered,
		ack: func(context.Context) error {
			if err := msg.Ack(false); err != nil {
				return fmt.Errorf("failed to ack message on %s: %w", q.name, err)
			}
			return nil
		},
		nack: func(context.Context) error {
			if err := msg.Nack(false, true); err != nil {
				return fmt.Errorf("failed to requeue message on %s: %w", q.name, err)
			}
			return nil
		},
	}, nil
}

func (q *AMQPQueue) ApproximateLength(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	state, err := q.channel.QueueDeclarePassive(q.name, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect %s: %w: %v", q.name, ErrUnavailable, err)
	}
	return state.Messages, nil
}
