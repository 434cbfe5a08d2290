package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/abc-retail/internal/storage"
)

func TestMemoryQueueEmptyDequeue(t *testing.T) {
	q := storage.NewMemoryQueue("order-processing")
	d, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestMemoryQueueFIFOAndDelete(t *testing.T) {
	ctx := context.Background()
	q := storage.NewMemoryQueue("inventory-update")
	require.NoError(t, q.Enqueue(ctx, []byte(`{"n":1}`)))
	require.NoError(t, q.Enqueue(ctx, []byte(`{"n":2}`)))

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.JSONEq(t, `{"n":1}`, string(d.Body))

	n, err := q.ApproximateLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "in-flight message still counts")

	require.NoError(t, d.Delete(ctx))
	n, err = q.ApproximateLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Error(t, d.Delete(ctx), "second delete of the same delivery")
}

func TestMemoryQueueReleaseRedelivers(t *testing.T) {
	ctx := context.Background()
	q := storage.NewMemoryQueue("order-lifecycle")
	require.NoError(t, q.Enqueue(ctx, []byte("first")))
	require.NoError(t, q.Enqueue(ctx, []byte("second")))

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, d.Release(ctx))

	again, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, "first", string(again.Body))
	assert.True(t, again.Redelivered)
	assert.Equal(t, d.ID, again.ID)
}

func TestMemoryQueuePendingCopies(t *testing.T) {
	ctx := context.Background()
	q := storage.NewMemoryQueue("admin-activity")
	body := []byte("payload")
	require.NoError(t, q.Enqueue(ctx, body))
	body[0] = 'X'

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "payload", string(pending[0]))
}
