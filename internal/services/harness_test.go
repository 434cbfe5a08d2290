package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/storage"
)

var errBroker = errors.New("broker unreachable")

// harness wires the services to in-memory backends.
type harness struct {
	products  *storage.MemoryTable[models.Product, *models.Product]
	customers *storage.MemoryTable[models.Customer, *models.Customer]
	carts     *storage.MemoryTable[models.CartItem, *models.CartItem]
	orders    *storage.MemoryTable[models.Order, *models.Order]

	orderQueue     *storage.MemoryQueue
	inventoryQueue *storage.MemoryQueue
	lifecycleQueue *storage.MemoryQueue
	activityQueue  *storage.MemoryQueue

	blobs *storage.LocalBlobStore
	logs  *storage.BadgerLogStore
	db    *badger.DB

	svc *services.Container
}

type harnessOption func(*services.Backends)

// withFailingQueue makes every enqueue on the named queue fail.
func withFailingQueue(name string) harnessOption {
	return func(b *services.Backends) {
		switch name {
		case services.QueueOrderProcessing:
			b.Queues.OrderProcessing = failingQueue{b.Queues.OrderProcessing}
		case services.QueueInventoryUpdate:
			b.Queues.InventoryUpdate = failingQueue{b.Queues.InventoryUpdate}
		case services.QueueOrderLifecycle:
			b.Queues.OrderLifecycle = failingQueue{b.Queues.OrderLifecycle}
		case services.QueueAdminActivity:
			b.Queues.AdminActivity = failingQueue{b.Queues.AdminActivity}
		}
	}
}

func withLogStore(store storage.LogStore) harnessOption {
	return func(b *services.Backends) {
		b.Logs = store
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	db, err := storage.OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	blobs, err := storage.NewLocalBlobStore(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	h := &harness{
		products:       storage.NewMemoryTable[models.Product](),
		customers:      storage.NewMemoryTable[models.Customer](),
		carts:          storage.NewMemoryTable[models.CartItem](),
		orders:         storage.NewMemoryTable[models.Order](),
		orderQueue:     storage.NewMemoryQueue(services.QueueOrderProcessing),
		inventoryQueue: storage.NewMemoryQueue(services.QueueInventoryUpdate),
		lifecycleQueue: storage.NewMemoryQueue(services.QueueOrderLifecycle),
		activityQueue:  storage.NewMemoryQueue(services.QueueAdminActivity),
		blobs:          blobs,
		logs:           storage.NewBadgerLogStore(db),
		db:             db,
	}

	backends := services.Backends{
		Products:  h.products,
		Customers: h.customers,
		Carts:     h.carts,
		Orders:    h.orders,
		Queues: services.Queues{
			OrderProcessing: h.orderQueue,
			InventoryUpdate: h.inventoryQueue,
			OrderLifecycle:  h.lifecycleQueue,
			AdminActivity:   h.activityQueue,
		},
		Blobs:        h.blobs,
		Logs:         h.logs,
		MaxImageSize: 1024,
	}
	for _, opt := range opts {
		opt(&backends)
	}
	h.svc = services.NewContainer(backends)
	return h
}

func (h *harness) addProduct(t *testing.T, id, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		TableEntity:   models.TableEntity{PartitionKey: models.ProductPartition, RowKey: id},
		Name:          "Product " + id,
		Category:      "Clothing",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	require.NoError(t, h.products.Insert(context.Background(), p))
	return p
}

func (h *harness) addToCart(t *testing.T, customer, productID string, qty int) {
	t.Helper()
	_, err := h.svc.Carts.AddToCart(context.Background(), customer, &services.AddToCartRequest{
		ProductID: productID,
		Quantity:  qty,
	})
	require.NoError(t, err)
}

func (h *harness) logFiles(t *testing.T, category models.LogCategory) []string {
	t.Helper()
	paths, err := h.logs.List(context.Background(), string(category))
	require.NoError(t, err)
	return paths
}

// pending decodes the waiting messages of q.
func pending[M any](t *testing.T, q *storage.MemoryQueue) []M {
	t.Helper()
	var out []M
	for _, body := range q.Pending() {
		var msg M
		require.NoError(t, json.Unmarshal(body, &msg))
		out = append(out, msg)
	}
	return out
}

// drainAll discards every waiting message of q.
func drainAll(t *testing.T, q *storage.MemoryQueue) {
	t.Helper()
	ctx := context.Background()
	for {
		d, err := q.Dequeue(ctx)
		require.NoError(t, err)
		if d == nil {
			return
		}
		require.NoError(t, d.Delete(ctx))
	}
}

type failingQueue struct {
	storage.Queue
}

func (q failingQueue) Enqueue(context.Context, []byte) error {
	return errBroker
}

type failingLogStore struct{}

func (failingLogStore) Append(context.Context, string, string, string) (string, error) {
	return "", errors.New("share unavailable")
}

func (failingLogStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("share unavailable")
}

func (failingLogStore) Read(context.Context, string) (string, error) {
	return "", errors.New("share unavailable")
}

// pngBytes is the smallest header the image check accepts.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
