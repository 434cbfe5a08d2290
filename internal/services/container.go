// internal/services/container.go
package services

import (
	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/storage"
)

// Backends are the storage primitives every service is built on.
type Backends struct {
	Products     storage.Table[models.Product]
	Customers    storage.Table[models.Customer]
	Carts        storage.Table[models.CartItem]
	Orders       storage.Table[models.Order]
	Queues       Queues
	Blobs        storage.BlobStore
	Logs         storage.LogStore
	MaxImageSize int64
}

type Container struct {
	Products  *ProductService
	Customers *CustomerService
	Carts     *CartService
	Orders    *OrderService
	Storage   *StorageService
	Queues    *QueueService
	Logs      *LogService
	Checkout  *CheckoutService
	Admin     *AdminService
}

func NewContainer(b Backends) *Container {
	products := NewProductService(b.Products)
	customers := NewCustomerService(b.Customers)
	carts := NewCartService(b.Carts, products)
	orders := NewOrderService(b.Orders)
	images := NewStorageService(b.Blobs, b.MaxImageSize)
	queues := NewQueueService(b.Queues)
	logs := NewLogService(b.Logs)

	return &Container{
		Products:  products,
		Customers: customers,
		Carts:     carts,
		Orders:    orders,
		Storage:   images,
		Queues:    queues,
		Logs:      logs,
		Checkout:  NewCheckoutService(carts, orders, customers, queues, logs),
		Admin:     NewAdminService(products, customers, orders, images, queues, logs),
	}
}
