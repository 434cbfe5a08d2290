// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/storage"
)

type OrderService struct {
	table storage.Table[models.Order]
}

func NewOrderService(table storage.Table[models.Order]) *OrderService {
	return &OrderService{table: table}
}

func (s *OrderService) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.table.Insert(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// ListOrders returns a customer's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	key := models.NormalizeEmail(customerID)
	if key == "" {
		return nil, ErrUnauthenticated
	}
	orders, err := storage.Collect(s.table.Query(ctx, storage.Filter[models.Order]{PartitionKey: key}))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	sortOrders(orders)
	return orders, nil
}

// ListAllOrders scans every customer partition.
func (s *OrderService) ListAllOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	filter := storage.Filter[models.Order]{}
	if status != "" {
		filter.Match = func(o *models.Order) bool { return o.Status == status }
	}
	orders, err := storage.Collect(s.table.Query(ctx, filter))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	sortOrders(orders)
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID string) (*models.Order, error) {
	key := models.NormalizeEmail(customerID)
	if key == "" {
		return nil, ErrUnauthenticated
	}
	order, err := s.table.Get(ctx, key, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// FindOrder locates an order by id without knowing its customer.
func (s *OrderService) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	seq := s.table.Query(ctx, storage.Filter[models.Order]{
		Match: func(o *models.Order) bool { return o.RowKey == orderID },
	})
	for order, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("failed to find order: %w", err)
		}
		return order, nil
	}
	return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
}

// ApplyStatus moves the order forward to status. It reports false without
// writing when the transition would not move the order forward. order is
// only changed once the write succeeds.
func (s *OrderService) ApplyStatus(ctx context.Context, order *models.Order, status models.OrderStatus, trackingNumber string) (bool, error) {
	if !order.Status.CanTransitionTo(status) {
		return false, nil
	}
	updated := *order
	updated.Status = status
	if trackingNumber != "" {
		updated.TrackingNumber = trackingNumber
	}
	if err := s.table.Update(ctx, &updated, order.ETag); err != nil {
		return false, fmt.Errorf("failed to update order %s: %w", order.RowKey, err)
	}
	*order = updated
	return true, nil
}

func sortOrders(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}
