// internal/services/checkout_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/telemetry"
)

const WorkflowCheckout = "checkout"

// Checkout steps, in execution order
const (
	StepLoadCart         = "load_cart"
	StepInsertOrder      = "insert_order"
	StepEnqueueOrder     = "enqueue_order_processing"
	StepEnqueueLifecycle = "enqueue_order_lifecycle"
	StepReserveStock     = "enqueue_reserve_stock"
	StepClearCart        = "clear_cart"
)

type CheckoutService struct {
	carts     *CartService
	orders    *OrderService
	customers *CustomerService
	queues    *QueueService
	logs      *LogService
	now       func() time.Time
}

type CheckoutResult struct {
	Order            *models.Order `json:"order"`
	MessagesEnqueued int           `json:"messages_enqueued"`
	Log              LogOutcome    `json:"log"`
}

func NewCheckoutService(carts *CartService, orders *OrderService, customers *CustomerService, queues *QueueService, logs *LogService) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		orders:    orders,
		customers: customers,
		queues:    queues,
		logs:      logs,
		now:       time.Now,
	}
}

// Checkout turns the customer's cart into a placed order, fans the order out
// to the work queues and empties the cart. Steps already completed are not
// undone when a later step fails.
func (s *CheckoutService) Checkout(ctx context.Context, customerID string) (result *CheckoutResult, err error) {
	customerID = models.NormalizeEmail(customerID)
	if customerID == "" {
		return nil, ErrUnauthenticated
	}

	ctx, span := telemetry.StartSpan(ctx, "checkout", attribute.String("customer_id", customerID))
	defer func() {
		telemetry.EndSpan(span, err)
		outcome := telemetry.OutcomeSuccess
		if err != nil {
			outcome = telemetry.OutcomeFailure
		}
		telemetry.WorkflowRuns.WithLabelValues(WorkflowCheckout, outcome).Inc()
	}()

	items, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return nil, s.fail(StepLoadCart, "", customerID, err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	total := models.CartTotal(items)
	snapshot, err := models.SnapshotCart(items)
	if err != nil {
		return nil, s.fail(StepInsertOrder, "", customerID, err)
	}

	address, err := s.customers.DeliveryAddress(ctx, customerID)
	if err != nil {
		return nil, s.fail(StepInsertOrder, "", customerID, err)
	}

	now := s.now().UTC()
	order := &models.Order{
		TableEntity:      models.TableEntity{PartitionKey: customerID, RowKey: uuid.NewString()},
		Status:           models.OrderStatusPlaced,
		CartSnapshotJSON: snapshot,
		TotalAmount:      total,
		OrderDate:        now,
		DeliveryAddress:  address,
		CustomerEmail:    customerID,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, s.fail(StepInsertOrder, "", customerID, err)
	}
	span.SetAttributes(attribute.String("order_id", order.RowKey))

	result = &CheckoutResult{Order: order}

	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.OrderItem{
			ProductID:   item.ProductID(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	if err := s.queues.SendOrderProcessing(ctx, &models.OrderProcessingMessage{
		OrderID:     order.RowKey,
		CustomerID:  customerID,
		Action:      models.OrderActionProcess,
		TotalAmount: total,
		Timestamp:   now,
		Items:       lines,
	}); err != nil {
		return nil, s.fail(StepEnqueueOrder, order.RowKey, customerID, err)
	}
	result.MessagesEnqueued++

	if err := s.queues.SendOrderLifecycle(ctx, &models.OrderLifecycleMessage{
		OrderID:        order.RowKey,
		CustomerID:     customerID,
		Status:         models.OrderStatusPlaced,
		PreviousStatus: models.OrderStatusCart,
		TotalAmount:    total,
		Notes:          fmt.Sprintf("Order placed with %d items", len(items)),
		Timestamp:      now,
	}); err != nil {
		return nil, s.fail(StepEnqueueLifecycle, order.RowKey, customerID, err)
	}
	result.MessagesEnqueued++

	for _, item := range items {
		if err := s.queues.SendInventoryUpdate(ctx, &models.InventoryUpdateMessage{
			ProductID: item.ProductID(),
			Action:    models.InventoryActionReserveStock,
			Quantity:  item.Quantity,
			Reason:    fmt.Sprintf("Stock reserved for order %s", order.RowKey),
			Timestamp: now,
		}); err != nil {
			return nil, s.fail(StepReserveStock, order.RowKey, customerID, err)
		}
		result.MessagesEnqueued++
	}

	result.Log = s.logs.Write(ctx, models.LogCategoryOrders, LogFileCheckout, fmt.Sprintf(
		"Order %s automatically queued after checkout - Customer: %s, Amount: %s, Items: %d",
		order.RowKey, customerID, total.StringFixed(2), len(items),
	))

	if err := s.carts.ClearCart(ctx, customerID, items); err != nil {
		return nil, s.fail(StepClearCart, order.RowKey, customerID, err)
	}

	logrus.WithFields(logrus.Fields{
		"customer_id": customerID,
		"order_id":    order.RowKey,
		"total":       total.StringFixed(2),
		"items":       len(items),
	}).Info("Order placed")

	return result, nil
}

func (s *CheckoutService) fail(step, orderID, customerID string, err error) error {
	logrus.WithError(err).WithFields(logrus.Fields{
		"workflow":    WorkflowCheckout,
		"step":        step,
		"customer_id": customerID,
		"order_id":    orderID,
	}).Error("Checkout failed")
	return &WorkflowError{Workflow: WorkflowCheckout, Step: step, EntityID: orderID, Err: err}
}
