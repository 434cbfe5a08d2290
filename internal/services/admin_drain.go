// internal/services/admin_drain.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/storage"
	"github.com/javajoker/abc-retail/internal/telemetry"
)

// DrainResult describes one drain call. Processed is false when the queue
// was empty.
type DrainResult struct {
	Queue            string     `json:"queue"`
	Processed        bool       `json:"processed"`
	MessageID        string     `json:"message_id,omitempty"`
	Redelivered      bool       `json:"redelivered,omitempty"`
	Summary          string     `json:"summary,omitempty"`
	MessagesEnqueued int        `json:"messages_enqueued"`
	Log              LogOutcome `json:"log"`
}

// ProcessNext drains at most one message from the named queue.
func (s *AdminService) ProcessNext(ctx context.Context, adminID, queueName string) (*DrainResult, error) {
	q, err := s.queues.Queue(queueName)
	if err != nil {
		return nil, err
	}
	switch queueName {
	case QueueOrderProcessing:
		return drain(ctx, q, s.deadLetter, func(ctx context.Context, msg *models.OrderProcessingMessage, r *DrainResult) error {
			return s.processOrder(ctx, adminID, msg, r)
		})
	case QueueInventoryUpdate:
		return drain(ctx, q, s.deadLetter, func(ctx context.Context, msg *models.InventoryUpdateMessage, r *DrainResult) error {
			return s.processInventory(ctx, adminID, msg, r)
		})
	case QueueOrderLifecycle:
		return drain(ctx, q, s.deadLetter, func(ctx context.Context, msg *models.OrderLifecycleMessage, r *DrainResult) error {
			return s.processLifecycle(ctx, adminID, msg, r)
		})
	case QueueAdminActivity:
		return drain(ctx, q, s.deadLetter, func(ctx context.Context, msg *models.AdminActivityMessage, r *DrainResult) error {
			return s.processActivity(ctx, msg, r)
		})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queueName)
}

// deadLetterFunc takes ownership of a delivery whose body could not be decoded.
type deadLetterFunc func(ctx context.Context, q storage.Queue, d *storage.Delivery, cause error) error

// drain receives one message and hands it to handle. The message is deleted
// only after handle succeeds; otherwise it is released for a later attempt.
// A failed delete after successful processing may lead to redelivery.
// Undecodable messages go to dead instead of back onto the queue.
func drain[M any](ctx context.Context, q storage.Queue, dead deadLetterFunc, handle func(context.Context, *M, *DrainResult) error) (*DrainResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "drain "+q.Name())
	result, err := drainOne(ctx, q, dead, handle)
	telemetry.EndSpan(span, err)

	outcome := telemetry.OutcomeSuccess
	if err != nil {
		outcome = telemetry.OutcomeFailure
	}
	telemetry.WorkflowRuns.WithLabelValues("drain_"+q.Name(), outcome).Inc()
	return result, err
}

func drainOne[M any](ctx context.Context, q storage.Queue, dead deadLetterFunc, handle func(context.Context, *M, *DrainResult) error) (*DrainResult, error) {
	result := &DrainResult{Queue: q.Name()}

	msg, d, err := receive[M](ctx, q)
	if err != nil {
		if d != nil {
			if dlErr := dead(ctx, q, d, err); dlErr != nil {
				return nil, &WorkflowError{Workflow: "drain_" + q.Name(), Step: "dead_letter", EntityID: d.ID, Err: fmt.Errorf("%v: %w", err, dlErr)}
			}
		}
		return nil, err
	}
	if d == nil {
		return result, nil
	}
	result.MessageID = d.ID
	result.Redelivered = d.Redelivered

	if err := handle(ctx, msg, result); err != nil {
		release(ctx, q, d)
		return nil, &WorkflowError{Workflow: "drain_" + q.Name(), Step: "process", EntityID: d.ID, Err: err}
	}
	if err := d.Delete(ctx); err != nil {
		return nil, &WorkflowError{Workflow: "drain_" + q.Name(), Step: "delete", EntityID: d.ID, Err: err}
	}

	result.Processed = true
	telemetry.QueueMessages.WithLabelValues(q.Name(), "processed").Inc()
	return result, nil
}

// deadLetter copies an undecodable message into the admin log and removes it
// from the queue. When the copy cannot be written the message is released so
// its body is not lost.
func (s *AdminService) deadLetter(ctx context.Context, q storage.Queue, d *storage.Delivery, cause error) error {
	outcome := s.logs.Write(ctx, models.LogCategoryAdmin, LogFileDeadLetter, fmt.Sprintf(
		"Discarded message %s from %s - Error: %v - Body: %s", d.ID, q.Name(), cause, d.Body,
	))
	if !outcome.OK() {
		release(ctx, q, d)
		return outcome.Err
	}
	if err := d.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", d.ID, err)
	}

	telemetry.QueueMessages.WithLabelValues(q.Name(), "dead_lettered").Inc()
	logrus.WithFields(logrus.Fields{
		"queue":      q.Name(),
		"message_id": d.ID,
		"log":        outcome.Path,
	}).Warn("Malformed queue message moved to dead letter log")
	return nil
}

func (s *AdminService) processOrder(ctx context.Context, adminID string, msg *models.OrderProcessingMessage, r *DrainResult) error {
	if err := s.queues.SendOrderLifecycle(ctx, &models.OrderLifecycleMessage{
		OrderID:        msg.OrderID,
		CustomerID:     msg.CustomerID,
		Status:         models.OrderStatusProcessing,
		PreviousStatus: models.OrderStatusPlaced,
		TotalAmount:    msg.TotalAmount,
		Notes:          fmt.Sprintf("Order processing started for %d items", len(msg.Items)),
		Timestamp:      s.now().UTC(),
	}); err != nil {
		return err
	}
	r.MessagesEnqueued++

	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityProcessOrder, models.EntityTypeOrder, msg.OrderID,
		fmt.Sprintf("Processed order %s", msg.OrderID),
		models.Metadata{
			"CustomerID":  models.StringValue(msg.CustomerID),
			"TotalAmount": models.NumberValue(msg.TotalAmount),
			"ItemCount":   models.IntValue(len(msg.Items)),
		})); err != nil {
		return err
	}
	r.MessagesEnqueued++

	r.Summary = fmt.Sprintf("Order %s moved to processing", msg.OrderID)
	r.Log = s.logs.Write(ctx, models.LogCategoryOrders, LogFileProcessed, fmt.Sprintf(
		"Processed order %s - Customer: %s - Amount: %s - Items: %d - Admin: %s",
		msg.OrderID, msg.CustomerID, msg.TotalAmount.StringFixed(2), len(msg.Items), adminID,
	))
	return nil
}

// processInventory applies reservations and releases to the catalog. The
// other actions were persisted by the admin write that produced them.
func (s *AdminService) processInventory(ctx context.Context, adminID string, msg *models.InventoryUpdateMessage, r *DrainResult) error {
	var delta int
	switch msg.Action {
	case models.InventoryActionReserveStock:
		delta = -msg.Quantity
	case models.InventoryActionReleaseStock:
		delta = msg.Quantity
	}

	r.Summary = fmt.Sprintf("%s %d of %s recorded", msg.Action, msg.Quantity, msg.ProductID)
	if delta != 0 {
		product, err := s.products.AdjustStock(ctx, msg.ProductID, delta)
		switch {
		case errors.Is(err, ErrNotFound):
			logrus.WithFields(logrus.Fields{
				"product_id": msg.ProductID,
				"action":     msg.Action,
			}).Warn("Inventory update for unknown product skipped")
			r.Summary = fmt.Sprintf("Product %s not found, %s skipped", msg.ProductID, msg.Action)
		case err != nil:
			return err
		default:
			if product.StockQuantity < 0 {
				logrus.WithFields(logrus.Fields{
					"product_id": msg.ProductID,
					"stock":      product.StockQuantity,
				}).Warn("Stock quantity is negative")
			}
			r.Summary = fmt.Sprintf("Stock of %s is now %d", msg.ProductID, product.StockQuantity)
		}
	}

	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityProcessInventory, models.EntityTypeProduct, msg.ProductID,
		fmt.Sprintf("Processed inventory %s for %s", msg.Action, msg.ProductID),
		models.Metadata{
			"Action":   models.StringValue(string(msg.Action)),
			"Quantity": models.IntValue(msg.Quantity),
			"Reason":   models.StringValue(msg.Reason),
		})); err != nil {
		return err
	}
	r.MessagesEnqueued++

	r.Log = s.logs.Write(ctx, models.LogCategoryInventory, LogFileInventory, fmt.Sprintf(
		"Processed inventory update: %s - %s %d - Reason: %s - %s",
		msg.ProductID, msg.Action, msg.Quantity, msg.Reason, r.Summary,
	))
	return nil
}

// processLifecycle writes the new status to the stored order when it moves
// the order forward. Stale or repeated transitions are recorded and skipped.
func (s *AdminService) processLifecycle(ctx context.Context, adminID string, msg *models.OrderLifecycleMessage, r *DrainResult) error {
	var (
		order *models.Order
		err   error
	)
	if msg.CustomerID != "" {
		order, err = s.orders.GetOrder(ctx, msg.CustomerID, msg.OrderID)
	} else {
		order, err = s.orders.FindOrder(ctx, msg.OrderID)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		logrus.WithField("order_id", msg.OrderID).Warn("Lifecycle event for unknown order skipped")
		r.Summary = fmt.Sprintf("Order %s not found, %s skipped", msg.OrderID, msg.Status)
	case err != nil:
		return err
	default:
		applied, err := s.orders.ApplyStatus(ctx, order, msg.Status, msg.TrackingNumber)
		if err != nil {
			return err
		}
		if applied {
			r.Summary = fmt.Sprintf("Order %s is now %s", msg.OrderID, msg.Status)
		} else {
			r.Summary = fmt.Sprintf("Order %s is %s, %s skipped", msg.OrderID, order.Status, msg.Status)
		}
	}

	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityProcessLifecycleEvent, models.EntityTypeOrder, msg.OrderID,
		fmt.Sprintf("Order %s: %s -> %s", msg.OrderID, msg.PreviousStatus, msg.Status),
		models.Metadata{
			"CustomerID":     models.StringValue(msg.CustomerID),
			"Status":         models.StringValue(string(msg.Status)),
			"PreviousStatus": models.StringValue(string(msg.PreviousStatus)),
		})); err != nil {
		return err
	}
	r.MessagesEnqueued++

	r.Log = s.logs.Write(ctx, models.LogCategoryOrders, LogFileLifecycle, fmt.Sprintf(
		"Order %s status: %s -> %s - Notes: %s - %s",
		msg.OrderID, msg.PreviousStatus, msg.Status, msg.Notes, r.Summary,
	))
	return nil
}

func (s *AdminService) processActivity(ctx context.Context, msg *models.AdminActivityMessage, r *DrainResult) error {
	r.Summary = fmt.Sprintf("%s on %s %s recorded", msg.Action, msg.EntityType, msg.EntityID)
	r.Log = s.logs.Write(ctx, models.LogCategoryAdmin, LogFileAdmin, formatActivity(msg))
	return nil
}

func formatActivity(msg *models.AdminActivityMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Admin: %s - Action: %s - %s %s - %s",
		msg.AdminID, msg.Action, msg.EntityType, msg.EntityID, msg.Details)

	if len(msg.Metadata) > 0 {
		keys := make([]string, 0, len(msg.Metadata))
		for k := range msg.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" -")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, msg.Metadata[k])
		}
	}
	return b.String()
}
