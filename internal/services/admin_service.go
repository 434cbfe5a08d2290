// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/telemetry"
	"github.com/javajoker/abc-retail/internal/utils"
)

// Admin workflows
const (
	WorkflowCreateProduct  = "create_product"
	WorkflowUpdateProduct  = "update_product"
	WorkflowDeleteProduct  = "delete_product"
	WorkflowCreateCustomer = "create_customer"
	WorkflowUploadImage    = "upload_image"
	WorkflowShipOrder      = "ship_order"
	WorkflowEnqueue        = "manual_enqueue"
)

// Admin workflow steps
const (
	StepPersist          = "persist"
	StepEnqueueActivity  = "enqueue_admin_activity"
	StepEnqueueInventory = "enqueue_inventory_update"
	StepLoadOrder        = "load_order"
)

const productImageFolder = "products"

type AdminService struct {
	products  *ProductService
	customers *CustomerService
	orders    *OrderService
	images    *StorageService
	queues    *QueueService
	logs      *LogService
	now       func() time.Time
}

type CreateProductRequest struct {
	ID            string          `json:"id" form:"id" validate:"omitempty,max=64"`
	Name          string          `json:"name" form:"name" validate:"required,max=255"`
	Category      string          `json:"category" form:"category" validate:"required,max=100"`
	Price         decimal.Decimal `json:"price" form:"price" validate:"money"`
	StockQuantity int             `json:"stock_quantity" form:"stock_quantity" validate:"min=0"`
	Description   string          `json:"description" form:"description" validate:"max=2000"`
	ImageURL      string          `json:"image_url" form:"image_url" validate:"omitempty,url"`
}

type UpdateProductRequest struct {
	Name          string          `json:"name" form:"name" validate:"required,max=255"`
	Category      string          `json:"category" form:"category" validate:"required,max=100"`
	Price         decimal.Decimal `json:"price" form:"price" validate:"money"`
	StockQuantity int             `json:"stock_quantity" form:"stock_quantity" validate:"min=0"`
	Description   string          `json:"description" form:"description" validate:"max=2000"`
	// ETag is the concurrency token the client read. Empty skips the check
	// against the client's copy; the write is still guarded by the loaded etag.
	ETag string `json:"etag" form:"etag"`
}

type ShipOrderRequest struct {
	TrackingNumber    string     `json:"tracking_number" validate:"omitempty,max=100"`
	Carrier           string     `json:"carrier" validate:"omitempty,max=100"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

type EnqueueInventoryRequest struct {
	ProductID string                 `json:"product_id" validate:"required"`
	Action    models.InventoryAction `json:"action" validate:"required"`
	Quantity  int                    `json:"quantity" validate:"min=0"`
	Reason    string                 `json:"reason" validate:"max=500"`
}

type ProductMutationResult struct {
	Product          *models.Product `json:"product"`
	MessagesEnqueued int             `json:"messages_enqueued"`
	Log              LogOutcome      `json:"log"`
}

type CustomerResult struct {
	Customer *models.Customer `json:"customer"`
	Log      LogOutcome       `json:"log"`
}

type ImageResult struct {
	Image *UploadResult `json:"image"`
	Log   LogOutcome    `json:"log"`
}

type ShipOrderResult struct {
	Order          *models.Order `json:"order"`
	TrackingNumber string        `json:"tracking_number"`
	Log            LogOutcome    `json:"log"`
}

type AdminDashboard struct {
	Queues []QueueLength `json:"queues"`
	Logs   []LogFile     `json:"logs"`
}

func NewAdminService(
	products *ProductService,
	customers *CustomerService,
	orders *OrderService,
	images *StorageService,
	queues *QueueService,
	logs *LogService,
) *AdminService {
	return &AdminService{
		products:  products,
		customers: customers,
		orders:    orders,
		images:    images,
		queues:    queues,
		logs:      logs,
		now:       time.Now,
	}
}

// Dashboard reports queue depths and the general log files.
func (s *AdminService) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	lengths, err := s.queues.Lengths(ctx)
	if err != nil {
		return nil, err
	}
	files, err := s.logs.ListFiles(ctx, models.LogCategoryGeneral)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{Queues: lengths, Logs: files}, nil
}

// CreateProduct persists a new product and announces it on the admin-activity
// and inventory-update queues. An image that fails to upload aborts the
// workflow before anything is written.
func (s *AdminService) CreateProduct(ctx context.Context, adminID string, req *CreateProductRequest, image *ImageUpload) (result *ProductMutationResult, err error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	ctx, done := s.track(ctx, WorkflowCreateProduct)
	defer func() { done(err) }()

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	product := &models.Product{
		TableEntity:   models.TableEntity{PartitionKey: models.ProductPartition, RowKey: id},
		Name:          req.Name,
		Category:      req.Category,
		Price:         req.Price.Round(2),
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		Description:   req.Description,
	}

	if image != nil {
		uploaded, err := s.images.UploadImage(ctx, image, productImageFolder)
		if err != nil {
			return nil, err
		}
		product.ImageURL = uploaded.URL
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, s.fail(WorkflowCreateProduct, StepPersist, id, err)
	}
	result = &ProductMutationResult{Product: product}

	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityCreateProduct, models.EntityTypeProduct, id,
		fmt.Sprintf("Created product: %s", product.Name),
		models.Metadata{
			"ProductName": models.StringValue(product.Name),
			"Category":    models.StringValue(product.Category),
			"Price":       models.NumberValue(product.Price),
			"StockQty":    models.IntValue(product.StockQuantity),
			"HasImage":    models.BoolValue(product.ImageURL != ""),
		})); err != nil {
		return nil, s.fail(WorkflowCreateProduct, StepEnqueueActivity, id, err)
	}
	result.MessagesEnqueued++

	if err := s.queues.SendInventoryUpdate(ctx, &models.InventoryUpdateMessage{
		ProductID: id,
		Action:    models.InventoryActionInitialStock,
		Quantity:  product.StockQuantity,
		Reason:    "Initial stock for new product",
		Timestamp: s.now().UTC(),
	}); err != nil {
		return nil, s.fail(WorkflowCreateProduct, StepEnqueueInventory, id, err)
	}
	result.MessagesEnqueued++

	result.Log = s.logs.Write(ctx, models.LogCategoryProducts, LogFileProducts, fmt.Sprintf(
		"Product created: %s - %s - Price: %s - Stock: %d - Admin: %s",
		id, product.Name, product.Price.StringFixed(2), product.StockQuantity, adminID,
	))
	return result, nil
}

// UpdateProduct replaces a product's attributes. A stock change is announced
// as a StockIncrease or StockDecrease of the absolute difference.
func (s *AdminService) UpdateProduct(ctx context.Context, adminID, productID string, req *UpdateProductRequest, image *ImageUpload) (result *ProductMutationResult, err error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	ctx, done := s.track(ctx, WorkflowUpdateProduct)
	defer func() { done(err) }()

	prior, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if req.ETag != "" && req.ETag != prior.ETag {
		return nil, fmt.Errorf("product %s was modified by someone else: %w", productID, ErrConflict)
	}

	updated := *prior
	updated.Name = req.Name
	updated.Category = req.Category
	updated.Price = req.Price.Round(2)
	updated.StockQuantity = req.StockQuantity
	updated.Description = req.Description

	imageUpdated := false
	if image != nil {
		uploaded, err := s.images.UploadImage(ctx, image, productImageFolder)
		if err != nil {
			return nil, err
		}
		updated.ImageURL = uploaded.URL
		imageUpdated = true
	}

	if err := s.products.SaveProduct(ctx, &updated, prior.ETag); err != nil {
		return nil, s.fail(WorkflowUpdateProduct, StepPersist, productID, err)
	}
	result = &ProductMutationResult{Product: &updated}

	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityUpdateProduct, models.EntityTypeProduct, productID,
		fmt.Sprintf("Updated product: %s", updated.Name),
		models.Metadata{
			"ProductName":  models.StringValue(updated.Name),
			"OldPrice":     models.NumberValue(prior.Price),
			"NewPrice":     models.NumberValue(updated.Price),
			"OldStock":     models.IntValue(prior.StockQuantity),
			"NewStock":     models.IntValue(updated.StockQuantity),
			"ImageUpdated": models.BoolValue(imageUpdated),
		})); err != nil {
		return nil, s.fail(WorkflowUpdateProduct, StepEnqueueActivity, productID, err)
	}
	result.MessagesEnqueued++

	if delta := updated.StockQuantity - prior.StockQuantity; delta != 0 {
		action := models.InventoryActionStockIncrease
		quantity := delta
		if delta < 0 {
			action = models.InventoryActionStockDecrease
			quantity = -delta
		}
		if err := s.queues.SendInventoryUpdate(ctx, &models.InventoryUpdateMessage{
			ProductID: productID,
			Action:    action,
			Quantity:  quantity,
			Reason:    fmt.Sprintf("Stock adjusted by admin from %d to %d", prior.StockQuantity, updated.StockQuantity),
			Timestamp: s.now().UTC(),
		}); err != nil {
			return nil, s.fail(WorkflowUpdateProduct, StepEnqueueInventory, productID, err)
		}
		result.MessagesEnqueued++
	}

	result.Log = s.logs.Write(ctx, models.LogCategoryProducts, LogFileProducts, fmt.Sprintf(
		"Product updated: %s - %s - Price: %s -> %s - Stock: %d -> %d - Admin: %s",
		productID, updated.Name,
		prior.Price.StringFixed(2), updated.Price.StringFixed(2),
		prior.StockQuantity, updated.StockQuantity, adminID,
	))
	return result, nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, adminID, productID string) (outcome LogOutcome, err error) {
	ctx, done := s.track(ctx, WorkflowDeleteProduct)
	defer func() { done(err) }()

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return LogOutcome{}, err
	}
	if err := s.products.DeleteProduct(ctx, productID); err != nil {
		return LogOutcome{}, s.fail(WorkflowDeleteProduct, StepPersist, productID, err)
	}
	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityDeleteProduct, models.EntityTypeProduct, productID,
		fmt.Sprintf("Deleted product: %s", product.Name),
		models.Metadata{
			"ProductName": models.StringValue(product.Name),
			"LastStock":   models.IntValue(product.StockQuantity),
		})); err != nil {
		return LogOutcome{}, s.fail(WorkflowDeleteProduct, StepEnqueueActivity, productID, err)
	}
	return s.logs.Write(ctx, models.LogCategoryProducts, LogFileProducts, fmt.Sprintf(
		"Product deleted: %s - %s - Admin: %s", productID, product.Name, adminID,
	)), nil
}

func (s *AdminService) CreateCustomer(ctx context.Context, adminID string, req *CreateCustomerRequest) (result *CustomerResult, err error) {
	ctx, done := s.track(ctx, WorkflowCreateCustomer)
	defer func() { done(err) }()

	customer, err := s.customers.CreateCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityCreateCustomer, models.EntityTypeCustomer, customer.Email,
		fmt.Sprintf("Created customer: %s", customer.FullName()),
		models.Metadata{
			"Email":      models.StringValue(customer.Email),
			"HasAddress": models.BoolValue(customer.DeliveryAddress != ""),
		})); err != nil {
		return nil, s.fail(WorkflowCreateCustomer, StepEnqueueActivity, customer.Email, err)
	}
	return &CustomerResult{
		Customer: customer,
		Log: s.logs.Write(ctx, models.LogCategoryCustomers, LogFileCustomers, fmt.Sprintf(
			"Customer created: %s - %s - Admin: %s", customer.Email, customer.FullName(), adminID,
		)),
	}, nil
}

func (s *AdminService) UploadImage(ctx context.Context, adminID string, image *ImageUpload) (*ImageResult, error) {
	uploaded, err := s.images.UploadImage(ctx, image, productImageFolder)
	if err != nil {
		return nil, err
	}
	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityUploadImage, models.EntityTypeImage, uploaded.Key,
		fmt.Sprintf("Uploaded image: %s", uploaded.Key),
		models.Metadata{
			"Size":     models.IntValue(int(uploaded.Size)),
			"MimeType": models.StringValue(uploaded.MimeType),
		})); err != nil {
		return nil, s.fail(WorkflowUploadImage, StepEnqueueActivity, uploaded.Key, err)
	}
	return &ImageResult{
		Image: uploaded,
		Log: s.logs.Write(ctx, models.LogCategoryImages, LogFileImages, fmt.Sprintf(
			"Image uploaded: %s - Size: %d - SHA256: %s - Admin: %s",
			uploaded.Key, uploaded.Size, uploaded.Checksum, adminID,
		)),
	}, nil
}

// ShipOrder announces a shipment on the lifecycle queue. The stored status
// changes when the lifecycle message is drained.
func (s *AdminService) ShipOrder(ctx context.Context, adminID, orderID string, req *ShipOrderRequest) (result *ShipOrderResult, err error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	ctx, done := s.track(ctx, WorkflowShipOrder)
	defer func() { done(err) }()

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(models.OrderStatusShipped) {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, ErrInvalidStatus)
	}

	tracking := req.TrackingNumber
	if tracking == "" {
		if tracking, err = utils.GenerateTrackingNumber(); err != nil {
			return nil, fmt.Errorf("failed to generate tracking number: %w", err)
		}
	}
	carrier := req.Carrier
	if carrier == "" {
		carrier = "Standard"
	}
	now := s.now().UTC()
	estimated := now.AddDate(0, 0, 5)
	if req.EstimatedDelivery != nil {
		estimated = req.EstimatedDelivery.UTC()
	}

	if err := s.queues.SendOrderLifecycle(ctx, &models.OrderLifecycleMessage{
		OrderID:        order.RowKey,
		CustomerID:     order.PartitionKey,
		Status:         models.OrderStatusShipped,
		PreviousStatus: order.Status,
		TotalAmount:    order.TotalAmount,
		TrackingNumber: tracking,
		Notes: fmt.Sprintf("Shipped via %s, tracking %s, estimated delivery %s",
			carrier, tracking, estimated.Format("2006-01-02")),
		Timestamp: now,
	}); err != nil {
		return nil, s.fail(WorkflowShipOrder, StepEnqueueLifecycle, orderID, err)
	}

	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityShipOrder, models.EntityTypeOrder, orderID,
		fmt.Sprintf("Shipped order %s", orderID),
		models.Metadata{
			"CustomerID":        models.StringValue(order.PartitionKey),
			"TrackingNumber":    models.StringValue(tracking),
			"Carrier":           models.StringValue(carrier),
			"EstimatedDelivery": models.TimeValue(estimated),
			"TotalAmount":       models.NumberValue(order.TotalAmount),
		})); err != nil {
		return nil, s.fail(WorkflowShipOrder, StepEnqueueActivity, orderID, err)
	}

	return &ShipOrderResult{
		Order:          order,
		TrackingNumber: tracking,
		Log: s.logs.Write(ctx, models.LogCategoryOrders, LogFileShipping, fmt.Sprintf(
			"Order shipped: %s - Customer: %s - Carrier: %s - Tracking: %s - Admin: %s",
			orderID, order.PartitionKey, carrier, tracking, adminID,
		)),
	}, nil
}

// EnqueueOrderProcessing re-sends an existing order to the order-processing queue.
func (s *AdminService) EnqueueOrderProcessing(ctx context.Context, adminID, orderID string) (outcome LogOutcome, err error) {
	ctx, done := s.track(ctx, WorkflowEnqueue)
	defer func() { done(err) }()

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		return LogOutcome{}, err
	}
	items, err := order.CartSnapshot()
	if err != nil {
		return LogOutcome{}, s.fail(WorkflowEnqueue, StepLoadOrder, orderID, err)
	}

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
		CustomerID:  order.PartitionKey,
		Action:      models.OrderActionProcess,
		TotalAmount: order.TotalAmount,
		Timestamp:   s.now().UTC(),
		Items:       lines,
	}); err != nil {
		return LogOutcome{}, s.fail(WorkflowEnqueue, StepEnqueueOrder, orderID, err)
	}
	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityEnqueueOrder, models.EntityTypeOrder, orderID,
		fmt.Sprintf("Queued order %s for processing", orderID), nil)); err != nil {
		return LogOutcome{}, s.fail(WorkflowEnqueue, StepEnqueueActivity, orderID, err)
	}

	return s.logs.Write(ctx, models.LogCategoryGeneral, LogFileQueueAdmin, fmt.Sprintf(
		"Order %s manually queued for processing - Admin: %s", orderID, adminID,
	)), nil
}

func (s *AdminService) EnqueueInventoryUpdate(ctx context.Context, adminID string, req *EnqueueInventoryRequest) (outcome LogOutcome, err error) {
	if err := utils.ValidateStruct(req); err != nil {
		return LogOutcome{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !req.Action.Valid() {
		return LogOutcome{}, &FieldError{Field: "action", Message: fmt.Sprintf("unknown inventory action %q", req.Action)}
	}

	ctx, done := s.track(ctx, WorkflowEnqueue)
	defer func() { done(err) }()

	if _, err := s.products.GetProduct(ctx, req.ProductID); err != nil {
		return LogOutcome{}, err
	}

	reason := req.Reason
	if reason == "" {
		reason = "Manual inventory update"
	}
	if err := s.queues.SendInventoryUpdate(ctx, &models.InventoryUpdateMessage{
		ProductID: req.ProductID,
		Action:    req.Action,
		Quantity:  req.Quantity,
		Reason:    reason,
		Timestamp: s.now().UTC(),
	}); err != nil {
		return LogOutcome{}, s.fail(WorkflowEnqueue, StepEnqueueInventory, req.ProductID, err)
	}
	if err := s.queues.SendAdminActivity(ctx, s.activity(adminID, models.ActivityEnqueueInventory, models.EntityTypeProduct, req.ProductID,
		fmt.Sprintf("Queued inventory %s of %d", req.Action, req.Quantity),
		models.Metadata{
			"Action":   models.StringValue(string(req.Action)),
			"Quantity": models.IntValue(req.Quantity),
		})); err != nil {
		return LogOutcome{}, s.fail(WorkflowEnqueue, StepEnqueueActivity, req.ProductID, err)
	}

	return s.logs.Write(ctx, models.LogCategoryGeneral, LogFileQueueAdmin, fmt.Sprintf(
		"Inventory update queued: %s - %s %d - Reason: %s - Admin: %s",
		req.ProductID, req.Action, req.Quantity, reason, adminID,
	)), nil
}

func (s *AdminService) activity(adminID, action, entityType, entityID, details string, metadata models.Metadata) *models.AdminActivityMessage {
	return &models.AdminActivityMessage{
		ActivityID:    uuid.NewString(),
		SchemaVersion: models.AdminActivitySchemaVersion,
		AdminID:       adminID,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Details:       details,
		Timestamp:     s.now().UTC(),
		Metadata:      metadata,
	}
}

// track opens a span for workflow and returns the func that closes it and
// counts the run.
func (s *AdminService) track(ctx context.Context, workflow string) (context.Context, func(error)) {
	ctx, span := telemetry.StartSpan(ctx, workflow, attribute.String("workflow", workflow))
	return ctx, func(err error) {
		telemetry.EndSpan(span, err)
		outcome := telemetry.OutcomeSuccess
		if err != nil {
			outcome = telemetry.OutcomeFailure
		}
		telemetry.WorkflowRuns.WithLabelValues(workflow, outcome).Inc()
	}
}

func (s *AdminService) fail(workflow, step, entityID string, err error) error {
	logrus.WithError(err).WithFields(logrus.Fields{
		"workflow":  workflow,
		"step":      step,
		"entity_id": entityID,
	}).Error("Admin workflow failed")
	return &WorkflowError{Workflow: workflow, Step: step, EntityID: entityID, Err: err}
}
