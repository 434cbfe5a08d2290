// internal/models/messages.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminActivitySchemaVersion is bumped whenever AdminActivityMessage changes shape.
const AdminActivitySchemaVersion = 1

const OrderActionProcess = "ProcessOrder"

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type OrderProcessingMessage struct {
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	Action      string          `json:"action"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Items       []OrderItem     `json:"items"`
}

type InventoryUpdateMessage struct {
	ProductID string          `json:"product_id"`
	Action    InventoryAction `json:"action"`
	Quantity  int             `json:"quantity"`
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
}

type OrderLifecycleMessage struct {
	OrderID        string          `json:"order_id"`
	CustomerID     string          `json:"customer_id"`
	Status         OrderStatus     `json:"status"`
	PreviousStatus OrderStatus     `json:"previous_status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	Notes          string          `json:"notes"`
	Timestamp      time.Time       `json:"timestamp"`
}

type AdminActivityMessage struct {
	ActivityID    string    `json:"activity_id"`
	SchemaVersion int       `json:"schema_version"`
	AdminID       string    `json:"admin_id"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Details       string    `json:"details"`
	Timestamp     time.Time `json:"timestamp"`
	Metadata      Metadata  `json:"metadata,omitempty"`
}

// Admin activity actions
const (
	ActivityCreateProduct         = "CreateProduct"
	ActivityUpdateProduct         = "UpdateProduct"
	ActivityDeleteProduct         = "DeleteProduct"
	ActivityCreateCustomer        = "CreateCustomer"
	ActivityUploadImage           = "UploadImage"
	ActivityShipOrder             = "ShipOrder"
	ActivityProcessOrder          = "ProcessOrder"
	ActivityProcessInventory      = "ProcessInventoryUpdate"
	ActivityProcessLifecycleEvent = "ProcessLifecycleEvent"
	ActivityEnqueueOrder          = "EnqueueOrderProcessing"
	ActivityEnqueueInventory      = "EnqueueInventoryUpdate"
)

// Entity types referenced by admin activity
const (
	EntityTypeProduct  = "Product"
	EntityTypeCustomer = "Customer"
	EntityTypeOrder    = "Order"
	EntityTypeImage    = "Image"
)
