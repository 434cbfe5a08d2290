// internal/models/common.go
package models

import (
	"strings"
	"time"
)

// TableEntity carries the keys and concurrency token shared by every stored record.
type TableEntity struct {
	PartitionKey string    `json:"partition_key" gorm:"primaryKey;size:255"`
	RowKey       string    `json:"row_key" gorm:"primaryKey;size:255"`
	ETag         string    `json:"etag" gorm:"column:etag;size:64;not null"`
	Timestamp    time.Time `json:"timestamp"`
}

// Entity exposes the embedded keys to the storage layer.
func (e *TableEntity) Entity() *TableEntity {
	return e
}

// NormalizeEmail lower-cases and trims an email so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Enums
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeAdmin    UserType = "admin"
)

type OrderStatus string

const (
	OrderStatusCart       OrderStatus = "Cart"
	OrderStatusPlaced     OrderStatus = "Placed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusCart:       0,
	OrderStatusPlaced:     1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
}

func (s OrderStatus) Valid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := orderStatusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next goes forward.
// Cancelled is terminal and only reachable before shipping.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == OrderStatusCancelled {
		return false
	}
	if next == OrderStatusCancelled {
		return s == OrderStatusPlaced || s == OrderStatusProcessing
	}
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

type InventoryAction string

const (
	InventoryActionReserveStock  InventoryAction = "ReserveStock"
	InventoryActionReleaseStock  InventoryAction = "ReleaseStock"
	InventoryActionInitialStock  InventoryAction = "InitialStock"
	InventoryActionStockIncrease InventoryAction = "StockIncrease"
	InventoryActionStockDecrease InventoryAction = "StockDecrease"
	InventoryActionUpdateStock   InventoryAction = "UpdateStock"
)

func (a InventoryAction) Valid() bool {
	switch a {
	case InventoryActionReserveStock, InventoryActionReleaseStock, InventoryActionInitialStock,
		InventoryActionStockIncrease, InventoryActionStockDecrease, InventoryActionUpdateStock:
		return true
	}
	return false
}

type LogCategory string

const (
	LogCategoryGeneral   LogCategory = "general"
	LogCategoryProducts  LogCategory = "products"
	LogCategoryCustomers LogCategory = "customers"
	LogCategoryImages    LogCategory = "images"
	LogCategoryOrders    LogCategory = "orders"
	LogCategoryInventory LogCategory = "inventory"
	LogCategoryAdmin     LogCategory = "admin"
)

var LogCategories = []LogCategory{
	LogCategoryGeneral,
	LogCategoryProducts,
	LogCategoryCustomers,
	LogCategoryImages,
	LogCategoryOrders,
	LogCategoryInventory,
	LogCategoryAdmin,
}

func (c LogCategory) Valid() bool {
	for _, known := range LogCategories {
		if c == known {
			return true
		}
	}
	return false
}
