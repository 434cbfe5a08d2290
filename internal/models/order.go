// internal/models/order.go
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultDeliveryAddress = "Default Address"

// Order is partitioned by normalized customer email and keyed by order id.
type Order struct {
	TableEntity
	Status           OrderStatus     `json:"status" gorm:"size:32;not null;index"`
	CartSnapshotJSON string          `json:"cart_snapshot_json" gorm:"column:cart_snapshot_json;type:text"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	OrderDate        time.Time       `json:"order_date" gorm:"index"`
	DeliveryAddress  string          `json:"delivery_address" gorm:"type:text"`
	TrackingNumber   string          `json:"tracking_number" gorm:"size:100"`
	CustomerEmail    string          `json:"customer_email" gorm:"size:255"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) ID() string {
	return o.RowKey
}

func (o *Order) CartSnapshot() ([]CartItem, error) {
	var items []CartItem
	if o.CartSnapshotJSON == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(o.CartSnapshotJSON), &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot of order %s: %w", o.RowKey, err)
	}
	return items, nil
}

func SnapshotCart(items []CartItem) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	return string(data), nil
}
