// internal/models/cart.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one cart line. PartitionKey is the normalized customer email,
// RowKey the product id.
type CartItem struct {
	TableEntity
	ProductName string          `json:"product_name" gorm:"size:255"`
	ImageURL    string          `json:"image_url" gorm:"type:text"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	AddedAt     time.Time       `json:"added_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (i *CartItem) ProductID() string {
	return i.RowKey
}

func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartTotal sums price times quantity over the lines, rounded to cents.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].LineTotal())
	}
	return total.Round(2)
}
