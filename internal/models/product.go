// internal/models/product.go
package models

import (
	"github.com/shopspring/decimal"
)

// ProductPartition is the single partition every catalog product lives in.
const ProductPartition = "Retail"

type Product struct {
	TableEntity
	Name          string          `json:"name" gorm:"size:255;not null"`
	Category      string          `json:"category" gorm:"size:100;index"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0"`
	ImageURL      string          `json:"image_url" gorm:"type:text"`
	Description   string          `json:"description" gorm:"type:text"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) ID() string {
	return p.RowKey
}

func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}
