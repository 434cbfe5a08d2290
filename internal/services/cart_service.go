// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/storage"
	"github.com/javajoker/abc-retail/internal/utils"
)

type CartService struct {
	table    storage.Table[models.CartItem]
	products *ProductService
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=1000"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"max=1000"`
}

type CartSummary struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"total_items"`
	Total      decimal.Decimal   `json:"total"`
}

func NewCartService(table storage.Table[models.CartItem], products *ProductService) *CartService {
	return &CartService{table: table, products: products}
}

// AddToCart writes the line for (customer, product). Adding a product that is
// already in the cart replaces its quantity.
func (s *CartService) AddToCart(ctx context.Context, customerID string, req *AddToCartRequest) (*models.CartItem, error) {
	key := models.NormalizeEmail(customerID)
	if key == "" {
		return nil, ErrUnauthenticated
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.InStock() {
		return nil, fmt.Errorf("product %s: %w", product.RowKey, ErrOutOfStock)
	}

	item := &models.CartItem{
		TableEntity: models.TableEntity{PartitionKey: key, RowKey: product.RowKey},
		ProductName: product.Name,
		ImageURL:    product.ImageURL,
		Quantity:    req.Quantity,
		Price:       product.Price,
		AddedAt:     time.Now().UTC(),
	}
	if err := s.table.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}
	return item, nil
}

func (s *CartService) GetCart(ctx context.Context, customerID string) ([]models.CartItem, error) {
	key := models.NormalizeEmail(customerID)
	if key == "" {
		return nil, ErrUnauthenticated
	}
	items, err := storage.Collect(s.table.Query(ctx, storage.Filter[models.CartItem]{PartitionKey: key}))
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return items, nil
}

func (s *CartService) Summary(ctx context.Context, customerID string) (*CartSummary, error) {
	items, err := s.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return &CartSummary{
		Items:      items,
		TotalItems: countItems(items),
		Total:      models.CartTotal(items),
	}, nil
}

func (s *CartService) Count(ctx context.Context, customerID string) (int, error) {
	items, err := s.GetCart(ctx, customerID)
	if err != nil {
		return 0, err
	}
	return countItems(items), nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	key := models.NormalizeEmail(customerID)
	if key == "" {
		return ErrUnauthenticated
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, customerID, productID)
	}
	if err := utils.ValidateStruct(&UpdateQuantityRequest{Quantity: quantity}); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	item, err := s.table.Get(ctx, key, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("cart line %s: %w", productID, ErrNotFound)
		}
		return fmt.Errorf("failed to load cart line: %w", err)
	}
	item.Quantity = quantity
	if err := s.table.Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, customerID, productID string) error {
	key := models.NormalizeEmail(customerID)
	if key == "" {
		return ErrUnauthenticated
	}
	if err := s.table.Delete(ctx, key, productID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("cart line %s: %w", productID, ErrNotFound)
		}
		return fmt.Errorf("failed to remove cart line: %w", err)
	}
	return nil
}

// ClearCart deletes the given lines in chunks of storage.MaxBatchSize. Each
// chunk is atomic on its own; a failure leaves earlier chunks deleted.
func (s *CartService) ClearCart(ctx context.Context, customerID string, items []models.CartItem) error {
	key := models.NormalizeEmail(customerID)
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.RowKey)
	}
	for i, chunk := range storage.Chunk(keys) {
		if err := s.table.DeleteBatch(ctx, key, chunk); err != nil {
			return fmt.Errorf("failed to clear cart chunk %d: %w", i, err)
		}
	}
	return nil
}

func countItems(items []models.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
