// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/storage"
	"github.com/javajoker/abc-retail/internal/utils"
)

type ProductService struct {
	table storage.Table[models.Product]
}

type ProductSearchParams struct {
	utils.PaginationParams
	InStock *bool `json:"in_stock,omitempty"`
}

var productSortFields = map[string]bool{
	"name":           true,
	"price":          true,
	"stock_quantity": true,
	"category":       true,
}

func NewProductService(table storage.Table[models.Product]) *ProductService {
	return &ProductService{table: table}
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.table.Get(ctx, models.ProductPartition, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

// SearchProducts filters the catalog in process and returns one page plus the
// total number of matches.
func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 20
	}
	search := strings.ToLower(strings.TrimSpace(params.Search))
	filter := storage.Filter[models.Product]{
		PartitionKey: models.ProductPartition,
		Match: func(p *models.Product) bool {
			if params.Category != "" && !strings.EqualFold(p.Category, params.Category) {
				return false
			}
			if params.InStock != nil && p.InStock() != *params.InStock {
				return false
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.Description), search) {
				return false
			}
			return true
		},
	}

	products, err := storage.Collect(s.table.Query(ctx, filter))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}

	sortProducts(products, params.Sort, params.Order)
	return utils.Paginate(products, params.PaginationParams), int64(len(products)), nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := storage.Collect(s.table.Query(ctx, storage.Filter[models.Product]{
		PartitionKey: models.ProductPartition,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	sortProducts(products, "name", "asc")
	return products, nil
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var categories []string
	for _, p := range products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	product.PartitionKey = models.ProductPartition
	if err := s.table.Insert(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// SaveProduct writes product only if the stored etag still equals etag.
func (s *ProductService) SaveProduct(ctx context.Context, product *models.Product, etag string) error {
	if err := s.table.Update(ctx, product, etag); err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.RowKey, err)
	}
	return nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.table.Delete(ctx, models.ProductPartition, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// AdjustStock applies delta to the stored stock with an etag-guarded update.
// It does not clamp at zero.
func (s *ProductService) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.StockQuantity += delta
	if err := s.table.Update(ctx, product, product.ETag); err != nil {
		return nil, fmt.Errorf("failed to adjust stock of %s: %w", id, err)
	}
	return product, nil
}

// Seed upserts the sample catalog used in development.
func (s *ProductService) Seed(ctx context.Context) (int, error) {
	samples := []models.Product{
		{Name: "Classic Denim Jacket", Category: "Clothing", Price: decimal.RequireFromString("59.99"), StockQuantity: 25, Description: "Stonewashed denim jacket with brass buttons."},
		{Name: "Leather Ankle Boots", Category: "Footwear", Price: decimal.RequireFromString("89.50"), StockQuantity: 12, Description: "Hand-stitched leather boots with a low heel."},
		{Name: "Canvas Tote Bag", Category: "Accessories", Price: decimal.RequireFromString("19.00"), StockQuantity: 60, Description: "Heavy canvas tote with an inner pocket."},
		{Name: "Wool Beanie", Category: "Accessories", Price: decimal.RequireFromString("14.25"), StockQuantity: 40, Description: "Ribbed merino wool beanie."},
		{Name: "Linen Shirt", Category: "Clothing", Price: decimal.RequireFromString("34.90"), StockQuantity: 0, Description: "Relaxed fit linen shirt."},
	}

	for i := range samples {
		p := &samples[i]
		p.PartitionKey = models.ProductPartition
		p.RowKey = fmt.Sprintf("seed-%03d", i+1)
		if err := s.table.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
	}
	return len(samples), nil
}

func sortProducts(products []models.Product, field, order string) {
	if !productSortFields[field] {
		field = "name"
	}
	less := func(a, b *models.Product) bool {
		switch field {
		case "price":
			return a.Price.LessThan(b.Price)
		case "stock_quantity":
			return a.StockQuantity < b.StockQuantity
		case "category":
			return a.Category < b.Category
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if order == "desc" {
			return less(&products[j], &products[i])
		}
		return less(&products[i], &products[j])
	})
}
