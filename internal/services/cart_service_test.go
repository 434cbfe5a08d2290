package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/services"
)

func TestAddToCartReplacesQuantity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addProduct(t, "productA", "10.00", 50)

	h.addToCart(t, customer, "productA", 2)
	h.addToCart(t, "A@X.COM", "productA", 5)

	items, err := h.svc.Carts.GetCart(ctx, customer)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(items[0].Price))
}

func TestAddToCartDefaultsQuantityToOne(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addProduct(t, "productA", "10.00", 50)

	item, err := h.svc.Carts.AddToCart(ctx, customer, &services.AddToCartRequest{ProductID: "productA"})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
}

func TestAddToCartRejectsOutOfStockAndUnknown(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addProduct(t, "empty", "10.00", 0)

	_, err := h.svc.Carts.AddToCart(ctx, customer, &services.AddToCartRequest{ProductID: "empty", Quantity: 1})
	assert.ErrorIs(t, err, services.ErrOutOfStock)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = h.svc.Carts.AddToCart(ctx, customer, &services.AddToCartRequest{ProductID: "ghost", Quantity: 1})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addProduct(t, "productA", "10.00", 50)
	h.addProduct(t, "productB", "5.00", 50)
	h.addToCart(t, customer, "productA", 2)
	h.addToCart(t, customer, "productB", 1)

	require.NoError(t, h.svc.Carts.UpdateQuantity(ctx, customer, "productB", 4))
	require.NoError(t, h.svc.Carts.UpdateQuantity(ctx, customer, "productA", 0))

	summary, err := h.svc.Carts.Summary(ctx, customer)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 4, summary.TotalItems)
	assert.True(t, decimal.RequireFromString("20.00").Equal(summary.Total))

	err = h.svc.Carts.UpdateQuantity(ctx, customer, "productA", 3)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRemoveItemMissing(t *testing.T) {
	h := newHarness(t)
	err := h.svc.Carts.RemoveItem(context.Background(), customer, "ghost")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCartsArePartitionedByCustomer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addProduct(t, "productA", "10.00", 50)
	h.addToCart(t, customer, "productA", 2)
	h.addToCart(t, "b@x.com", "productA", 7)

	count, err := h.svc.Carts.Count(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	summary, err := h.svc.Carts.Summary(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.True(t, summary.Total.IsZero())
}

func TestSearchProducts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addProduct(t, "a", "30.00", 1)
	h.addProduct(t, "b", "10.00", 0)
	h.addProduct(t, "c", "20.00", 5)

	params := services.ProductSearchParams{}
	params.Sort = "price"
	params.Order = "desc"
	products, total, err := h.svc.Products.SearchProducts(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, products, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{products[0].RowKey, products[1].RowKey, products[2].RowKey})

	inStock := true
	params = services.ProductSearchParams{InStock: &inStock}
	params.Search = "PRODUCT"
	params.Limit = 1
	products, total, err = h.svc.Products.SearchProducts(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, products, 1)

	params = services.ProductSearchParams{}
	params.Category = "footwear"
	_, total, err = h.svc.Products.SearchProducts(ctx, params)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLogServiceCreateEntryAndRead(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	path, err := h.svc.Logs.CreateEntry(ctx, adminID, &services.CreateLogEntryRequest{
		Category: "general",
		FileName: "notes.log",
		Content:  "Restocked the warehouse",
	})
	require.NoError(t, err)

	files, err := h.svc.Logs.ListFiles(ctx, models.LogCategoryGeneral)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0].Path)
	assert.Equal(t, "general", files[0].Category)

	content, err := h.svc.Logs.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Contains(t, content, "Created by "+adminID)
	assert.Contains(t, content, "Restocked the warehouse")

	_, err = h.svc.Logs.ReadFile(ctx, "general/../secrets")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = h.svc.Logs.CreateEntry(ctx, adminID, &services.CreateLogEntryRequest{
		Category: "payroll",
		FileName: "x.log",
		Content:  "nope",
	})
	assert.ErrorIs(t, err, services.ErrValidation)
}
