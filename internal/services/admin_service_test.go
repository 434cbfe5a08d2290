package services_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/services"
)

const adminID = "admin@abc-retail.example"

type AdminServiceTestSuite struct {
	suite.Suite
	h   *harness
	ctx context.Context
}

func (suite *AdminServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.h = newHarness(suite.T())
}

func (suite *AdminServiceTestSuite) updateRequest(p *models.Product, stock int) *services.UpdateProductRequest {
	return &services.UpdateProductRequest{
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price,
		StockQuantity: stock,
		Description:   p.Description,
	}
}

func (suite *AdminServiceTestSuite) TestCreateProduct() {
	t := suite.T()
	result, err := suite.h.svc.Admin.CreateProduct(suite.ctx, adminID, &services.CreateProductRequest{
		Name:          "Rain Jacket",
		Category:      "Clothing",
		Price:         decimal.RequireFromString("49.90"),
		StockQuantity: 12,
	}, nil)
	require.NoError(t, err)

	id := result.Product.RowKey
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, result.Product.ETag)
	assert.Equal(t, 2, result.MessagesEnqueued)

	stored, err := suite.h.svc.Products.GetProduct(suite.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Rain Jacket", stored.Name)

	activities := pending[models.AdminActivityMessage](t, suite.h.activityQueue)
	require.Len(t, activities, 1)
	assert.Equal(t, models.ActivityCreateProduct, activities[0].Action)
	assert.Equal(t, models.AdminActivitySchemaVersion, activities[0].SchemaVersion)
	assert.Equal(t, adminID, activities[0].AdminID)
	stockQty, ok := activities[0].Metadata["StockQty"].Number()
	require.True(t, ok)
	assert.Equal(t, int64(12), stockQty.IntPart())
	hasImage, ok := activities[0].Metadata["HasImage"].Bool()
	require.True(t, ok)
	assert.False(t, hasImage)

	inventory := pending[models.InventoryUpdateMessage](t, suite.h.inventoryQueue)
	require.Len(t, inventory, 1)
	assert.Equal(t, models.InventoryActionInitialStock, inventory[0].Action)
	assert.Equal(t, 12, inventory[0].Quantity)

	assert.Len(t, suite.h.logFiles(t, models.LogCategoryProducts), 1)
}

func (suite *AdminServiceTestSuite) TestCreateProductWithImage() {
	t := suite.T()
	result, err := suite.h.svc.Admin.CreateProduct(suite.ctx, adminID, &services.CreateProductRequest{
		ID:       "jacket",
		Name:     "Rain Jacket",
		Category: "Clothing",
		Price:    decimal.RequireFromString("49.90"),
	}, &services.ImageUpload{
		FileName:    "jacket.png",
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
		Content:     bytes.NewReader(pngBytes),
	})
	require.NoError(t, err)
	assert.Equal(t, "jacket", result.Product.RowKey)
	assert.True(t, strings.HasPrefix(result.Product.ImageURL, "http://localhost:8080/uploads/products/"))
	assert.True(t, strings.HasSuffix(result.Product.ImageURL, ".png"))
}

func (suite *AdminServiceTestSuite) TestCreateProductRejectedImagePersistsNothing() {
	t := suite.T()
	_, err := suite.h.svc.Admin.CreateProduct(suite.ctx, adminID, &services.CreateProductRequest{
		Name:     "Rain Jacket",
		Category: "Clothing",
		Price:    decimal.RequireFromString("49.90"),
	}, &services.ImageUpload{
		FileName: "jacket.exe",
		Size:     4,
		Content:  strings.NewReader("MZ.."),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)

	var fieldErr *services.FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "image", fieldErr.Field)

	assert.Equal(t, 0, suite.h.products.Len())
	assert.Empty(t, suite.h.activityQueue.Pending())
	assert.Empty(t, suite.h.inventoryQueue.Pending())
}

func (suite *AdminServiceTestSuite) TestCreateProductDuplicateID() {
	t := suite.T()
	suite.h.addProduct(t, "productA", "10.00", 5)
	_, err := suite.h.svc.Admin.CreateProduct(suite.ctx, adminID, &services.CreateProductRequest{
		ID:       "productA",
		Name:     "Clash",
		Category: "Clothing",
		Price:    decimal.RequireFromString("1.00"),
	}, nil)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func (suite *AdminServiceTestSuite) TestCreateProductValidation() {
	t := suite.T()
	_, err := suite.h.svc.Admin.CreateProduct(suite.ctx, adminID, &services.CreateProductRequest{
		Name:  "No category",
		Price: decimal.RequireFromString("-1.00"),
	}, nil)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, 0, suite.h.products.Len())
}

func (suite *AdminServiceTestSuite) TestUpdateStockDecrease() {
	t := suite.T()
	p := suite.h.addProduct(t, "productA", "10.00", 50)

	result, err := suite.h.svc.Admin.UpdateProduct(suite.ctx, adminID, "productA", suite.updateRequest(p, 30), nil)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Product.StockQuantity)
	assert.NotEqual(t, p.ETag, result.Product.ETag)

	inventory := pending[models.InventoryUpdateMessage](t, suite.h.inventoryQueue)
	require.Len(t, inventory, 1)
	assert.Equal(t, models.InventoryActionStockDecrease, inventory[0].Action)
	assert.Equal(t, 20, inventory[0].Quantity)

	activities := pending[models.AdminActivityMessage](t, suite.h.activityQueue)
	require.Len(t, activities, 1)
	assert.Equal(t, models.ActivityUpdateProduct, activities[0].Action)
	oldStock, _ := activities[0].Metadata["OldStock"].Number()
	newStock, _ := activities[0].Metadata["NewStock"].Number()
	assert.Equal(t, int64(50), oldStock.IntPart())
	assert.Equal(t, int64(30), newStock.IntPart())
}

func (suite *AdminServiceTestSuite) TestUpdateStockIncrease() {
	t := suite.T()
	p := suite.h.addProduct(t, "productA", "10.00", 50)

	_, err := suite.h.svc.Admin.UpdateProduct(suite.ctx, adminID, "productA", suite.updateRequest(p, 65), nil)
	require.NoError(t, err)

	inventory := pending[models.InventoryUpdateMessage](t, suite.h.inventoryQueue)
	require.Len(t, inventory, 1)
	assert.Equal(t, models.InventoryActionStockIncrease, inventory[0].Action)
	assert.Equal(t, 15, inventory[0].Quantity)
}

func (suite *AdminServiceTestSuite) TestUpdateWithoutStockChange() {
	t := suite.T()
	p := suite.h.addProduct(t, "productA", "10.00", 50)
	req := suite.updateRequest(p, 50)
	req.Price = decimal.RequireFromString("12.50")

	result, err := suite.h.svc.Admin.UpdateProduct(suite.ctx, adminID, "productA", req, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MessagesEnqueued)
	assert.Empty(t, suite.h.inventoryQueue.Pending())
	assert.Len(t, suite.h.activityQueue.Pending(), 1)

	stored, err := suite.h.svc.Products.GetProduct(suite.ctx, "productA")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.50").Equal(stored.Price))
}

func (suite *AdminServiceTestSuite) TestUpdateStaleETagConflicts() {
	t := suite.T()
	p := suite.h.addProduct(t, "productA", "10.00", 50)
	staleETag := p.ETag

	// Someone else writes first.
	_, err := suite.h.svc.Products.AdjustStock(suite.ctx, "productA", -5)
	require.NoError(t, err)

	req := suite.updateRequest(p, 10)
	req.ETag = staleETag
	_, err = suite.h.svc.Admin.UpdateProduct(suite.ctx, adminID, "productA", req, nil)
	assert.ErrorIs(t, err, services.ErrConflict)

	stored, err := suite.h.svc.Products.GetProduct(suite.ctx, "productA")
	require.NoError(t, err)
	assert.Equal(t, 45, stored.StockQuantity)
	assert.Empty(t, suite.h.inventoryQueue.Pending())
	assert.Empty(t, suite.h.activityQueue.Pending())
}

func (suite *AdminServiceTestSuite) TestUpdateKeepsImageWhenNoneUploaded() {
	t := suite.T()
	p := suite.h.addProduct(t, "productA", "10.00", 50)
	p.ImageURL = "https://cdn.example/a.png"
	require.NoError(t, suite.h.products.Upsert(suite.ctx, p))

	result, err := suite.h.svc.Admin.UpdateProduct(suite.ctx, adminID, "productA", suite.updateRequest(p, 50), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.png", result.Product.ImageURL)
}

func (suite *AdminServiceTestSuite) TestUpdateMissingProduct() {
	_, err := suite.h.svc.Admin.UpdateProduct(suite.ctx, adminID, "ghost", &services.UpdateProductRequest{
		Name:     "Ghost",
		Category: "None",
	}, nil)
	assert.ErrorIs(suite.T(), err, services.ErrNotFound)
}

func (suite *AdminServiceTestSuite) TestCreateCustomerConflict() {
	t := suite.T()
	req := &services.CreateCustomerRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}

	result, err := suite.h.svc.Admin.CreateCustomer(suite.ctx, adminID, req)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", result.Customer.RowKey)
	assert.Len(t, suite.h.activityQueue.Pending(), 1)

	req.Email = "ADA@example.com"
	_, err = suite.h.svc.Admin.CreateCustomer(suite.ctx, adminID, req)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func (suite *AdminServiceTestSuite) TestUploadImage() {
	t := suite.T()
	result, err := suite.h.svc.Admin.UploadImage(suite.ctx, adminID, &services.ImageUpload{
		FileName:    "banner.png",
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
		Content:     bytes.NewReader(pngBytes),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Image.Key, "products/"))
	assert.NotEmpty(t, result.Image.Checksum)
	assert.True(t, result.Log.OK())

	activity := pending[models.AdminActivityMessage](t, suite.h.activityQueue)
	require.Len(t, activity, 1)
	assert.Equal(t, models.ActivityUploadImage, activity[0].Action)
	assert.Equal(t, models.EntityTypeImage, activity[0].EntityType)
	assert.Len(t, suite.h.logFiles(t, models.LogCategoryImages), 1)

	_, err = suite.h.svc.Admin.UploadImage(suite.ctx, adminID, &services.ImageUpload{
		FileName: "notes.txt",
		Size:     4,
		Content:  strings.NewReader("text"),
	})
	var fieldErr *services.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "image", fieldErr.Field)
}

func (suite *AdminServiceTestSuite) TestShipOrder() {
	t := suite.T()
	suite.h.addProduct(t, "productA", "10.00", 50)
	suite.h.addToCart(t, customer, "productA", 1)
	checkout, err := suite.h.svc.Checkout.Checkout(suite.ctx, customer)
	require.NoError(t, err)
	drainAll(t, suite.h.lifecycleQueue)

	result, err := suite.h.svc.Admin.ShipOrder(suite.ctx, adminID, checkout.Order.RowKey, &services.ShipOrderRequest{})
	require.NoError(t, err)
	assert.Regexp(t, `^ABC-[A-Z0-9]{10}$`, result.TrackingNumber)

	lifecycle := pending[models.OrderLifecycleMessage](t, suite.h.lifecycleQueue)
	require.Len(t, lifecycle, 1)
	assert.Equal(t, models.OrderStatusShipped, lifecycle[0].Status)
	assert.Equal(t, models.OrderStatusPlaced, lifecycle[0].PreviousStatus)
	assert.Equal(t, result.TrackingNumber, lifecycle[0].TrackingNumber)
}

func (suite *AdminServiceTestSuite) TestShipOrderAlreadyShipped() {
	t := suite.T()
	order := &models.Order{
		TableEntity: models.TableEntity{PartitionKey: customer, RowKey: "order-1"},
		Status:      models.OrderStatusShipped,
	}
	require.NoError(t, suite.h.orders.Insert(suite.ctx, order))

	_, err := suite.h.svc.Admin.ShipOrder(suite.ctx, adminID, "order-1", &services.ShipOrderRequest{})
	assert.ErrorIs(t, err, services.ErrInvalidStatus)
	assert.Empty(t, suite.h.lifecycleQueue.Pending())
}

func (suite *AdminServiceTestSuite) TestEnqueueInventoryUnknownAction() {
	t := suite.T()
	suite.h.addProduct(t, "productA", "10.00", 50)
	_, err := suite.h.svc.Admin.EnqueueInventoryUpdate(suite.ctx, adminID, &services.EnqueueInventoryRequest{
		ProductID: "productA",
		Action:    "Teleport",
		Quantity:  1,
	})
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Empty(t, suite.h.inventoryQueue.Pending())
}

func (suite *AdminServiceTestSuite) TestDashboard() {
	t := suite.T()
	suite.h.addProduct(t, "productA", "10.00", 50)
	suite.h.addToCart(t, customer, "productA", 1)
	_, err := suite.h.svc.Checkout.Checkout(suite.ctx, customer)
	require.NoError(t, err)

	dashboard, err := suite.h.svc.Admin.Dashboard(suite.ctx)
	require.NoError(t, err)
	lengths := map[string]int{}
	for _, q := range dashboard.Queues {
		lengths[q.Name] = q.Length
	}
	assert.Equal(t, map[string]int{
		services.QueueAdminActivity:   0,
		services.QueueInventoryUpdate: 1,
		services.QueueOrderLifecycle:  1,
		services.QueueOrderProcessing: 1,
	}, lengths)
}

func TestAdminServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceTestSuite))
}
