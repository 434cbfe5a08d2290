package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/abc-retail/internal/config"
	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/router"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/storage"
	"github.com/javajoker/abc-retail/internal/utils"
)

const customerEmail = "a@x.com"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta json.RawMessage `json:"meta"`
}

type RouterTestSuite struct {
	suite.Suite
	router    *gin.Engine
	container *services.Container
	queues    services.Queues

	customerToken string
	adminToken    string
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	require.NoError(suite.T(), i18n.Initialize("en"))
}

func (suite *RouterTestSuite) SetupTest() {
	t := suite.T()

	db, err := storage.OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	blobs, err := storage.NewLocalBlobStore(dir, "http://localhost:8080/uploads")
	require.NoError(t, err)

	suite.queues = services.Queues{
		OrderProcessing: storage.NewMemoryQueue(services.QueueOrderProcessing),
		InventoryUpdate: storage.NewMemoryQueue(services.QueueInventoryUpdate),
		OrderLifecycle:  storage.NewMemoryQueue(services.QueueOrderLifecycle),
		AdminActivity:   storage.NewMemoryQueue(services.QueueAdminActivity),
	}
	suite.container = services.NewContainer(services.Backends{
		Products:     storage.NewMemoryTable[models.Product](),
		Customers:    storage.NewMemoryTable[models.Customer](),
		Carts:        storage.NewMemoryTable[models.CartItem](),
		Orders:       storage.NewMemoryTable[models.Order](),
		Queues:       suite.queues,
		Blobs:        blobs,
		Logs:         storage.NewBadgerLogStore(db),
		MaxImageSize: 1024,
	})

	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{Port: "8080", BaseURL: "http://localhost:8080"},
		JWT:         config.JWTConfig{SecretKey: "test-secret", Issuer: "abc-retail-test"},
		Backends:    config.BackendConfig{Table: "memory", Queue: "memory", Blob: "local", Log: "badger"},
		Blob:        config.BlobConfig{LocalDir: dir, MaxImageSize: 1024},
		Telemetry:   config.TelemetryConfig{ServiceName: "abc-retail-test"},
	}
	suite.router = router.Initialize(cfg, suite.container)

	suite.customerToken, err = utils.GenerateJWT(customerEmail, string(models.UserTypeCustomer), time.Hour)
	require.NoError(t, err)
	suite.adminToken, err = utils.GenerateJWT("admin-1", string(models.UserTypeAdmin), time.Hour)
	require.NoError(t, err)
}

func (suite *RouterTestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return suite.serve(req, token)
}

func (suite *RouterTestSuite) serve(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func (suite *RouterTestSuite) addProduct(id, price string, stock int) {
	err := suite.container.Products.CreateProduct(context.Background(), &models.Product{
		TableEntity:   models.TableEntity{RowKey: id},
		Name:          "Product " + id,
		Category:      "Apparel",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	})
	require.NoError(suite.T(), err)
}

func (suite *RouterTestSuite) TestHealth() {
	w, _ := suite.do("GET", "/health", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "healthy")
}

func (suite *RouterTestSuite) TestProductsArePublicAndPaginated() {
	suite.addProduct("productA", "10.00", 5)
	suite.addProduct("productB", "5.00", 0)

	w, response := suite.do("GET", "/v1/products?limit=1&sort=price", "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.True(suite.T(), response.Success)
	assert.Equal(suite.T(), "2", w.Header().Get("X-Total-Count"))

	var products []models.Product
	require.NoError(suite.T(), json.Unmarshal(response.Data, &products))
	require.Len(suite.T(), products, 1)
	assert.Equal(suite.T(), "productB", products[0].RowKey)

	w, response = suite.do("GET", "/v1/products/ghost", "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.False(suite.T(), response.Success)
	assert.Equal(suite.T(), "NOT_FOUND", response.Error.Code)
	assert.Equal(suite.T(), "Product not found", response.Error.Message)
}

func (suite *RouterTestSuite) TestCustomerRoutesRequireCustomerToken() {
	w, response := suite.do("GET", "/v1/cart", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(suite.T(), "UNAUTHORIZED", response.Error.Code)

	w, _ = suite.do("GET", "/v1/cart", "not-a-token", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w, response = suite.do("GET", "/v1/cart", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
	assert.Equal(suite.T(), "FORBIDDEN", response.Error.Code)

	w, _ = suite.do("GET", "/v1/admin/dashboard", suite.customerToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *RouterTestSuite) TestCartAndCheckout() {
	suite.addProduct("productA", "10.00", 50)
	suite.addProduct("productB", "5.00", 50)

	w, _ := suite.do("POST", "/v1/cart/items", suite.customerToken, gin.H{"product_id": "productA", "quantity": 2})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	w, _ = suite.do("POST", "/v1/cart/items", suite.customerToken, gin.H{"product_id": "productB", "quantity": 1})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w, response := suite.do("GET", "/v1/cart/count", suite.customerToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"count":3}`, string(response.Data))

	w, response = suite.do("POST", "/v1/checkout", suite.customerToken, nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var checkout struct {
		Order            models.Order `json:"order"`
		MessagesEnqueued int          `json:"messages_enqueued"`
	}
	require.NoError(suite.T(), json.Unmarshal(response.Data, &checkout))
	assert.Equal(suite.T(), 4, checkout.MessagesEnqueued)
	assert.Equal(suite.T(), "25.00", checkout.Order.TotalAmount.StringFixed(2))
	assert.Equal(suite.T(), models.OrderStatusPlaced, checkout.Order.Status)

	w, response = suite.do("GET", "/v1/cart/count", suite.customerToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"count":0}`, string(response.Data))

	w, _ = suite.do("GET", "/v1/orders/"+checkout.Order.RowKey, suite.customerToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, response = suite.do("POST", "/v1/checkout", suite.customerToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Your cart is empty", response.Error.Message)
}

func (suite *RouterTestSuite) TestAddToCartValidation() {
	w, response := suite.do("POST", "/v1/cart/items", suite.customerToken, gin.H{"quantity": 2})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response.Error.Code)

	w, _ = suite.do("POST", "/v1/cart/items", suite.customerToken, gin.H{"product_id": "ghost"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestAdminProductLifecycle() {
	w, response := suite.do("POST", "/v1/admin/products", suite.adminToken, gin.H{
		"id":             "jacket",
		"name":           "Jacket",
		"category":       "Apparel",
		"price":          "49.99",
		"stock_quantity": 50,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var created struct {
		Product          models.Product `json:"product"`
		MessagesEnqueued int            `json:"messages_enqueued"`
	}
	require.NoError(suite.T(), json.Unmarshal(response.Data, &created))
	assert.Equal(suite.T(), 2, created.MessagesEnqueued)
	etag := created.Product.ETag
	require.NotEmpty(suite.T(), etag)

	update := gin.H{"name": "Jacket", "category": "Apparel", "price": "49.99", "stock_quantity": 30, "etag": etag}
	w, response = suite.do("PUT", "/v1/admin/products/jacket", suite.adminToken, update)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(response.Data, &created))
	assert.Equal(suite.T(), 2, created.MessagesEnqueued)

	// The first etag is stale now.
	update["stock_quantity"] = 10
	w, response = suite.do("PUT", "/v1/admin/products/jacket", suite.adminToken, update)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "CONFLICT", response.Error.Code)

	product, err := suite.container.Products.GetProduct(context.Background(), "jacket")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 30, product.StockQuantity)

	w, _ = suite.do("DELETE", "/v1/admin/products/jacket", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	w, _ = suite.do("DELETE", "/v1/admin/products/jacket", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestAdminCreateProductWithImage() {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(suite.T(), writer.WriteField("name", "Scarf"))
	require.NoError(suite.T(), writer.WriteField("category", "Accessories"))
	require.NoError(suite.T(), writer.WriteField("price", "12.50"))
	require.NoError(suite.T(), writer.WriteField("stock_quantity", "4"))
	part, err := writer.CreateFormFile("image", "scarf.png")
	require.NoError(suite.T(), err)
	_, err = part.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), writer.Close())

	req, _ := http.NewRequest("POST", "/v1/admin/products", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w, response := suite.serve(req, suite.adminToken)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Product models.Product `json:"product"`
	}
	require.NoError(suite.T(), json.Unmarshal(response.Data, &created))
	assert.Contains(suite.T(), created.Product.ImageURL, "http://localhost:8080/uploads/products/")
	assert.True(suite.T(), decimal.RequireFromString("12.50").Equal(created.Product.Price))
}

func (suite *RouterTestSuite) TestProcessNext() {
	w, response := suite.do("POST", "/v1/admin/queues/order-processing/process-next", suite.adminToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), string(response.Data), `"processed":false`)

	w, response = suite.do("POST", "/v1/admin/queues/shipping/process-next", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "Unknown queue", response.Error.Message)

	w, _ = suite.do("POST", "/v1/admin/customers", suite.adminToken, gin.H{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w, response = suite.do("POST", "/v1/admin/queues/admin-activity/process-next", suite.adminToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), string(response.Data), `"processed":true`)
}

func (suite *RouterTestSuite) TestProcessNextMalformedMessage() {
	ctx := context.Background()
	require.NoError(suite.T(), suite.queues.InventoryUpdate.Enqueue(ctx, []byte(`{"product_id":`)))

	w, response := suite.do("POST", "/v1/admin/queues/inventory-update/process-next", suite.adminToken, nil)
	require.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Equal(suite.T(), "MALFORMED_MESSAGE", response.Error.Code)
	assert.Equal(suite.T(), "The next queue message could not be read", response.Error.Message)
	assert.NotContains(suite.T(), w.Body.String(), "unexpected end of JSON input")

	w, response = suite.do("POST", "/v1/admin/queues/inventory-update/process-next", suite.adminToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), string(response.Data), `"processed":false`)
}

func (suite *RouterTestSuite) TestEnqueueInventoryRejectsUnknownAction() {
	suite.addProduct("productA", "10.00", 5)

	w, response := suite.do("POST", "/v1/admin/queues/inventory-update", suite.adminToken, gin.H{
		"product_id": "productA",
		"action":     "Teleport",
		"quantity":   1,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response.Error.Code)

	w, _ = suite.do("POST", "/v1/admin/queues/inventory-update", suite.adminToken, gin.H{
		"product_id": "productA",
		"action":     string(models.InventoryActionStockIncrease),
		"quantity":   10,
	})
	assert.Equal(suite.T(), http.StatusAccepted, w.Code)
}

func (suite *RouterTestSuite) TestLogs() {
	w, response := suite.do("POST", "/v1/admin/logs", suite.adminToken, gin.H{
		"category":  "general",
		"file_name": "notes.log",
		"content":   "Stocktake complete",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	var created struct {
		Path string `json:"path"`
	}
	require.NoError(suite.T(), json.Unmarshal(response.Data, &created))

	w, response = suite.do("GET", "/v1/admin/logs?category=general", suite.adminToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), string(response.Data), created.Path)

	w, response = suite.do("GET", "/v1/admin/logs/content?path="+created.Path, suite.adminToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), string(response.Data), "Stocktake complete")

	w, _ = suite.do("GET", "/v1/admin/logs?category=payroll", suite.adminToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
