// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/javajoker/abc-retail/internal/config"
	"github.com/javajoker/abc-retail/internal/handlers"
	"github.com/javajoker/abc-retail/internal/middleware"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/utils"
)

const version = "1.0.0"

func Initialize(cfg *config.Config, container *services.Container) *gin.Engine {
	// Initialize handlers
	productHandler := handlers.NewProductHandler(container.Products, container.Admin)
	cartHandler := handlers.NewCartHandler(container.Carts)
	orderHandler := handlers.NewOrderHandler(container.Orders, container.Checkout)
	adminHandler := handlers.NewAdminHandler(container)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = cfg.Blob.MaxImageSize + 1<<20

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.I18nMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Backends.Blob == "local" {
		r.Static("/uploads", cfg.Blob.LocalDir)
	}

	uploads := middleware.UploadRateLimit(cfg.Server.UploadsPerMinute)

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	{
		// Catalogue
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/categories", productHandler.GetCategories)
			products.GET("/:id", productHandler.GetProduct)
		}

		// Customer routes
		customer := v1.Group("")
		customer.Use(middleware.AuthRequired(), middleware.CustomerRequired())
		{
			customer.GET("/cart", cartHandler.GetCart)
			customer.GET("/cart/count", cartHandler.GetCount)
			customer.POST("/cart/items", cartHandler.AddItem)
			customer.PUT("/cart/items/:product_id", cartHandler.UpdateItem)
			customer.DELETE("/cart/items/:product_id", cartHandler.RemoveItem)

			customer.POST("/checkout", orderHandler.Checkout)
			customer.GET("/orders", orderHandler.GetOrders)
			customer.GET("/orders/:id", orderHandler.GetOrder)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			admin.GET("/products", productHandler.GetProducts)
			admin.POST("/products", uploads, productHandler.CreateProduct)
			admin.GET("/products/:id", productHandler.GetProduct)
			admin.PUT("/products/:id", uploads, productHandler.UpdateProduct)
			admin.DELETE("/products/:id", productHandler.DeleteProduct)

			admin.GET("/customers", adminHandler.GetCustomers)
			admin.POST("/customers", adminHandler.CreateCustomer)

			admin.POST("/images", uploads, adminHandler.UploadImage)

			admin.GET("/orders", adminHandler.GetOrders)
			admin.POST("/orders/:id/ship", adminHandler.ShipOrder)

			admin.POST("/queues/order-processing", adminHandler.EnqueueOrder)
			admin.POST("/queues/inventory-update", adminHandler.EnqueueInventory)
			admin.POST("/queues/:queue/process-next", adminHandler.ProcessNext)

			admin.GET("/logs", adminHandler.GetLogs)
			admin.GET("/logs/content", adminHandler.GetLogContent)
			admin.POST("/logs", adminHandler.CreateLog)
		}
	}

	return r
}
