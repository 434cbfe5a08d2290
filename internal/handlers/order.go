// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/utils"
)

type OrderHandler struct {
	orderService    *services.OrderService
	checkoutService *services.CheckoutService
}

func NewOrderHandler(orderService *services.OrderService, checkoutService *services.CheckoutService) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		checkoutService: checkoutService,
	}
}

// POST /checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	customerID, ok := identity(c)
	if !ok {
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), customerID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":           i18n.T(lang, i18n.KeyOrderPlaced, result.Order.RowKey),
		"order":             result.Order,
		"messages_enqueued": result.MessagesEnqueued,
		"log":               result.Log,
	})
}

// GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	customerID, ok := identity(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), customerID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOrderNotFound)
		return
	}

	params := utils.GetPaginationParams(c)
	result := utils.CreatePaginationResult(utils.Paginate(orders, params), int64(len(orders)), params)
	utils.PaginatedResponse(c, result)
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	customerID, ok := identity(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), customerID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err, i18n.KeyOrderNotFound)
		return
	}

	items, err := order.CartSnapshot()
	if err != nil {
		handleServiceError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
		"items": items,
	})
}
