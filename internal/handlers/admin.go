// internal/handlers/admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/models"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/utils"
)

type AdminHandler struct {
	adminService    *services.AdminService
	customerService *services.CustomerService
	orderService    *services.OrderService
	logService      *services.LogService
}

func NewAdminHandler(container *services.Container) *AdminHandler {
	return &AdminHandler{
		adminService:    container.Admin,
		customerService: container.Customers,
		orderService:    container.Orders,
		logService:      container.Logs,
	}
}

type enqueueOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, i18n.KeyLogNotFound)
		return
	}
	utils.SuccessResponse(c, dashboard)
}

// GET /admin/customers
func (h *AdminHandler) GetCustomers(c *gin.Context) {
	customers, err := h.customerService.ListCustomers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, i18n.KeyCustomerNotFound)
		return
	}

	params := utils.GetPaginationParams(c)
	result := utils.CreatePaginationResult(utils.Paginate(customers, params), int64(len(customers)), params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/customers
func (h *AdminHandler) CreateCustomer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	var req services.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.adminService.CreateCustomer(c.Request.Context(), adminID, &req)
	if err != nil {
		if isConflict(err) {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyCustomerExists))
			return
		}
		handleServiceError(c, err, i18n.KeyCustomerNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyCustomerCreated),
		"customer": result.Customer,
		"log":      result.Log,
	})
}

// POST /admin/images
func (h *AdminHandler) UploadImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	image, cleanup, err := imageFromRequest(c)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer cleanup()
	if image == nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "image"), nil)
		return
	}

	result, err := h.adminService.UploadImage(c.Request.Context(), adminID, image)
	if err != nil {
		handleServiceError(c, err, i18n.KeyFileUploadFailed)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFileUploadSuccess),
		"image":   result.Image,
		"log":     result.Log,
	})
}

// GET /admin/orders
func (h *AdminHandler) GetOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "status"), nil)
		return
	}

	orders, err := h.orderService.ListAllOrders(c.Request.Context(), status)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOrderNotFound)
		return
	}

	params := utils.GetPaginationParams(c)
	result := utils.CreatePaginationResult(utils.Paginate(orders, params), int64(len(orders)), params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/orders/:id/ship
func (h *AdminHandler) ShipOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	var req services.ShipOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
			return
		}
	}

	orderID := c.Param("id")
	result, err := h.adminService.ShipOrder(c.Request.Context(), adminID, orderID, &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":         i18n.T(lang, i18n.KeyOrderShipped, orderID),
		"order":           result.Order,
		"tracking_number": result.TrackingNumber,
		"log":             result.Log,
	})
}

// POST /admin/queues/order-processing
func (h *AdminHandler) EnqueueOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	var req enqueueOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	outcome, err := h.adminService.EnqueueOrderProcessing(c.Request.Context(), adminID, req.OrderID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyOrderNotFound)
		return
	}

	c.JSON(http.StatusAccepted, utils.APIResponse{
		Success: true,
		Data:    gin.H{"message": i18n.T(lang, i18n.KeyOrderQueued), "log": outcome},
	})
}

// POST /admin/queues/inventory-update
func (h *AdminHandler) EnqueueInventory(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	var req services.EnqueueInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	outcome, err := h.adminService.EnqueueInventoryUpdate(c.Request.Context(), adminID, &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyProductNotFound)
		return
	}

	c.JSON(http.StatusAccepted, utils.APIResponse{
		Success: true,
		Data:    gin.H{"message": i18n.T(lang, i18n.KeyInventoryQueued), "log": outcome},
	})
}

// POST /admin/queues/:queue/process-next
func (h *AdminHandler) ProcessNext(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	queue := c.Param("queue")
	result, err := h.adminService.ProcessNext(c.Request.Context(), adminID, queue)
	if err != nil {
		handleServiceError(c, err, i18n.KeyQueueNotFound)
		return
	}

	message := i18n.T(lang, i18n.KeyQueueMessageHandled, queue)
	if !result.Processed {
		message = i18n.T(lang, i18n.KeyNothingToProcess, queue)
	}
	utils.SuccessResponse(c, gin.H{
		"message": message,
		"result":  result,
	})
}

// GET /admin/logs?category=
func (h *AdminHandler) GetLogs(c *gin.Context) {
	category := models.LogCategory(c.DefaultQuery("category", string(models.LogCategoryGeneral)))

	files, err := h.logService.ListFiles(c.Request.Context(), category)
	if err != nil {
		handleServiceError(c, err, i18n.KeyLogNotFound)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"category": category,
		"files":    files,
	})
}

// GET /admin/logs/content?path=
func (h *AdminHandler) GetLogContent(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationRequired, "path"), nil)
		return
	}

	content, err := h.logService.ReadFile(c.Request.Context(), path)
	if err != nil {
		handleServiceError(c, err, i18n.KeyLogNotFound)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"path":    path,
		"content": content,
	})
}

// POST /admin/logs
func (h *AdminHandler) CreateLog(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	var req services.CreateLogEntryRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	path, err := h.logService.CreateEntry(c.Request.Context(), adminID, &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyLogNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLogCreated),
		"path":    path,
	})
}
