// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	customerID, ok := identity(c)
	if !ok {
		return
	}

	summary, err := h.cartService.Summary(c.Request.Context(), customerID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyCartItemNotFound)
		return
	}
	utils.SuccessResponse(c, summary)
}

// GET /cart/count
func (h *CartHandler) GetCount(c *gin.Context) {
	customerID, ok := identity(c)
	if !ok {
		return
	}

	count, err := h.cartService.Count(c.Request.Context(), customerID)
	if err != nil {
		handleServiceError(c, err, i18n.KeyCartItemNotFound)
		return
	}
	utils.SuccessResponse(c, gin.H{"count": count})
}

// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	customerID, ok := identity(c)
	if !ok {
		return
	}

	var req services.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	item, err := h.cartService.AddToCart(c.Request.Context(), customerID, &req)
	if err != nil {
		handleServiceError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyCartItemAdded),
		"item":    item,
	})
}

// PUT /cart/items/:product_id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	customerID, ok := identity(c)
	if !ok {
		return
	}

	var req services.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	if err := h.cartService.UpdateQuantity(c.Request.Context(), customerID, c.Param("product_id"), req.Quantity); err != nil {
		handleServiceError(c, err, i18n.KeyCartItemNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyCartItemUpdated)})
}

// DELETE /cart/items/:product_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	customerID, ok := identity(c)
	if !ok {
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), customerID, c.Param("product_id")); err != nil {
		handleServiceError(c, err, i18n.KeyCartItemNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyCartItemRemoved),
	})
}
