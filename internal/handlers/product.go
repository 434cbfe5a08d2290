// internal/handlers/product.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/abc-retail/internal/i18n"
	"github.com/javajoker/abc-retail/internal/services"
	"github.com/javajoker/abc-retail/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	adminService   *services.AdminService
}

func NewProductHandler(productService *services.ProductService, adminService *services.AdminService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		adminService:   adminService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	searchParams := services.ProductSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if inStockStr := c.Query("in_stock"); inStockStr != "" {
		if inStock, err := strconv.ParseBool(inStockStr); err == nil {
			searchParams.InStock = &inStock
		}
	}

	products, total, err := h.productService.SearchProducts(c.Request.Context(), searchParams)
	if err != nil {
		handleServiceError(c, err, i18n.KeyProductNotFound)
		return
	}

	result := utils.CreatePaginationResult(products, total, searchParams.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, i18n.KeyProductNotFound)
		return
	}
	utils.SuccessResponse(c, gin.H{"categories": categories})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, i18n.KeyProductNotFound)
		return
	}
	utils.SuccessResponse(c, product)
}

// POST /admin/products
// Accepts JSON or multipart/form-data with an optional "image" file.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	image, cleanup, err := imageFromRequest(c)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer cleanup()

	result, err := h.adminService.CreateProduct(c.Request.Context(), adminID, &req, image)
	if err != nil {
		handleServiceError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":           i18n.T(lang, i18n.KeyProductCreated),
		"product":           result.Product,
		"messages_enqueued": result.MessagesEnqueued,
		"log":               result.Log,
	})
}

// PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := identity(c)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if req.ETag == "" {
		req.ETag = c.GetHeader("If-Match")
	}

	image, cleanup, err := imageFromRequest(c)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer cleanup()

	result, err := h.adminService.UpdateProduct(c.Request.Context(), adminID, c.Param("id"), &req, image)
	if err != nil {
		if isConflict(err) {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProductStale))
			return
		}
		handleServiceError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":           i18n.T(lang, i18n.KeyProductUpdated),
		"product":           result.Product,
		"messages_enqueued": result.MessagesEnqueued,
		"log":               result.Log,
	})
}

// DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	adminID, ok := identity(c)
	if !ok {
		return
	}

	outcome, err := h.adminService.DeleteProduct(c.Request.Context(), adminID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyProductDeleted),
		"log":     outcome,
	})
}

// imageFromRequest opens the optional "image" part of a multipart request.
// The returned cleanup func is always safe to call.
func imageFromRequest(c *gin.Context) (*services.ImageUpload, func(), error) {
	noop := func() {}
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, noop, nil
	}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, err
	}

	return &services.ImageUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, func() { file.Close() }, nil
}
