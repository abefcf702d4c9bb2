// internal/handlers/product.go
package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/coopmarket-backend/internal/services"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetQueryParams(c, services.ProductQueryFields)

	products, total, err := h.productService.List(c.Request.Context(), params)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, len(products), total, params))
}

// GET /cooperatives/:id/products
func (h *ProductHandler) GetCooperativeProducts(c *gin.Context) {
	cooperativeID, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, cooperativeNotFound(c))
		return
	}

	products, err := h.productService.ListByCooperative(c.Request.Context(), cooperativeID)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.ListResponse(c, products, len(products))
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, productNotFound(c))
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// POST /cooperatives/:id/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	cooperativeID, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, utils.NotFoundError(fmt.Sprintf("No cooperative with the id of %s", c.Param("id"))))
		return
	}

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), cooperativeID, principal, &req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, productNotFound(c))
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, principal, &req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, productNotFound(c))
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id, principal); err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.DeletedResponse(c)
}

func productNotFound(c *gin.Context) error {
	return utils.NotFoundError(fmt.Sprintf("No product with the id of %s", c.Param("id")))
}
