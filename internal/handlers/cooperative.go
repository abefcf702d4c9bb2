// internal/handlers/cooperative.go
package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/coopmarket-backend/internal/services"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

type CooperativeHandler struct {
	cooperativeService *services.CooperativeService
}

func NewCooperativeHandler(cooperativeService *services.CooperativeService) *CooperativeHandler {
	return &CooperativeHandler{
		cooperativeService: cooperativeService,
	}
}

// GET /cooperatives
func (h *CooperativeHandler) GetCooperatives(c *gin.Context) {
	params := utils.GetQueryParams(c, services.CooperativeQueryFields)

	cooperatives, total, err := h.cooperativeService.List(c.Request.Context(), params)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(cooperatives, len(cooperatives), total, params))
}

// GET /cooperatives/:id
func (h *CooperativeHandler) GetCooperative(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, cooperativeNotFound(c))
		return
	}

	cooperative, err := h.cooperativeService.Get(c.Request.Context(), id)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, cooperative)
}

// POST /cooperatives
func (h *CooperativeHandler) CreateCooperative(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req services.CreateCooperativeRequest
	if !bindJSON(c, &req) {
		return
	}

	cooperative, err := h.cooperativeService.Create(c.Request.Context(), principal, &req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.CreatedResponse(c, cooperative)
}

// PUT /cooperatives/:id
func (h *CooperativeHandler) UpdateCooperative(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, cooperativeNotFound(c))
		return
	}

	var req services.UpdateCooperativeRequest
	if !bindJSON(c, &req) {
		return
	}

	cooperative, err := h.cooperativeService.Update(c.Request.Context(), id, principal, &req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, cooperative)
}

// DELETE /cooperatives/:id
func (h *CooperativeHandler) DeleteCooperative(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, cooperativeNotFound(c))
		return
	}

	if err := h.cooperativeService.Delete(c.Request.Context(), id, principal); err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.DeletedResponse(c)
}

// GET /cooperatives/radius/:zipcode/:distance
func (h *CooperativeHandler) GetCooperativesInRadius(c *gin.Context) {
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil {
		utils.AbortWithError(c, utils.ValidationError("Please provide a positive distance"))
		return
	}

	cooperatives, err := h.cooperativeService.WithinRadius(c.Request.Context(), c.Param("zipcode"), distance)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.ListResponse(c, cooperatives, len(cooperatives))
}

// PUT /cooperatives/:id/photo
func (h *CooperativeHandler) UploadPhoto(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		utils.AbortWithError(c, cooperativeNotFound(c))
		return
	}

	var upload *services.PhotoUpload
	if header, err := c.FormFile("file"); err == nil {
		file, err := header.Open()
		if err != nil {
			utils.AbortWithError(c, utils.ValidationError("Please upload a file"))
			return
		}
		defer file.Close()

		upload = &services.PhotoUpload{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  file,
		}
	}

	filename, err := h.cooperativeService.UploadPhoto(c.Request.Context(), id, principal, upload)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, filename)
}

func cooperativeNotFound(c *gin.Context) error {
	return utils.NotFoundError(fmt.Sprintf("Cooperative not found with id of %s", c.Param("id")))
}
