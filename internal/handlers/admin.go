// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/coopmarket-backend/internal/services"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetQueryParams(c, services.AuditLogQueryFields)

	logs, total, err := h.adminService.GetAuditLogs(c.Request.Context(), params)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, len(logs), total, params))
}

// POST /admin/average-costs/recompute
func (h *AdminHandler) RecomputeAverageCosts(c *gin.Context) {
	result, err := h.adminService.RecomputeAverageCosts(c.Request.Context())
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}
