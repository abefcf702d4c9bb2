// internal/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/services"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

// principalFromContext returns the caller resolved by the auth middleware.
func principalFromContext(c *gin.Context) (services.Principal, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return services.Principal{}, false
	}
	role, _ := utils.GetRoleFromContext(c)
	return services.Principal{ID: userID, Role: models.Role(role)}, true
}

// requirePrincipal aborts with 401 when the request carries no principal.
func requirePrincipal(c *gin.Context) (services.Principal, bool) {
	principal, ok := principalFromContext(c)
	if !ok {
		utils.AbortWithError(c, utils.UnauthorizedError("Not authorized to access this route"))
	}
	return principal, ok
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.AbortWithError(c, utils.ValidationError("Invalid request body"))
		return false
	}
	return true
}
