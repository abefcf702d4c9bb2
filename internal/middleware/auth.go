// internal/middleware/auth.go
package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			utils.AbortWithError(c, utils.UnauthorizedError("Not authorized to access this route"))
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.AbortWithError(c, utils.UnauthorizedError("Not authorized to access this route"))
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			utils.AbortWithError(c, utils.UnauthorizedError("Not authorized to access this route"))
			return
		}

		// Set user info in context
		c.Set("user_id", userID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RolesRequired only lets principals with one of roles through. It must run
// after AuthRequired.
func RolesRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c)
		for _, allowed := range roles {
			if role == string(allowed) {
				c.Next()
				return
			}
		}

		utils.AbortWithError(c, utils.ForbiddenError(
			fmt.Sprintf("User role %s is not authorized to access this route", role),
		))
	}
}

func AdminRequired() gin.HandlerFunc {
	return RolesRequired(models.RoleAdmin)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
