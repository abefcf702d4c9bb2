// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

// AuditLogMiddleware records every mutating request once it has been served.
func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for reads and health checks
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions ||
			c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		c.Next()

		auditLog := &models.AuditLog{
			Action:       c.Request.Method + " " + c.FullPath(),
			ResourceType: extractResourceType(c.Request.URL.Path),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			StatusCode:   c.Writer.Status(),
		}
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			auditLog.UserID = &userID
		}
		if resourceID, ok := extractResourceID(c.Request.URL.Path); ok {
			auditLog.ResourceID = &resourceID
		}

		// Save audit log asynchronously
		go func() {
			if err := db.Create(auditLog).Error; err != nil {
				logrus.WithError(err).Error("Failed to create audit log")
			}
		}()
	}
}

// extractResourceType returns the collection name of an /api/v1 path.
func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "v1" {
		return parts[2]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(path string) (uuid.UUID, bool) {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if id, err := uuid.Parse(part); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// RequestLogger logs one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			fields["user_id"] = userID
		}

		entry := logrus.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}
