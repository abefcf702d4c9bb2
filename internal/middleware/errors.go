// internal/middleware/errors.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coopmarket-backend/internal/utils"
)

// ErrorHandler writes the error envelope for the last error a handler
// recorded. Errors that are not AppErrors are logged and hidden behind a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			utils.ErrorResponse(c, appErr.StatusCode, appErr.Message)
			return
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Unhandled request error")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Server Error")
	}
}

// Recovery turns panics into the same 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logrus.WithField("panic", recovered).Error("Recovered from panic")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Server Error")
		c.Abort()
	})
}
