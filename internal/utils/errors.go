// internal/utils/errors.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError is the error value every handler path short-circuits with. The
// error middleware turns it into the JSON envelope using StatusCode.
type AppError struct {
	Message    string
	StatusCode int
}

func NewError(message string, statusCode int) *AppError {
	return &AppError{Message: message, StatusCode: statusCode}
}

func (e *AppError) Error() string {
	return e.Message
}

func NotFoundError(message string) *AppError {
	return NewError(message, http.StatusNotFound)
}

func ForbiddenError(message string) *AppError {
	return NewError(message, http.StatusForbidden)
}

func UnauthorizedError(message string) *AppError {
	return NewError(message, http.StatusUnauthorized)
}

func ValidationError(message string) *AppError {
	return NewError(message, http.StatusBadRequest)
}

func UpstreamError(message string) *AppError {
	return NewError(message, http.StatusInternalServerError)
}

// StatusCode returns the status carried by err, or 500 for anything that is
// not an AppError.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// AbortWithError records err on the context for the error middleware and
// stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
