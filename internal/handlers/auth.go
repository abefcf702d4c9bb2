// internal/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/coopmarket-backend/internal/services"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.TokenResponse(c, http.StatusCreated, authResponse.Token)
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.TokenResponse(c, http.StatusOK, authResponse.Token)
}

// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), principal.ID)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}
