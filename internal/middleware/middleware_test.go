package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/", append(handlers, func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"role": role})
	})...)
	return r
}

func perform(r http.Handler, token string) (*httptest.ResponseRecorder, utils.APIResponse) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body utils.APIResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func tokenFor(t *testing.T, role models.Role) string {
	t.Helper()

	token, err := utils.GenerateJWT(uuid.New(), string(role), 1)
	require.NoError(t, err)
	return token
}

func TestAuthRequired(t *testing.T) {
	r := newEngine(AuthRequired())

	t.Run("missing token", func(t *testing.T) {
		w, body := perform(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, body.Success)
		assert.Equal(t, "Not authorized to access this route", body.Error)
	})

	t.Run("garbage token", func(t *testing.T) {
		w, _ := perform(r, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w, _ := perform(r, tokenFor(t, models.RoleUser))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"user"`)
	})
}

func TestRolesRequired(t *testing.T) {
	r := newEngine(AuthRequired(), RolesRequired(models.RoleOwner, models.RoleAdmin))

	tests := []struct {
		role models.Role
		code int
	}{
		{models.RoleUser, http.StatusForbidden},
		{models.RoleOwner, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			w, body := perform(r, tokenFor(t, tt.role))
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusForbidden {
				assert.Equal(t, "User role user is not authorized to access this route", body.Error)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	t.Run("app error keeps its status", func(t *testing.T) {
		r := newEngine(func(c *gin.Context) {
			utils.AbortWithError(c, utils.NotFoundError("Cooperative not found"))
		})
		w, body := perform(r, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Cooperative not found", body.Error)
	})

	t.Run("unknown error is hidden", func(t *testing.T) {
		r := newEngine(func(c *gin.Context) {
			utils.AbortWithError(c, errors.New("pq: connection refused"))
		})
		w, body := perform(r, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Server Error", body.Error)
	})

	t.Run("panic", func(t *testing.T) {
		r := newEngine(func(c *gin.Context) { panic("boom") })
		w, body := perform(r, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Server Error", body.Error)
	})
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2)
	defer limiter.Stop()

	r := newEngine(limiter.Middleware())
	for i := 0; i < 2; i++ {
		w, _ := perform(r, "")
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w, body := perform(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", body.Error)
}

func TestExtractResource(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, "cooperatives", extractResourceType("/api/v1/cooperatives/"+id.String()+"/photo"))
	assert.Equal(t, "health", extractResourceType("/health"))
	assert.Equal(t, "unknown", extractResourceType("/"))

	got, ok := extractResourceID("/api/v1/products/" + id.String())
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = extractResourceID("/api/v1/products")
	assert.False(t, ok)
}
