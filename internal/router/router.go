// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/config"
	"github.com/javajoker/coopmarket-backend/internal/handlers"
	"github.com/javajoker/coopmarket-backend/internal/middleware"
	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/services"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	Geocoder services.Geocoder
	Storage  services.FileStorage
	Costs    *services.AverageCostService
	Limiters *middleware.Limiters
}

func Initialize(deps Dependencies) *gin.Engine {
	db, cfg := deps.DB, deps.Config

	costs := deps.Costs
	if costs == nil {
		costs = services.NewAverageCostService(db)
	}

	// Initialize services
	authService := services.NewAuthService(db, cfg)
	cooperativeService := services.NewCooperativeService(db, deps.Geocoder, deps.Storage, cfg.Storage.MaxUploadSize)
	productService := services.NewProductService(db, costs)
	adminService := services.NewAdminService(db, costs)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	cooperativeHandler := handlers.NewCooperativeHandler(cooperativeService)
	productHandler := handlers.NewProductHandler(productService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = cfg.Storage.MaxUploadSize

	// Global middleware
	r.Use(middleware.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.ErrorHandler())

	limit := func(limiter func(*middleware.Limiters) *middleware.RateLimiter) gin.HandlerFunc {
		if !cfg.Server.RateLimitEnabled || deps.Limiters == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return limiter(deps.Limiters).Middleware()
	}
	r.Use(limit(func(l *middleware.Limiters) *middleware.RateLimiter { return l.General }))
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		r.Static("/uploads", cfg.Storage.LocalPath)
	}

	mutators := []gin.HandlerFunc{
		middleware.AuthRequired(),
		middleware.RolesRequired(models.RoleOwner, models.RoleAdmin),
	}
	protect := func(h ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mutators...), h...)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limit(func(l *middleware.Limiters) *middleware.RateLimiter { return l.Auth }))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetMe)
		}

		// Cooperative routes
		cooperatives := v1.Group("/cooperatives")
		{
			cooperatives.GET("", cooperativeHandler.GetCooperatives)
			cooperatives.POST("", protect(cooperativeHandler.CreateCooperative)...)
			cooperatives.GET("/radius/:zipcode/:distance", cooperativeHandler.GetCooperativesInRadius)
			cooperatives.GET("/:id", cooperativeHandler.GetCooperative)
			cooperatives.PUT("/:id", protect(cooperativeHandler.UpdateCooperative)...)
			cooperatives.DELETE("/:id", protect(cooperativeHandler.DeleteCooperative)...)
			cooperatives.PUT("/:id/photo", protect(
				limit(func(l *middleware.Limiters) *middleware.RateLimiter { return l.Upload }),
				cooperativeHandler.UploadPhoto,
			)...)

			// Products nested under their cooperative
			cooperatives.GET("/:id/products", productHandler.GetCooperativeProducts)
			cooperatives.POST("/:id/products", protect(productHandler.CreateProduct)...)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.PUT("/:id", protect(productHandler.UpdateProduct)...)
			products.DELETE("/:id", protect(productHandler.DeleteProduct)...)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/stats", adminHandler.GetDashboardStats)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
			admin.POST("/average-costs/recompute", adminHandler.RecomputeAverageCosts)
		}
	}

	// 404 handler
	r.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "Route not found")
	})

	return r
}
