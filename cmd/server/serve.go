// cmd/server/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/coopmarket-backend/internal/database"
	"github.com/javajoker/coopmarket-backend/internal/middleware"
	"github.com/javajoker/coopmarket-backend/internal/observability"
	"github.com/javajoker/coopmarket-backend/internal/router"
	"github.com/javajoker/coopmarket-backend/internal/services"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	shutdownTracing := observability.InitTracing(ctx, cfg.Tracing, cfg.Environment)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		return err
	}

	geocoder, err := services.NewGeocoder(cfg.Geocoder)
	if err != nil {
		return fmt.Errorf("failed to initialize geocoder: %w", err)
	}
	storage, err := services.NewStorageService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	costs := services.NewAverageCostService(db)
	scheduler := services.NewCostScheduler(costs, cfg.Jobs.AverageCostReconcileCron)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	limiters := middleware.NewLimiters()
	defer limiters.Stop()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(router.Dependencies{
		DB:       db,
		Config:   cfg,
		Geocoder: geocoder,
		Storage:  storage,
		Costs:    costs,
		Limiters: limiters,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Environment,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-quit:
	}
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Tracer provider shutdown failed")
	}

	logrus.Info("Server exited")
	return nil
}
