// cmd/server/commands.go
package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/config"
	"github.com/javajoker/coopmarket-backend/internal/database"
	"github.com/javajoker/coopmarket-backend/internal/services"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(func(_ *config.Config, db *gorm.DB) error {
				return database.RunMigrations(db)
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the administrator account from ADMIN_EMAIL and ADMIN_PASSWORD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(func(cfg *config.Config, db *gorm.DB) error {
				if err := database.RunMigrations(db); err != nil {
					return err
				}
				return database.SeedAdmin(db, cfg.Admin)
			})
		},
	}
}

func newRecomputeCostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-costs",
		Short: "Recompute the average cost of every cooperative",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(func(_ *config.Config, db *gorm.DB) error {
				updated, err := services.NewAverageCostService(db).RecomputeAll(cmd.Context())
				if err != nil {
					return err
				}
				logrus.WithField("updated", updated).Info("Average costs recomputed")
				return nil
			})
		},
	}
}

func withDatabase(fn func(*config.Config, *gorm.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close(db)

	return fn(cfg, db)
}
