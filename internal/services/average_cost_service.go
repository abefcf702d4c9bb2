// internal/services/average_cost_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/models"
)

const reconcileConcurrency = 4

var ten = decimal.NewFromInt(10)

// AverageCostRecalculator keeps Cooperative.AverageCost in line with the
// prices of its products.
type AverageCostRecalculator interface {
	Recompute(ctx context.Context, cooperativeID uuid.UUID) (*int, error)
}

type AverageCostService struct {
	db *gorm.DB
}

func NewAverageCostService(db *gorm.DB) *AverageCostService {
	return &AverageCostService{db: db}
}

// RoundUpToTen rounds mean up to the next multiple of 10.
func RoundUpToTen(mean decimal.Decimal) int {
	return int(mean.Div(ten).Ceil().Mul(ten).IntPart())
}

// Recompute averages the prices of the cooperative's products and stores the
// rounded value. A cooperative without products gets a NULL average.
func (s *AverageCostService) Recompute(ctx context.Context, cooperativeID uuid.UUID) (*int, error) {
	var aggregate struct {
		Mean decimal.NullDecimal
	}
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("cooperative_id = ?", cooperativeID).
		Select("AVG(price) AS mean").
		Scan(&aggregate).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate product prices: %w", err)
	}

	var averageCost *int
	if aggregate.Mean.Valid {
		rounded := RoundUpToTen(aggregate.Mean.Decimal)
		averageCost = &rounded
	}

	if err := s.db.WithContext(ctx).Model(&models.Cooperative{}).
		Where("id = ?", cooperativeID).
		UpdateColumn("average_cost", averageCost).Error; err != nil {
		return nil, fmt.Errorf("failed to store average cost: %w", err)
	}

	return averageCost, nil
}

// RecomputeAll refreshes every cooperative and returns how many were updated.
// Individual failures are logged and do not stop the others.
func (s *AverageCostService) RecomputeAll(ctx context.Context) (int, error) {
	var cooperatives []models.Cooperative
	if err := s.db.WithContext(ctx).Select("id").Find(&cooperatives).Error; err != nil {
		return 0, fmt.Errorf("failed to list cooperatives: %w", err)
	}

	results := make([]bool, len(cooperatives))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for i, cooperative := range cooperatives {
		i := i
		id := cooperative.ID
		g.Go(func() error {
			if _, err := s.Recompute(gctx, id); err != nil {
				logrus.WithError(err).WithField("cooperative_id", id).Error("Failed to recompute average cost")
				return nil
			}
			results[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	updated := 0
	for _, ok := range results {
		if ok {
			updated++
		}
	}
	return updated, nil
}

// refreshAverageCost runs the recalculator for a write that already
// committed. Failures are logged only; the triggering write stands.
func refreshAverageCost(ctx context.Context, costs AverageCostRecalculator, cooperativeID uuid.UUID) {
	if costs == nil {
		return
	}
	if _, err := costs.Recompute(ctx, cooperativeID); err != nil {
		logrus.WithError(err).WithField("cooperative_id", cooperativeID).Error("Failed to recompute average cost")
	}
}
