package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/testutil"
)

func TestRoundUpToTen(t *testing.T) {
	tests := []struct {
		mean string
		want int
	}{
		{"0", 0},
		{"1", 10},
		{"10", 10},
		{"10.01", 20},
		{"15", 20},
		{"99.99", 100},
		{"100", 100},
	}

	for _, tt := range tests {
		t.Run(tt.mean, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundUpToTen(decimal.RequireFromString(tt.mean)))
		})
	}
}

func TestAverageCostRecompute(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, models.RoleOwner)
	cooperative := createCooperative(t, db, owner, "Harvest", nil, nil)
	costs := NewAverageCostService(db)

	t.Run("no products stores null", func(t *testing.T) {
		got, err := costs.Recompute(ctx, cooperative.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Nil(t, reloadCooperative(t, db, cooperative.ID).AverageCost)
	})

	createProduct(t, db, cooperative, owner, 12)
	expensive := createProduct(t, db, cooperative, owner, 18)

	t.Run("mean rounded up", func(t *testing.T) {
		got, err := costs.Recompute(ctx, cooperative.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 20, *got)
		assert.Equal(t, 20, *reloadCooperative(t, db, cooperative.ID).AverageCost)
	})

	createProduct(t, db, cooperative, owner, 10)

	t.Run("after adding a product", func(t *testing.T) {
		got, err := costs.Recompute(ctx, cooperative.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, *got)
	})

	require.NoError(t, db.Delete(&models.Product{}, "id = ?", expensive.ID).Error)

	t.Run("after removing a product", func(t *testing.T) {
		got, err := costs.Recompute(ctx, cooperative.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, *got)
	})
}

func TestAverageCostRecomputeAll(t *testing.T) {
	db := testutil.NewTestDB(t)
	first := testutil.CreateUser(t, db, models.RoleOwner)
	second := testutil.CreateUser(t, db, models.RoleOwner)

	stocked := createCooperative(t, db, first, "Stocked", nil, nil)
	empty := createCooperative(t, db, second, "Empty", nil, nil)
	createProduct(t, db, stocked, first, 45)

	stale := 990
	require.NoError(t, db.Model(&models.Cooperative{}).Where("id = ?", empty.ID).
		UpdateColumn("average_cost", stale).Error)

	updated, err := NewAverageCostService(db).RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	assert.Equal(t, 50, *reloadCooperative(t, db, stocked.ID).AverageCost)
	assert.Nil(t, reloadCooperative(t, db, empty.ID).AverageCost)
}
