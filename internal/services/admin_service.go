// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

var AuditLogQueryFields = []string{
	"user_id", "action", "resource_type", "resource_id", "status_code", "created_at",
}

type AdminService struct {
	db    *gorm.DB
	costs CostReconciler
}

type AdminDashboardStats struct {
	TotalUsers              int64 `json:"total_users"`
	TotalOwners             int64 `json:"total_owners"`
	NewUsersThisMonth       int64 `json:"new_users_this_month"`
	TotalCooperatives       int64 `json:"total_cooperatives"`
	UnlocatedCooperatives   int64 `json:"unlocated_cooperatives"`
	CooperativesWithoutCost int64 `json:"cooperatives_without_cost"`
	TotalProducts           int64 `json:"total_products"`
	MutationsThisMonth      int64 `json:"mutations_this_month"`
}

type RecomputeResult struct {
	Updated int `json:"updated"`
}

func NewAdminService(db *gorm.DB, costs CostReconciler) *AdminService {
	return &AdminService{
		db:    db,
		costs: costs,
	}
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	db := s.db.WithContext(ctx)

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.User{}), &stats.TotalUsers},
		{db.Model(&models.User{}).Where("role = ?", models.RoleOwner), &stats.TotalOwners},
		{db.Model(&models.User{}).Where("created_at >= ?", monthStart), &stats.NewUsersThisMonth},
		{db.Model(&models.Cooperative{}), &stats.TotalCooperatives},
		{db.Model(&models.Cooperative{}).Where("latitude IS NULL OR longitude IS NULL"), &stats.UnlocatedCooperatives},
		{db.Model(&models.Cooperative{}).Where("average_cost IS NULL"), &stats.CooperativesWithoutCost},
		{db.Model(&models.Product{}), &stats.TotalProducts},
		{db.Model(&models.AuditLog{}).Where("created_at >= ?", monthStart), &stats.MutationsThisMonth},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to collect dashboard stats: %w", err)
		}
	}

	return stats, nil
}

func (s *AdminService) GetAuditLogs(ctx context.Context, params utils.QueryParams) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	query := utils.ApplyFilters(s.db.WithContext(ctx).Model(&models.AuditLog{}), params)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query = utils.ApplySelect(query, params, "id")
	query = utils.ApplySort(query, params)
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return logs, total, nil
}

// RecomputeAverageCosts refreshes every cooperative's average cost now
// instead of waiting for the scheduled reconcile.
func (s *AdminService) RecomputeAverageCosts(ctx context.Context) (*RecomputeResult, error) {
	updated, err := s.costs.RecomputeAll(ctx)
	if err != nil {
		return nil, err
	}
	return &RecomputeResult{Updated: updated}, nil
}
