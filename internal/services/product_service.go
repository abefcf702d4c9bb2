// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

var ProductQueryFields = []string{
	"title", "description", "price", "cooperative_id", "user_id", "created_at", "updated_at",
}

type ProductService struct {
	db    *gorm.DB
	costs AverageCostRecalculator
}

type CreateProductRequest struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description string           `json:"description" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
}

type UpdateProductRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
}

func NewProductService(db *gorm.DB, costs AverageCostRecalculator) *ProductService {
	return &ProductService{
		db:    db,
		costs: costs,
	}
}

// withCooperative preloads the summary of the parent cooperative.
func withCooperative(db *gorm.DB) *gorm.DB {
	return db.Preload("Cooperative", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "description")
	})
}

func (s *ProductService) List(ctx context.Context, params utils.QueryParams) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := utils.ApplyFilters(s.db.WithContext(ctx).Model(&models.Product{}), params)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySelect(query, params, "id", "cooperative_id")
	query = utils.ApplySort(query, params)
	query = utils.ApplyPagination(query, params)
	if err := withCooperative(query).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) ListByCooperative(ctx context.Context, cooperativeID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).
		Where("cooperative_id = ?", cooperativeID).
		Order("created_at asc").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := withCooperative(s.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// Create adds a product to a cooperative the principal owns, or any
// cooperative for admins.
func (s *ProductService) Create(ctx context.Context, cooperativeID uuid.UUID, principal Principal, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	var cooperative models.Cooperative
	if err := s.db.WithContext(ctx).First(&cooperative, "id = ?", cooperativeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError(fmt.Sprintf("No cooperative with the id of %s", cooperativeID))
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !CanMutate(cooperative.UserID, principal) {
		return nil, notAuthorized(principal.ID, "add a product to", "cooperative", cooperativeID)
	}

	product := &models.Product{
		Title:         req.Title,
		Description:   req.Description,
		Price:         *req.Price,
		CooperativeID: cooperativeID,
		UserID:        principal.ID,
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	refreshAverageCost(ctx, s.costs, cooperativeID)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, principal Principal, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(product.UserID, principal) {
		return nil, notAuthorized(principal.ID, "update", "product", id)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
		product.Title = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
		product.Description = *req.Description
	}
	priceChanged := req.Price != nil && !req.Price.Equal(product.Price)
	if priceChanged {
		updates["price"] = *req.Price
		product.Price = *req.Price
	}

	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if priceChanged {
		refreshAverageCost(ctx, s.costs, product.CooperativeID)
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID, principal Principal) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return productNotFound(id)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if !CanMutate(product.UserID, principal) {
		return notAuthorized(principal.ID, "delete", "product", id)
	}

	if err := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	refreshAverageCost(ctx, s.costs, product.CooperativeID)
	return nil
}

func productNotFound(id uuid.UUID) error {
	return utils.NotFoundError(fmt.Sprintf("No product with the id of %s", id))
}
