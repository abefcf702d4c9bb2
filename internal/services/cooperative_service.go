// internal/services/cooperative_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/database"
	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

// Fields clients may filter, sort and select on.
var CooperativeQueryFields = []string{
	"name", "description", "website", "phone", "email", "address",
	"formatted_address", "city", "zipcode", "country", "photo",
	"average_cost", "user_id", "created_at", "updated_at",
}

type CooperativeService struct {
	db       *gorm.DB
	geocoder Geocoder
	storage  FileStorage
	maxPhoto int64
}

type CreateCooperativeRequest struct {
	Name        string   `json:"name" validate:"required,max=50"`
	Description string   `json:"description" validate:"required,max=500"`
	Website     string   `json:"website,omitempty" validate:"omitempty,url"`
	Phone       string   `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email       string   `json:"email,omitempty" validate:"omitempty,email"`
	Address     string   `json:"address,omitempty" validate:"omitempty,max=255"`
	City        string   `json:"city,omitempty" validate:"omitempty,max=100"`
	Zipcode     string   `json:"zipcode,omitempty" validate:"omitempty,max=20"`
	Country     string   `json:"country,omitempty" validate:"omitempty,max=100"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

type UpdateCooperativeRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Website     *string  `json:"website,omitempty" validate:"omitempty,url"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=255"`
	City        *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Zipcode     *string  `json:"zipcode,omitempty" validate:"omitempty,max=20"`
	Country     *string  `json:"country,omitempty" validate:"omitempty,max=100"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// PhotoUpload is a file received for a cooperative photo. Content must be
// readable from the start.
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

func NewCooperativeService(db *gorm.DB, geocoder Geocoder, storage FileStorage, maxPhotoSize int64) *CooperativeService {
	return &CooperativeService{
		db:       db,
		geocoder: geocoder,
		storage:  storage,
		maxPhoto: maxPhotoSize,
	}
}

func (s *CooperativeService) List(ctx context.Context, params utils.QueryParams) ([]models.Cooperative, int64, error) {
	var cooperatives []models.Cooperative
	var total int64

	query := utils.ApplyFilters(s.db.WithContext(ctx).Model(&models.Cooperative{}), params)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cooperatives: %w", err)
	}

	query = utils.ApplySelect(query, params, "id")
	query = utils.ApplySort(query, params)
	query = utils.ApplyPagination(query, params)
	if err := query.Preload("Products").Find(&cooperatives).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list cooperatives: %w", err)
	}

	return cooperatives, total, nil
}

func (s *CooperativeService) Get(ctx context.Context, id uuid.UUID) (*models.Cooperative, error) {
	var cooperative models.Cooperative
	if err := s.db.WithContext(ctx).First(&cooperative, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cooperativeNotFound(id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &cooperative, nil
}

func (s *CooperativeService) Create(ctx context.Context, principal Principal, req *CreateCooperativeRequest) (*models.Cooperative, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	existing, err := s.ownedBy(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if !CanCreateCooperative(principal, existing) {
		return nil, alreadyPublished(principal.ID)
	}

	cooperative := &models.Cooperative{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		City:        req.City,
		Zipcode:     req.Zipcode,
		Country:     req.Country,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Photo:       models.DefaultPhoto,
		UserID:      principal.ID,
	}
	if !principal.IsAdmin() {
		slot := principal.ID
		cooperative.OwnerSlot = &slot
	}

	if !cooperative.HasLocation() {
		if err := s.locate(ctx, cooperative); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(cooperative).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, s.translateUniqueViolation(ctx, principal)
		}
		return nil, fmt.Errorf("failed to create cooperative: %w", err)
	}

	return cooperative, nil
}

func (s *CooperativeService) Update(ctx context.Context, id uuid.UUID, principal Principal, req *UpdateCooperativeRequest) (*models.Cooperative, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	cooperative, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(cooperative.UserID, principal) {
		return nil, notAuthorized(principal.ID, "update", "cooperative", id)
	}

	updates := map[string]interface{}{}
	setString := func(column string, value *string, target *string) {
		if value != nil {
			updates[column] = *value
			*target = *value
		}
	}
	setString("name", req.Name, &cooperative.Name)
	setString("description", req.Description, &cooperative.Description)
	setString("website", req.Website, &cooperative.Website)
	setString("phone", req.Phone, &cooperative.Phone)
	setString("email", req.Email, &cooperative.Email)
	setString("city", req.City, &cooperative.City)
	setString("zipcode", req.Zipcode, &cooperative.Zipcode)
	setString("country", req.Country, &cooperative.Country)

	switch {
	case req.Latitude != nil && req.Longitude != nil:
		cooperative.Latitude, cooperative.Longitude = req.Latitude, req.Longitude
		updates["latitude"], updates["longitude"] = *req.Latitude, *req.Longitude
		setString("address", req.Address, &cooperative.Address)
	case req.Address != nil && *req.Address != cooperative.Address:
		setString("address", req.Address, &cooperative.Address)
		cooperative.Latitude, cooperative.Longitude = nil, nil
		cooperative.FormattedAddress = ""
		if err := s.locate(ctx, cooperative); err != nil {
			return nil, err
		}
		updates["latitude"], updates["longitude"] = cooperative.Latitude, cooperative.Longitude
		updates["formatted_address"] = cooperative.FormattedAddress
	}

	if len(updates) == 0 {
		return cooperative, nil
	}

	if err := s.db.WithContext(ctx).Model(cooperative).Updates(updates).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, utils.ValidationError("Duplicate field value entered")
		}
		return nil, fmt.Errorf("failed to update cooperative: %w", err)
	}

	return cooperative, nil
}

// Delete removes the cooperative together with its products. The stored
// photo is removed afterwards on a best-effort basis.
func (s *CooperativeService) Delete(ctx context.Context, id uuid.UUID, principal Principal) error {
	cooperative, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanMutate(cooperative.UserID, principal) {
		return notAuthorized(principal.ID, "delete", "cooperative", id)
	}

	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Where("cooperative_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("failed to delete products: %w", err)
		}
		if err := tx.Delete(&models.Cooperative{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete cooperative: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cooperative.Photo != "" && cooperative.Photo != models.DefaultPhoto {
		deleteStoredFile(ctx, s.storage, cooperative.Photo)
	}
	return nil
}

// WithinRadius returns the cooperatives located within distance miles of the
// first location the geocoder reports for zipcode.
func (s *CooperativeService) WithinRadius(ctx context.Context, zipcode string, distance float64) ([]models.Cooperative, error) {
	if distance <= 0 {
		return nil, utils.ValidationError("Please provide a positive distance")
	}

	points, err := s.geocoder.Geocode(ctx, zipcode)
	if err != nil {
		logrus.WithError(err).WithField("zipcode", zipcode).Error("Geocoding failed")
		return nil, utils.UpstreamError("Geocoding service unavailable")
	}
	if len(points) == 0 {
		return nil, utils.NotFoundError(fmt.Sprintf("Location not found for zipcode %s", zipcode))
	}
	center := points[0]

	radius := utils.RadiusFromMiles(distance)
	box := utils.CapBoundingBox(center.Latitude, center.Longitude, radius)

	query := s.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if !box.FullLongitude {
		query = query.Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}

	var candidates []models.Cooperative
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to search cooperatives: %w", err)
	}

	cooperatives := make([]models.Cooperative, 0, len(candidates))
	for _, candidate := range candidates {
		if !candidate.HasLocation() {
			continue
		}
		if utils.WithinCap(center.Latitude, center.Longitude, radius, *candidate.Latitude, *candidate.Longitude) {
			cooperatives = append(cooperatives, candidate)
		}
	}
	return cooperatives, nil
}

// UploadPhoto validates and stores a photo for the cooperative and returns
// the stored file name.
func (s *CooperativeService) UploadPhoto(ctx context.Context, id uuid.UUID, principal Principal, upload *PhotoUpload) (string, error) {
	cooperative, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !CanMutate(cooperative.UserID, principal) {
		return "", notAuthorized(principal.ID, "update", "cooperative", id)
	}

	if upload == nil || upload.Content == nil {
		return "", utils.ValidationError("Please upload a file")
	}

	mtype, err := DetectContentType(upload.Content)
	if err != nil {
		return "", utils.ValidationError("Please upload an image file")
	}
	if !strings.HasPrefix(mtype.String(), "image") {
		return "", utils.ValidationError("Please upload an image file")
	}
	if upload.Size > s.maxPhoto {
		return "", utils.ValidationError(fmt.Sprintf("Please upload an image less than %d", s.maxPhoto))
	}

	ext := filepath.Ext(upload.Filename)
	if ext == "" {
		ext = mtype.Extension()
	}
	filename := fmt.Sprintf("photo_%s%s", cooperative.ID, ext)

	if _, err := s.storage.Save(ctx, filename, upload.Content, upload.Size, mtype.String()); err != nil {
		logrus.WithError(err).WithField("cooperative_id", id).Error("Photo upload failed")
		return "", utils.UpstreamError("Problem with file upload")
	}

	if err := s.db.WithContext(ctx).Model(cooperative).Update("photo", filename).Error; err != nil {
		return "", fmt.Errorf("failed to store photo name: %w", err)
	}

	return filename, nil
}

func (s *CooperativeService) ownedBy(ctx context.Context, userID uuid.UUID) (*models.Cooperative, error) {
	var cooperative models.Cooperative
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cooperative).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &cooperative, nil
}

// translateUniqueViolation tells a lost creation race apart from a
// duplicate name.
func (s *CooperativeService) translateUniqueViolation(ctx context.Context, principal Principal) error {
	if !principal.IsAdmin() {
		if existing, err := s.ownedBy(ctx, principal.ID); err == nil && existing != nil {
			return alreadyPublished(principal.ID)
		}
	}
	return utils.ValidationError("Duplicate field value entered")
}

// locate fills the coordinates from the address. An address the provider
// cannot resolve leaves the cooperative without a location.
func (s *CooperativeService) locate(ctx context.Context, cooperative *models.Cooperative) error {
	if cooperative.Address == "" || s.geocoder == nil {
		return nil
	}

	points, err := s.geocoder.Geocode(ctx, cooperative.Address)
	if err != nil {
		logrus.WithError(err).WithField("address", cooperative.Address).Error("Geocoding failed")
		return utils.UpstreamError("Geocoding service unavailable")
	}
	if len(points) == 0 {
		return nil
	}

	lat, lng := points[0].Latitude, points[0].Longitude
	cooperative.Latitude, cooperative.Longitude = &lat, &lng
	cooperative.FormattedAddress = cooperative.Address
	return nil
}

func validateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return utils.ValidationError("Please provide both latitude and longitude")
	}
	return nil
}

func cooperativeNotFound(id uuid.UUID) error {
	return utils.NotFoundError(fmt.Sprintf("Cooperative not found with id of %s", id))
}

func alreadyPublished(userID uuid.UUID) error {
	return utils.ValidationError(fmt.Sprintf("The user with ID %s has already published a cooperative", userID))
}

func notAuthorized(userID uuid.UUID, action, resource string, id uuid.UUID) error {
	return utils.ForbiddenError(fmt.Sprintf("User %s is not authorized to %s %s %s", userID, action, resource, id))
}
