package services

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/utils"
)

type fakeGeocoder struct {
	points  map[string][]GeoPoint
	err     error
	queries []string
}

func (g *fakeGeocoder) Geocode(ctx context.Context, query string) ([]GeoPoint, error) {
	g.queries = append(g.queries, query)
	if g.err != nil {
		return nil, g.err
	}
	return g.points[query], nil
}

type fakeStorage struct {
	saved   map[string][]byte
	deleted []string
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: map[string][]byte{}}
}

func (s *fakeStorage) Save(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.saved[key] = data
	return "/uploads/" + key, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

// spyRecalculator records calls and delegates to next when set.
type spyRecalculator struct {
	mu    sync.Mutex
	calls []uuid.UUID
	next  AverageCostRecalculator
	err   error
}

func (s *spyRecalculator) Recompute(ctx context.Context, cooperativeID uuid.UUID) (*int, error) {
	s.mu.Lock()
	s.calls = append(s.calls, cooperativeID)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.next != nil {
		return s.next.Recompute(ctx, cooperativeID)
	}
	return nil, nil
}

var errUpstream = errors.New("upstream unavailable")

func principalOf(user *models.User) Principal {
	return Principal{ID: user.ID, Role: user.Role}
}

func createCooperative(t *testing.T, db *gorm.DB, owner *models.User, name string, lat, lng *float64) *models.Cooperative {
	t.Helper()

	cooperative := &models.Cooperative{
		Name:        name,
		Description: name + " description",
		Photo:       models.DefaultPhoto,
		UserID:      owner.ID,
		Latitude:    lat,
		Longitude:   lng,
	}
	if owner.Role != models.RoleAdmin {
		slot := owner.ID
		cooperative.OwnerSlot = &slot
	}
	require.NoError(t, db.Create(cooperative).Error)
	return cooperative
}

func createProduct(t *testing.T, db *gorm.DB, cooperative *models.Cooperative, owner *models.User, price int64) *models.Product {
	t.Helper()

	product := &models.Product{
		Title:         "Product",
		Description:   "A product",
		Price:         decimal.NewFromInt(price),
		CooperativeID: cooperative.ID,
		UserID:        owner.ID,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func reloadCooperative(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Cooperative {
	t.Helper()

	var cooperative models.Cooperative
	require.NoError(t, db.First(&cooperative, "id = ?", id).Error)
	return &cooperative
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, status, utils.StatusCode(err), err.Error())
}

func float(v float64) *float64 {
	return &v
}

func cooperativeParams(t *testing.T, rawQuery string) utils.QueryParams {
	t.Helper()

	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	return utils.ParseQueryParams(values, CooperativeQueryFields)
}
