package services

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/coopmarket-backend/internal/database"
	"github.com/javajoker/coopmarket-backend/internal/models"
	"github.com/javajoker/coopmarket-backend/internal/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type CooperativeServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	geocoder *fakeGeocoder
	storage  *fakeStorage
	service  *CooperativeService
	ctx      context.Context

	owner    *models.User
	stranger *models.User
	admin    *models.User
}

func (suite *CooperativeServiceTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.geocoder = &fakeGeocoder{points: map[string][]GeoPoint{
		"02108":              {{Latitude: 42.3601, Longitude: -71.0589}},
		"1 Main St, Boston":  {{Latitude: 42.3601, Longitude: -71.0589}},
		"5 Elm St, New York": {{Latitude: 40.7128, Longitude: -74.0060}},
	}}
	suite.storage = newFakeStorage()
	suite.service = NewCooperativeService(suite.db, suite.geocoder, suite.storage, 1024)
	suite.ctx = context.Background()

	suite.owner = testutil.CreateUser(suite.T(), suite.db, models.RoleOwner)
	suite.stranger = testutil.CreateUser(suite.T(), suite.db, models.RoleOwner)
	suite.admin = testutil.CreateUser(suite.T(), suite.db, models.RoleAdmin)
}

func (suite *CooperativeServiceTestSuite) create(user *models.User, name string) (*models.Cooperative, error) {
	return suite.service.Create(suite.ctx, principalOf(user), &CreateCooperativeRequest{
		Name:        name,
		Description: "Fresh produce",
	})
}

func (suite *CooperativeServiceTestSuite) TestCreateOnePerOwner() {
	first, err := suite.create(suite.owner, "Green Acres")
	suite.Require().NoError(err)
	suite.Equal(suite.owner.ID, first.UserID)
	suite.Equal(models.DefaultPhoto, first.Photo)
	suite.Nil(first.AverageCost)

	_, err = suite.create(suite.owner, "Second Acres")
	requireStatus(suite.T(), err, http.StatusBadRequest)
	suite.Contains(err.Error(), "has already published a cooperative")

	_, err = suite.create(suite.stranger, "Other Acres")
	suite.NoError(err)
}

func (suite *CooperativeServiceTestSuite) TestAdminCreatesMany() {
	for _, name := range []string{"Admin One", "Admin Two"} {
		cooperative, err := suite.create(suite.admin, name)
		suite.Require().NoError(err)
		suite.Equal(suite.admin.ID, cooperative.UserID)
		suite.Nil(cooperative.OwnerSlot)
	}
}

func (suite *CooperativeServiceTestSuite) TestOwnerSlotIsUnique() {
	createCooperative(suite.T(), suite.db, suite.owner, "Slot One", nil, nil)

	slot := suite.owner.ID
	err := suite.db.Create(&models.Cooperative{
		Name:        "Slot Two",
		Description: "Racing insert",
		UserID:      suite.owner.ID,
		OwnerSlot:   &slot,
	}).Error
	suite.Require().Error(err)
	suite.True(database.IsUniqueViolation(err))

	suite.Contains(suite.service.translateUniqueViolation(suite.ctx, principalOf(suite.owner)).Error(),
		"has already published a cooperative")
	suite.Equal("Duplicate field value entered",
		suite.service.translateUniqueViolation(suite.ctx, principalOf(suite.admin)).Error())
}

func (suite *CooperativeServiceTestSuite) TestCreateDuplicateName() {
	_, err := suite.create(suite.owner, "Same Name")
	suite.Require().NoError(err)

	_, err = suite.create(suite.stranger, "Same Name")
	requireStatus(suite.T(), err, http.StatusBadRequest)
	suite.Equal("Duplicate field value entered", err.Error())
}

func (suite *CooperativeServiceTestSuite) TestCreateValidation() {
	_, err := suite.service.Create(suite.ctx, principalOf(suite.owner), &CreateCooperativeRequest{Description: "No name"})
	requireStatus(suite.T(), err, http.StatusBadRequest)

	_, err = suite.service.Create(suite.ctx, principalOf(suite.owner), &CreateCooperativeRequest{
		Name: "Lonely", Description: "Half a location", Latitude: float(10),
	})
	requireStatus(suite.T(), err, http.StatusBadRequest)

	_, err = suite.service.Create(suite.ctx, principalOf(suite.owner), &CreateCooperativeRequest{
		Name: "Broken", Description: "Bad website", Website: "not a url",
	})
	requireStatus(suite.T(), err, http.StatusBadRequest)
}

func (suite *CooperativeServiceTestSuite) TestCreateGeocodesAddress() {
	cooperative, err := suite.service.Create(suite.ctx, principalOf(suite.owner), &CreateCooperativeRequest{
		Name:        "Boston Co-op",
		Description: "Downtown",
		Address:     "1 Main St, Boston",
	})
	suite.Require().NoError(err)
	suite.Require().True(cooperative.HasLocation())
	suite.InDelta(42.3601, *cooperative.Latitude, 1e-9)
	suite.Equal("1 Main St, Boston", cooperative.FormattedAddress)
}

func (suite *CooperativeServiceTestSuite) TestCreateWithUnknownAddressStaysUnlocated() {
	cooperative, err := suite.service.Create(suite.ctx, principalOf(suite.owner), &CreateCooperativeRequest{
		Name:        "Nowhere",
		Description: "Off the map",
		Address:     "Unknown Road",
	})
	suite.Require().NoError(err)
	suite.False(cooperative.HasLocation())
}

func (suite *CooperativeServiceTestSuite) TestCreateGeocoderFailure() {
	suite.geocoder.err = errUpstream
	_, err := suite.service.Create(suite.ctx, principalOf(suite.owner), &CreateCooperativeRequest{
		Name:        "Failing",
		Description: "Provider down",
		Address:     "1 Main St, Boston",
	})
	requireStatus(suite.T(), err, http.StatusInternalServerError)
}

func (suite *CooperativeServiceTestSuite) TestUpdate() {
	cooperative, err := suite.create(suite.owner, "Before")
	suite.Require().NoError(err)

	name := "After"
	_, err = suite.service.Update(suite.ctx, cooperative.ID, principalOf(suite.stranger), &UpdateCooperativeRequest{Name: &name})
	requireStatus(suite.T(), err, http.StatusForbidden)

	updated, err := suite.service.Update(suite.ctx, cooperative.ID, principalOf(suite.owner), &UpdateCooperativeRequest{Name: &name})
	suite.Require().NoError(err)
	suite.Equal("After", updated.Name)

	address := "5 Elm St, New York"
	updated, err = suite.service.Update(suite.ctx, cooperative.ID, principalOf(suite.admin), &UpdateCooperativeRequest{Address: &address})
	suite.Require().NoError(err)
	suite.Require().True(updated.HasLocation())
	suite.InDelta(40.7128, *updated.Latitude, 1e-9)

	stored := reloadCooperative(suite.T(), suite.db, cooperative.ID)
	suite.Equal("After", stored.Name)
	suite.Equal(address, stored.Address)
	suite.InDelta(-74.0060, *stored.Longitude, 1e-9)

	_, err = suite.service.Update(suite.ctx, uuid.New(), principalOf(suite.owner), &UpdateCooperativeRequest{Name: &name})
	requireStatus(suite.T(), err, http.StatusNotFound)
}

func (suite *CooperativeServiceTestSuite) TestDeleteCascadesProducts() {
	cooperative := createCooperative(suite.T(), suite.db, suite.owner, "Doomed", nil, nil)
	createProduct(suite.T(), suite.db, cooperative, suite.owner, 5)
	createProduct(suite.T(), suite.db, cooperative, suite.owner, 7)
	suite.Require().NoError(suite.db.Model(cooperative).Update("photo", "photo_doomed.png").Error)

	err := suite.service.Delete(suite.ctx, cooperative.ID, principalOf(suite.stranger))
	requireStatus(suite.T(), err, http.StatusForbidden)

	suite.Require().NoError(suite.service.Delete(suite.ctx, cooperative.ID, principalOf(suite.owner)))

	var products int64
	suite.Require().NoError(suite.db.Model(&models.Product{}).Where("cooperative_id = ?", cooperative.ID).Count(&products).Error)
	suite.Zero(products)

	_, err = suite.service.Get(suite.ctx, cooperative.ID)
	requireStatus(suite.T(), err, http.StatusNotFound)
	suite.Equal([]string{"photo_doomed.png"}, suite.storage.deleted)

	// The owner may publish again once the first cooperative is gone.
	_, err = suite.create(suite.owner, "Reborn")
	suite.NoError(err)
}

func (suite *CooperativeServiceTestSuite) TestWithinRadius() {
	createCooperative(suite.T(), suite.db, suite.owner, "Cambridge", float(42.3736), float(-71.1097))
	createCooperative(suite.T(), suite.db, suite.stranger, "New York", float(40.7128), float(-74.0060))
	createCooperative(suite.T(), suite.db, suite.admin, "Unlocated", nil, nil)

	found, err := suite.service.WithinRadius(suite.ctx, "02108", 10)
	suite.Require().NoError(err)
	suite.Require().Len(found, 1)
	suite.Equal("Cambridge", found[0].Name)

	found, err = suite.service.WithinRadius(suite.ctx, "02108", 250)
	suite.Require().NoError(err)
	suite.Len(found, 2)

	_, err = suite.service.WithinRadius(suite.ctx, "02108", 0)
	requireStatus(suite.T(), err, http.StatusBadRequest)

	_, err = suite.service.WithinRadius(suite.ctx, "99999", 10)
	requireStatus(suite.T(), err, http.StatusNotFound)

	suite.geocoder.err = errUpstream
	_, err = suite.service.WithinRadius(suite.ctx, "02108", 10)
	requireStatus(suite.T(), err, http.StatusInternalServerError)
}

func (suite *CooperativeServiceTestSuite) TestUploadPhoto() {
	cooperative := createCooperative(suite.T(), suite.db, suite.owner, "Photogenic", nil, nil)
	upload := func(name string, content []byte) *PhotoUpload {
		return &PhotoUpload{Filename: name, Size: int64(len(content)), Content: bytes.NewReader(content)}
	}

	suite.Run("missing file", func() {
		_, err := suite.service.UploadPhoto(suite.ctx, cooperative.ID, principalOf(suite.owner), nil)
		requireStatus(suite.T(), err, http.StatusBadRequest)
	})

	suite.Run("not an image", func() {
		_, err := suite.service.UploadPhoto(suite.ctx, cooperative.ID, principalOf(suite.owner), upload("notes.png", []byte("just some text")))
		requireStatus(suite.T(), err, http.StatusBadRequest)
		suite.Equal("Please upload an image file", err.Error())
		suite.Empty(suite.storage.saved)
	})

	suite.Run("too large", func() {
		large := append(append([]byte{}, pngHeader...), make([]byte, 2048)...)
		_, err := suite.service.UploadPhoto(suite.ctx, cooperative.ID, principalOf(suite.owner), upload("big.png", large))
		requireStatus(suite.T(), err, http.StatusBadRequest)
		suite.Empty(suite.storage.saved)
	})

	suite.Run("not the owner", func() {
		_, err := suite.service.UploadPhoto(suite.ctx, cooperative.ID, principalOf(suite.stranger), upload("a.png", pngHeader))
		requireStatus(suite.T(), err, http.StatusForbidden)
	})

	suite.Run("stored under cooperative id", func() {
		name, err := suite.service.UploadPhoto(suite.ctx, cooperative.ID, principalOf(suite.owner), upload("holiday.png", pngHeader))
		suite.Require().NoError(err)
		suite.Equal("photo_"+cooperative.ID.String()+".png", name)
		suite.Equal(pngHeader, suite.storage.saved[name])
		suite.Equal(name, reloadCooperative(suite.T(), suite.db, cooperative.ID).Photo)
	})

	suite.Run("extension from content", func() {
		name, err := suite.service.UploadPhoto(suite.ctx, cooperative.ID, principalOf(suite.admin), upload("blob", pngHeader))
		suite.Require().NoError(err)
		suite.Equal("photo_"+cooperative.ID.String()+".png", name)
	})

	suite.Run("storage failure", func() {
		suite.storage.err = errUpstream
		defer func() { suite.storage.err = nil }()

		_, err := suite.service.UploadPhoto(suite.ctx, cooperative.ID, principalOf(suite.owner), upload("a.png", pngHeader))
		requireStatus(suite.T(), err, http.StatusInternalServerError)
		suite.Equal("Problem with file upload", err.Error())
	})
}

func TestCooperativeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CooperativeServiceTestSuite))
}

func TestCooperativeList(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, models.RoleAdmin)
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		cooperative := createCooperative(t, db, owner, name, nil, nil)
		createProduct(t, db, cooperative, owner, 10)
	}

	service := NewCooperativeService(db, nil, nil, 1024)
	params := cooperativeParams(t, "sort=name&limit=2&page=2")

	list, total, err := service.List(context.Background(), params)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Charlie", list[0].Name)
	assert.Len(t, list[0].Products, 1)
}
