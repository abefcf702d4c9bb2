package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusCode(NotFoundError("missing")))
	assert.Equal(t, http.StatusForbidden, StatusCode(fmt.Errorf("wrapped: %w", ForbiddenError("no"))))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Name  string           `json:"name" validate:"required"`
		Email string           `json:"email" validate:"omitempty,email"`
		Price *decimal.Decimal `json:"price" validate:"required,gte=0"`
	}

	price := decimal.NewFromInt(5)
	assert.NoError(t, ValidateRequest(&request{Name: "Honey", Price: &price}))

	err := ValidateRequest(&request{Email: "nope", Price: &price})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Equal(t, "Please add a name, Please add a valid email", err.Error())

	negative := decimal.NewFromInt(-1)
	err = ValidateRequest(&request{Name: "Honey", Price: &negative})
	require.Error(t, err)
	assert.Equal(t, "price must be at least 0", err.Error())
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "owner", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "owner", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	SetJWTSecret("rotated")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}
