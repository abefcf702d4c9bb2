// internal/services/access.go
package services

import (
	"github.com/google/uuid"

	"github.com/javajoker/coopmarket-backend/internal/models"
)

// Principal is the authenticated actor behind a request.
type Principal struct {
	ID   uuid.UUID
	Role models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// CanMutate reports whether p may update or delete a resource owned by ownerID.
func CanMutate(ownerID uuid.UUID, p Principal) bool {
	return p.ID == ownerID || p.IsAdmin()
}

// CanCreateCooperative reports whether p may create a cooperative given the
// one it already owns, if any. Admins are not limited.
func CanCreateCooperative(p Principal, existing *models.Cooperative) bool {
	return existing == nil || p.IsAdmin()
}
