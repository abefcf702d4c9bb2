// internal/models/cooperative.go
package models

import (
	"github.com/google/uuid"
)

// Cooperative is an organization that sells products. AverageCost is derived
// from the prices of its products and is nil while it has none.
type Cooperative struct {
	BaseModel
	Name             string    `json:"name" gorm:"uniqueIndex;size:50;not null"`
	Description      string    `json:"description" gorm:"size:500;not null"`
	Website          string    `json:"website,omitempty" gorm:"size:255"`
	Phone            string    `json:"phone,omitempty" gorm:"size:20"`
	Email            string    `json:"email,omitempty" gorm:"size:255"`
	Address          string    `json:"address,omitempty" gorm:"size:255"`
	Latitude         *float64  `json:"latitude" gorm:"index:idx_cooperatives_location"`
	Longitude        *float64  `json:"longitude" gorm:"index:idx_cooperatives_location"`
	FormattedAddress string    `json:"formatted_address,omitempty" gorm:"size:255"`
	City             string    `json:"city,omitempty" gorm:"size:100"`
	Zipcode          string    `json:"zipcode,omitempty" gorm:"size:20"`
	Country          string    `json:"country,omitempty" gorm:"size:100"`
	Photo            string    `json:"photo" gorm:"size:255;default:'no-photo.jpg'"`
	AverageCost      *int      `json:"average_cost"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`

	// OwnerSlot holds UserID for cooperatives created by non-admins. The
	// unique index caps those owners at one cooperative; admins leave it NULL.
	OwnerSlot *uuid.UUID `json:"-" gorm:"type:uuid;uniqueIndex"`

	// Relationships
	User     *User     `json:"-" gorm:"foreignKey:UserID"`
	Products []Product `json:"products,omitempty" gorm:"foreignKey:CooperativeID;constraint:OnDelete:CASCADE"`
}

// HasLocation reports whether the cooperative can take part in radius searches.
func (c *Cooperative) HasLocation() bool {
	return c.Latitude != nil && c.Longitude != nil
}
