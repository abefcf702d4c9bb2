// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Title         string          `json:"title" gorm:"size:255;not null"`
	Description   string          `json:"description" gorm:"type:text;not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CooperativeID uuid.UUID       `json:"cooperative_id" gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`

	// Relationships
	Cooperative *Cooperative `json:"cooperative,omitempty" gorm:"foreignKey:CooperativeID"`
	User        *User        `json:"-" gorm:"foreignKey:UserID"`
}
