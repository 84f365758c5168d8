package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tiffin is a meal listing published by an owner
type Tiffin struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                                   // Primary key
	OwnerID     uint            `gorm:"not null;index" json:"owner_id"`                                         // Owner profile id
	Owner       *OwnerProfile   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE;" json:"owner,omitempty"` // Publishing kitchen
	Name        string          `gorm:"size:200;not null" json:"name"`                                          // Display name
	Description string          `gorm:"type:text" json:"description"`                                           // Free text
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`                               // Unit price
	IsAvailable bool            `gorm:"not null;index" json:"is_available"`                                     // Hidden from the public list when false
	Image       string          `gorm:"size:512" json:"image"`                                                  // Stored image URL
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
