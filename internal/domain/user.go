package domain

import "time"

// Roles a user can hold
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleDelivery = "delivery"
	RoleAdmin    = "admin"
)

// User Model
type User struct {
	ID             uint            `gorm:"primaryKey" json:"id"`                          // Primary key
	Username       string          `gorm:"size:150;uniqueIndex;not null" json:"username"` // Unique username, stored lowercase
	Email          *string         `gorm:"size:254;uniqueIndex" json:"email"`             // Optional unique email
	Password       string          `gorm:"not null" json:"-"`                             // Hashed password
	Role           string          `gorm:"size:20;not null;index" json:"user_type"`       // customer, owner, delivery or admin
	Name           string          `gorm:"size:150" json:"name"`                          // Display name
	Phone          string          `gorm:"size:20" json:"phone_number"`                   // Contact number
	Street         string          `gorm:"size:255" json:"street"`                        // Street address
	City           string          `gorm:"size:100" json:"city"`                          // City
	State          string          `gorm:"size:100" json:"state"`                         // State
	Country        string          `gorm:"size:100" json:"country"`                       // Country
	Pincode        string          `gorm:"size:12;index" json:"pincode"`                  // Postal code
	OwnerProfile   *OwnerProfile   `json:"tiffin_owner,omitempty"`                        // Set for owners
	CourierProfile *CourierProfile `json:"delivery_boy,omitempty"`                        // Set for couriers
	Wallet         *Wallet         `json:"wallet,omitempty"`                              // One-to-one wallet
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OwnerProfile holds the business details of a kitchen owner
type OwnerProfile struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	UserID          uint   `gorm:"uniqueIndex;not null" json:"user"`
	BusinessName    string `gorm:"size:200" json:"business_name"`         // Kitchen name
	BusinessAddress string `gorm:"size:255" json:"business_address"`      // Pickup address for deliveries
	BusinessPincode string `gorm:"size:12;index" json:"business_pincode"` // Catalog pincode filter
	FSSAINumber     string `gorm:"size:32" json:"fssai_number"`           // Food licence number
}

// CourierProfile holds the details of a delivery courier
type CourierProfile struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	UserID        uint   `gorm:"uniqueIndex;not null" json:"user"`
	VehicleNumber string `gorm:"size:32" json:"vehicle_number"` // Registration plate
	IsActive      bool   `gorm:"not null" json:"is_active"`     // Inactive couriers cannot accept deliveries
}

// IsValidRegistrationRole reports whether a role may be chosen at sign-up
func IsValidRegistrationRole(role string) bool {
	switch role {
	case RoleCustomer, RoleOwner, RoleDelivery:
		return true
	}
	return false
}
