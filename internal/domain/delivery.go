package domain

import "time"

// DeliveryStatus is a state of a delivery record
type DeliveryStatus string

// Delivery states
const (
	DeliveryPending   DeliveryStatus = "pending"   // In the pool
	DeliveryAccepted  DeliveryStatus = "accepted"  // Claimed by a courier
	DeliveryPickedUp  DeliveryStatus = "picked_up" // Collected from the kitchen
	DeliveryDelivered DeliveryStatus = "delivered" // Dropped off
	DeliveryCancelled DeliveryStatus = "cancelled" // Withdrawn
)

// Valid reports whether s is one of the delivery states
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryAccepted, DeliveryPickedUp, DeliveryDelivered, DeliveryCancelled:
		return true
	}
	return false
}

// Delivery is the courier-assignable fulfilment record of an order
type Delivery struct {
	ID              uint           `gorm:"primaryKey" json:"id"`                              // Primary key
	OrderID         uint           `gorm:"uniqueIndex;not null" json:"order"`                 // One delivery per order
	Order           *Order         `gorm:"foreignKey:OrderID" json:"order_details,omitempty"` // Loaded on demand
	CustomerID      uint           `gorm:"not null;index" json:"customer"`                    // Recipient
	CourierID       *uint          `gorm:"index" json:"delivery_boy"`                         // Nil while in the pool
	PickupAddress   string         `gorm:"size:255" json:"pickup_address"`                    // Owner business address
	DeliveryAddress string         `gorm:"size:255" json:"delivery_address"`                  // Copied from the order
	DeliveryPincode string         `gorm:"size:12;index" json:"delivery_pincode"`             // Pool partition key
	Status          DeliveryStatus `gorm:"size:16;not null;index" json:"status"`              // Delivery state
	AcceptedAt      *time.Time     `json:"accepted_at"`                                       // Claim time
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
