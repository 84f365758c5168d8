package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a state of the order lifecycle
type OrderStatus string

// Order states in forward order; Delivered and Cancelled are terminal
const (
	OrderPending          OrderStatus = "pending"            // Placed and paid, awaiting the kitchen
	OrderConfirmed        OrderStatus = "confirmed"          // Accepted by the owner
	OrderPreparing        OrderStatus = "preparing"          // In the kitchen
	OrderReadyForDelivery OrderStatus = "ready_for_delivery" // Waiting for a courier
	OrderPickedUp         OrderStatus = "picked_up"          // With the courier
	OrderDelivered        OrderStatus = "delivered"          // Handed to the customer
	OrderCancelled        OrderStatus = "cancelled"          // Abandoned
)

var orderStatuses = map[OrderStatus]bool{
	OrderPending:          true,
	OrderConfirmed:        true,
	OrderPreparing:        true,
	OrderReadyForDelivery: true,
	OrderPickedUp:         true,
	OrderDelivered:        true,
	OrderCancelled:        true,
}

// Valid reports whether s is one of the order states
func (s OrderStatus) Valid() bool {
	return orderStatuses[s]
}

// Terminal reports whether no further transition is permitted from s
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Settles reports whether leaving pending for s pays the owner
func (s OrderStatus) Settles() bool {
	switch s {
	case OrderConfirmed, OrderPreparing, OrderReadyForDelivery, OrderPickedUp, OrderDelivered:
		return true
	}
	return false
}

// Order is a customer's purchase of a tiffin
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`                                // Primary key
	CustomerID      uint            `gorm:"not null;index" json:"customer"`                      // Ordering user
	TiffinID        uint            `gorm:"not null;index" json:"tiffin"`                        // Ordered tiffin
	Tiffin          *Tiffin         `gorm:"foreignKey:TiffinID" json:"tiffin_details,omitempty"` // Loaded on demand
	CourierID       *uint           `gorm:"index" json:"delivery_boy"`                           // Set when a courier accepts the delivery
	Quantity        int             `gorm:"not null" json:"quantity"`                            // Portions, at least 1
	TotalPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`      // Price times quantity at placement
	DeliveryAddress string          `gorm:"size:255" json:"delivery_address"`                    // Drop-off address
	DeliveryPincode string          `gorm:"size:12;index" json:"delivery_pincode"`               // Drop-off postal area
	Status          OrderStatus     `gorm:"size:24;not null;index" json:"status"`                // Lifecycle state
	SettledAt       *time.Time      `json:"settled_at"`                                          // Set once the owner is paid
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
