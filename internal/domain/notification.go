package domain

import "time"

// Notification types
const (
	NotifyOrderPlaced       = "order_placed"       // Customer placed an order
	NotifyNewOrder          = "new_order"          // Owner received an order
	NotifyOrderStatus       = "order_status"       // Order moved
	NotifyDeliveryAvailable = "delivery_available" // Courier pool has a new entry
	NotifyDeliveryAccepted  = "delivery_accepted"  // Courier claimed the delivery
	NotifyDeliveryStatus    = "delivery_status"    // Delivery moved
	NotifyWalletCredited    = "wallet_credited"    // Settlement or refund
)

// Notification is an append-only feed entry; only Read ever changes
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID    uint      `gorm:"not null;index" json:"user"`                // Recipient
	Type      string    `gorm:"size:40;not null" json:"type"`              // One of the Notify constants
	Message   string    `gorm:"size:512;not null" json:"message"`          // Human readable text
	Data      string    `gorm:"type:text" json:"data,omitempty"`           // JSON payload
	Read      bool      `gorm:"column:is_read;not null;index" json:"read"` // Set by mark read
	CreatedAt time.Time `json:"timestamp"`
}
