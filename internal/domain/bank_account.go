package domain

import "time"

// BankAccount is a payout account; at most one per user is primary
type BankAccount struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"user"` // Account holder user
	AccountHolderName string    `gorm:"size:150;not null" json:"account_holder_name"`
	BankName          string    `gorm:"size:150;not null" json:"bank_name"`
	AccountNumber     string    `gorm:"size:34;not null" json:"account_number"`
	IFSCCode          string    `gorm:"size:11;not null" json:"ifsc_code"` // Stored uppercase
	IsPrimary         bool      `gorm:"not null" json:"is_primary"`        // Payout target
	CreatedAt         time.Time `json:"created_at"`
}
