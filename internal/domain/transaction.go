package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TxnCredit     = "credit"     // Deposit into the wallet
	TxnDebit      = "debit"      // Payment for an order
	TxnSettlement = "settlement" // Owner payout when an order is confirmed
	TxnRefund     = "refund"     // Customer refund for a cancelled pending order
)

// WalletTransaction is an immutable ledger row; Amount is positive for credits and negative for debits
type WalletTransaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	WalletID  uint            `gorm:"not null;index" json:"wallet"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type      string          `gorm:"size:20;not null;index" json:"txn_type"`
	Reference string          `gorm:"size:128" json:"reference"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// OrderReference tags ledger rows that belong to an order
func OrderReference(orderID uint) string {
	return "ORDER:" + strconv.FormatUint(uint64(orderID), 10)
}
