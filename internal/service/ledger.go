package service

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strconv" // Cache keys
	"time"    // Cache TTL and date filters

	"home_eats/internal/domain" // Domain models
	"home_eats/internal/utils"  // Cache and pagination helpers

	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money amounts
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Upsert clauses
)

const walletCacheTTL = 60 * time.Second

// Ledger owns wallet balances and their transaction rows
type Ledger struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewLedger builds a Ledger; rdb may be nil to disable caching
func NewLedger(db *gorm.DB, rdb *redis.Client) *Ledger {
	return &Ledger{db: db, rdb: rdb}
}

func walletCacheKey(userID uint) string {
	return "wallet:user:" + strconv.FormatUint(uint64(userID), 10)
}

// GetOrCreate returns the user's wallet, creating an empty one on first access
func (l *Ledger) GetOrCreate(ctx context.Context, userID uint) (*domain.Wallet, error) {
	var w domain.Wallet
	// Try cache first
	if found, err := utils.GetCache(ctx, l.rdb, walletCacheKey(userID), &w); err == nil && found {
		return &w, nil
	}
	wallet, err := getOrCreateWallet(l.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	_ = utils.SetCache(ctx, l.rdb, walletCacheKey(userID), wallet, walletCacheTTL) // Cache miss, store for next time
	return wallet, nil
}

// getOrCreateWallet collapses concurrent first accesses onto one row
func getOrCreateWallet(tx *gorm.DB, userID uint) (*domain.Wallet, error) {
	w := domain.Wallet{UserID: userID, Balance: decimal.Zero}
	// A losing concurrent insert is a no-op on the unique user_id
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&w).Error; err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	var stored domain.Wallet
	if err := tx.Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	return &stored, nil
}

// Adjust applies delta to the balance and appends the matching transaction row atomically
func (l *Ledger) Adjust(ctx context.Context, userID uint, delta decimal.Decimal, reference, txnType string) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		wallet, err = adjustTx(tx, userID, delta, reference, txnType)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Forget(ctx, userID) // Invalidate only after commit
	return wallet, nil
}

// adjustTx runs inside the caller's transaction
func adjustTx(tx *gorm.DB, userID uint, delta decimal.Decimal, reference, txnType string) (*domain.Wallet, error) {
	w, err := getOrCreateWallet(tx, userID)
	if err != nil {
		return nil, err
	}
	// Update in SQL so concurrent adjustments never overwrite each other
	res := tx.Model(&domain.Wallet{}).Where("id = ?", w.ID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return nil, fmt.Errorf("update balance: %w", res.Error)
	}
	if err := appendTransaction(tx, w.ID, delta, reference, txnType); err != nil {
		return nil, err
	}
	if err := tx.First(w, w.ID).Error; err != nil { // Reload the new balance
		return nil, fmt.Errorf("reload wallet: %w", err)
	}
	return w, nil
}

// debitTx removes amount only if the balance covers it
func debitTx(tx *gorm.DB, userID uint, amount decimal.Decimal, reference string) error {
	w, err := getOrCreateWallet(tx, userID)
	if err != nil {
		return err
	}
	res := tx.Model(&domain.Wallet{}).
		Where("id = ? AND balance >= ?", w.ID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientFunds // Guard failed, nothing changed
	}
	return appendTransaction(tx, w.ID, amount.Neg(), reference, domain.TxnDebit)
}

// appendTransaction records one signed ledger row
func appendTransaction(tx *gorm.DB, walletID uint, amount decimal.Decimal, reference, txnType string) error {
	t := domain.WalletTransaction{
		WalletID:  walletID,
		Amount:    amount,
		Type:      txnType,
		Reference: reference,
	}
	if err := tx.Create(&t).Error; err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// Deposit credits a positive amount to the user's wallet
func (l *Ledger) Deposit(ctx context.Context, userID uint, amount decimal.Decimal) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, domain.ValidationError{"amount": "Invalid amount"} // Zero and negative deposits are rejected
	}
	w, err := l.Adjust(ctx, userID, amount, "Added to Wallet", domain.TxnCredit)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"amount":  amount.String(),
			"error":   err.Error(),
		}).Error("Deposit failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount.String(),
		"type":    domain.TxnCredit,
	}).Info("Deposit transaction")
	return w, nil
}

// Withdraw is switched off; it never touches the wallet
func (l *Ledger) Withdraw(_ context.Context, _ uint, _ decimal.Decimal) error {
	return domain.ErrWithdrawalStopped
}

// Transactions returns a newest-first page of the user's ledger
func (l *Ledger) Transactions(ctx context.Context, userID uint, page utils.Page) ([]domain.WalletTransaction, int64, error) {
	var w domain.Wallet
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []domain.WalletTransaction{}, 0, nil // No wallet yet means no history
	}
	if err != nil {
		return nil, 0, err
	}
	q := l.db.WithContext(ctx).Model(&domain.WalletTransaction{}).Where("wallet_id = ?", w.ID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txns []domain.WalletTransaction
	if err := q.Order("created_at desc, id desc").Offset(page.Offset()).Limit(page.Limit()).Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// Forget drops cached wallets after a committed balance change
func (l *Ledger) Forget(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, walletCacheKey(id))
	}
	if err := utils.DeleteCache(ctx, l.rdb, keys...); err != nil {
		logrus.WithError(err).Warn("wallet cache invalidation failed")
	}
}

// TransactionFilter narrows the operator view of the ledger
type TransactionFilter struct {
	UserID uint
	Type   string
	From   *time.Time
	To     *time.Time
}

// AllTransactions returns a newest-first page across every wallet
func (l *Ledger) AllTransactions(ctx context.Context, filter TransactionFilter, page utils.Page) ([]domain.WalletTransaction, int64, error) {
	q := l.db.WithContext(ctx).Model(&domain.WalletTransaction{})
	if filter.UserID != 0 {
		// Ledger rows hang off wallets, not users
		wallets := l.db.WithContext(ctx).Model(&domain.Wallet{}).Select("id").Where("user_id = ?", filter.UserID)
		q = q.Where("wallet_id IN (?)", wallets)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	var txns []domain.WalletTransaction
	if err := q.Order("created_at desc, id desc").Offset(page.Offset()).Limit(page.Limit()).Find(&txns).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txns, total, nil
}
