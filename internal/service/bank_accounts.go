package service

import (
	"context"
	"fmt"
	"strings"

	"home_eats/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BankAccountInput is a new payout account
type BankAccountInput struct {
	AccountHolderName string
	BankName          string
	AccountNumber     string
	IFSCCode          string
	IsPrimary         *bool // nil means primary only when it is the first account
}

// BankAccounts manages users' payout accounts
type BankAccounts struct {
	db *gorm.DB
}

// NewBankAccounts builds the bank account service
func NewBankAccounts(db *gorm.DB) *BankAccounts {
	return &BankAccounts{db: db}
}

// Add stores an account, keeping at most one primary per user
func (s *BankAccounts) Add(ctx context.Context, userID uint, in BankAccountInput) (*domain.BankAccount, error) {
	acct := domain.BankAccount{
		UserID:            userID,
		AccountHolderName: strings.TrimSpace(in.AccountHolderName),
		BankName:          strings.TrimSpace(in.BankName),
		AccountNumber:     strings.TrimSpace(in.AccountNumber),
		IFSCCode:          strings.ToUpper(strings.TrimSpace(in.IFSCCode)),
	}
	verr := domain.ValidationError{}
	required := map[string]string{
		"account_holder_name": acct.AccountHolderName,
		"bank_name":           acct.BankName,
		"account_number":      acct.AccountNumber,
		"ifsc_code":           acct.IFSCCode,
	}
	for field, v := range required {
		if v == "" {
			verr[field] = "This field is required."
		}
	}
	if len(verr) > 0 {
		return nil, verr
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&domain.BankAccount{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return err
		}
		acct.IsPrimary = existing == 0 // First account defaults to primary
		if in.IsPrimary != nil {
			acct.IsPrimary = *in.IsPrimary
		}
		if acct.IsPrimary {
			// Demote the current primary in the same transaction
			if err := tx.Model(&domain.BankAccount{}).
				Where("user_id = ? AND is_primary = ?", userID, true).
				Update("is_primary", false).Error; err != nil {
				return fmt.Errorf("clear primary account: %w", err)
			}
		}
		if err := tx.Create(&acct).Error; err != nil {
			return fmt.Errorf("create bank account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "account_id": acct.ID, "primary": acct.IsPrimary}).Info("Bank account added")
	return &acct, nil
}

// List returns the user's accounts, primary first
func (s *BankAccounts) List(ctx context.Context, userID uint) ([]domain.BankAccount, error) {
	var accounts []domain.BankAccount
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_primary desc, id asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Delete removes one of the user's accounts
func (s *BankAccounts) Delete(ctx context.Context, id, userID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.BankAccount{})
	if res.Error != nil {
		return fmt.Errorf("delete bank account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
