package db

import (
	"errors"
	"fmt"
	"strings"

	"home_eats/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table in migration order
func Models() []any {
	return []any{
		&domain.User{},
		&domain.OwnerProfile{},
		&domain.CourierProfile{},
		&domain.Wallet{},
		&domain.WalletTransaction{},
		&domain.Tiffin{},
		&domain.Order{},
		&domain.Delivery{},
		&domain.BankAccount{},
		&domain.Notification{},
	}
}

// Migrate performs automatic migration for the database schema
func Migrate(gdb *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.")
	return nil
}

// SeedAdmin creates the operator account when it does not exist yet
func SeedAdmin(gdb *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	username = strings.ToLower(username)
	var existing domain.User
	err := gdb.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		admin := domain.User{Username: username, Password: string(hash), Role: domain.RoleAdmin}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		if err := tx.Create(&domain.Wallet{UserID: admin.ID}).Error; err != nil {
			return err
		}
		logrus.WithField("username", username).Info("Admin account seeded")
		return nil
	})
}
