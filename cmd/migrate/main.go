package main

import (
	"home_eats/internal/config" // Custom import path (Config)
	"home_eats/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate: %v", err)
	}
	// Seed the admin account when credentials are configured
	if err := db.SeedAdmin(gdb, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}
	logrus.Info("Migration completed")
}
