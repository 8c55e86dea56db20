package main

import (
	"context"                 // Context for the admin seed
	"rewear/internal/account" // Custom import path (Accounts)
	"rewear/internal/config"  // Custom import path (Config)
	"rewear/internal/db"      // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	config.SetupLogger(cfg)    // Setup logger

	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	// Seed an administrator when credentials are configured
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logrus.Info("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return
	}
	admin, err := account.NewService(database, 0).EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}
	logrus.WithField("user_id", admin.ID).Info("Admin account ready")
}
