package main

import (
	"eshop/internal/config" // Custom import path (Config)
	"eshop/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Structured logging
)

// Main entry point for migration and seeding
func main() {
	cfg := config.LoadConfig() // Load configuration
	config.SetupLogger(cfg)    // Setup logger

	gdb, err := db.Open(cfg) // Connect to the database selected by DB_DRIVER
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	// Admin account and sample catalogue on a fresh database
	if err := db.Seed(gdb, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		logrus.Fatalf("seeding failed: %v", err)
	}
	logrus.Info("Database ready.")
}
