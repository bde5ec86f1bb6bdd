package db

import (
	"eshop/internal/domain" // Importing domain models

	"github.com/pkg/errors"         // Error wrapping
	"github.com/shopspring/decimal" // Money values
	"github.com/sirupsen/logrus"    // Structured logging
	"golang.org/x/crypto/bcrypt"    // Password hashing
	"gorm.io/gorm"                  // GORM ORM library
)

// SampleProducts is the starter catalogue created on an empty database
func SampleProducts() []domain.Product {
	return []domain.Product{
		{Name: "Laptop", Description: "High-performance laptop for work and gaming", Price: decimal.RequireFromString("999.99"), StockQuantity: 10, Category: "Electronics"},
		{Name: "Wireless Mouse", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("29.99"), StockQuantity: 50, Category: "Electronics"},
		{Name: "Mechanical Keyboard", Description: "RGB mechanical keyboard with blue switches", Price: decimal.RequireFromString("79.99"), StockQuantity: 25, Category: "Electronics"},
		{Name: "Headphones", Description: "Noise-cancelling over-ear headphones", Price: decimal.RequireFromString("199.99"), StockQuantity: 15, Category: "Electronics"},
		{Name: "Smartphone", Description: "Latest smartphone with advanced camera", Price: decimal.RequireFromString("699.99"), StockQuantity: 30, Category: "Electronics"},
		{Name: "Tablet", Description: "10-inch tablet for entertainment and productivity", Price: decimal.RequireFromString("399.99"), StockQuantity: 20, Category: "Electronics"},
	}
}

// Seed creates the admin account and the sample catalogue when they are missing
func Seed(db *gorm.DB, adminPassword string, cost int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var admins int64 // Existing admin accounts
		if err := tx.Model(&domain.User{}).Where("role = ?", domain.RoleAdmin).Count(&admins).Error; err != nil {
			return errors.Wrap(err, "count admins")
		}
		if admins == 0 {
			hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), cost)
			if err != nil {
				return errors.Wrap(err, "hash admin password")
			}
			admin := domain.User{Username: "admin", Email: "admin@eshop.com", PasswordHash: string(hash), Role: domain.RoleAdmin}
			if err := tx.Create(&admin).Error; err != nil {
				return errors.Wrap(err, "create admin")
			}
			logrus.WithField("email", admin.Email).Info("Admin account seeded")
		}

		var products int64 // Existing products, soft deleted included
		if err := tx.Unscoped().Model(&domain.Product{}).Count(&products).Error; err != nil {
			return errors.Wrap(err, "count products")
		}
		if products == 0 {
			samples := SampleProducts()
			if err := tx.Create(&samples).Error; err != nil {
				return errors.Wrap(err, "create sample products")
			}
			logrus.WithField("count", len(samples)).Info("Sample products seeded")
		}
		return nil
	})
}
