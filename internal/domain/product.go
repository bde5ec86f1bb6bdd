package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact money arithmetic
	"gorm.io/gorm"                  // Soft delete support
)

// LowStockThreshold is the stock level under which admins see a product as running low
const LowStockThreshold = 10

// Product Model
//
// Deleting a product is a soft delete: it disappears from every lookup (carts and checkout
// treat it as gone) while order items that reference it keep their history.
type Product struct {
	ID            uint            `gorm:"column:product_id;primaryKey" json:"id"`   // Primary key
	Name          string          `gorm:"size:100;not null" json:"name"`            // Display name
	Description   string          `gorm:"type:text" json:"description"`             // Long description
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"` // Current unit price, never negative
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"` // Units available, never negative
	Category      string          `gorm:"size:50;index" json:"category"`            // Category name
	ImageURL      string          `gorm:"size:255" json:"image_url,omitempty"`      // Optional image reference
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`         // Creation time
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`         // Last admin edit
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`                           // Soft delete marker
}

// InStock reports whether at least one unit can be sold
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}
