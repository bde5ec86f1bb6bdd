package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

// Order statuses. Admins may move an order between any of them.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order Model
type Order struct {
	ID        uint            `gorm:"column:order_id;primaryKey" json:"id"`                    // Primary key
	UserID    uint            `gorm:"not null;index" json:"user_id"`                           // Owning user
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`                // Sum of item snapshots
	Status    OrderStatus     `gorm:"size:20;not null;default:pending;index" json:"status"`    // Lifecycle status
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`                        // Checkout time
	Items     []OrderItem     `gorm:"foreignKey:OrderID;references:ID" json:"items,omitempty"` // Purchased lines
}

// OrderItem Model. Created only together with its order and never mutated.
type OrderItem struct {
	ID              uint            `gorm:"column:item_id;primaryKey" json:"id"`                  // Primary key
	OrderID         uint            `gorm:"not null;index" json:"order_id"`                       // Parent order
	ProductID       uint            `gorm:"not null;index" json:"product_id"`                     // Purchased product
	Quantity        int             `gorm:"not null" json:"quantity"`                             // Units purchased
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_purchase"` // Unit price snapshot
}

// LineTotal returns quantity times the snapshot price
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the line totals of the loaded items
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}
