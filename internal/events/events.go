// Package events publishes domain events produced by checkout.
package events

import (
	"context" // Publisher context
	"time"    // Event timestamps

	"eshop/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Money values
)

// OrderPlacedItem is one purchased line of an OrderPlaced event
type OrderPlacedItem struct {
	ProductID       uint            `json:"product_id"`        // Purchased product
	Quantity        int             `json:"quantity"`          // Units bought
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"` // Unit price snapshot
}

// OrderPlaced is emitted once an order has been committed
type OrderPlaced struct {
	OrderID  uint              `json:"order_id"`  // Order ID
	UserID   uint              `json:"user_id"`   // Buyer
	Total    decimal.Decimal   `json:"total"`     // Order total
	Items    []OrderPlacedItem `json:"items"`     // Purchased lines
	PlacedAt time.Time         `json:"placed_at"` // Order creation time
}

// NewOrderPlaced builds the event for a committed order
func NewOrderPlaced(order *domain.Order) OrderPlaced {
	evt := OrderPlaced{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Total:    order.Total,
		Items:    make([]OrderPlacedItem, len(order.Items)),
		PlacedAt: order.CreatedAt,
	}
	for i, item := range order.Items {
		evt.Items[i] = OrderPlacedItem{ProductID: item.ProductID, Quantity: item.Quantity, PriceAtPurchase: item.PriceAtPurchase}
	}
	return evt
}

// Publisher delivers events to downstream consumers
type Publisher interface {
	OrderPlaced(ctx context.Context, evt OrderPlaced) error
	Close() error
}
