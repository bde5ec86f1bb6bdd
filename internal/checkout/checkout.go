// Package checkout converts a cart into an order in a single transaction.
package checkout

import (
	"context" // Request context
	"time"    // Timestamps

	"eshop/internal/cart"       // Cart store
	"eshop/internal/domain"     // Importing domain models
	"eshop/internal/events"     // Order events
	"eshop/internal/repository" // Transactions and repositories

	"github.com/pkg/errors"         // Error wrapping
	"github.com/shopspring/decimal" // Money values
	"github.com/sirupsen/logrus"    // Logging library
)

// Status is the outcome of a checkout attempt
type Status string

const (
	StatusSuccess     Status = "success"            // Order placed
	StatusEmptyCart   Status = "empty_cart"         // Nothing to buy
	StatusUnavailable Status = "unavailable"        // Some cart products no longer exist
	StatusConflict    Status = "insufficient_stock" // Some quantities exceed current stock
	StatusFailed      Status = "failed"             // Storage error; nothing was committed
)

// Shortfall describes one cart line that cannot be fulfilled
type Shortfall struct {
	ProductID uint   `json:"product_id"` // Short product
	Name      string `json:"name"`       // Product name for the message
	Requested int    `json:"requested"`  // Quantity in the cart
	Available int    `json:"available"`  // Stock at checkout time
}

// Result reports what happened. Order is set only on success, Missing only
// when products vanished and Shortfalls only on a stock conflict.
type Result struct {
	Status     Status
	Order      *domain.Order
	Missing    []uint
	Shortfalls []Shortfall
	Err        error
}

// OK reports whether an order was placed
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// ProductCache is notified of products whose stock changed
type ProductCache interface {
	InvalidateProducts(ctx context.Context, ids ...uint)
}

// errRejected rolls the transaction back for a business rejection; the
// details travel in the Result.
var errRejected = errors.New("checkout rejected")

// Service places orders
type Service struct {
	tx        *repository.TxManager // Transaction boundary
	carts     *cart.Service         // Cart source, cleared on success
	publisher events.Publisher      // Order placed events
	cache     ProductCache          // Product detail cache
}

func NewService(tx *repository.TxManager, carts *cart.Service, publisher events.Publisher, cache ProductCache) *Service {
	return &Service{tx: tx, carts: carts, publisher: publisher, cache: cache}
}

// Checkout turns the cart of sessionID into an order owned by userID.
//
// Stock is checked and decremented, the order and its items are written, all
// in one transaction: either everything commits or nothing does. Every short
// line is reported, not just the first. The cart is cleared only after commit.
func (s *Service) Checkout(ctx context.Context, userID uint, sessionID string) Result {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "session": sessionID}) // Checkout log context

	items, err := s.carts.Items(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("Checkout could not load cart")
		return Result{Status: StatusFailed, Err: err}
	}
	if len(items) == 0 {
		return Result{Status: StatusEmptyCart} // No transaction for an empty cart
	}

	var result Result
	err = s.tx.Execute(ctx, func(repos *repository.Repos) error {
		result = Result{}                                         // Fresh result per attempt
		ids := items.ProductIDs()                                 // Lock order is by id
		products, err := repos.Products.LockForCheckout(ctx, ids) // Read and lock every product
		if err != nil {
			return err
		}
		byID := make(map[uint]domain.Product, len(products)) // Locked products by id
		for _, p := range products {
			byID[p.ID] = p
		}

		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				result.Missing = append(result.Missing, id)
			}
		}
		if len(result.Missing) > 0 {
			result.Status = StatusUnavailable
			return errRejected // Roll back
		}

		for _, id := range ids {
			if p := byID[id]; items[id] > p.StockQuantity {
				result.Shortfalls = append(result.Shortfalls, Shortfall{
					ProductID: id, Name: p.Name, Requested: items[id], Available: p.StockQuantity,
				})
			}
		}
		if len(result.Shortfalls) > 0 {
			result.Status = StatusConflict
			return errRejected // Roll back
		}

		total := decimal.Zero                               // Order total
		orderItems := make([]domain.OrderItem, 0, len(ids)) // Lines with price snapshot
		for _, id := range ids {
			p := byID[id]
			orderItems = append(orderItems, domain.OrderItem{ProductID: id, Quantity: items[id], PriceAtPurchase: p.Price})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(items[id]))))
		}

		order := &domain.Order{UserID: userID, Total: total, Status: domain.OrderStatusPending} // New orders start pending
		if err := repos.Orders.Create(ctx, order, orderItems); err != nil {
			return err
		}

		for _, id := range ids {
			if err := repos.Products.DeductStock(ctx, id, items[id]); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					// Stock moved after the read on a database without row locks
					p := byID[id]
					result.Shortfalls = []Shortfall{{ProductID: id, Name: p.Name, Requested: items[id], Available: p.StockQuantity}}
					result.Status = StatusConflict
					return errRejected
				}
				return err // Storage error, roll back
			}
		}
		result.Status = StatusSuccess
		result.Order = order
		return nil // Commit
	})
	if err != nil {
		if errors.Is(err, errRejected) {
			log.WithFields(logrus.Fields{
				"status":     result.Status,
				"missing":    result.Missing,
				"shortfalls": len(result.Shortfalls),
			}).Warn("Checkout rejected")
			return result
		}
		log.WithError(err).Error("Checkout failed")
		return Result{Status: StatusFailed, Err: err} // Nothing committed, cart kept
	}

	s.afterCommit(ctx, log, sessionID, result.Order)
	return result
}

// afterCommit runs the side effects of a placed order. The order is already
// durable, so failures here are logged and never undo it.
func (s *Service) afterCommit(ctx context.Context, log *logrus.Entry, sessionID string, order *domain.Order) {
	log = log.WithFields(logrus.Fields{
		"order_id":  order.ID,                        // Order ID
		"total":     order.Total.StringFixed(2),      // Order total
		"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
	})
	log.Info("Order placed")

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		log.WithError(err).Warn("Could not clear cart after checkout")
	}

	if s.cache != nil {
		ids := make([]uint, len(order.Items)) // Products whose stock changed
		for i, item := range order.Items {
			ids[i] = item.ProductID
		}
		s.cache.InvalidateProducts(ctx, ids...)
	}

	if s.publisher != nil {
		if err := s.publisher.OrderPlaced(ctx, events.NewOrderPlaced(order)); err != nil {
			log.WithError(err).Warn("Could not publish order placed event")
		}
	}
}
