package cart

import (
	"context" // Context for store and product reads

	"eshop/internal/domain" // Products and error kinds

	"github.com/pkg/errors"         // Error wrapping
	"github.com/shopspring/decimal" // Money values
	"github.com/sirupsen/logrus"    // Logging library
)

// ProductLookup reads live products; soft deleted products are absent
type ProductLookup interface {
	GetByID(ctx context.Context, id uint) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []uint) ([]domain.Product, error)
}

// Line is one priced cart entry
type Line struct {
	Product   domain.Product  `json:"product"`    // Live product
	Quantity  int             `json:"quantity"`   // Units in the cart
	LineTotal decimal.Decimal `json:"line_total"` // Price times quantity
}

// View is a cart priced at current product prices
type View struct {
	Lines   []Line          `json:"items"`             // Priced lines
	Total   decimal.Decimal `json:"total"`             // Sum of line totals
	Count   int             `json:"count"`             // Units in the cart
	Removed []uint          `json:"removed,omitempty"` // Products dropped because they no longer exist
}

// Service applies the cart rules on top of a Store
type Service struct {
	store    Store         // Cart persistence
	products ProductLookup // Live product reads
}

func NewService(store Store, products ProductLookup) *Service {
	return &Service{store: store, products: products}
}

// Add puts qty more units of a product in the cart. The resulting quantity
// may not exceed the product's current stock.
func (s *Service) Add(ctx context.Context, sessionID string, productID uint, qty int) error {
	if qty < 1 {
		return errors.Wrap(domain.ErrValidation, "quantity must be at least 1")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !p.InStock() {
		return errors.Wrapf(domain.ErrInsufficientStock, "%s is out of stock", p.Name)
	}
	items, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	want := items[productID] + qty // Quantity after the add
	if want > p.StockQuantity {
		return errors.Wrapf(domain.ErrInsufficientStock, "only %d of %s available", p.StockQuantity, p.Name)
	}
	items[productID] = want
	return s.store.Put(ctx, sessionID, items)
}

// Update sets the quantity of a product already in the cart. Zero or less removes it.
func (s *Service) Update(ctx context.Context, sessionID string, productID uint, qty int) error {
	items, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, ok := items[productID]; !ok {
		return errors.Wrap(domain.ErrNotFound, "product is not in the cart")
	}
	if qty <= 0 {
		delete(items, productID)
		return s.store.Put(ctx, sessionID, items)
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			delete(items, productID)
			if perr := s.store.Put(ctx, sessionID, items); perr != nil {
				logrus.WithFields(logrus.Fields{"session": sessionID, "product_id": productID}).WithError(perr).Warn("Could not drop unavailable product from cart")
			}
		}
		return err
	}
	if qty > p.StockQuantity {
		return errors.Wrapf(domain.ErrInsufficientStock, "only %d of %s available", p.StockQuantity, p.Name)
	}
	items[productID] = qty
	return s.store.Put(ctx, sessionID, items)
}

// Remove drops a product from the cart; removing an absent product is a no-op
func (s *Service) Remove(ctx context.Context, sessionID string, productID uint) error {
	items, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, ok := items[productID]; !ok {
		return nil
	}
	delete(items, productID)
	return s.store.Put(ctx, sessionID, items)
}

// View prices the cart. Entries whose product no longer exists are removed
// from the stored cart and reported in View.Removed.
func (s *Service) View(ctx context.Context, sessionID string) (*View, error) {
	items, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := &View{Lines: []Line{}, Total: decimal.Zero} // Empty cart view
	if len(items) == 0 {
		return view, nil
	}
	products, err := s.products.GetByIDs(ctx, items.ProductIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]domain.Product, len(products)) // Products by id
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range items.ProductIDs() {
		p, ok := byID[id]
		if !ok {
			view.Removed = append(view.Removed, id) // Reported to the caller
			delete(items, id)                       // Repaired in the store below
			continue
		}
		line := Line{Product: p, Quantity: items[id], LineTotal: p.Price.Mul(decimal.NewFromInt(int64(items[id])))}
		view.Lines = append(view.Lines, line)
		view.Total = view.Total.Add(line.LineTotal)
	}
	view.Count = items.Count()
	if len(view.Removed) > 0 {
		logrus.WithFields(logrus.Fields{"session": sessionID, "removed": view.Removed}).Info("Dropped unavailable products from cart")
		if err := s.store.Put(ctx, sessionID, items); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// Merge moves an anonymous cart into a user's cart at login. Quantities add
// up but are capped at current stock; unknown and sold-out products are dropped.
func (s *Service) Merge(ctx context.Context, fromSession, toSession string) error {
	if fromSession == "" || fromSession == toSession {
		return nil
	}
	src, err := s.store.Get(ctx, fromSession)
	if err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	dst, err := s.store.Get(ctx, toSession)
	if err != nil {
		return err
	}
	products, err := s.products.GetByIDs(ctx, src.ProductIDs())
	if err != nil {
		return err
	}
	for _, p := range products {
		qty := dst[p.ID] + src[p.ID] // Combined quantity
		if qty > p.StockQuantity {
			qty = p.StockQuantity // Capped at stock
		}
		if qty > 0 {
			dst[p.ID] = qty
		}
	}
	if err := s.store.Put(ctx, toSession, dst); err != nil {
		return err
	}
	return s.store.Delete(ctx, fromSession) // Anonymous cart is consumed
}

// Items returns the stored cart without pricing it
func (s *Service) Items(ctx context.Context, sessionID string) (Items, error) {
	return s.store.Get(ctx, sessionID)
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
