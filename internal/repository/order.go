package repository

import (
	"context" // Query context

	"eshop/internal/domain" // Importing domain models

	"github.com/pkg/errors" // Error wrapping
	"gorm.io/gorm"          // GORM ORM library
)

// OrderFilter narrows order listings
type OrderFilter struct {
	Page     int                // 1-based page
	PageSize int                // Rows per page
	UserID   uint               // Zero lists every user's orders
	Status   domain.OrderStatus // Empty lists every status
}

// OrderRepo persists orders and their items
type OrderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create inserts the order header and then its items, setting order.Items.
// Callers run it inside a transaction so a partial order is never visible.
func (r *OrderRepo) Create(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	order.Items = nil // Items are inserted separately
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	for i := range items {
		items[i].OrderID = order.ID // Link to the new header
	}
	if len(items) > 0 {
		if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
			return errors.Wrap(err, "create order items")
		}
	}
	order.Items = items
	return nil
}

// GetByID loads an order with its items
func (r *OrderRepo) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("order_id = ?", id).First(&order).Error
	if err != nil {
		return nil, notFound(err, "order")
	}
	return &order, nil
}

// GetForUser loads an order only if it belongs to userID
func (r *OrderRepo) GetForUser(ctx context.Context, id, userID uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("order_id = ? AND user_id = ?", id, userID).First(&order).Error
	if err != nil {
		return nil, notFound(err, "order")
	}
	return &order, nil
}

// List returns one page of orders, newest first, and the total match count
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{}) // Start building the query
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64 // Total matching orders
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}
	var orders []domain.Order
	err := q.Preload("Items").Order("created_at desc").Order("order_id desc").
		Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&orders).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list orders")
	}
	return orders, total, nil
}

// UpdateStatus sets the status of an order. Any status may follow any other
// and stock is not touched.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus) error {
	if !status.Valid() {
		return errors.Wrapf(domain.ErrValidation, "unknown order status %q", status)
	}
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("order_id = ?", id).Update("status", status)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		// Same-value updates report zero rows on MySQL, so confirm the order exists
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("order_id = ?", id).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check order")
		}
		if count == 0 {
			return errors.Wrap(domain.ErrNotFound, "order not found")
		}
	}
	return nil
}
