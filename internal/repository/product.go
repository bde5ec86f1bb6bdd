package repository

import (
	"context" // Query context
	"strings" // Search normalisation

	"eshop/internal/domain" // Importing domain models

	"github.com/pkg/errors" // Error wrapping
	"gorm.io/gorm"          // GORM ORM library
	"gorm.io/gorm/clause"   // Row locking
)

// Stock filters understood by ProductFilter.Stock
const (
	StockAll        = ""             // No stock filter
	StockInStock    = "in_stock"     // Stock above zero
	StockLow        = "low_stock"    // Below domain.LowStockThreshold
	StockOutOfStock = "out_of_stock" // Sold out
)

// productSorts maps sort keys to ORDER BY clauses. Unknown keys fall back to id_asc.
var productSorts = map[string]string{
	"id_asc":     "product_id asc",
	"id_desc":    "product_id desc",
	"name_asc":   "name asc",
	"name_desc":  "name desc",
	"price_asc":  "price asc",
	"price_desc": "price desc",
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Page     int    // 1-based page
	PageSize int    // Rows per page
	Query    string // Case-insensitive substring of the name or description
	Category string // Exact category
	Stock    string // One of the Stock* constants
	Sort     string // One of the productSorts keys
}

// ProductRepo persists the catalogue
type ProductRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// GetByID returns a live product; soft deleted products are not found
func (r *ProductRepo) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).First(&product).Error; err != nil {
		return nil, notFound(err, "product")
	}
	return &product, nil
}

// GetByIDs returns the live products among ids, in id order
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []uint) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []domain.Product
	err := r.db.WithContext(ctx).Where("product_id IN ?", ids).Order("product_id asc").Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	return products, nil
}

// LockForCheckout loads the live products among ids and, on databases that
// support it, holds row locks on them until the surrounding transaction ends.
// Rows are locked in id order.
func (r *ProductRepo) LockForCheckout(ctx context.Context, ids []uint) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"}) // SELECT ... FOR UPDATE
	}
	var products []domain.Product
	if err := q.Where("product_id IN ?", ids).Order("product_id asc").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "lock products")
	}
	return products, nil
}

// DeductStock removes qty units. The update only applies while enough stock
// remains, so stock never goes negative; otherwise ErrInsufficientStock.
func (r *ProductRepo) DeductStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("product_id = ? AND stock_quantity >= ?", id, qty). // Never below zero
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "deduct stock of product %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrInsufficientStock, "product %d", id) // Guard failed
	}
	return nil
}

// List returns one page of products matching f and the total match count
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{}) // Start building the query
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%" // Substring match
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	switch f.Stock {
	case StockInStock:
		q = q.Where("stock_quantity > 0")
	case StockLow:
		q = q.Where("stock_quantity > 0 AND stock_quantity < ?", domain.LowStockThreshold)
	case StockOutOfStock:
		q = q.Where("stock_quantity = 0")
	}

	var total int64 // Total matching products
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["id_asc"] // Default order
	}
	var products []domain.Product
	err := q.Order(order).Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&products).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}
	return products, total, nil
}

// Categories returns the distinct categories of live products
func (r *ProductRepo) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("category <> ''").Distinct().Order("category asc").Pluck("category", &categories).Error
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

func (r *ProductRepo) Create(ctx context.Context, product *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return errors.Wrap(err, "create product")
	}
	return nil
}

// Update overwrites the editable fields of an existing product
func (r *ProductRepo) Update(ctx context.Context, product *domain.Product) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{ID: product.ID}).Updates(map[string]any{
		"name":           product.Name,
		"description":    product.Description,
		"price":          product.Price,
		"stock_quantity": product.StockQuantity,
		"category":       product.Category,
		"image_url":      product.ImageURL,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update product")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(domain.ErrNotFound, "product not found")
	}
	return nil
}

// Delete soft deletes a product; past order items keep referencing it
func (r *ProductRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(domain.ErrNotFound, "product not found")
	}
	return nil
}
