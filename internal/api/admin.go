package api

import (
	"context"       // Context for image cleanup
	"encoding/json" // Numeric form values
	"net/http"      // HTTP status codes
	"strings"       // String manipulation
	"time"          // Timestamps

	"eshop/internal/domain"     // Importing domain models
	"eshop/internal/middleware" // Request identity
	"eshop/internal/repository" // Persistence
	"eshop/internal/storage"    // Product images
	"eshop/internal/utils"      // Product cache

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/pkg/errors"         // Error wrapping
	"github.com/shopspring/decimal" // Money values
	"github.com/sirupsen/logrus"    // Logging library
)

// ProductForm is the admin create and edit payload, sent as JSON or as a
// multipart form with an optional "image" file
type ProductForm struct {
	Name          string      `json:"name" form:"name" binding:"required,max=100"`                   // Display name
	Description   string      `json:"description" form:"description"`                                // Long description
	Price         json.Number `json:"price" form:"price" binding:"required"`                         // Unit price
	StockQuantity *int        `json:"stock_quantity" form:"stock_quantity" binding:"required,min=0"` // Units in stock
	Category      string      `json:"category" form:"category" binding:"max=50"`                     // Category name
	ImageURL      string      `json:"image_url" form:"image_url"`                                    // Remote image reference
	RemoveImage   bool        `json:"remove_image" form:"remove_image"`                              // Clear the image on edit
}

// UpdateOrderStatusRequest moves an order to a new status
type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" form:"status" binding:"required,order_status"` // Target status
}

// bindProductForm validates the payload and copies it onto p
func bindProductForm(c *gin.Context, p *domain.Product) error {
	var form ProductForm // Bind request to struct
	if err := c.ShouldBind(&form); err != nil {
		return bindError(err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(form.Price.String()))
	if err != nil {
		return errors.Wrap(domain.ErrValidation, "Price must be a number")
	}
	if price.IsNegative() {
		return errors.Wrap(domain.ErrValidation, "Price must not be negative")
	}
	p.Name = strings.TrimSpace(form.Name)         // Display name
	p.Description = form.Description              // Long description
	p.Price = price.Round(2)                      // Stored with two decimals
	p.StockQuantity = *form.StockQuantity         // Units in stock
	p.Category = strings.TrimSpace(form.Category) // Category name
	if form.RemoveImage {
		p.ImageURL = "" // Image cleared
	}
	if form.ImageURL != "" {
		p.ImageURL = form.ImageURL // Validated by resolveImage
	}
	return nil
}

// resolveImage stores an uploaded "image" file or validates an image URL.
// It returns the reference to keep on the product.
func resolveImage(c *gin.Context, images *storage.ImageStore, current string) (string, error) {
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", errors.Wrap(err, "open uploaded image")
		}
		defer f.Close()
		return images.SaveUpload(c.Request.Context(), fh.Filename, fh.Size, f)
	}
	if current == "" || strings.HasPrefix(current, storage.UploadPrefix) {
		return current, nil // No image or a stored upload
	}
	return images.FromURL(current) // Remote reference
}

// discardUpload removes an image stored for a write that then failed
func discardUpload(ctx context.Context, images *storage.ImageStore, ref, current string) {
	if ref == current {
		return // Nothing new was stored
	}
	if err := images.Delete(ctx, ref); err != nil {
		logrus.WithFields(logrus.Fields{"image": ref, "error": err.Error()}).Warn("Could not delete orphaned image")
	}
}

// AdminListProductsHandler lists every live product with admin filters
func AdminListProductsHandler(products *repository.ProductRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c) // Pagination parameters
		filter := repository.ProductFilter{
			Page:     page,                // Current page
			PageSize: pageSize,            // Page size
			Query:    c.Query("q"),        // Name search
			Category: c.Query("category"), // Category filter
			Stock:    c.Query("stock"),    // in_stock, low_stock or out_of_stock
			Sort:     c.Query("sort"),     // id/name/price with _asc or _desc
		}
		list, total, err := products.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"products":    list,                        // Page of products
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total matches
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// AdminGetProductHandler returns one product for editing
func AdminGetProductHandler(products *repository.ProductRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		p, err := products.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": p})
	}
}

// CreateProductHandler adds a product to the catalogue
func CreateProductHandler(products *repository.ProductRepo, images *storage.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p domain.Product // New product
		if err := bindProductForm(c, &p); err != nil {
			respondError(c, err)
			return
		}
		ref, err := resolveImage(c, images, p.ImageURL)
		if err != nil {
			respondError(c, err)
			return
		}
		current := p.ImageURL // Submitted reference
		p.ImageURL = ref      // Stored or remote image
		if err := products.Create(c.Request.Context(), &p); err != nil {
			discardUpload(c.Request.Context(), images, ref, current)
			respondError(c, err)
			return
		}
		// Log the change
		logrus.WithFields(logrus.Fields{
			"product_id": p.ID,                            // New product ID
			"name":       p.Name,                          // Product name
			"timestamp":  time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Product created")
		c.JSON(http.StatusCreated, gin.H{"message": "Product added successfully!", "product": p})
	}
}

// UpdateProductHandler edits a product. Past order items keep their price snapshot.
func UpdateProductHandler(products *repository.ProductRepo, images *storage.ImageStore, cache *utils.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Request scoped context
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		p, err := products.GetByID(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		oldImage := p.ImageURL // Replaced uploads are removed after the update
		if err := bindProductForm(c, p); err != nil {
			respondError(c, err)
			return
		}
		ref, err := resolveImage(c, images, p.ImageURL)
		if err != nil {
			respondError(c, err)
			return
		}
		current := p.ImageURL // Submitted or kept reference
		p.ImageURL = ref      // Stored or remote image
		if err := products.Update(ctx, p); err != nil {
			discardUpload(ctx, images, ref, current)
			respondError(c, err)
			return
		}
		cache.InvalidateProducts(ctx, p.ID) // Drop stale detail
		if oldImage != p.ImageURL {
			if err := images.Delete(ctx, oldImage); err != nil {
				logrus.WithFields(logrus.Fields{"product_id": p.ID, "error": err.Error()}).Warn("Could not delete replaced image")
			}
		}
		// Log the change
		logrus.WithFields(logrus.Fields{
			"product_id": p.ID,                            // Product ID
			"price":      p.Price.StringFixed(2),          // New price
			"stock":      p.StockQuantity,                 // New stock
			"timestamp":  time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Product updated")
		c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully!", "product": p})
	}
}

// DeleteProductHandler soft deletes a product. Carts drop it on next view
// and checkout reports it as unavailable.
func DeleteProductHandler(products *repository.ProductRepo, cache *utils.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Request scoped context
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := products.Delete(ctx, id); err != nil {
			respondError(c, err)
			return
		}
		cache.InvalidateProducts(ctx, id) // Drop stale detail
		logrus.WithFields(logrus.Fields{
			"product_id": id,                              // Deleted product ID
			"timestamp":  time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Product deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully!"})
	}
}

// AdminListOrdersHandler lists every order, newest first, optionally by status
func AdminListOrdersHandler(orders *repository.OrderRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c)                 // Pagination parameters
		status := domain.OrderStatus(c.Query("status")) // Optional status filter
		if status != "" && !status.Valid() {
			respondError(c, errors.Wrapf(domain.ErrValidation, "unknown order status %q", status))
			return
		}
		filter := repository.OrderFilter{Page: page, PageSize: pageSize, Status: status}
		list, total, err := orders.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"orders":      list,                        // Page of orders
			"statuses":    domain.OrderStatuses,        // Filter choices
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total matches
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// AdminGetOrderHandler returns any order with its items
func AdminGetOrderHandler(orders *repository.OrderRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		order, err := orders.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

// UpdateOrderStatusHandler sets an order's status. Any transition is allowed
// and stock is never restored.
func UpdateOrderStatusHandler(orders *repository.OrderRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req UpdateOrderStatusRequest // Bind request to struct
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
		if err := orders.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
			respondError(c, err)
			return
		}
		adminID, _ := middleware.CurrentUserID(c) // Acting admin
		logrus.WithFields(logrus.Fields{
			"order_id":  id,                              // Order ID
			"status":    req.Status,                      // New status
			"admin_id":  adminID,                         // Acting admin
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Order status updated")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated", "status": req.Status})
	}
}
