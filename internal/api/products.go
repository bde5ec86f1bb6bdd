package api

import (
	"net/http" // HTTP status codes

	"eshop/internal/repository" // Persistence
	"eshop/internal/storage"    // Product images
	"eshop/internal/utils"      // Product cache

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListProductsHandler lists in-stock products for the storefront
func ListProductsHandler(products *repository.ProductRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()      // Request scoped context
		page, pageSize := pagination(c) // Pagination parameters
		filter := repository.ProductFilter{
			Page:     page,                    // Current page
			PageSize: pageSize,                // Page size
			Query:    c.Query("q"),            // Name search
			Category: c.Query("category"),     // Category filter
			Stock:    repository.StockInStock, // Shoppers only see what can be bought
			Sort:     c.Query("sort"),         // Sort key
		}
		list, total, err := products.List(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		categories, err := products.Categories(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"products":    list,                        // Page of products
			"categories":  categories,                  // Category facets
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total matches
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// GetProductHandler returns one product, served from the cache when possible
func GetProductHandler(products *repository.ProductRepo, cache *utils.ProductCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Request scoped context
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		// Try the cache first
		if p, found := cache.Get(ctx, id); found {
			c.JSON(http.StatusOK, gin.H{"product": p, "cached": true})
			return
		}
		p, err := products.GetByID(ctx, id)
		if err != nil {
			respondError(c, err) // Deleted products are not found
			return
		}
		cache.Set(ctx, p) // Cache for future requests
		c.JSON(http.StatusOK, gin.H{"product": p, "cached": false})
	}
}

// ServeUploadHandler streams a stored product image
func ServeUploadHandler(images *storage.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := images.Open(c.Request.Context(), c.Param("key"))
		if err != nil {
			respondError(c, err)
			return
		}
		defer r.Close()                                                    // Release the blob reader
		c.Header("Cache-Control", "public, max-age=86400")                 // Keys are unique, images never change
		c.DataFromReader(http.StatusOK, r.Size(), r.ContentType(), r, nil) // Stream the image
	}
}
