package api

import (
	"net/http" // HTTP status codes

	"eshop/internal/cart"       // Cart rules
	"eshop/internal/middleware" // Cart session

	"github.com/gin-gonic/gin" // Gin web framework
)

// AddCartItemRequest adds units of a product to the cart
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" form:"product_id" binding:"required"` // Product to add
	Quantity  *int `json:"quantity" form:"quantity"`                        // Defaults to 1
}

// UpdateCartItemRequest sets the quantity of a cart line
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" form:"quantity" binding:"required"` // Zero removes the line
}

// respondCart renders the current cart of the request
func respondCart(c *gin.Context, carts *cart.Service, status int, message string) {
	view, err := carts.View(c.Request.Context(), c.GetString(middleware.ContextCartSession))
	if err != nil {
		respondError(c, err)
		return
	}
	body := gin.H{"cart": view} // Priced cart
	if message != "" {
		body["message"] = message
	}
	if len(view.Removed) > 0 {
		body["notice"] = "Some items in your cart are no longer available and were removed"
	}
	c.JSON(status, body)
}

// ViewCartHandler returns the priced cart
func ViewCartHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondCart(c, carts, http.StatusOK, "")
	}
}

// AddCartItemHandler adds a product to the cart
func AddCartItemHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddCartItemRequest // Bind request to struct
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
		qty := 1 // Default quantity
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		session := c.GetString(middleware.ContextCartSession) // Resolved by CartSession
		if err := carts.Add(c.Request.Context(), session, req.ProductID, qty); err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, carts, http.StatusOK, "Product added to cart")
	}
}

// UpdateCartItemHandler changes the quantity of a cart line
func UpdateCartItemHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		var req UpdateCartItemRequest // Bind request to struct
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
		session := c.GetString(middleware.ContextCartSession)
		if err := carts.Update(c.Request.Context(), session, id, *req.Quantity); err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, carts, http.StatusOK, "Cart updated")
	}
}

// RemoveCartItemHandler drops a product from the cart
func RemoveCartItemHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		session := c.GetString(middleware.ContextCartSession)
		if err := carts.Remove(c.Request.Context(), session, id); err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, carts, http.StatusOK, "Item removed from cart")
	}
}
