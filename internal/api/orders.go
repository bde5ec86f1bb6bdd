package api

import (
	"fmt"      // Message formatting
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"eshop/internal/cart"       // Cart session ids
	"eshop/internal/checkout"   // Order placement
	"eshop/internal/middleware" // Request identity
	"eshop/internal/repository" // Persistence

	"github.com/gin-gonic/gin" // Gin web framework
)

// CheckoutHandler places an order from the caller's cart
func CheckoutHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c) // Set by JWTAuthMiddleware
		res := svc.Checkout(c.Request.Context(), userID, cart.UserSession(userID))
		switch res.Status {
		case checkout.StatusSuccess:
			c.JSON(http.StatusCreated, gin.H{
				"message": fmt.Sprintf("Order #%d placed successfully!", res.Order.ID), // Confirmation
				"order":   res.Order,                                                   // Placed order
			})
		case checkout.StatusEmptyCart:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		case checkout.StatusUnavailable:
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Some items in your cart are no longer available", // Notice
				"missing": res.Missing,                                       // Vanished product IDs
			})
		case checkout.StatusConflict:
			names := make([]string, len(res.Shortfalls)) // Every short product
			for i, s := range res.Shortfalls {
				names[i] = s.Name
			}
			c.JSON(http.StatusConflict, gin.H{
				"error":      "Insufficient stock for: " + strings.Join(names, ", "), // Notice
				"shortfalls": res.Shortfalls,                                         // Requested vs available
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed, please try again"})
		}
	}
}

// ListMyOrdersHandler lists the caller's orders, newest first
func ListMyOrdersHandler(orders *repository.OrderRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c) // Set by JWTAuthMiddleware
		page, pageSize := pagination(c)          // Pagination parameters
		list, total, err := orders.List(c.Request.Context(), repository.OrderFilter{Page: page, PageSize: pageSize, UserID: userID})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"orders":      list,                        // Page of orders
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total orders
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// GetMyOrderHandler returns one of the caller's orders
func GetMyOrderHandler(orders *repository.OrderRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		id, err := pathID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		order, err := orders.GetForUser(c.Request.Context(), id, userID) // Other users' orders are not found
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}
