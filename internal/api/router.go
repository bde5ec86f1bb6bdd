package api

import (
	"eshop/internal/cart"       // Cart rules
	"eshop/internal/checkout"   // Order placement
	"eshop/internal/config"     // Application configuration
	"eshop/internal/domain"     // Roles
	"eshop/internal/middleware" // Auth and cart session middleware
	"eshop/internal/ratelimit"  // Login throttling
	"eshop/internal/repository" // Persistence
	"eshop/internal/storage"    // Product images
	"eshop/internal/utils"      // Product cache

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the collaborators the HTTP handlers are built from
type Deps struct {
	Config   *config.Config      // JWT and cart settings
	Repos    *repository.Repos   // Pool bound repositories
	Carts    *cart.Service       // Cart rules
	Checkout *checkout.Service   // Order placement
	Limiter  ratelimit.Limiter   // Failed login limiter
	Images   *storage.ImageStore // Product images
	Cache    *utils.ProductCache // Product detail cache
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	registerValidators()                                // Custom binding rules
	cfg := d.Config                                     // Shorthand
	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret) // Required login
	optionalAuth := middleware.OptionalJWTAuth(cfg.JWTSecret)

	// Account routes
	r.POST("/register", RegisterHandler(d.Repos.Users, cfg.BcryptCost)) // Registration endpoint
	r.POST("/login", LoginHandler(d.Repos.Users, d.Limiter, d.Carts, cfg.JWTSecret, cfg.JWTTTL))
	r.GET("/me", auth, MeHandler(d.Repos.Users)) // Current account

	// Catalogue routes (public)
	r.GET("/products", ListProductsHandler(d.Repos.Products))            // Storefront listing
	r.GET("/products/:id", GetProductHandler(d.Repos.Products, d.Cache)) // Product detail
	r.GET(storage.UploadPrefix+":key", ServeUploadHandler(d.Images))     // Stored images

	// Cart routes, anonymous carts allowed unless CART_REQUIRE_LOGIN
	cartGroup := r.Group("/cart")
	cartGroup.Use(optionalAuth, middleware.CartSession(cfg.CartRequireLogin, cfg.IsProd))
	cartGroup.GET("", ViewCartHandler(d.Carts))                    // View cart
	cartGroup.POST("/items", AddCartItemHandler(d.Carts))          // Add to cart
	cartGroup.PUT("/items/:id", UpdateCartItemHandler(d.Carts))    // Change quantity
	cartGroup.DELETE("/items/:id", RemoveCartItemHandler(d.Carts)) // Remove from cart

	// Order routes (protected by JWT)
	r.POST("/checkout", auth, CheckoutHandler(d.Checkout))        // Place order
	r.GET("/orders", auth, ListMyOrdersHandler(d.Repos.Orders))   // Order history
	r.GET("/orders/:id", auth, GetMyOrderHandler(d.Repos.Orders)) // Order detail

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(auth, middleware.RequireRole(domain.RoleAdmin))
	adminGroup.GET("/products", AdminListProductsHandler(d.Repos.Products))                    // Product management
	adminGroup.POST("/products", CreateProductHandler(d.Repos.Products, d.Images))             // Add product
	adminGroup.GET("/products/:id", AdminGetProductHandler(d.Repos.Products))                  // Product for editing
	adminGroup.PUT("/products/:id", UpdateProductHandler(d.Repos.Products, d.Images, d.Cache)) // Edit product
	adminGroup.DELETE("/products/:id", DeleteProductHandler(d.Repos.Products, d.Cache))        // Delete product
	adminGroup.GET("/orders", AdminListOrdersHandler(d.Repos.Orders))                          // Order management
	adminGroup.GET("/orders/:id", AdminGetOrderHandler(d.Repos.Orders))                        // Order detail
	adminGroup.POST("/orders/:id/status", UpdateOrderStatusHandler(d.Repos.Orders))            // Update status
	adminGroup.PUT("/orders/:id/status", UpdateOrderStatusHandler(d.Repos.Orders))             // Update status
}
