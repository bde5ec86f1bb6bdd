package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Timestamps and token lifetime

	"eshop/internal/cart"       // Cart merge at login
	"eshop/internal/domain"     // Importing domain models
	"eshop/internal/middleware" // Request identity helpers
	"eshop/internal/ratelimit"  // Login throttling
	"eshop/internal/repository" // Persistence
	"eshop/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/pkg/errors"      // Error wrapping
	"github.com/sirupsen/logrus" // Logging library
)

// Request struct for registration
type RegisterRequest struct {
	Username        string `json:"username" form:"username" binding:"required,alphanum,min=3,max=50"`            // Letters and digits
	Email           string `json:"email" form:"email" binding:"required,email,max=100"`                          // Login identifier
	Password        string `json:"password" form:"password" binding:"required,min=8,max=72"`                     // bcrypt limit is 72 bytes
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required,eqfield=Password"` // Must repeat Password
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"` // Email must be provided
	Password string `json:"password" form:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Logged in user
}

// RegisterHandler creates a customer account
func RegisterHandler(users *repository.UserRepo, bcryptCost int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind request to struct
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, bindError(err)) // Field level messages
			return
		}
		// Hash the password and create the user
		hash, err := utils.HashPassword(req.Password, bcryptCost)
		if err != nil {
			respondError(c, errors.Wrap(err, "hash password"))
			return
		}
		user := domain.User{
			Username:     req.Username,        // Chosen username
			Email:        req.Email,           // Lowercased by the repository
			PasswordHash: hash,                // bcrypt hash
			Role:         domain.RoleCustomer, // Every registration is a customer
		}
		// Attempt to create the user, duplicate username or email is a conflict
		if err := users.Create(c.Request.Context(), &user); err != nil {
			respondError(c, err)
			return
		}
		// Log the new account
		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,                         // New user ID
			"username":  user.Username,                   // Username
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("User registered")
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "Registration successful! Please log in.", "user": user})
	}
}

// LoginHandler authenticates a user by email and returns a JWT token.
// Failed attempts count against the email; a success resets the count.
func LoginHandler(users *repository.UserRepo, limiter ratelimit.Limiter, carts *cart.Service, jwtSecret string, jwtTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Request scoped context
		var req LoginRequest       // Bind request to struct
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
		key := strings.ToLower(strings.TrimSpace(req.Email)) // Limiter key
		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			// Limiter backend down, let the attempt through rather than lock everyone out
			logrus.WithFields(logrus.Fields{"email": key, "error": err.Error()}).Warn("Login limiter unavailable")
			allowed = true
		}
		if !allowed {
			logrus.WithField("email", key).Warn("Login blocked by rate limiter")
			respondError(c, errors.Wrap(domain.ErrRateLimited, "Too many login attempts. Please try again later."))
			return
		}
		// Fetch user and compare the password hash
		user, err := users.GetByEmail(ctx, key)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			respondError(c, err)
			return
		}
		if user == nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
			if hitErr := limiter.Hit(ctx, key); hitErr != nil {
				logrus.WithFields(logrus.Fields{"email": key, "error": hitErr.Error()}).Warn("Could not record failed login")
			}
			respondError(c, errors.Wrap(domain.ErrUnauthorized, "Invalid email or password"))
			return
		}
		if err := limiter.Reset(ctx, key); err != nil {
			logrus.WithFields(logrus.Fields{"email": key, "error": err.Error()}).Warn("Could not reset login limiter")
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user, jwtSecret, jwtTTL)
		if err != nil {
			respondError(c, errors.Wrap(err, "generate token"))
			return
		}
		// Carry an anonymous cart over to the account
		if anon := middleware.AnonymousCartSession(c); anon != "" {
			if err := carts.Merge(ctx, anon, cart.UserSession(user.ID)); err != nil {
				logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Warn("Could not merge anonymous cart")
			} else {
				c.SetCookie(middleware.CartCookie, "", -1, "/", "", false, true) // Drop the merged cart cookie
			}
		}
		// Log successful login
		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,                         // User ID
			"role":      user.Role,                       // User role
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("User logged in")
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

// MeHandler returns the authenticated account
func MeHandler(users *repository.UserRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c) // Set by JWTAuthMiddleware
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":     user,           // The account
			"is_admin": user.IsAdmin(), // Drives the admin navigation
		})
	}
}
