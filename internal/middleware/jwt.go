package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"eshop/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the auth middlewares
const (
	ContextUserID   = "userID"   // uint
	ContextUsername = "username" // string
	ContextRole     = "role"     // string
)

// bearerClaims extracts and validates the bearer token, if any
func bearerClaims(c *gin.Context, secret string) (*utils.Claims, bool, error) {
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false, nil // No token presented
	}
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
	claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
	return claims, true, err
}

// setIdentity stores the caller identity in the request context
func setIdentity(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextUserID, claims.UserID)     // Store userID in context
	c.Set(ContextUsername, claims.Username) // Store username in context
	c.Set(ContextRole, claims.Role)         // Store role in context
}

// JWTAuthMiddleware validates JWT tokens and extracts user information
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, present, err := bearerClaims(c, secret)
		// Check if the Authorization header is present and properly formatted
		if !present {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		setIdentity(c, claims) // Identity for downstream handlers
		c.Next()               // Proceed to the next handler
	}
}

// OptionalJWTAuth sets the caller identity when a valid token is presented
// and lets anonymous requests through. A presented but invalid token is rejected.
func OptionalJWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, present, err := bearerClaims(c, secret)
		if present && err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if present {
			setIdentity(c, claims) // Logged-in visitor
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, if any
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextUserID) // Set by the auth middlewares
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
