package middleware

import (
	"net/http" // HTTP status codes
	"time"     // Cookie lifetime

	"eshop/internal/cart" // Cart session ids

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // Anonymous session ids
)

const (
	// CartCookie carries the anonymous cart session id
	CartCookie = "cart_session"
	// ContextCartSession is the context key of the resolved cart session id
	ContextCartSession = "cartSession"

	cartCookieMaxAge = int(30 * 24 * time.Hour / time.Second) // 30 days
)

// CartSession resolves the cart of the request. Logged-in users get their
// user cart. Anonymous visitors get a cookie-backed cart, or a 401 when
// requireLogin is set. Runs after OptionalJWTAuth.
func CartSession(requireLogin bool, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := CurrentUserID(c); ok {
			c.Set(ContextCartSession, cart.UserSession(userID)) // User cart
			c.Next()
			return
		}
		if requireLogin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please log in to use the cart"})
			return
		}
		sessionID, err := c.Cookie(CartCookie) // Existing anonymous cart
		if err != nil || uuid.Validate(sessionID) != nil {
			sessionID = uuid.NewString() // Start a new anonymous cart
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CartCookie, sessionID, cartCookieMaxAge, "/", "", secureCookie, true)
		}
		c.Set(ContextCartSession, "anon:"+sessionID) // Anonymous cart
		c.Next()
	}
}

// AnonymousCartSession returns the anonymous cart session named by the
// request cookie, or "" when there is none
func AnonymousCartSession(c *gin.Context) string {
	sessionID, err := c.Cookie(CartCookie)
	if err != nil || uuid.Validate(sessionID) != nil {
		return ""
	}
	return "anon:" + sessionID
}
