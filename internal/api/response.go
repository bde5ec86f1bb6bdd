package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation

	"eshop/internal/domain" // Error kinds

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/go-playground/validator/v10" // Binding validation errors
	"github.com/pkg/errors"                  // Error inspection
	"github.com/sirupsen/logrus"             // Logging library
)

// errorKinds maps error kinds to HTTP status codes, checked in order
var errorKinds = []struct {
	kind   error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrInsufficientStock, http.StatusConflict},
	{domain.ErrRateLimited, http.StatusTooManyRequests},
}

// respondError writes err as a JSON error response. Known kinds keep their
// message; anything else is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			msg := strings.TrimSuffix(err.Error(), ": "+k.kind.Error()) // Drop the kind suffix
			c.JSON(k.status, gin.H{"error": msg})
			return
		}
	}
	// Unexpected error, log it with request context
	logrus.WithFields(logrus.Fields{
		"method": c.Request.Method, // HTTP method
		"path":   c.FullPath(),     // Route pattern
		"error":  err.Error(),      // Error message
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// bindError converts a binding failure into a validation error
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(domain.ErrValidation, "Invalid request")
	}
	msgs := make([]string, 0, len(verrs)) // One message per failed field
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.Wrap(domain.ErrValidation, strings.Join(msgs, "; "))
}

// fieldMessage describes one failed validation rule
func fieldMessage(fe validator.FieldError) string {
	field := fe.Field() // Struct field name
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "alphanum":
		return field + " must contain only letters and digits"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "eqfield":
		return field + " must match " + fe.Param()
	case "order_status":
		return field + " must be a valid order status"
	default:
		return field + " is invalid"
	}
}

// pagination reads page and page_size, defaulting to 20 and capping at 100
func pagination(c *gin.Context) (int, int) {
	page := 1      // Default page number
	pageSize := 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// totalPages computes the page count for a result total
func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}

// pathID parses a positive numeric path parameter
func pathID(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.Wrapf(domain.ErrValidation, "invalid %s", name)
	}
	return uint(v), nil
}
