package domain

import "github.com/pkg/errors"

// Error kinds shared by every layer. Callers wrap them with context using
// errors.Wrap and the HTTP layer maps them back with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrRateLimited       = errors.New("too many attempts")
)
