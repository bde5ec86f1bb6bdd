// Package ratelimit throttles repeated attempts per key within a fixed window.
package ratelimit

import (
	"context" // Context for shared backends
	"time"    // Window durations
)

// Limiter counts attempts per key. Allow reports whether another attempt is
// permitted, Hit records one and Reset forgets the key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Hit(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// LimiterConfig bounds attempts: at most Capacity hits inside any Window.
type LimiterConfig struct {
	Capacity int           // Attempts allowed per window
	Window   time.Duration // Window length
}

// DefaultLoginConfig allows 5 failed logins per 15 minutes
func DefaultLoginConfig() LimiterConfig {
	return LimiterConfig{Capacity: 5, Window: 15 * time.Minute}
}
