package ratelimit

import (
	"context" // Limiter interface
	"sync"    // Guards the attempt table
	"time"    // Attempt timestamps
)

// FixedWindow keeps attempt timestamps per key in process memory. Counts are
// local to one server process; use RedisWindow to share them.
type FixedWindow struct {
	config   LimiterConfig          // Capacity and window
	mu       sync.Mutex             // Guards attempts
	attempts map[string][]time.Time // Attempt times per key
	now      func() time.Time       // Clock, replaced in tests
}

func NewFixedWindow(config LimiterConfig) *FixedWindow {
	return &FixedWindow{
		config:   config,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// prune drops attempts older than the window. Callers hold mu.
func (f *FixedWindow) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-f.config.Window) // Oldest attempt still counted
	kept := f.attempts[key][:0]         // Filter in place
	for _, at := range f.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(f.attempts, key) // Idle keys do not accumulate
		return nil
	}
	f.attempts[key] = kept
	return kept
}

func (f *FixedWindow) Allow(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prune(key, f.now())) < f.config.Capacity, nil
}

func (f *FixedWindow) Hit(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	f.attempts[key] = append(f.prune(key, now), now)
	return nil
}

func (f *FixedWindow) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attempts, key)
	return nil
}
