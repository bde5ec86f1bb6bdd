package ratelimit

import (
	"context" // Context for Redis operations

	"github.com/pkg/errors"        // Error wrapping
	"github.com/redis/go-redis/v9" // Redis client
)

// RedisWindow counts attempts in a Redis key that expires one window after
// the first hit, so every server instance shares the same budget.
type RedisWindow struct {
	config LimiterConfig // Capacity and window
	client *redis.Client // Redis client
	prefix string        // Key namespace
}

func NewRedisWindow(client *redis.Client, prefix string, config LimiterConfig) *RedisWindow {
	return &RedisWindow{config: config, client: client, prefix: prefix}
}

func (r *RedisWindow) key(key string) string {
	return r.prefix + ":" + key
}

func (r *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Get(ctx, r.key(key)).Int()
	if err == redis.Nil {
		return true, nil // No attempts in the current window
	}
	if err != nil {
		return false, errors.Wrap(err, "read attempt counter")
	}
	return n < r.config.Capacity, nil
}

// Hit records an attempt. The counter is created with its expiry and
// incremented in one MULTI/EXEC, so it never exists without a TTL.
func (r *RedisWindow) Hit(ctx context.Context, key string) error {
	k := r.key(key) // Namespaced counter key
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, r.config.Window) // Opens a window if none is running
		pipe.Incr(ctx, k)                      // Keeps the running window's TTL
		return nil
	})
	return errors.Wrap(err, "increment attempt counter")
}

func (r *RedisWindow) Reset(ctx context.Context, key string) error {
	return errors.Wrap(r.client.Del(ctx, r.key(key)).Err(), "reset attempt counter")
}
