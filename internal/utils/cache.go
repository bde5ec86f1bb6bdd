package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Key formatting
	"time"          // Time durations

	"eshop/internal/domain" // Domain models

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
)

// ProductCacheTTL is how long a cached product detail stays valid
const ProductCacheTTL = 60 * time.Second

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// ProductCache caches product details in Redis. A nil client disables it,
// so every method is safe to call without Redis configured.
type ProductCache struct {
	rdb *redis.Client // Redis client, may be nil
}

// NewProductCache wraps rdb, which may be nil
func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{rdb: rdb}
}

// productKey builds the cache key for a product
func productKey(id uint) string {
	return "product:" + strconv.FormatUint(uint64(id), 10)
}

// Get returns the cached product, if any
func (c *ProductCache) Get(ctx context.Context, id uint) (*domain.Product, bool) {
	if c == nil || c.rdb == nil {
		return nil, false // Cache disabled
	}
	var p domain.Product
	found, err := GetCache(ctx, c.rdb, productKey(id), &p)
	if err != nil {
		logrus.WithFields(logrus.Fields{"product_id": id, "error": err.Error()}).Warn("Product cache read failed")
		return nil, false // Fall through to the database
	}
	if !found {
		return nil, false
	}
	return &p, true
}

// Set stores a product for ProductCacheTTL
func (c *ProductCache) Set(ctx context.Context, p *domain.Product) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := SetCache(ctx, c.rdb, productKey(p.ID), p, ProductCacheTTL); err != nil {
		logrus.WithFields(logrus.Fields{"product_id": p.ID, "error": err.Error()}).Warn("Product cache write failed")
	}
}

// InvalidateProducts drops the cached entries of the given products
func (c *ProductCache) InvalidateProducts(ctx context.Context, ids ...uint) {
	if c == nil || c.rdb == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids)) // Keys to delete
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := DeleteCache(ctx, c.rdb, keys...); err != nil {
		logrus.WithFields(logrus.Fields{"product_ids": ids, "error": err.Error()}).Warn("Product cache invalidation failed")
	}
}
