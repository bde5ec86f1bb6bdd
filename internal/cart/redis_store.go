package cart

import (
	"context" // Context for Redis operations
	"fmt"     // Key formatting
	"strconv" // Field and value parsing
	"time"    // TTL durations

	"github.com/pkg/errors"        // Error wrapping
	"github.com/redis/go-redis/v9" // Redis client
)

// RedisStore keeps each cart in a hash cart:<session>:items mapping product
// id to quantity. Every write refreshes the idle TTL.
type RedisStore struct {
	client *redis.Client // Redis client
	ttl    time.Duration // Idle lifetime of a cart
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func itemsKey(sessionID string) string {
	return fmt.Sprintf("cart:%s:items", sessionID)
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (Items, error) {
	vals, err := s.client.HGetAll(ctx, itemsKey(sessionID)).Result() // Missing key gives an empty map
	if err != nil {
		return nil, errors.Wrapf(err, "load cart %s", sessionID)
	}
	items := make(Items, len(vals))
	for field, raw := range vals {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue // Skip foreign fields
		}
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			continue // Quantities are always positive
		}
		items[uint(id)] = qty
	}
	return items, nil
}

// Put replaces the whole cart in one MULTI/EXEC so readers never see a half-written cart
func (s *RedisStore) Put(ctx context.Context, sessionID string, items Items) error {
	key := itemsKey(sessionID) // Hash key
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key) // Drop the previous cart
		if len(items) == 0 {
			return nil
		}
		fields := make(map[string]any, len(items))
		for id, qty := range items {
			fields[strconv.FormatUint(uint64(id), 10)] = qty
		}
		pipe.HSet(ctx, key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl) // Refresh idle lifetime
		}
		return nil
	})
	return errors.Wrapf(err, "save cart %s", sessionID)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return errors.Wrapf(s.client.Del(ctx, itemsKey(sessionID)).Err(), "delete cart %s", sessionID)
}
