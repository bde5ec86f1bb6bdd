package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client, time.Hour),
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := store.Get(ctx, "anon")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			require.NoError(t, store.Put(ctx, "anon", Items{1: 2, 5: 1}))
			got, err := store.Get(ctx, "anon")
			require.NoError(t, err)
			assert.Equal(t, Items{1: 2, 5: 1}, got)

			// Put replaces rather than merges
			require.NoError(t, store.Put(ctx, "anon", Items{5: 3}))
			got, err = store.Get(ctx, "anon")
			require.NoError(t, err)
			assert.Equal(t, Items{5: 3}, got)

			// Returned carts are copies
			got[9] = 1
			again, err := store.Get(ctx, "anon")
			require.NoError(t, err)
			assert.NotContains(t, again, uint(9))

			require.NoError(t, store.Delete(ctx, "anon"))
			got, err = store.Get(ctx, "anon")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestRedisStoreExpires(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	require.NoError(t, store.Put(ctx, UserSession(4), Items{2: 1}))
	assert.True(t, mr.Exists("cart:user:4:items"))

	mr.FastForward(2 * time.Minute)
	got, err := store.Get(ctx, UserSession(4))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestItemsHelpers(t *testing.T) {
	items := Items{9: 1, 2: 3, 5: 2}
	assert.Equal(t, []uint{2, 5, 9}, items.ProductIDs())
	assert.Equal(t, 6, items.Count())
}
