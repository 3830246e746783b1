package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisAddr = "localhost:6379"

// setupTestCache skips the test when no Redis is reachable.
func setupTestCache(t *testing.T, prefix string) *RedisCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	c := NewRedisCache(client, prefix, time.Minute)
	require.NoError(t, c.DeletePattern(ctx, "*"))
	t.Cleanup(func() {
		_ = c.DeletePattern(context.Background(), "*")
		_ = c.Close()
	})
	return c
}

type summary struct {
	Products int `json:"products"`
	OnHand   int `json:"on_hand"`
}

func TestRedisCache_SetGet(t *testing.T) {
	c := setupTestCache(t, "test:ledger:")
	ctx := context.Background()

	var miss summary
	hit, err := c.Get(ctx, "inventory:summary", &miss)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "inventory:summary", summary{Products: 2, OnHand: 40}))

	var got summary
	hit, err = c.Get(ctx, "inventory:summary", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, summary{Products: 2, OnHand: 40}, got)
}

func TestRedisCache_DeletePattern(t *testing.T) {
	c := setupTestCache(t, "test:ledger:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "inventory:summary", summary{Products: 1}))
	require.NoError(t, c.Set(ctx, "inventory:low-stock", []string{"SKU-1"}))
	require.NoError(t, c.Set(ctx, "other:key", 1))

	require.NoError(t, c.DeletePattern(ctx, "inventory:*"))

	var s summary
	hit, _ := c.Get(ctx, "inventory:summary", &s)
	assert.False(t, hit)
	var n int
	hit, _ = c.Get(ctx, "other:key", &n)
	assert.True(t, hit)
}

func TestNopCache_AlwaysMisses(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1))
	var v int
	hit, err := c.Get(ctx, "k", &v)
	assert.NoError(t, err)
	assert.False(t, hit)
}
