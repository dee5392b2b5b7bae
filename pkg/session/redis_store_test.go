package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		store.Close()
		mr.Close()
	})
	return store, mr
}

func TestSetGetWithTTL(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "fbb:token:1:abc", "abc", time.Minute))

	value, ok, err := store.Get(ctx, "fbb:token:1:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)
	assert.Equal(t, time.Minute, mr.TTL("fbb:token:1:abc"))

	mr.FastForward(2 * time.Minute)

	_, ok, err = store.Get(ctx, "fbb:token:1:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetMissing(t *testing.T) {
	store, _ := setupStore(t)

	value, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestDeleteByPrefixOnlyTouchesPrefix(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 450; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("fbb:token:1:%d", i), "x", time.Hour))
	}
	require.NoError(t, store.Set(ctx, "fbb:token:12:keep", "x", time.Hour))
	require.NoError(t, store.Set(ctx, "fbb:refresh_token:1:keep", "x", time.Hour))

	n, err := store.DeleteByPrefix(ctx, "fbb:token:1:")
	require.NoError(t, err)
	assert.Equal(t, 450, n)

	assert.True(t, mr.Exists("fbb:token:12:keep"))
	assert.True(t, mr.Exists("fbb:refresh_token:1:keep"))

	keys, err := store.Keys(ctx, "fbb:token:1:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDelete(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1", time.Hour))
	require.NoError(t, store.Set(ctx, "b", "2", time.Hour))
	require.NoError(t, store.Delete(ctx, "a", "b", "missing"))
	require.NoError(t, store.Delete(ctx))

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestEscapePattern(t *testing.T) {
	assert.Equal(t, `fbb:token:1:`, escapePattern("fbb:token:1:"))
	assert.Equal(t, `a\*b\?\[c\]`, escapePattern("a*b?[c]"))
}
