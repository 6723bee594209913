package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/repository/cache"
)

func TestMemoryCache_TTL(t *testing.T) {
	c := cache.NewMemoryCache(0, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "metro_lines_all_list", []byte("v"), 50*time.Millisecond))

	val, err := c.Get(ctx, "metro_lines_all_list")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	require.Eventually(t, func() bool {
		v, err := c.Get(ctx, "metro_lines_all_list")
		return err == nil && v == nil
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryCache_ReadDoesNotExtendTTL(t *testing.T) {
	c := cache.NewMemoryCache(0, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "bus_routes_1234_live", []byte("v"), 80*time.Millisecond))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if v, _ := c.Get(ctx, "bus_routes_1234_live"); v == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("entry survived past its TTL while being read")
}

func TestMemoryCache_MissReturnsNilNil(t *testing.T) {
	c := cache.NewMemoryCache(0, nil)
	defer c.Close()

	val, err := c.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, val)
}

func TestMemoryCache_DeleteAndExists(t *testing.T) {
	c := cache.NewMemoryCache(0, nil)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))

	ok, err := c.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "a", "b"))

	ok, _ = c.Exists(ctx, "a")
	assert.False(t, ok)
	ok, _ = c.Exists(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryCache_ExpiredEntriesAreRemoved(t *testing.T) {
	c := cache.NewMemoryCache(0, nil)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("x"), 20*time.Millisecond))
	require.NoError(t, c.Set(ctx, "long", []byte("y"), time.Hour))

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
	ok, _ := c.Exists(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryCache_Capacity(t *testing.T) {
	c := cache.NewMemoryCache(2, nil)
	defer c.Close()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), time.Minute))
	}

	assert.Equal(t, 2, c.Len())
	ok, _ := c.Exists(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryCache_NoTTLKeepsValue(t *testing.T) {
	c := cache.NewMemoryCache(0, nil)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	time.Sleep(20 * time.Millisecond)

	ok, _ := c.Exists(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryCache_ValueIsCopied(t *testing.T) {
	c := cache.NewMemoryCache(0, nil)
	defer c.Close()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", in, time.Minute))
	in[0] = 'z'

	out, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), out)
}
