package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisClient(&Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	c.lockBackoff = time.Millisecond
	return c, mr
}

func TestLock(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	unlock, err := c.Lock(ctx, "lock:ingredient:flour", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:ingredient:flour"))

	_, err = c.Lock(ctx, "lock:ingredient:flour", time.Second)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	unlock()
	assert.False(t, mr.Exists("lock:ingredient:flour"))

	unlock2, err := c.Lock(ctx, "lock:ingredient:flour", time.Second)
	require.NoError(t, err)
	unlock2()
}

func TestReleaseLock_OnlyOwner(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "k", "owner", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "k", "intruder"))
	assert.True(t, mr.Exists("k"))

	require.NoError(t, c.ReleaseLock(ctx, "k", "owner"))
	assert.False(t, mr.Exists("k"))
}

func TestJSONRoundTripAndMiss(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var out map[string]string
	assert.ErrorIs(t, c.GetJSON(ctx, "recipe:r1", &out), ErrCacheMiss)

	require.NoError(t, c.SetJSON(ctx, "recipe:r1", map[string]string{"name": "Bread"}, time.Minute))
	require.NoError(t, c.GetJSON(ctx, "recipe:r1", &out))
	assert.Equal(t, "Bread", out["name"])

	require.NoError(t, c.Delete(ctx, "recipe:r1"))
	assert.ErrorIs(t, c.GetJSON(ctx, "recipe:r1", &out), ErrCacheMiss)
}
