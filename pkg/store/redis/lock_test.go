package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestDistributedLockSingleInstance(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	lock := NewDistributedLock(client, "rollup-hourly")
	ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// re-acquire by the same holder is a no-op
	ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lock.Unlock(ctx))

	// released lock can be taken again
	ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, lock.Unlock(ctx))
}

func TestDistributedLockContention(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	first := NewDistributedLock(client, "rollup-daily")
	second := NewDistributedLock(client, "rollup-daily")

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second instance must not acquire a held lock")

	require.NoError(t, first.Unlock(ctx))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Unlock(ctx))
}

func TestDistributedLockExpires(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	first := NewDistributedLock(client, "rollup-shift")
	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(lockTTL + time.Second)

	second := NewDistributedLock(client, "rollup-shift")
	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock must be acquirable")

	// the original holder's release must not delete the new holder's lock
	require.NoError(t, first.Unlock(ctx))
	held, err := client.Exists(ctx, second.key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), held)

	require.NoError(t, second.Unlock(ctx))
}

func TestDistributedLockNilClient(t *testing.T) {
	lock := NewDistributedLock(nil, "rollup-realtime")
	ok, err := lock.TryLock(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, lock.Unlock(context.Background()))
}
