package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, "test"), mr
}

func TestAcquire_Exclusive(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("test:sweep"))
	assert.Equal(t, time.Minute, mr.TTL("test:sweep"))

	_, ok, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("test:sweep"))

	_, ok, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquire_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	stale, ok, err := l.Acquire(ctx, "sweep", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("test:sweep"), "new holder's lock must survive")
}

func TestAcquire_RedisDown(t *testing.T) {
	l, mr := newTestLocker(t)
	mr.Close()

	_, ok, err := l.Acquire(context.Background(), "sweep", time.Minute)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "acquire lock test:sweep")
}

func TestAcquire_StoresUUIDToken(t *testing.T) {
	l, mr := newTestLocker(t)

	_, ok, err := l.Acquire(context.Background(), "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	token, err := mr.Get("test:sweep")
	require.NoError(t, err)
	_, err = uuid.Parse(token)
	assert.NoError(t, err)
}
