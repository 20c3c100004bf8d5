package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-widget/internal/metrics"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestLock_OwnerIDUnique(t *testing.T) {
	_, client := setupTestRedis(t)

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	assert.NotEmpty(t, lock1.OwnerID())
	assert.NotEqual(t, lock1.OwnerID(), lock2.OwnerID())
}

func TestLock_AcquireExclusive(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	ok, err := lock1.Acquire(ctx, "reindex:site-1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock2.Acquire(ctx, "reindex:site-1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not acquire a held lock")

	ok, err = lock1.Acquire(ctx, "reindex:site-1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "lock is not reentrant")

	// other tenants never contend
	ok, err = lock2.Acquire(ctx, "reindex:site-2", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_KeyPrefix(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	_, err := lock.Acquire(context.Background(), "reindex:site-1", time.Minute)
	require.NoError(t, err)

	val, err := mr.Get("sercha-widget:lock:reindex:site-1")
	require.NoError(t, err)
	assert.Equal(t, lock.OwnerID(), val)
}

func TestLock_ReleaseOnlyOwn(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	_, err := lock1.Acquire(ctx, "reindex:site-1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, lock2.Release(ctx, "reindex:site-1"))
	ok, err := lock2.Acquire(ctx, "reindex:site-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "release by a non-owner must not free the lock")

	require.NoError(t, lock1.Release(ctx, "reindex:site-1"))
	ok, err = lock2.Acquire(ctx, "reindex:site-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_ReleaseNotHeld(t *testing.T) {
	_, client := setupTestRedis(t)
	assert.NoError(t, NewLock(client).Release(context.Background(), "missing"))
}

func TestLock_Expiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	_, err := lock1.Acquire(ctx, "reindex:site-1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	ok, err := lock2.Acquire(ctx, "reindex:site-1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock should be acquirable")
}

func TestLock_Extend(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	lock := NewLock(client)
	_, err := lock.Acquire(ctx, "reindex:site-1", time.Second)
	require.NoError(t, err)

	require.NoError(t, lock.Extend(ctx, "reindex:site-1", time.Minute))
	assert.Greater(t, mr.TTL("sercha-widget:lock:reindex:site-1"), 30*time.Second)
}

func TestLock_ExtendNotHeld(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	_, err := lock1.Acquire(ctx, "reindex:site-1", time.Minute)
	require.NoError(t, err)

	err = lock2.Extend(ctx, "reindex:site-1", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockNotHeld))

	err = lock2.Extend(ctx, "missing", time.Minute)
	assert.True(t, errors.Is(err, ErrLockNotHeld))
}

func TestLock_Ping(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	assert.NoError(t, lock.Ping(context.Background()))

	mr.Close()
	assert.Error(t, lock.Ping(context.Background()))
}

func TestLock_ContentionCounted(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()
	contended := metrics.TenantLockContended.WithLabelValues("redis")
	before := testutil.ToFloat64(contended)

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	ok, err := lock1.Acquire(ctx, "teardown:site-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, testutil.ToFloat64(contended))

	ok, err = lock2.Acquire(ctx, "teardown:site-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before+1, testutil.ToFloat64(contended))
}

func TestLock_ReleaseThenExtendFails(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	lock := NewLock(client)

	_, err := lock.Acquire(ctx, "reindex:site-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx, "reindex:site-1"))
	assert.False(t, mr.Exists("sercha-widget:lock:reindex:site-1"))

	err = lock.Extend(ctx, "reindex:site-1", time.Minute)
	assert.ErrorIs(t, err, ErrLockNotHeld)
}
