package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-widget/internal/metrics"
)

var _ driven.DistributedLock = (*Lock)(nil)

const lockPrefix = "sercha-widget:lock:"

// ErrLockNotHeld is returned by Extend when the tenant lock expired or was
// taken over by another process.
var ErrLockNotHeld = errors.New("lock not held by this instance")

// ownedScript runs an operation on a lock key only while ARGV[1] still owns
// it. ARGV[2] selects the operation: "release" deletes the key, "extend"
// resets its TTL to ARGV[3] milliseconds. Returns 1 on success, 0 otherwise.
var ownedScript = redis.NewScript(`
if redis.call("get", KEYS[1]) ~= ARGV[1] then
	return 0
end
if ARGV[2] == "extend" then
	return redis.call("pexpire", KEYS[1], ARGV[3])
end
return redis.call("del", KEYS[1])
`)

// Lock holds per-tenant reindex and teardown locks in Redis. Every process
// gets its own owner token, so a lock can only be released or extended by
// the process that took it.
type Lock struct {
	client *redis.Client
	owner  string
}

// NewLock creates a tenant lock on client.
func NewLock(client *redis.Client) *Lock {
	host, _ := os.Hostname()
	return &Lock{
		client: client,
		owner:  fmt.Sprintf("%s/%d/%s", host, os.Getpid(), uuid.NewString()),
	}
}

// Acquire takes the lock for ttl. It reports false, without error, when any
// owner (this one included) already holds it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	err := l.client.SetArgs(ctx, lockPrefix+name, l.owner, redis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.TenantLockContended.WithLabelValues("redis").Inc()
		return false, nil
	case err != nil:
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return true, nil
}

// Release frees the lock when this process owns it. Releasing a lock that
// expired or belongs to someone else is a no-op.
func (l *Lock) Release(ctx context.Context, name string) error {
	if _, err := l.owned(ctx, name, "release", 0); err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend resets the TTL of a lock this process still owns.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	ok, err := l.owned(ctx, name, "extend", ttl)
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("extend lock %s: %w", name, ErrLockNotHeld)
	}
	return nil
}

func (l *Lock) owned(ctx context.Context, name, op string, ttl time.Duration) (bool, error) {
	n, err := ownedScript.Run(ctx, l.client, []string{lockPrefix + name}, l.owner, op, ttl.Milliseconds()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return n == 1, nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID is the token stored under every key this instance holds.
func (l *Lock) OwnerID() string {
	return l.owner
}
