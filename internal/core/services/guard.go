package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

const (
	DefaultLockTTL      = 30 * time.Minute
	DefaultLockWait     = 2 * time.Minute
	defaultPollInterval = 250 * time.Millisecond
	releaseTimeout      = 5 * time.Second
)

// TenantGuard keeps reindex and teardown runs for one tenant exclusive.
// It holds a local claim per tenant and, when configured, a distributed lock
// so that other instances are excluded too.
type TenantGuard struct {
	lock         driven.DistributedLock
	lockTTL      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	held    map[string]struct{}
	running map[string]context.CancelFunc
}

// GuardConfig holds dependencies for TenantGuard.
type GuardConfig struct {
	Lock         driven.DistributedLock // optional
	LockTTL      time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

// NewTenantGuard creates a new tenant guard.
func NewTenantGuard(cfg GuardConfig) *TenantGuard {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	return &TenantGuard{
		lock:         cfg.Lock,
		lockTTL:      ttl,
		pollInterval: poll,
		logger:       logger,
		held:         make(map[string]struct{}),
		running:      make(map[string]context.CancelFunc),
	}
}

func lockName(tenantID string) string {
	return "reindex:" + tenantID
}

// Acquire claims the tenant without waiting. It returns
// domain.ErrReindexInProgress if the tenant is already claimed here or on
// another instance. The returned release func must be called exactly once.
func (g *TenantGuard) Acquire(ctx context.Context, tenantID string) (func(), error) {
	g.mu.Lock()
	if _, ok := g.held[tenantID]; ok {
		g.mu.Unlock()
		return nil, domain.ErrReindexInProgress
	}
	g.held[tenantID] = struct{}{}
	g.mu.Unlock()

	unclaim := func() {
		g.mu.Lock()
		delete(g.held, tenantID)
		g.mu.Unlock()
	}

	if g.lock == nil {
		return unclaim, nil
	}

	name := lockName(tenantID)
	acquired, err := g.lock.Acquire(ctx, name, g.lockTTL)
	if err != nil {
		unclaim()
		return nil, fmt.Errorf("acquire tenant lock: %w", err)
	}
	if !acquired {
		unclaim()
		return nil, domain.ErrReindexInProgress
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go g.keepAlive(name, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			if err := g.lock.Release(releaseCtx, name); err != nil {
				g.logger.Warn("failed to release tenant lock", "tenant_id", tenantID, "error", err)
			}
			unclaim()
		})
	}, nil
}

// AcquireWait polls Acquire until the tenant is free, wait elapses or ctx is done.
func (g *TenantGuard) AcquireWait(ctx context.Context, tenantID string, wait time.Duration) (func(), error) {
	deadline := time.Now().Add(wait)
	for {
		release, err := g.Acquire(ctx, tenantID)
		if !errors.Is(err, domain.ErrReindexInProgress) || !time.Now().Before(deadline) {
			return release, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.pollInterval):
		}
	}
}

// keepAlive extends the lock every third of its TTL until stop is closed.
func (g *TenantGuard) keepAlive(name string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(g.lockTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			err := g.lock.Extend(ctx, name, g.lockTTL)
			cancel()
			if err != nil {
				g.logger.Warn("failed to extend tenant lock", "lock", name, "error", err)
			}
		}
	}
}

// Track registers the cancel func of a running reindex. The returned func
// removes it again.
func (g *TenantGuard) Track(tenantID string, cancel context.CancelFunc) func() {
	g.mu.Lock()
	g.running[tenantID] = cancel
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.running, tenantID)
		g.mu.Unlock()
	}
}

// Cancel cancels a reindex running in this process for the tenant and
// reports whether one was found.
func (g *TenantGuard) Cancel(tenantID string) bool {
	g.mu.Lock()
	cancel, ok := g.running[tenantID]
	g.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}
