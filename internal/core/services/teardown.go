package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-widget/internal/metrics"
)

// Ensure TeardownOrchestrator implements TeardownService
var _ driving.TeardownService = (*TeardownOrchestrator)(nil)

// TeardownOrchestrator removes a tenant. Vectors are always wiped before any
// row is deleted: rows left behind can be retried, orphaned vectors cannot.
type TeardownOrchestrator struct {
	tenants  driven.TenantStore
	queue    driven.TaskQueue
	guard    *TenantGuard
	cleanup  []CleanupStep
	lockWait time.Duration
	logger   *slog.Logger
}

// TeardownOrchestratorConfig holds dependencies for TeardownOrchestrator.
type TeardownOrchestratorConfig struct {
	Tenants  driven.TenantStore
	Queue    driven.TaskQueue // optional, enables TeardownAsync
	Guard    *TenantGuard     // share with the reindex orchestrator
	Store    driven.VectorStore
	Cleanup  []CleanupStep // optional, defaults to DefaultCleanupSteps(Store)
	LockWait time.Duration
	Logger   *slog.Logger
}

// NewTeardownOrchestrator creates a new teardown orchestrator.
func NewTeardownOrchestrator(cfg TeardownOrchestratorConfig) *TeardownOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	guard := cfg.Guard
	if guard == nil {
		guard = NewTenantGuard(GuardConfig{Logger: logger})
	}
	cleanup := cfg.Cleanup
	if cleanup == nil {
		cleanup = DefaultCleanupSteps(cfg.Store, logger)
	}
	lockWait := cfg.LockWait
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}

	return &TeardownOrchestrator{
		tenants:  cfg.Tenants,
		queue:    cfg.Queue,
		guard:    guard,
		cleanup:  cleanup,
		lockWait: lockWait,
		logger:   logger,
	}
}

// Teardown cancels any reindex of the tenant running in this process, waits
// for the tenant lock, wipes the tenant's vectors and then deletes its rows
// in dependency order.
func (o *TeardownOrchestrator) Teardown(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant id required", domain.ErrInvalidInput)
	}
	if _, err := o.tenants.Get(ctx, tenantID); err != nil {
		return fmt.Errorf("get tenant %s: %w", tenantID, err)
	}

	if o.guard.Cancel(tenantID) {
		o.logger.Info("canceled running reindex for teardown", "tenant_id", tenantID)
	}

	release, err := o.guard.AcquireWait(ctx, tenantID, o.lockWait)
	if err != nil {
		return err
	}
	defer release()

	o.logger.Info("starting teardown", "tenant_id", tenantID)

	// Step 1: wipe vectors
	if err := runCleanup(ctx, o.cleanup, tenantID); err != nil {
		return o.fail(tenantID, &domain.TeardownError{Step: domain.TeardownStepWipeVectors, Err: err})
	}

	// Step 2: cascade delete
	for _, step := range domain.CascadeOrder {
		n, err := o.tenants.DeleteStep(ctx, tenantID, step)
		if err != nil {
			return o.fail(tenantID, &domain.TeardownError{
				Step:    domain.TeardownStepCascadeDelete,
				Cascade: step,
				Err:     err,
			})
		}
		o.logger.Debug("deleted tenant rows", "tenant_id", tenantID, "step", step, "rows", n)
	}

	metrics.Teardowns.WithLabelValues("completed").Inc()
	o.logger.Info("teardown completed", "tenant_id", tenantID)
	return nil
}

func (o *TeardownOrchestrator) fail(tenantID string, err *domain.TeardownError) error {
	metrics.Teardowns.WithLabelValues("failed").Inc()
	o.logger.Error("teardown failed",
		"tenant_id", tenantID,
		"step", err.Step,
		"cascade_step", err.Cascade,
		"error", err.Err,
	)
	return err
}

// TeardownAsync enqueues a teardown task for the worker and returns its id.
func (o *TeardownOrchestrator) TeardownAsync(ctx context.Context, tenantID string) (string, error) {
	return enqueueTenantTask(ctx, o.queue, o.tenants, domain.NewTeardownTask, tenantID)
}
