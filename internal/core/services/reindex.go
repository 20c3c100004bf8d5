package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-widget/internal/metrics"
)

// Ensure ReindexOrchestrator implements ReindexService
var _ driving.ReindexService = (*ReindexOrchestrator)(nil)

// ReindexOrchestrator rebuilds a tenant's namespace in four stages:
//  1. wipe: run the cleanup steps (namespace wipe, legacy sweep)
//  2. read: read the tenant's content snapshot once
//  3. index: embed and upsert every item on the worker pool
//  4. register: upsert the namespace registry row
//
// Any failure in stages 1, 2 or 4 fails the run. Item failures in stage 3
// are recorded in stats and the run still completes.
type ReindexOrchestrator struct {
	tenants  driven.TenantStore
	reader   driven.ContentReader
	indexer  *Indexer
	registry driven.NamespaceRegistry
	queue    driven.TaskQueue
	guard    *TenantGuard
	cleanup  []CleanupStep
	flight   singleflight.Group
	logger   *slog.Logger

	mu   sync.Mutex
	runs map[string]*tenantRun
}

// tenantRun is the context shared by every caller waiting on a tenant's run.
// It is canceled once all of those callers have gone.
type tenantRun struct {
	ctx     context.Context
	cancel  context.CancelFunc
	callers int
}

// ReindexOrchestratorConfig holds dependencies for ReindexOrchestrator.
type ReindexOrchestratorConfig struct {
	Tenants  driven.TenantStore
	Reader   driven.ContentReader
	Indexer  *Indexer
	Registry driven.NamespaceRegistry
	Queue    driven.TaskQueue // optional, enables ReindexAsync
	Guard    *TenantGuard     // optional, defaults to a process-local guard
	Store    driven.VectorStore
	Cleanup  []CleanupStep // optional, defaults to DefaultCleanupSteps(Store)
	Logger   *slog.Logger
}

// NewReindexOrchestrator creates a new reindex orchestrator.
func NewReindexOrchestrator(cfg ReindexOrchestratorConfig) *ReindexOrchestrator {
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

	return &ReindexOrchestrator{
		tenants:  cfg.Tenants,
		reader:   cfg.Reader,
		indexer:  cfg.Indexer,
		registry: cfg.Registry,
		queue:    cfg.Queue,
		guard:    guard,
		cleanup:  cleanup,
		logger:   logger,
		runs:     make(map[string]*tenantRun),
	}
}

// Reindex wipes and rebuilds the tenant's namespace. Concurrent calls for the
// same tenant in this process share one run and its result. The run stops
// early only when every waiting caller's context is done or the tenant is
// torn down.
func (o *ReindexOrchestrator) Reindex(ctx context.Context, tenantID string) (*domain.ReindexResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", domain.ErrInvalidInput)
	}

	run, leave := o.attach(ctx, tenantID)
	defer leave()

	v, err, shared := o.flight.Do(tenantID, func() (any, error) {
		return o.run(run.ctx, tenantID)
	})
	if shared {
		o.logger.Debug("joined running reindex", "tenant_id", tenantID)
	}

	result, _ := v.(*domain.ReindexResult)
	return result, err
}

// attach registers the caller on the tenant's shared run context. The
// returned func detaches it; detaching also happens when ctx is done.
func (o *ReindexOrchestrator) attach(ctx context.Context, tenantID string) (*tenantRun, func()) {
	o.mu.Lock()
	run, ok := o.runs[tenantID]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		run = &tenantRun{ctx: runCtx, cancel: cancel}
		o.runs[tenantID] = run
	}
	run.callers++
	o.mu.Unlock()

	var once sync.Once
	detach := func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			run.callers--
			if run.callers > 0 {
				return
			}
			run.cancel()
			if o.runs[tenantID] == run {
				delete(o.runs, tenantID)
			}
		})
	}
	stop := context.AfterFunc(ctx, detach)

	return run, func() {
		stop()
		detach()
	}
}

func (o *ReindexOrchestrator) run(ctx context.Context, tenantID string) (*domain.ReindexResult, error) {
	if _, err := o.tenants.Get(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("get tenant %s: %w", tenantID, err)
	}

	release, err := o.guard.Acquire(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrReindexInProgress) {
			metrics.ReindexRuns.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}
	defer release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer o.guard.Track(tenantID, cancel)()

	start := time.Now()
	stats := domain.NewIndexRebuildStats()
	o.logger.Info("starting reindex", "tenant_id", tenantID)

	// Stage 1: wipe
	if err := runCleanup(runCtx, o.cleanup, tenantID); err != nil {
		return o.fail(tenantID, domain.ReindexStageWipe, stats, start, err)
	}

	// Stage 2: read
	snap, err := o.reader.ReadContent(runCtx, tenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		return o.fail(tenantID, domain.ReindexStageRead, stats, start, err)
	}

	// Stage 3: index
	if err := o.indexer.Index(runCtx, snap, domain.NamespaceFor(tenantID), stats); err != nil {
		return o.fail(tenantID, domain.ReindexStageIndex, stats, start, err)
	}

	// Stage 4: register
	if err := o.registry.Upsert(runCtx, domain.NewNamespaceRegistration(tenantID)); err != nil {
		return o.fail(tenantID, domain.ReindexStageRegister, stats, start,
			fmt.Errorf("%w: %v", domain.ErrRegistryUpdateFailed, err))
	}

	stats.Finish()
	metrics.ObserveReindex(string(domain.ReindexStatusCompleted), "", time.Since(start))

	o.logger.Info("reindex completed",
		"tenant_id", tenantID,
		"duration_seconds", time.Since(start).Seconds(),
		"total", stats.Total,
		"added", stats.Added,
		"errors", stats.Errors,
	)

	return &domain.ReindexResult{
		TenantID:    tenantID,
		Status:      domain.ReindexStatusCompleted,
		Stats:       stats,
		CompletedAt: time.Now().UTC(),
	}, nil
}

func (o *ReindexOrchestrator) fail(tenantID string, stage domain.ReindexStage, stats *domain.IndexRebuildStats, start time.Time, err error) (*domain.ReindexResult, error) {
	stats.Finish()
	metrics.ObserveReindex(string(domain.ReindexStatusFailed), string(stage), time.Since(start))

	o.logger.Error("reindex failed",
		"tenant_id", tenantID,
		"stage", stage,
		"error", err,
	)

	return &domain.ReindexResult{
		TenantID:    tenantID,
		Status:      domain.ReindexStatusFailed,
		FailedStage: stage,
		Stats:       stats,
		Error:       err.Error(),
		CompletedAt: time.Now().UTC(),
	}, &domain.StageError{Stage: stage, Err: err}
}

// ReindexAsync enqueues a reindex task for the worker and returns its id.
func (o *ReindexOrchestrator) ReindexAsync(ctx context.Context, tenantID string) (string, error) {
	return enqueueTenantTask(ctx, o.queue, o.tenants, domain.NewReindexTask, tenantID)
}

// Namespace returns the tenant's namespace registration.
func (o *ReindexOrchestrator) Namespace(ctx context.Context, tenantID string) (*domain.NamespaceRegistration, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", domain.ErrInvalidInput)
	}
	return o.registry.Get(ctx, tenantID)
}

// enqueueTenantTask checks the tenant exists and enqueues a task for it.
func enqueueTenantTask(ctx context.Context, queue driven.TaskQueue, tenants driven.TenantStore, newTask func(string) *domain.Task, tenantID string) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("%w: tenant id required", domain.ErrInvalidInput)
	}
	if queue == nil {
		return "", fmt.Errorf("%w: task queue not configured", domain.ErrInvalidInput)
	}
	if _, err := tenants.Get(ctx, tenantID); err != nil {
		return "", fmt.Errorf("get tenant %s: %w", tenantID, err)
	}

	task := newTask(tenantID)
	if err := queue.Enqueue(ctx, task); err != nil {
		return "", fmt.Errorf("enqueue %s task: %w", task.Type, err)
	}
	return task.ID, nil
}
