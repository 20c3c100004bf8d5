package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-widget/internal/metrics"
)

// errDropTask marks a task that must not be retried.
var errDropTask = errors.New("task dropped")

// Worker processes tasks from the task queue.
// It runs a reindex or teardown for each tenant task.
type Worker struct {
	taskQueue driven.TaskQueue
	reindex   driving.ReindexService
	teardown  driving.TeardownService
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds
	errorBackoff   time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Reindex        driving.ReindexService
	Teardown       driving.TeardownService
	Logger         *slog.Logger
	Concurrency    int           // Number of concurrent task processors
	DequeueTimeout int           // Seconds to wait for a task before checking again
	ErrorBackoff   time.Duration // Pause after a failed dequeue
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	errorBackoff := cfg.ErrorBackoff
	if errorBackoff <= 0 {
		errorBackoff = time.Second
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		reindex:        cfg.Reindex,
		teardown:       cfg.Teardown,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
		errorBackoff:   errorBackoff,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker. Tasks already running are finished first.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	w.mu.RLock()
	done := w.doneCh
	w.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Debug("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			select {
			case <-time.After(w.errorBackoff):
			case <-ctx.Done():
			case <-w.stopCh:
			}
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask runs a single task and settles it on the queue.
// The task runs to completion even if the worker is being stopped.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "tenant_id", task.TenantID())
	logger.Info("processing task", "attempt", task.Attempts)

	startTime := time.Now()
	err := w.handle(ctx, task, logger)
	duration := time.Since(startTime)

	// Settle with a context that survives shutdown so the task is not left processing.
	settleCtx := context.WithoutCancel(ctx)

	if err == nil {
		logger.Info("task completed", "duration", duration)
		metrics.TasksProcessed.WithLabelValues(string(task.Type), "success").Inc()
		if ackErr := w.taskQueue.Ack(settleCtx, task.ID); ackErr != nil {
			logger.Error("failed to ack task", "ack_error", ackErr)
		}
		return
	}

	if errors.Is(err, errDropTask) {
		logger.Warn("task dropped", "duration", duration, "error", err)
		metrics.TasksProcessed.WithLabelValues(string(task.Type), "dropped").Inc()
		if ackErr := w.taskQueue.Ack(settleCtx, task.ID); ackErr != nil {
			logger.Error("failed to ack task", "ack_error", ackErr)
		}
		return
	}

	result := "failed"
	if task.CanRetry() {
		result = "retry"
	}
	logger.Error("task failed",
		"duration", duration,
		"will_retry", result == "retry",
		"error", err,
	)
	metrics.TasksProcessed.WithLabelValues(string(task.Type), result).Inc()

	if nackErr := w.taskQueue.Nack(settleCtx, task.ID, err.Error()); nackErr != nil {
		logger.Error("failed to nack task", "nack_error", nackErr)
	}
}

func (w *Worker) handle(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	tenantID := task.TenantID()
	if tenantID == "" {
		return fmt.Errorf("%w: tenant_id not found in task payload", errDropTask)
	}

	switch task.Type {
	case domain.TaskTypeReindexTenant:
		return w.handleReindex(ctx, tenantID, logger)
	case domain.TaskTypeTeardownTenant:
		return w.handleTeardown(ctx, tenantID)
	default:
		return fmt.Errorf("%w: unknown task type: %s", errDropTask, task.Type)
	}
}

func (w *Worker) handleReindex(ctx context.Context, tenantID string, logger *slog.Logger) error {
	if w.reindex == nil {
		return errors.New("reindex service not configured")
	}

	result, err := w.reindex.Reindex(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %v", errDropTask, err)
		}
		return err
	}

	if result != nil && result.Stats != nil && result.Stats.Errors > 0 {
		logger.Warn("reindex completed with item errors",
			"added", result.Stats.Added,
			"errors", result.Stats.Errors,
		)
	}
	return nil
}

func (w *Worker) handleTeardown(ctx context.Context, tenantID string) error {
	if w.teardown == nil {
		return errors.New("teardown service not configured")
	}

	err := w.teardown.Teardown(ctx, tenantID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %v", errDropTask, err)
	}
	return err
}

// Health is the worker's health status.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}

// Ping reports whether the worker is running and its queue is reachable.
func (w *Worker) Ping(ctx context.Context) error {
	h := w.Health(ctx)
	if !h.Running {
		return errors.New("worker not running")
	}
	if !h.QueueHealth {
		return fmt.Errorf("task queue: %s", h.Error)
	}
	return nil
}
