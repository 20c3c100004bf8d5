// Package metrics exposes Prometheus metrics for the indexing pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sercha_widget"

var (
	// ReindexRuns counts reindex runs.
	// Labels: outcome (completed, failed, rejected)
	ReindexRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reindex",
			Name:      "runs_total",
			Help:      "Total number of reindex runs by outcome",
		},
		[]string{"outcome"},
	)

	// ReindexStageFailures counts fatal reindex failures by stage.
	// Labels: stage (wipe, read, index, register)
	ReindexStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reindex",
			Name:      "stage_failures_total",
			Help:      "Total number of fatal reindex failures by stage",
		},
		[]string{"stage"},
	)

	// ReindexDuration tracks how long reindex runs take.
	ReindexDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reindex",
			Name:      "duration_seconds",
			Help:      "Duration of reindex runs in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	// ItemsIndexed counts indexed items.
	// Labels: kind (document, comment, page, product, review), result (added, error)
	ItemsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "items_total",
			Help:      "Total number of content items processed by kind and result",
		},
		[]string{"kind", "result"},
	)

	// EmbeddingRequests counts calls to the embedding service.
	// Labels: result (success, error)
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Total number of embedding requests by result",
		},
		[]string{"result"},
	)

	// VectorStoreRetries counts transient vector store errors that were retried.
	// Labels: operation
	VectorStoreRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vectorstore",
			Name:      "retries_total",
			Help:      "Total number of retried vector store operations",
		},
		[]string{"operation"},
	)

	// Teardowns counts tenant teardowns.
	// Labels: outcome (completed, failed)
	Teardowns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "teardown",
			Name:      "runs_total",
			Help:      "Total number of tenant teardowns by outcome",
		},
		[]string{"outcome"},
	)

	// TasksProcessed counts background tasks handled by workers.
	// Labels: type, result (success, retry, failed)
	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "Total number of background tasks processed",
		},
		[]string{"type", "result"},
	)

	// TenantLockContended counts tenant lock attempts that found the lock held.
	// Labels: backend (redis, postgres)
	TenantLockContended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "contended_total",
			Help:      "Total number of tenant lock attempts that found the lock held",
		},
		[]string{"backend"},
	)
)

// ObserveReindex records the outcome of one reindex run.
// failedStage is empty for completed runs.
func ObserveReindex(outcome, failedStage string, elapsed time.Duration) {
	ReindexRuns.WithLabelValues(outcome).Inc()
	if failedStage != "" {
		ReindexStageFailures.WithLabelValues(failedStage).Inc()
	}
	ReindexDuration.Observe(elapsed.Seconds())
}

// ObserveItem records one indexed item.
func ObserveItem(kind string, ok bool) {
	result := "added"
	if !ok {
		result = "error"
	}
	ItemsIndexed.WithLabelValues(kind, result).Inc()
}
