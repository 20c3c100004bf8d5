package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-widget/internal/metrics"
)

const (
	DefaultIndexConcurrency = 8
	MaxIndexConcurrency     = 32
)

// errCanceled is recorded for items never dispatched because the run was canceled.
var errCanceled = errors.New("canceled")

// Indexer embeds and upserts every item of a content snapshot on a bounded
// worker pool. Item failures are recorded in stats and never returned.
type Indexer struct {
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	builder     *recordBuilder
	concurrency int
	logger      *slog.Logger
}

// IndexerConfig holds dependencies for Indexer.
type IndexerConfig struct {
	Embedder      driven.EmbeddingService
	Store         driven.VectorStore
	Normalisers   driven.NormaliserRegistry
	Concurrency   int
	MaxInputChars int
	Logger        *slog.Logger
}

// NewIndexer creates a new indexer. Concurrency is clamped to 1..32 and
// defaults to 8.
func NewIndexer(cfg IndexerConfig) *Indexer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	switch {
	case concurrency <= 0:
		concurrency = DefaultIndexConcurrency
	case concurrency > MaxIndexConcurrency:
		concurrency = MaxIndexConcurrency
	}

	return &Indexer{
		embedder:    cfg.Embedder,
		store:       cfg.Store,
		builder:     &recordBuilder{normalisers: cfg.Normalisers, maxInputChars: cfg.MaxInputChars},
		concurrency: concurrency,
		logger:      logger,
	}
}

// Index processes every item in snap into namespace, accumulating into stats.
// Once ctx is done no further item is dispatched; items already running
// finish and the rest are recorded as canceled. Index returns ctx.Err() in
// that case and nil otherwise. It returns only after every item is accounted for.
func (ix *Indexer) Index(ctx context.Context, snap *domain.ContentSnapshot, namespace string, stats *domain.IndexRebuildStats) error {
	items := ix.builder.build(snap)

	var g errgroup.Group
	g.SetLimit(ix.concurrency)

	for i := range items {
		item := items[i]
		if ctx.Err() != nil {
			ix.recordFailure(stats, item, errCanceled)
			continue
		}
		if item.err != nil {
			ix.recordFailure(stats, item, item.err)
			continue
		}

		g.Go(func() error {
			// Slots can free up after cancellation; do not start new work then.
			if ctx.Err() != nil {
				ix.recordFailure(stats, item, errCanceled)
				return nil
			}
			ix.indexItem(context.WithoutCancel(ctx), namespace, item, stats)
			return nil
		})
	}
	_ = g.Wait()

	return ctx.Err()
}

func (ix *Indexer) indexItem(ctx context.Context, namespace string, item workItem, stats *domain.IndexRebuildStats) {
	vectors, err := ix.embedder.Embed(ctx, []string{item.text})
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingService) {
			err = fmt.Errorf("%w: %v", domain.ErrEmbeddingService, err)
		}
		ix.recordFailure(stats, item, err)
		return
	}
	if len(vectors) != 1 {
		ix.recordFailure(stats, item, fmt.Errorf("%w: expected 1 vector, got %d", domain.ErrEmbeddingService, len(vectors)))
		return
	}
	if len(vectors[0]) == 0 {
		ix.recordFailure(stats, item, fmt.Errorf("%w: empty vector", domain.ErrEmbeddingService))
		return
	}

	record := &domain.VectorRecord{
		ID:        item.id,
		Embedding: vectors[0],
		Metadata:  item.metadata,
	}
	if err := ix.store.Upsert(ctx, namespace, []*domain.VectorRecord{record}); err != nil {
		if !errors.Is(err, domain.ErrVectorUpsert) {
			err = fmt.Errorf("%w: %v", domain.ErrVectorUpsert, err)
		}
		ix.recordFailure(stats, item, err)
		return
	}

	stats.RecordSuccess(item.kind)
	metrics.ObserveItem(string(item.kind), true)
}

func (ix *Indexer) recordFailure(stats *domain.IndexRebuildStats, item workItem, err error) {
	ix.logger.Warn("failed to index item",
		"vector_id", item.id,
		"kind", item.kind,
		"error", err,
	)
	stats.RecordFailure(item.kind, item.id, err)
	metrics.ObserveItem(string(item.kind), false)
}
