package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// CleanupStep removes a tenant's vectors from one location. Steps run in
// order before a rebuild and during teardown; the first failure aborts.
type CleanupStep interface {
	Name() string
	Run(ctx context.Context, tenantID string) error
}

// DefaultCleanupSteps returns the namespace wipe followed by the sweep of
// records written before namespaces existed.
func DefaultCleanupSteps(store driven.VectorStore, logger *slog.Logger) []CleanupStep {
	if logger == nil {
		logger = slog.Default()
	}
	return []CleanupStep{
		&namespaceWipe{store: store, logger: logger},
		&legacyDefaultSweep{store: store, logger: logger},
	}
}

// runCleanup runs steps in order. Errors wrap domain.ErrIndexCleanupFailed.
func runCleanup(ctx context.Context, steps []CleanupStep, tenantID string) error {
	for _, step := range steps {
		if err := step.Run(ctx, tenantID); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrIndexCleanupFailed, step.Name(), err)
		}
	}
	return nil
}

// namespaceWipe probes the tenant namespace and wipes it only when non-empty.
type namespaceWipe struct {
	store  driven.VectorStore
	logger *slog.Logger
}

func (s *namespaceWipe) Name() string { return "namespace_wipe" }

func (s *namespaceWipe) Run(ctx context.Context, tenantID string) error {
	ns := domain.NamespaceFor(tenantID)

	nonEmpty, err := s.store.ProbeNamespace(ctx, ns)
	if err != nil {
		return fmt.Errorf("probe namespace: %w", err)
	}
	if !nonEmpty {
		return nil
	}

	if err := s.store.WipeNamespace(ctx, ns); err != nil {
		return fmt.Errorf("wipe namespace: %w", err)
	}
	s.logger.Info("wiped namespace", "tenant_id", tenantID, "namespace", ns)
	return nil
}

// legacyDefaultSweep deletes records from before namespace isolation, matched
// by websiteId. Runs unconditionally.
type legacyDefaultSweep struct {
	store  driven.VectorStore
	logger *slog.Logger
}

func (s *legacyDefaultSweep) Name() string { return "legacy_default_sweep" }

func (s *legacyDefaultSweep) Run(ctx context.Context, tenantID string) error {
	ids, err := s.store.ScanLegacyDefault(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("scan legacy records: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.store.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("delete legacy records: %w", err)
	}
	s.logger.Info("removed legacy records", "tenant_id", tenantID, "count", len(ids))
	return nil
}
