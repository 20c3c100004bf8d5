package driven

import (
	"context"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

// VectorStore is the namespaced nearest-neighbor store the pipeline writes to.
type VectorStore interface {
	// Upsert writes records into a namespace, replacing any record with the
	// same id in that namespace.
	Upsert(ctx context.Context, namespace string, records []*domain.VectorRecord) error

	// WipeNamespace removes every record in a namespace.
	// Succeeds as a no-op when the namespace is already empty.
	WipeNamespace(ctx context.Context, namespace string) error

	// ProbeNamespace reports whether a namespace holds at least one record.
	ProbeNamespace(ctx context.Context, namespace string) (bool, error)

	// ScanLegacyDefault returns the store ids of records written before
	// namespace isolation existed, matched by websiteId metadata.
	ScanLegacyDefault(ctx context.Context, tenantID string) ([]string, error)

	// DeleteByIDs removes records by store id. Empty input is a no-op.
	DeleteByIDs(ctx context.Context, ids []string) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
