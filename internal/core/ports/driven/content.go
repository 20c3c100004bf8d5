package driven

import (
	"context"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

// Row is one loosely typed result row keyed by column name.
// Values are whatever the driver returns: []byte, string, int64, float64,
// bool, time.Time or nil. Callers are responsible for coercion.
type Row map[string]any

// QueryExecutor is the generic parameterized-query interface over the
// relational content store.
type QueryExecutor interface {
	// Query runs a statement that returns rows.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)

	// Exec runs a statement that returns no rows and reports rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

// ContentReader reads a tenant's content into an immutable snapshot.
type ContentReader interface {
	// ReadContent reads every content kind for a tenant.
	// Zero rows for any kind is valid. Failures wrap domain.ErrStoreUnavailable.
	ReadContent(ctx context.Context, tenantID string) (*domain.ContentSnapshot, error)
}
