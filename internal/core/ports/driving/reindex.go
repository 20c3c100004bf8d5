package driving

import (
	"context"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

// ReindexService rebuilds a tenant's vector namespace from its content rows.
type ReindexService interface {
	// Reindex wipes and rebuilds the tenant's namespace synchronously.
	// A failed stage is reported both in the result and as a *domain.StageError.
	Reindex(ctx context.Context, tenantID string) (*domain.ReindexResult, error)

	// ReindexAsync enqueues a reindex task and returns its id.
	ReindexAsync(ctx context.Context, tenantID string) (string, error)

	// Namespace returns the tenant's namespace registration.
	Namespace(ctx context.Context, tenantID string) (*domain.NamespaceRegistration, error)
}

// TeardownService removes a tenant's vectors and content rows.
type TeardownService interface {
	// Teardown wipes the tenant's vectors, then deletes its rows in
	// dependency order. Failure returns a *domain.TeardownError.
	Teardown(ctx context.Context, tenantID string) error

	// TeardownAsync enqueues a teardown task and returns its id.
	TeardownAsync(ctx context.Context, tenantID string) (string, error)
}
