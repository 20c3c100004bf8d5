package driven

import (
	"context"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

// TenantStore reads tenant rows and runs the tenant-scoped teardown deletes.
type TenantStore interface {
	// Get retrieves a tenant by id. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)

	// List retrieves all tenants.
	List(ctx context.Context) ([]*domain.Tenant, error)

	// DeleteStep runs one cascade delete filtered by the tenant id only and
	// returns the number of rows removed.
	DeleteStep(ctx context.Context, tenantID string, step domain.CascadeStep) (int64, error)
}

// NamespaceRegistry persists where each tenant's vectors live.
// A tenant has at most one registration.
type NamespaceRegistry interface {
	// Upsert creates or replaces the tenant's registration.
	Upsert(ctx context.Context, reg *domain.NamespaceRegistration) error

	// Get retrieves the tenant's registration. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, tenantID string) (*domain.NamespaceRegistration, error)

	// Delete removes the tenant's registration. Missing rows are not an error.
	Delete(ctx context.Context, tenantID string) error
}
