package postgres

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-widget/internal/content"
	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NamespaceRegistry = (*NamespaceRegistry)(nil)

// NamespaceRegistry implements driven.NamespaceRegistry on vector_namespaces.
// website_id is the primary key, so a tenant never has two rows.
type NamespaceRegistry struct {
	exec driven.QueryExecutor
}

// NewNamespaceRegistry creates a new NamespaceRegistry
func NewNamespaceRegistry(exec driven.QueryExecutor) *NamespaceRegistry {
	return &NamespaceRegistry{exec: exec}
}

// Upsert creates or replaces the tenant's registration.
func (r *NamespaceRegistry) Upsert(ctx context.Context, reg *domain.NamespaceRegistration) error {
	_, err := r.exec.Exec(ctx, `
		INSERT INTO vector_namespaces (website_id, namespace, qa_namespace, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (website_id) DO UPDATE SET
			namespace = EXCLUDED.namespace,
			qa_namespace = EXCLUDED.qa_namespace,
			updated_at = EXCLUDED.updated_at`,
		reg.TenantID, reg.Namespace, reg.SecondaryNamespace, reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert namespace registration: %w", err)
	}
	return nil
}

// Get retrieves the tenant's registration.
func (r *NamespaceRegistry) Get(ctx context.Context, tenantID string) (*domain.NamespaceRegistration, error) {
	rows, err := r.exec.Query(ctx, `
		SELECT website_id, namespace, qa_namespace, updated_at
		FROM vector_namespaces
		WHERE website_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get namespace registration: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}

	row := rows[0]
	reg := &domain.NamespaceRegistration{}
	reg.TenantID, _ = content.AsString(row["website_id"])
	reg.Namespace, _ = content.AsString(row["namespace"])
	reg.SecondaryNamespace, _ = content.AsString(row["qa_namespace"])
	reg.UpdatedAt, _ = content.AsTime(row["updated_at"])
	return reg, nil
}

// Delete removes the tenant's registration.
func (r *NamespaceRegistry) Delete(ctx context.Context, tenantID string) error {
	if _, err := r.exec.Exec(ctx, cascadeStatements[domain.CascadeNamespaceRegistry], tenantID); err != nil {
		return fmt.Errorf("delete namespace registration: %w", err)
	}
	return nil
}
