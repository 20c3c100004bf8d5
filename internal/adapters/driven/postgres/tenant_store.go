package postgres

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-widget/internal/content"
	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TenantStore = (*TenantStore)(nil)

// cascadeStatements holds one DELETE per cascade step. Each one is filtered
// by the tenant id ($1) alone; children are reached through their parents.
var cascadeStatements = map[domain.CascadeStep]string{
	domain.CascadeComments: `
		DELETE FROM post_comments
		WHERE post_id IN (SELECT id FROM posts WHERE website_id = $1)`,
	domain.CascadeReviews: `
		DELETE FROM product_reviews
		WHERE product_id IN (SELECT id FROM products WHERE website_id = $1)`,
	domain.CascadeProductCategories: `
		DELETE FROM product_category_links
		WHERE product_id IN (SELECT id FROM products WHERE website_id = $1)
		   OR category_id IN (SELECT id FROM categories WHERE website_id = $1)`,
	domain.CascadeCategories:        `DELETE FROM categories WHERE website_id = $1`,
	domain.CascadeProducts:          `DELETE FROM products WHERE website_id = $1`,
	domain.CascadePages:             `DELETE FROM pages WHERE website_id = $1`,
	domain.CascadePosts:             `DELETE FROM posts WHERE website_id = $1`,
	domain.CascadeNamespaceRegistry: `DELETE FROM vector_namespaces WHERE website_id = $1`,
	domain.CascadeTenant:            `DELETE FROM websites WHERE id = $1`,
}

// TenantStore implements driven.TenantStore.
type TenantStore struct {
	exec driven.QueryExecutor
}

// NewTenantStore creates a new TenantStore
func NewTenantStore(exec driven.QueryExecutor) *TenantStore {
	return &TenantStore{exec: exec}
}

// Get retrieves a tenant by id.
func (s *TenantStore) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	rows, err := s.exec.Query(ctx, `
		SELECT id, name, url, created_at
		FROM websites
		WHERE id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return scanTenant(rows[0]), nil
}

// List retrieves all tenants ordered by id.
func (s *TenantStore) List(ctx context.Context) ([]*domain.Tenant, error) {
	rows, err := s.exec.Query(ctx, `
		SELECT id, name, url, created_at
		FROM websites
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	tenants := make([]*domain.Tenant, 0, len(rows))
	for _, row := range rows {
		tenants = append(tenants, scanTenant(row))
	}
	return tenants, nil
}

// DeleteStep runs the delete statement for one cascade step.
func (s *TenantStore) DeleteStep(ctx context.Context, tenantID string, step domain.CascadeStep) (int64, error) {
	stmt, ok := cascadeStatements[step]
	if !ok {
		return 0, fmt.Errorf("%w: unknown cascade step %q", domain.ErrInvalidInput, step)
	}
	n, err := s.exec.Exec(ctx, stmt, tenantID)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", step, err)
	}
	return n, nil
}

func scanTenant(row driven.Row) *domain.Tenant {
	t := &domain.Tenant{}
	t.ID, _ = content.AsString(row["id"])
	t.Name, _ = content.AsString(row["name"])
	t.URL, _ = content.AsString(row["url"])
	t.CreatedAt, _ = content.AsTime(row["created_at"])
	return t
}
