package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// Ensure mocks implement their ports
var (
	_ driven.TenantStore       = (*MockTenantStore)(nil)
	_ driven.NamespaceRegistry = (*MockNamespaceRegistry)(nil)
)

// MockTenantStore is an in-memory tenant store. Each tenant carries a row
// count per cascade step so teardown can be checked for isolation.
type MockTenantStore struct {
	mu      sync.Mutex
	tenants map[string]*domain.Tenant
	rows    map[string]map[domain.CascadeStep]int64
	steps   []domain.CascadeStep

	// Custom behavior hooks (optional)
	GetFn        func(tenantID string) (*domain.Tenant, error)
	DeleteStepFn func(tenantID string, step domain.CascadeStep) (int64, error)
}

// NewMockTenantStore creates an empty tenant store.
func NewMockTenantStore() *MockTenantStore {
	return &MockTenantStore{
		tenants: make(map[string]*domain.Tenant),
		rows:    make(map[string]map[domain.CascadeStep]int64),
	}
}

func (m *MockTenantStore) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if m.GetFn != nil {
		return m.GetFn(tenantID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *MockTenantStore) List(ctx context.Context) ([]*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockTenantStore) DeleteStep(ctx context.Context, tenantID string, step domain.CascadeStep) (int64, error) {
	m.mu.Lock()
	m.steps = append(m.steps, step)
	m.mu.Unlock()

	if m.DeleteStepFn != nil {
		n, err := m.DeleteStepFn(tenantID, step)
		if err != nil {
			return n, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if rows, ok := m.rows[tenantID]; ok {
		n = rows[step]
		rows[step] = 0
	}
	if step == domain.CascadeTenant {
		if _, ok := m.tenants[tenantID]; ok {
			n = 1
		}
		delete(m.tenants, tenantID)
	}
	return n, nil
}

// Helper methods for testing

// AddTenant registers a tenant with one row per content table.
func (m *MockTenantStore) AddTenant(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[id] = &domain.Tenant{ID: id, Name: id, CreatedAt: time.Now().UTC()}
	rows := make(map[domain.CascadeStep]int64)
	for _, step := range domain.CascadeOrder {
		if step != domain.CascadeTenant {
			rows[step] = 1
		}
	}
	m.rows[id] = rows
}

// HasTenant reports whether the tenant row still exists.
func (m *MockTenantStore) HasTenant(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tenants[id]
	return ok
}

// RowCount returns the remaining rows for a tenant and step.
func (m *MockTenantStore) RowCount(id string, step domain.CascadeStep) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id][step]
}

// Steps returns the cascade steps attempted, in call order.
func (m *MockTenantStore) Steps() []domain.CascadeStep {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CascadeStep(nil), m.steps...)
}

// MockNamespaceRegistry is an in-memory namespace registry.
type MockNamespaceRegistry struct {
	mu   sync.Mutex
	regs map[string]*domain.NamespaceRegistration

	// UpsertFn overrides Upsert when set
	UpsertFn func(reg *domain.NamespaceRegistration) error
}

// NewMockNamespaceRegistry creates an empty registry.
func NewMockNamespaceRegistry() *MockNamespaceRegistry {
	return &MockNamespaceRegistry{regs: make(map[string]*domain.NamespaceRegistration)}
}

func (m *MockNamespaceRegistry) Upsert(ctx context.Context, reg *domain.NamespaceRegistration) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(reg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *reg
	m.regs[reg.TenantID] = &cp
	return nil
}

func (m *MockNamespaceRegistry) Get(ctx context.Context, tenantID string) (*domain.NamespaceRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.regs[tenantID]
	if !ok {
		return nil, fmt.Errorf("namespace for %s: %w", tenantID, domain.ErrNotFound)
	}
	cp := *reg
	return &cp, nil
}

func (m *MockNamespaceRegistry) Delete(ctx context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.regs, tenantID)
	return nil
}

// Len returns the number of registrations.
func (m *MockNamespaceRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regs)
}
