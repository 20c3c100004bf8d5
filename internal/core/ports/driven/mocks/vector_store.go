package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// Ensure MockVectorStore implements VectorStore
var _ driven.VectorStore = (*MockVectorStore)(nil)

// MockVectorStore is an in-memory namespaced vector store for testing.
// Legacy records (written before namespaces existed) are kept apart and
// addressed by store id. Every mutating call is appended to Ops.
type MockVectorStore struct {
	mu         sync.Mutex
	namespaces map[string]map[string]*domain.VectorRecord
	legacy     map[string]*domain.VectorRecord
	ops        []string

	// Custom behavior hooks (optional)
	UpsertFn      func(namespace string, records []*domain.VectorRecord) error
	WipeFn        func(namespace string) error
	ProbeFn       func(namespace string) (bool, error)
	ScanLegacyFn  func(tenantID string) ([]string, error)
	DeleteByIDsFn func(ids []string) error
	HealthCheckFn func() error
}

// NewMockVectorStore creates an empty store.
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{
		namespaces: make(map[string]map[string]*domain.VectorRecord),
		legacy:     make(map[string]*domain.VectorRecord),
	}
}

func (m *MockVectorStore) Upsert(ctx context.Context, namespace string, records []*domain.VectorRecord) error {
	if m.UpsertFn != nil {
		if err := m.UpsertFn(namespace, records); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]*domain.VectorRecord)
		m.namespaces[namespace] = ns
	}
	for _, r := range records {
		ns[r.ID] = cloneRecord(r)
		m.ops = append(m.ops, "upsert:"+namespace+":"+r.ID)
	}
	return nil
}

func (m *MockVectorStore) WipeNamespace(ctx context.Context, namespace string) error {
	if m.WipeFn != nil {
		if err := m.WipeFn(namespace); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, namespace)
	m.ops = append(m.ops, "wipe:"+namespace)
	return nil
}

func (m *MockVectorStore) ProbeNamespace(ctx context.Context, namespace string) (bool, error) {
	if m.ProbeFn != nil {
		return m.ProbeFn(namespace)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "probe:"+namespace)
	return len(m.namespaces[namespace]) > 0, nil
}

func (m *MockVectorStore) ScanLegacyDefault(ctx context.Context, tenantID string) ([]string, error) {
	if m.ScanLegacyFn != nil {
		return m.ScanLegacyFn(tenantID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "scan:"+tenantID)

	var ids []string
	for id, r := range m.legacy {
		if r.TenantID() == tenantID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockVectorStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if m.DeleteByIDsFn != nil {
		if err := m.DeleteByIDsFn(ids); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.legacy, id)
	}
	if len(ids) > 0 {
		m.ops = append(m.ops, "delete_ids")
	}
	return nil
}

func (m *MockVectorStore) HealthCheck(ctx context.Context) error {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn()
	}
	return nil
}

func (m *MockVectorStore) Close() error {
	return nil
}

// Helper methods for testing

// SeedLegacy stores a pre-namespace record for tenantID under store id.
func (m *MockVectorStore) SeedLegacy(id, tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacy[id] = &domain.VectorRecord{
		ID:       id,
		Metadata: map[string]any{domain.MetaWebsiteID: tenantID},
	}
}

// Seed stores a record directly into a namespace without logging an op.
func (m *MockVectorStore) Seed(namespace string, r *domain.VectorRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]*domain.VectorRecord)
		m.namespaces[namespace] = ns
	}
	ns[r.ID] = cloneRecord(r)
}

// IDs returns the sorted record ids in a namespace.
func (m *MockVectorStore) IDs(namespace string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.namespaces[namespace]))
	for id := range m.namespaces[namespace] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Record returns a copy of one record, or nil.
func (m *MockVectorStore) Record(namespace, id string) *domain.VectorRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.namespaces[namespace][id]
	if !ok {
		return nil
	}
	return cloneRecord(r)
}

// Snapshot returns copies of every record in a namespace keyed by id.
func (m *MockVectorStore) Snapshot(namespace string) map[string]*domain.VectorRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*domain.VectorRecord, len(m.namespaces[namespace]))
	for id, r := range m.namespaces[namespace] {
		out[id] = cloneRecord(r)
	}
	return out
}

// LegacyIDs returns the sorted ids of remaining legacy records.
func (m *MockVectorStore) LegacyIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.legacy))
	for id := range m.legacy {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ops returns the log of store operations.
func (m *MockVectorStore) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

func cloneRecord(r *domain.VectorRecord) *domain.VectorRecord {
	meta := make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		meta[k] = v
	}
	return &domain.VectorRecord{
		ID:        r.ID,
		Embedding: append([]float32(nil), r.Embedding...),
		Metadata:  meta,
	}
}
