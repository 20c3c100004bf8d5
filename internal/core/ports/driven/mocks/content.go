package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// Ensure mocks implement their ports
var (
	_ driven.ContentReader = (*MockContentReader)(nil)
	_ driven.QueryExecutor = (*MockQueryExecutor)(nil)
)

// MockContentReader serves preset snapshots per tenant.
// Unknown tenants read as empty.
type MockContentReader struct {
	mu        sync.Mutex
	snapshots map[string]*domain.ContentSnapshot
	reads     int

	// ReadFn overrides ReadContent when set
	ReadFn func(ctx context.Context, tenantID string) (*domain.ContentSnapshot, error)
}

// NewMockContentReader creates a reader with no content.
func NewMockContentReader() *MockContentReader {
	return &MockContentReader{snapshots: make(map[string]*domain.ContentSnapshot)}
}

func (m *MockContentReader) ReadContent(ctx context.Context, tenantID string) (*domain.ContentSnapshot, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()

	if m.ReadFn != nil {
		return m.ReadFn(ctx, tenantID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if snap, ok := m.snapshots[tenantID]; ok {
		return snap, nil
	}
	return domain.NewContentSnapshot(tenantID), nil
}

// Set replaces a tenant's snapshot.
func (m *MockContentReader) Set(snap *domain.ContentSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.TenantID] = snap
}

// Reads returns how many times ReadContent ran.
func (m *MockContentReader) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// QueryCall records one executor invocation.
type QueryCall struct {
	Query string
	Args  []any
}

// MockQueryExecutor is a mock implementation of QueryExecutor for testing
type MockQueryExecutor struct {
	mu    sync.Mutex
	calls []QueryCall

	QueryFn func(query string, args []any) ([]driven.Row, error)
	ExecFn  func(query string, args []any) (int64, error)
	PingFn  func() error
}

// NewMockQueryExecutor creates a new MockQueryExecutor
func NewMockQueryExecutor() *MockQueryExecutor {
	return &MockQueryExecutor{}
}

func (m *MockQueryExecutor) Query(ctx context.Context, query string, args ...any) ([]driven.Row, error) {
	m.record(query, args)
	if m.QueryFn != nil {
		return m.QueryFn(query, args)
	}
	return nil, nil
}

func (m *MockQueryExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	m.record(query, args)
	if m.ExecFn != nil {
		return m.ExecFn(query, args)
	}
	return 0, nil
}

func (m *MockQueryExecutor) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// Calls returns every recorded invocation.
func (m *MockQueryExecutor) Calls() []QueryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]QueryCall(nil), m.calls...)
}

func (m *MockQueryExecutor) record(query string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, QueryCall{Query: query, Args: args})
}
