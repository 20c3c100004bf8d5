package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

func TestTeardown_RemovesVectorsThenRows(t *testing.T) {
	f := newFixture(t)
	f.tenants.AddTenant("t1")
	f.reader.Set(exampleSnapshot("t1"))
	_, err := f.reindex.Reindex(context.Background(), "t1")
	require.NoError(t, err)
	f.store.SeedLegacy("legacy-1", "t1")

	require.NoError(t, f.teardown.Teardown(context.Background(), "t1"))

	assert.Empty(t, f.store.IDs("t1"))
	assert.Empty(t, f.store.LegacyIDs())
	assert.Equal(t, domain.CascadeOrder, f.tenants.Steps())
	assert.False(t, f.tenants.HasTenant("t1"))
	assert.False(t, f.lock.IsHeld("reindex:t1"))
}

func TestTeardown_CascadeFailureLeavesNoVectors(t *testing.T) {
	f := newFixture(t)
	f.tenants.AddTenant("t1")
	f.reader.Set(exampleSnapshot("t1"))
	_, err := f.reindex.Reindex(context.Background(), "t1")
	require.NoError(t, err)
	require.NotEmpty(t, f.store.IDs("t1"))

	f.tenants.DeleteStepFn = func(tenantID string, step domain.CascadeStep) (int64, error) {
		if step == domain.CascadeProducts {
			return 0, errors.New("foreign key violation")
		}
		return 0, nil
	}

	err = f.teardown.Teardown(context.Background(), "t1")
	require.Error(t, err)

	var te *domain.TeardownError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.TeardownStepCascadeDelete, te.Step)
	assert.Equal(t, domain.CascadeProducts, te.Cascade)

	// Vectors were already gone before the cascade failed.
	assert.Empty(t, f.store.IDs("t1"))
	assert.Equal(t, []domain.CascadeStep{
		domain.CascadeComments,
		domain.CascadeReviews,
		domain.CascadeProductCategories,
		domain.CascadeCategories,
		domain.CascadeProducts,
	}, f.tenants.Steps())
	assert.True(t, f.tenants.HasTenant("t1"))
	assert.Equal(t, int64(1), f.tenants.RowCount("t1", domain.CascadePosts))
}

func TestTeardown_WipeFailureStopsBeforeRows(t *testing.T) {
	f := newFixture(t)
	f.tenants.AddTenant("t1")
	f.store.ProbeFn = func(namespace string) (bool, error) {
		return false, errors.New("qdrant unavailable")
	}

	err := f.teardown.Teardown(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, domain.TeardownStepWipeVectors, domain.FailedStep(err))
	assert.ErrorIs(t, err, domain.ErrIndexCleanupFailed)
	assert.Empty(t, f.tenants.Steps())
	assert.True(t, f.tenants.HasTenant("t1"))
}

func TestTeardown_TenantIsolation(t *testing.T) {
	f := newFixture(t)
	f.tenants.AddTenant("a")
	f.tenants.AddTenant("b")
	f.reader.Set(exampleSnapshot("a"))
	f.reader.Set(exampleSnapshot("b"))
	f.store.SeedLegacy("legacy-b", "b")

	_, err := f.reindex.Reindex(context.Background(), "a")
	require.NoError(t, err)
	_, err = f.reindex.Reindex(context.Background(), "b")
	require.NoError(t, err)
	before := f.store.Snapshot("b")

	require.NoError(t, f.teardown.Teardown(context.Background(), "a"))

	assert.Empty(t, f.store.IDs("a"))
	assert.Equal(t, before, f.store.Snapshot("b"))
	assert.Equal(t, []string{"legacy-b"}, f.store.LegacyIDs())
	assert.True(t, f.tenants.HasTenant("b"))
	for _, step := range domain.CascadeOrder {
		if step == domain.CascadeTenant {
			continue
		}
		assert.Equal(t, int64(1), f.tenants.RowCount("b", step), "step %s", step)
		assert.Equal(t, int64(0), f.tenants.RowCount("a", step), "step %s", step)
	}
}

func TestTeardown_UnknownTenant(t *testing.T) {
	f := newFixture(t)

	err := f.teardown.Teardown(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.tenants.Steps())
}

func TestTeardown_LockHeldElsewhere(t *testing.T) {
	f := newFixture(t)
	f.tenants.AddTenant("t1")
	f.lock.SetLockHeld("reindex:t1", time.Minute)

	err := f.teardown.Teardown(context.Background(), "t1")
	assert.ErrorIs(t, err, domain.ErrReindexInProgress)
	assert.True(t, f.tenants.HasTenant("t1"))
}

func TestTeardown_CancelsRunningReindex(t *testing.T) {
	f := newFixture(t)
	f.tenants.AddTenant("t1")
	f.reader.Set(exampleSnapshot("t1"))

	// The second tenant lookup belongs to the teardown, which cancels the
	// running reindex right after it.
	var lookups atomic.Int32
	teardownStarted := make(chan struct{})
	f.tenants.GetFn = func(tenantID string) (*domain.Tenant, error) {
		if lookups.Add(1) == 2 {
			close(teardownStarted)
		}
		return &domain.Tenant{ID: tenantID}, nil
	}

	embedding := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.embedder.EmbedFn = func(ctx context.Context, texts []string) ([][]float32, error) {
		once.Do(func() { close(embedding) })
		<-release
		return [][]float32{{0.3}}, nil
	}

	var reindexErr error
	reindexDone := make(chan struct{})
	go func() {
		defer close(reindexDone)
		_, reindexErr = f.reindex.Reindex(context.Background(), "t1")
	}()
	<-embedding

	teardownErr := make(chan error, 1)
	go func() {
		teardownErr <- f.teardown.Teardown(context.Background(), "t1")
	}()
	<-teardownStarted
	time.Sleep(20 * time.Millisecond)
	close(release)

	<-reindexDone
	require.NoError(t, <-teardownErr)

	assert.ErrorIs(t, reindexErr, context.Canceled)
	assert.Equal(t, domain.ReindexStageIndex, domain.FailedStage(reindexErr))
	assert.Empty(t, f.store.IDs("t1"))
	assert.Equal(t, 0, f.registry.Len())
	assert.Equal(t, domain.CascadeOrder, f.tenants.Steps())
}

func TestTeardownAsync(t *testing.T) {
	f := newFixture(t)
	f.tenants.AddTenant("t1")

	id, err := f.teardown.TeardownAsync(context.Background(), "t1")
	require.NoError(t, err)

	pending := f.queue.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.Equal(t, domain.TaskTypeTeardownTenant, pending[0].Type)
	assert.Equal(t, 1, pending[0].MaxAttempts)
}
