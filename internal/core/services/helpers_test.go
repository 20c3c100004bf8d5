package services

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-widget/internal/normalisers"
)

// fixture wires both orchestrators over in-memory fakes sharing one guard.
type fixture struct {
	tenants  *mocks.MockTenantStore
	reader   *mocks.MockContentReader
	embedder *mocks.MockEmbeddingService
	store    *mocks.MockVectorStore
	registry *mocks.MockNamespaceRegistry
	lock     *mocks.MockDistributedLock
	queue    *mocks.MockTaskQueue
	guard    *TenantGuard
	reindex  *ReindexOrchestrator
	teardown *TeardownOrchestrator
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithConcurrency(t, 4)
}

func newFixtureWithConcurrency(t *testing.T, concurrency int) *fixture {
	t.Helper()
	logger := discardLogger()

	f := &fixture{
		tenants:  mocks.NewMockTenantStore(),
		reader:   mocks.NewMockContentReader(),
		embedder: mocks.NewMockEmbeddingService(),
		store:    mocks.NewMockVectorStore(),
		registry: mocks.NewMockNamespaceRegistry(),
		lock:     mocks.NewMockDistributedLock(),
		queue:    mocks.NewMockTaskQueue(),
	}
	f.guard = NewTenantGuard(GuardConfig{
		Lock:         f.lock,
		LockTTL:      time.Minute,
		PollInterval: 5 * time.Millisecond,
		Logger:       logger,
	})

	indexer := NewIndexer(IndexerConfig{
		Embedder:      f.embedder,
		Store:         f.store,
		Normalisers:   normalisers.DefaultRegistry(),
		Concurrency:   concurrency,
		MaxInputChars: 8000,
		Logger:        logger,
	})

	f.reindex = NewReindexOrchestrator(ReindexOrchestratorConfig{
		Tenants:  f.tenants,
		Reader:   f.reader,
		Indexer:  indexer,
		Registry: f.registry,
		Queue:    f.queue,
		Guard:    f.guard,
		Store:    f.store,
		Logger:   logger,
	})
	f.teardown = NewTeardownOrchestrator(TeardownOrchestratorConfig{
		Tenants:  f.tenants,
		Queue:    f.queue,
		Guard:    f.guard,
		Store:    f.store,
		LockWait: 500 * time.Millisecond,
		Logger:   logger,
	})
	return f
}

func doc(id string) domain.Document {
	return domain.Document{
		NaturalID: id,
		Title:     "Post " + id,
		Body:      fmt.Sprintf("<p>Body of post %s</p>", id),
		URL:       "/posts/" + id,
		Format:    "text/html",
	}
}

func product(id string) domain.Product {
	price := 10.0
	return domain.Product{
		NaturalID:   id,
		Name:        "Product " + id,
		Description: "Description of product " + id,
		Price:       &price,
		URL:         "/products/" + id,
		Format:      "text/html",
	}
}

func review(id, productID string) domain.Review {
	return domain.Review{
		NaturalID: id,
		ProductID: productID,
		Body:      "Review body " + id,
		Rating:    5,
		Reviewer:  "reviewer-" + id,
		Verified:  true,
	}
}

// exampleSnapshot holds 2 documents and 1 product with 1 review.
func exampleSnapshot(tenantID string) *domain.ContentSnapshot {
	snap := domain.NewContentSnapshot(tenantID)
	snap.Documents = []domain.Document{doc("1"), doc("2")}
	snap.Products = []domain.Product{product("3")}
	snap.ReviewsByProduct["3"] = []domain.Review{review("4", "3")}
	return snap
}

// callers reports how many callers are attached to the tenant's run.
func (o *ReindexOrchestrator) callers(tenantID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if run, ok := o.runs[tenantID]; ok {
		return run.callers
	}
	return 0
}

func waitForCallers(t *testing.T, o *ReindexOrchestrator, tenantID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for o.callers(tenantID) != want {
		if time.Now().After(deadline) {
			t.Errorf("callers for %s = %d, want %d", tenantID, o.callers(tenantID), want)
			return
		}
		time.Sleep(time.Millisecond)
	}
}
