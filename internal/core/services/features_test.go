package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

// world is the per-scenario state of the reindex features.
type world struct {
	f      *fixture
	result *domain.ReindexResult
}

func (w *world) tenantWithContent(tenantID string, docs, products, reviews int) error {
	w.f.tenants.AddTenant(tenantID)

	snap := domain.NewContentSnapshot(tenantID)
	next := 1
	for i := 0; i < docs; i++ {
		snap.Documents = append(snap.Documents, doc(fmt.Sprint(next)))
		next++
	}
	for i := 0; i < products; i++ {
		snap.Products = append(snap.Products, product(fmt.Sprint(next)))
		next++
	}
	if reviews > 0 && len(snap.Products) == 0 {
		return fmt.Errorf("reviews need a product")
	}
	for i := 0; i < reviews; i++ {
		pid := snap.Products[0].NaturalID
		snap.ReviewsByProduct[pid] = append(snap.ReviewsByProduct[pid], review(fmt.Sprint(next), pid))
		next++
	}

	w.f.reader.Set(snap)
	return nil
}

func (w *world) embeddingFailsOn(marker string) error {
	w.f.embedder.FailOn(marker)
	return nil
}

func (w *world) reindexed(ctx context.Context, tenantID string) error {
	result, err := w.f.reindex.Reindex(ctx, tenantID)
	if err != nil {
		return err
	}
	w.result = result
	return nil
}

func (w *world) tornDown(ctx context.Context, tenantID string) error {
	return w.f.teardown.Teardown(ctx, tenantID)
}

func (w *world) completesWith(added, errs int) error {
	if w.result == nil || !w.result.Success() {
		return fmt.Errorf("reindex did not complete: %+v", w.result)
	}
	if w.result.Stats.Added != added || w.result.Stats.Errors != errs {
		return fmt.Errorf("expected %d added and %d errors, got %d and %d",
			added, errs, w.result.Stats.Added, w.result.Stats.Errors)
	}
	if !w.result.Stats.Consistent() {
		return fmt.Errorf("stats do not add up: %+v", w.result.Stats)
	}
	return nil
}

func (w *world) namespaceHolds(namespace, ids string) error {
	got := strings.Join(w.f.store.IDs(namespace), ",")
	if got != ids {
		return fmt.Errorf("expected %q in namespace %s, got %q", ids, namespace, got)
	}
	return nil
}

func (w *world) namespaceEmpty(namespace string) error {
	if ids := w.f.store.IDs(namespace); len(ids) != 0 {
		return fmt.Errorf("expected namespace %s to be empty, got %v", namespace, ids)
	}
	return nil
}

func (w *world) recordListsReview(id, namespace, reviewID string) error {
	r := w.f.store.Record(namespace, id)
	if r == nil {
		return fmt.Errorf("record %s not found in %s", id, namespace)
	}
	reviewIDs, _ := r.Metadata["reviewIds"].([]string)
	for _, rid := range reviewIDs {
		if rid == reviewID {
			return nil
		}
	}
	return fmt.Errorf("record %s lists reviews %v", id, reviewIDs)
}

func (w *world) errorMentions(id, text string) error {
	itemErr, ok := w.result.Stats.ErrorFor(id)
	if !ok {
		return fmt.Errorf("no error recorded for %s", id)
	}
	if !strings.Contains(itemErr.Error, text) {
		return fmt.Errorf("error for %s is %q", id, itemErr.Error)
	}
	return nil
}

func (w *world) tenantGone(tenantID string) error {
	if w.f.tenants.HasTenant(tenantID) {
		return fmt.Errorf("tenant %s still exists", tenantID)
	}
	return nil
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name: "reindex",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			w := &world{}
			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				w.f = newFixture(t)
				w.result = nil
				return ctx, nil
			})

			sc.Step(`^a tenant "([^"]*)" with (\d+) documents and (\d+) products with (\d+) reviews$`, w.tenantWithContent)
			sc.Step(`^the embedding service fails on "([^"]*)"$`, w.embeddingFailsOn)
			sc.Step(`^tenant "([^"]*)" is reindexed$`, w.reindexed)
			sc.Step(`^tenant "([^"]*)" is torn down$`, w.tornDown)
			sc.Step(`^the reindex completes with (\d+) added and (\d+) errors$`, w.completesWith)
			sc.Step(`^namespace "([^"]*)" holds "([^"]*)"$`, w.namespaceHolds)
			sc.Step(`^namespace "([^"]*)" is empty$`, w.namespaceEmpty)
			sc.Step(`^record "([^"]*)" in namespace "([^"]*)" lists review "([^"]*)"$`, w.recordListsReview)
			sc.Step(`^the error for "([^"]*)" mentions "([^"]*)"$`, w.errorMentions)
			sc.Step(`^tenant "([^"]*)" no longer exists$`, w.tenantGone)
		},
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{"testdata/features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("feature scenarios failed")
	}
}
