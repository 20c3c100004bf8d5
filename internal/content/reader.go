// Package content reads a tenant's structured content out of the relational
// store and coerces loosely typed rows into domain records.
package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ContentReader = (*Reader)(nil)

const defaultFormat = "text/html"

// Every query is filtered by website_id = $1. Children are joined through
// their parent so a tenant id is the only filter.
const (
	postsQuery = `
		SELECT natural_id, title, content, excerpt, author_id, url, content_type, published_at
		FROM posts
		WHERE website_id = $1
		ORDER BY id`

	commentsQuery = `
		SELECT c.natural_id, p.natural_id AS post_natural_id, c.author, c.body, c.created_at
		FROM post_comments c
		JOIN posts p ON p.id = c.post_id
		WHERE p.website_id = $1
		ORDER BY c.id`

	pagesQuery = `
		SELECT natural_id, title, content, url, content_type
		FROM pages
		WHERE website_id = $1
		ORDER BY id`

	productsQuery = `
		SELECT natural_id, name, description, short_description, price, regular_price, sale_price, url, content_type
		FROM products
		WHERE website_id = $1
		ORDER BY id`

	reviewsQuery = `
		SELECT r.natural_id, p.natural_id AS product_natural_id, r.reviewer, r.rating, r.body, r.verified, r.created_at
		FROM product_reviews r
		JOIN products p ON p.id = r.product_id
		WHERE p.website_id = $1
		ORDER BY r.id`

	categoriesQuery = `
		SELECT c.natural_id, c.name, c.slug, p.natural_id AS product_natural_id
		FROM product_category_links l
		JOIN categories c ON c.id = l.category_id
		JOIN products p ON p.id = l.product_id
		WHERE p.website_id = $1 AND c.website_id = $1
		ORDER BY c.id`
)

// Reader implements driven.ContentReader over a QueryExecutor.
type Reader struct {
	exec   driven.QueryExecutor
	logger *slog.Logger
}

// NewReader creates a content reader.
func NewReader(exec driven.QueryExecutor, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{exec: exec, logger: logger}
}

// ReadContent reads every content kind for a tenant in one pass.
// The first store error aborts the read; there is no internal retry.
func (r *Reader) ReadContent(ctx context.Context, tenantID string) (*domain.ContentSnapshot, error) {
	snap := domain.NewContentSnapshot(tenantID)

	steps := []struct {
		name  string
		query string
		apply func(*domain.ContentSnapshot, driven.Row)
	}{
		{"posts", postsQuery, applyDocument},
		{"comments", commentsQuery, applyComment},
		{"pages", pagesQuery, applyPage},
		{"products", productsQuery, applyProduct},
		{"reviews", reviewsQuery, applyReview},
		{"categories", categoriesQuery, r.applyCategory},
	}

	for _, step := range steps {
		rows, err := r.exec.Query(ctx, step.query, tenantID)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStoreUnavailable, step.name, err)
		}
		for _, row := range rows {
			step.apply(snap, row)
		}
	}

	if len(snap.Rejected) > 0 {
		r.logger.Warn("rejected content rows",
			"tenant_id", tenantID,
			"count", len(snap.Rejected),
		)
	}
	return snap, nil
}

func reject(snap *domain.ContentSnapshot, kind domain.ContentKind, row driven.Row, reason string) {
	id, _ := AsString(row["natural_id"])
	snap.Rejected = append(snap.Rejected, domain.RejectedRow{Kind: kind, NaturalID: id, Reason: reason})
}

func applyDocument(snap *domain.ContentSnapshot, row driven.Row) {
	id, ok := AsString(row["natural_id"])
	if !ok {
		reject(snap, domain.ContentKindDocument, row, "missing natural_id")
		return
	}
	title, ok := AsString(row["title"])
	if !ok {
		reject(snap, domain.ContentKindDocument, row, "missing title")
		return
	}
	snap.Documents = append(snap.Documents, domain.Document{
		NaturalID:   id,
		Title:       title,
		Body:        stringOr(row["content"], ""),
		Excerpt:     stringOr(row["excerpt"], ""),
		AuthorID:    stringOr(row["author_id"], ""),
		URL:         stringOr(row["url"], ""),
		Format:      stringOr(row["content_type"], defaultFormat),
		PublishedAt: timePtr(row["published_at"]),
	})
}

func applyComment(snap *domain.ContentSnapshot, row driven.Row) {
	id, ok := AsString(row["natural_id"])
	if !ok {
		reject(snap, domain.ContentKindComment, row, "missing natural_id")
		return
	}
	parent, ok := AsString(row["post_natural_id"])
	if !ok {
		reject(snap, domain.ContentKindComment, row, "missing parent document")
		return
	}
	snap.CommentsByDocument[parent] = append(snap.CommentsByDocument[parent], domain.Comment{
		NaturalID:  id,
		DocumentID: parent,
		Body:       stringOr(row["body"], ""),
		Author:     stringOr(row["author"], ""),
		CreatedAt:  timePtr(row["created_at"]),
	})
}

func applyPage(snap *domain.ContentSnapshot, row driven.Row) {
	id, ok := AsString(row["natural_id"])
	if !ok {
		reject(snap, domain.ContentKindPage, row, "missing natural_id")
		return
	}
	title, ok := AsString(row["title"])
	if !ok {
		reject(snap, domain.ContentKindPage, row, "missing title")
		return
	}
	snap.CollectionItems = append(snap.CollectionItems, domain.CollectionItem{
		NaturalID: id,
		Title:     title,
		Body:      stringOr(row["content"], ""),
		URL:       stringOr(row["url"], ""),
		Format:    stringOr(row["content_type"], defaultFormat),
	})
}

func applyProduct(snap *domain.ContentSnapshot, row driven.Row) {
	id, ok := AsString(row["natural_id"])
	if !ok {
		reject(snap, domain.ContentKindProduct, row, "missing natural_id")
		return
	}
	name, ok := AsString(row["name"])
	if !ok {
		reject(snap, domain.ContentKindProduct, row, "missing name")
		return
	}
	snap.Products = append(snap.Products, domain.Product{
		NaturalID:        id,
		Name:             name,
		Description:      stringOr(row["description"], ""),
		ShortDescription: stringOr(row["short_description"], ""),
		Price:            floatPtr(row["price"]),
		RegularPrice:     floatPtr(row["regular_price"]),
		SalePrice:        floatPtr(row["sale_price"]),
		URL:              stringOr(row["url"], ""),
		Format:           stringOr(row["content_type"], defaultFormat),
	})
}

func applyReview(snap *domain.ContentSnapshot, row driven.Row) {
	id, ok := AsString(row["natural_id"])
	if !ok {
		reject(snap, domain.ContentKindReview, row, "missing natural_id")
		return
	}
	parent, ok := AsString(row["product_natural_id"])
	if !ok {
		reject(snap, domain.ContentKindReview, row, "missing parent product")
		return
	}
	rating, _ := AsInt(row["rating"])
	verified, _ := AsBool(row["verified"])
	snap.ReviewsByProduct[parent] = append(snap.ReviewsByProduct[parent], domain.Review{
		NaturalID: id,
		ProductID: parent,
		Body:      stringOr(row["body"], ""),
		Rating:    int(rating),
		Reviewer:  stringOr(row["reviewer"], ""),
		Verified:  verified,
		CreatedAt: timePtr(row["created_at"]),
	})
}

// applyCategory drops malformed links. Categories are not indexed on their
// own, so they never count as failed items.
func (r *Reader) applyCategory(snap *domain.ContentSnapshot, row driven.Row) {
	id, ok := AsString(row["natural_id"])
	parent, pok := AsString(row["product_natural_id"])
	if !ok || !pok {
		r.logger.Debug("skipping category link", "tenant_id", snap.TenantID, "category", id, "product", parent)
		return
	}
	snap.CategoriesByProduct[parent] = append(snap.CategoriesByProduct[parent], domain.Category{
		NaturalID: id,
		Name:      stringOr(row["name"], id),
		Slug:      stringOr(row["slug"], ""),
	})
}
