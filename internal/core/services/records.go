package services

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-widget/internal/core/domain"
	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// workItem is one unit of indexing work. Items built from rejected rows
// carry err and are recorded as failures without calling out.
type workItem struct {
	kind     domain.ContentKind
	id       string
	text     string
	metadata map[string]any
	err      error
}

// recordBuilder turns a content snapshot into ordered work items.
type recordBuilder struct {
	normalisers   driven.NormaliserRegistry
	maxInputChars int
}

// build returns items in index order: documents, comments, pages, products,
// reviews, then rejected rows. Children whose parent is not in the snapshot
// follow the ordered ones, sorted by parent key.
func (b *recordBuilder) build(snap *domain.ContentSnapshot) []workItem {
	items := make([]workItem, 0, snap.ItemCount())
	tenantID := snap.TenantID

	docs := make(map[string]domain.Document, len(snap.Documents))
	for _, d := range snap.Documents {
		docs[d.NaturalID] = d
		items = append(items, b.documentItem(tenantID, d, snap.CommentsByDocument[d.NaturalID]))
	}

	for _, d := range snap.Documents {
		for _, c := range snap.CommentsByDocument[d.NaturalID] {
			items = append(items, b.commentItem(tenantID, c, d.Title))
		}
	}
	for _, key := range orphanKeys(snap.CommentsByDocument, func(k string) bool { _, ok := docs[k]; return ok }) {
		for _, c := range snap.CommentsByDocument[key] {
			items = append(items, b.commentItem(tenantID, c, ""))
		}
	}

	for _, p := range snap.CollectionItems {
		items = append(items, b.pageItem(tenantID, p))
	}

	products := make(map[string]domain.Product, len(snap.Products))
	for _, p := range snap.Products {
		products[p.NaturalID] = p
		items = append(items, b.productItem(tenantID, p, snap.ReviewsByProduct[p.NaturalID], snap.CategoriesByProduct[p.NaturalID]))
	}

	for _, p := range snap.Products {
		for _, r := range snap.ReviewsByProduct[p.NaturalID] {
			items = append(items, b.reviewItem(tenantID, r, p.Name))
		}
	}
	for _, key := range orphanKeys(snap.ReviewsByProduct, func(k string) bool { _, ok := products[k]; return ok }) {
		for _, r := range snap.ReviewsByProduct[key] {
			items = append(items, b.reviewItem(tenantID, r, ""))
		}
	}

	for _, rej := range snap.Rejected {
		items = append(items, workItem{
			kind: rej.Kind,
			id:   rej.ID(),
			err:  &rejectedRowError{reason: rej.Reason},
		})
	}

	markDuplicates(items)
	return items
}

// errDuplicateVectorID is recorded for an item whose vector id was already
// produced by an earlier item of the same snapshot.
var errDuplicateVectorID = errors.New("duplicate vector id")

// markDuplicates fails every item after the first that maps to the same
// vector id, so two rows never collapse into one vector.
func markDuplicates(items []workItem) {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		if items[i].err != nil {
			continue
		}
		if _, ok := seen[items[i].id]; ok {
			items[i].err = errDuplicateVectorID
			continue
		}
		seen[items[i].id] = struct{}{}
	}
}

type rejectedRowError struct {
	reason string
}

func (e *rejectedRowError) Error() string {
	return "rejected row: " + e.reason
}

func orphanKeys[T any](m map[string][]T, known func(string) bool) []string {
	var keys []string
	for k := range m {
		if !known(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (b *recordBuilder) documentItem(tenantID string, d domain.Document, comments []domain.Comment) workItem {
	id := domain.VectorID(domain.ContentKindDocument, d.NaturalID)
	text := b.text(d.Title, d.Excerpt, b.normalise(d.Body, d.Format))

	meta := baseMetadata(domain.ContentKindDocument, tenantID, d.NaturalID, text)
	meta["title"] = d.Title
	meta["url"] = d.URL
	setIf(meta, "excerpt", d.Excerpt)
	setIf(meta, "authorId", d.AuthorID)
	setTime(meta, "publishedAt", d.PublishedAt)

	commentIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, domain.VectorID(domain.ContentKindComment, c.NaturalID))
	}
	meta["commentIds"] = commentIDs

	return workItem{kind: domain.ContentKindDocument, id: id, text: text, metadata: meta}
}

func (b *recordBuilder) commentItem(tenantID string, c domain.Comment, documentTitle string) workItem {
	id := domain.VectorID(domain.ContentKindComment, c.NaturalID)
	if documentTitle == "" {
		documentTitle = c.DocumentID
	}
	text := b.text("Comment on "+documentTitle, b.normalise(c.Body, "text/html"))

	meta := baseMetadata(domain.ContentKindComment, tenantID, c.NaturalID, text)
	meta["documentId"] = c.DocumentID
	meta["documentVectorId"] = domain.VectorID(domain.ContentKindDocument, c.DocumentID)
	meta["author"] = c.Author
	setTime(meta, "createdAt", c.CreatedAt)

	return workItem{kind: domain.ContentKindComment, id: id, text: text, metadata: meta}
}

func (b *recordBuilder) pageItem(tenantID string, p domain.CollectionItem) workItem {
	id := domain.VectorID(domain.ContentKindPage, p.NaturalID)
	text := b.text(p.Title, b.normalise(p.Body, p.Format))

	meta := baseMetadata(domain.ContentKindPage, tenantID, p.NaturalID, text)
	meta["title"] = p.Title
	meta["url"] = p.URL

	return workItem{kind: domain.ContentKindPage, id: id, text: text, metadata: meta}
}

func (b *recordBuilder) productItem(tenantID string, p domain.Product, reviews []domain.Review, categories []domain.Category) workItem {
	id := domain.VectorID(domain.ContentKindProduct, p.NaturalID)
	text := b.text(p.Name, b.normalise(p.Description, p.Format), b.normalise(p.ShortDescription, p.Format))

	meta := baseMetadata(domain.ContentKindProduct, tenantID, p.NaturalID, text)
	meta["name"] = p.Name
	meta["url"] = p.URL
	setIf(meta, "shortDescription", p.ShortDescription)
	setFloat(meta, "price", p.Price)
	setFloat(meta, "regularPrice", p.RegularPrice)
	setFloat(meta, "salePrice", p.SalePrice)

	reviewIDs := make([]string, 0, len(reviews))
	for _, r := range reviews {
		reviewIDs = append(reviewIDs, domain.VectorID(domain.ContentKindReview, r.NaturalID))
	}
	categoryIDs := make([]string, 0, len(categories))
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		categoryIDs = append(categoryIDs, domain.VectorID(domain.ContentKindCategory, c.NaturalID))
		names = append(names, c.Name)
	}
	meta["reviewIds"] = reviewIDs
	meta["categoryIds"] = categoryIDs
	meta["categories"] = names

	return workItem{kind: domain.ContentKindProduct, id: id, text: text, metadata: meta}
}

func (b *recordBuilder) reviewItem(tenantID string, r domain.Review, productName string) workItem {
	id := domain.VectorID(domain.ContentKindReview, r.NaturalID)
	if productName == "" {
		productName = r.ProductID
	}
	text := b.text(
		"Review of "+productName,
		"Rating: "+strconv.Itoa(r.Rating)+"/5",
		b.normalise(r.Body, "text/html"),
	)

	meta := baseMetadata(domain.ContentKindReview, tenantID, r.NaturalID, text)
	meta["productId"] = r.ProductID
	meta["productVectorId"] = domain.VectorID(domain.ContentKindProduct, r.ProductID)
	meta["rating"] = r.Rating
	meta["reviewer"] = r.Reviewer
	meta["verified"] = r.Verified
	setTime(meta, "createdAt", r.CreatedAt)

	return workItem{kind: domain.ContentKindReview, id: id, text: text, metadata: meta}
}

func (b *recordBuilder) normalise(body, format string) string {
	if b.normalisers == nil || body == "" {
		return strings.TrimSpace(body)
	}
	if n := b.normalisers.Get(format); n != nil {
		return n.Normalise(body, format)
	}
	return strings.TrimSpace(body)
}

// text joins non-empty fields in order and truncates to maxInputChars runes.
func (b *recordBuilder) text(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	text := strings.Join(parts, "\n\n")

	if b.maxInputChars > 0 {
		if runes := []rune(text); len(runes) > b.maxInputChars {
			text = string(runes[:b.maxInputChars])
		}
	}
	return text
}

func baseMetadata(kind domain.ContentKind, tenantID, naturalID, text string) map[string]any {
	return map[string]any{
		domain.MetaType:      string(kind),
		domain.MetaWebsiteID: tenantID,
		domain.MetaNaturalID: naturalID,
		domain.MetaText:      text,
	}
}

func setIf(meta map[string]any, key, value string) {
	if value != "" {
		meta[key] = value
	}
}

func setFloat(meta map[string]any, key string, value *float64) {
	if value != nil {
		meta[key] = *value
	}
}

func setTime(meta map[string]any, key string, value *time.Time) {
	if value != nil {
		meta[key] = value.UTC().Format(time.RFC3339)
	}
}
