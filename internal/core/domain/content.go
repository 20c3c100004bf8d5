package domain

import "time"

// ContentKind identifies one of the indexed content kinds.
type ContentKind string

const (
	// ContentKindDocument is a primary document (blog post, article)
	ContentKindDocument ContentKind = "document"
	// ContentKindPage is a collection item (static page)
	ContentKindPage ContentKind = "page"
	// ContentKindProduct is a commerce item
	ContentKindProduct ContentKind = "product"
	// ContentKindReview is a review of a commerce item
	ContentKindReview ContentKind = "review"
	// ContentKindComment is a comment on a primary document
	ContentKindComment ContentKind = "comment"
	// ContentKindCategory is a product category tag. Categories are not
	// embedded on their own; products reference them by vector id.
	ContentKindCategory ContentKind = "category"
)

// IndexOrder is the order in which kinds are processed during a reindex.
var IndexOrder = []ContentKind{
	ContentKindDocument,
	ContentKindComment,
	ContentKindPage,
	ContentKindProduct,
	ContentKindReview,
}

// VectorID derives the stable vector id of an item from its kind and natural key.
// Re-embedding the same item always produces the same id.
func VectorID(kind ContentKind, naturalID string) string {
	return string(kind) + "-" + naturalID
}

// Document is a primary document such as a blog post.
type Document struct {
	NaturalID   string     `json:"natural_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt,omitempty"`
	AuthorID    string     `json:"author_id,omitempty"`
	URL         string     `json:"url"`
	Format      string     `json:"format"` // MIME type of Body
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// CollectionItem is a static page.
type CollectionItem struct {
	NaturalID string `json:"natural_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	URL       string `json:"url"`
	Format    string `json:"format"`
}

// Product is a commerce item.
type Product struct {
	NaturalID        string   `json:"natural_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	RegularPrice     *float64 `json:"regular_price,omitempty"`
	SalePrice        *float64 `json:"sale_price,omitempty"`
	URL              string   `json:"url"`
	Format           string   `json:"format"`
}

// Review is a review of exactly one product.
type Review struct {
	NaturalID string     `json:"natural_id"`
	ProductID string     `json:"product_id"` // natural id of the product
	Body      string     `json:"body"`
	Rating    int        `json:"rating"`
	Reviewer  string     `json:"reviewer"`
	Verified  bool       `json:"verified"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Comment is a comment on exactly one document.
type Comment struct {
	NaturalID  string     `json:"natural_id"`
	DocumentID string     `json:"document_id"` // natural id of the document
	Body       string     `json:"body"`
	Author     string     `json:"author"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// Category is a product category tag.
type Category struct {
	NaturalID string `json:"natural_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
}

// RejectedRow is a source row that could not be turned into a typed record.
type RejectedRow struct {
	Kind      ContentKind `json:"kind"`
	NaturalID string      `json:"natural_id,omitempty"`
	Reason    string      `json:"reason"`
}

// ID returns the vector id the row would have had, falling back to a
// position-free placeholder when the natural key itself was missing.
func (r RejectedRow) ID() string {
	if r.NaturalID == "" {
		return VectorID(r.Kind, "unknown")
	}
	return VectorID(r.Kind, r.NaturalID)
}

// ContentSnapshot is the immutable in-memory view of a tenant's content,
// read once at the start of a reindex.
type ContentSnapshot struct {
	TenantID            string                `json:"tenant_id"`
	Documents           []Document            `json:"documents"`
	CollectionItems     []CollectionItem      `json:"collection_items"`
	Products            []Product             `json:"products"`
	ReviewsByProduct    map[string][]Review   `json:"reviews_by_product"`
	CategoriesByProduct map[string][]Category `json:"categories_by_product"`
	CommentsByDocument  map[string][]Comment  `json:"comments_by_document"`
	Rejected            []RejectedRow         `json:"rejected,omitempty"`
}

// NewContentSnapshot returns an empty snapshot for a tenant.
func NewContentSnapshot(tenantID string) *ContentSnapshot {
	return &ContentSnapshot{
		TenantID:            tenantID,
		ReviewsByProduct:    make(map[string][]Review),
		CategoriesByProduct: make(map[string][]Category),
		CommentsByDocument:  make(map[string][]Comment),
	}
}

// ItemCount returns how many items a reindex of this snapshot will attempt,
// including rejected rows.
func (s *ContentSnapshot) ItemCount() int {
	n := len(s.Documents) + len(s.CollectionItems) + len(s.Products) + len(s.Rejected)
	for _, comments := range s.CommentsByDocument {
		n += len(comments)
	}
	for _, reviews := range s.ReviewsByProduct {
		n += len(reviews)
	}
	return n
}
