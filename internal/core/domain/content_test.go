package domain

import "testing"

func TestVectorID(t *testing.T) {
	tests := []struct {
		kind     ContentKind
		id       string
		expected string
	}{
		{ContentKindDocument, "12", "document-12"},
		{ContentKindPage, "about", "page-about"},
		{ContentKindProduct, "sku-1", "product-sku-1"},
		{ContentKindReview, "7", "review-7"},
		{ContentKindComment, "3", "comment-3"},
		{ContentKindCategory, "shoes", "category-shoes"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := VectorID(tt.kind, tt.id); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestVectorIDStable(t *testing.T) {
	if VectorID(ContentKindDocument, "1") != VectorID(ContentKindDocument, "1") {
		t.Error("expected stable vector id")
	}
	if VectorID(ContentKindDocument, "1") == VectorID(ContentKindPage, "1") {
		t.Error("expected kind to disambiguate natural ids")
	}
}

func TestIndexOrder(t *testing.T) {
	expected := []ContentKind{ContentKindDocument, ContentKindComment, ContentKindPage, ContentKindProduct, ContentKindReview}
	if len(IndexOrder) != len(expected) {
		t.Fatalf("expected %d kinds, got %d", len(expected), len(IndexOrder))
	}
	for i, k := range expected {
		if IndexOrder[i] != k {
			t.Errorf("position %d: expected %s, got %s", i, k, IndexOrder[i])
		}
	}
}

func TestRejectedRowID(t *testing.T) {
	if got := (RejectedRow{Kind: ContentKindProduct, NaturalID: "9"}).ID(); got != "product-9" {
		t.Errorf("expected product-9, got %s", got)
	}
	if got := (RejectedRow{Kind: ContentKindReview}).ID(); got != "review-unknown" {
		t.Errorf("expected review-unknown, got %s", got)
	}
}

func TestContentSnapshotItemCount(t *testing.T) {
	s := NewContentSnapshot("site-1")
	if s.ItemCount() != 0 {
		t.Errorf("expected 0 items, got %d", s.ItemCount())
	}

	s.Documents = []Document{{NaturalID: "1"}, {NaturalID: "2"}}
	s.CollectionItems = []CollectionItem{{NaturalID: "about"}}
	s.Products = []Product{{NaturalID: "p1"}}
	s.CommentsByDocument["1"] = []Comment{{NaturalID: "c1"}, {NaturalID: "c2"}}
	s.ReviewsByProduct["p1"] = []Review{{NaturalID: "r1"}}
	s.CategoriesByProduct["p1"] = []Category{{NaturalID: "shoes"}}
	s.Rejected = []RejectedRow{{Kind: ContentKindPage, Reason: "missing id"}}

	// categories are not items
	if s.ItemCount() != 8 {
		t.Errorf("expected 8 items, got %d", s.ItemCount())
	}
}
