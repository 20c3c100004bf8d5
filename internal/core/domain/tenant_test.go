package domain

import "testing"

func TestNamespaces(t *testing.T) {
	if NamespaceFor("site-1") != "site-1" {
		t.Errorf("unexpected namespace %s", NamespaceFor("site-1"))
	}
	if SecondaryNamespaceFor("site-1") != "site-1-qa" {
		t.Errorf("unexpected secondary namespace %s", SecondaryNamespaceFor("site-1"))
	}
}

func TestNewNamespaceRegistration(t *testing.T) {
	reg := NewNamespaceRegistration("site-1")

	if reg.TenantID != "site-1" || reg.Namespace != "site-1" || reg.SecondaryNamespace != "site-1-qa" {
		t.Errorf("unexpected registration %+v", reg)
	}
	if reg.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestCascadeOrder(t *testing.T) {
	pos := make(map[CascadeStep]int, len(CascadeOrder))
	for i, s := range CascadeOrder {
		pos[s] = i
	}

	before := [][2]CascadeStep{
		{CascadeComments, CascadePosts},
		{CascadeReviews, CascadeProducts},
		{CascadeProductCategories, CascadeCategories},
		{CascadeProductCategories, CascadeProducts},
		{CascadeNamespaceRegistry, CascadeTenant},
	}
	for _, pair := range before {
		if pos[pair[0]] >= pos[pair[1]] {
			t.Errorf("expected %s before %s", pair[0], pair[1])
		}
	}
	if CascadeOrder[len(CascadeOrder)-1] != CascadeTenant {
		t.Error("expected tenant row deleted last")
	}
}

func TestVectorRecordAccessors(t *testing.T) {
	r := &VectorRecord{Metadata: map[string]any{MetaType: "product", MetaWebsiteID: "site-1"}}
	if r.Kind() != ContentKindProduct {
		t.Errorf("unexpected kind %s", r.Kind())
	}
	if r.TenantID() != "site-1" {
		t.Errorf("unexpected tenant %s", r.TenantID())
	}

	empty := &VectorRecord{}
	if empty.Kind() != "" || empty.TenantID() != "" {
		t.Error("expected empty accessors on nil metadata")
	}
}

func TestReindexResultSuccess(t *testing.T) {
	if !(&ReindexResult{Status: ReindexStatusCompleted}).Success() {
		t.Error("expected completed to be success")
	}
	if (&ReindexResult{Status: ReindexStatusFailed}).Success() {
		t.Error("expected failed not to be success")
	}
}
