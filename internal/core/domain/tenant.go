package domain

import "time"

// Tenant is one customer website or store account. It owns all indexed
// content and exactly one vector namespace.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// qaNamespaceSuffix marks the secondary namespace reserved for a future split index.
const qaNamespaceSuffix = "-qa"

// NamespaceFor returns the primary vector namespace of a tenant.
func NamespaceFor(tenantID string) string {
	return tenantID
}

// SecondaryNamespaceFor returns the reserved secondary namespace of a tenant.
func SecondaryNamespaceFor(tenantID string) string {
	return tenantID + qaNamespaceSuffix
}

// NamespaceRegistration is the bookkeeping row recording where a tenant's
// vectors live. A tenant has at most one registration.
type NamespaceRegistration struct {
	TenantID           string    `json:"tenant_id"`
	Namespace          string    `json:"namespace"`
	SecondaryNamespace string    `json:"secondary_namespace"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewNamespaceRegistration builds the registration written at the end of a reindex.
func NewNamespaceRegistration(tenantID string) *NamespaceRegistration {
	return &NamespaceRegistration{
		TenantID:           tenantID,
		Namespace:          NamespaceFor(tenantID),
		SecondaryNamespace: SecondaryNamespaceFor(tenantID),
		UpdatedAt:          time.Now().UTC(),
	}
}

// CascadeStep names one tenant-scoped delete in the teardown cascade.
type CascadeStep string

const (
	CascadeComments          CascadeStep = "comments"
	CascadeReviews           CascadeStep = "reviews"
	CascadeProductCategories CascadeStep = "product_categories"
	CascadeCategories        CascadeStep = "categories"
	CascadeProducts          CascadeStep = "products"
	CascadePages             CascadeStep = "pages"
	CascadePosts             CascadeStep = "posts"
	CascadeNamespaceRegistry CascadeStep = "namespace_registry"
	CascadeTenant            CascadeStep = "tenant"
)

// CascadeOrder is the dependency order of the teardown cascade: children
// joined through their parents first, the tenant row last.
var CascadeOrder = []CascadeStep{
	CascadeComments,
	CascadeReviews,
	CascadeProductCategories,
	CascadeCategories,
	CascadeProducts,
	CascadePages,
	CascadePosts,
	CascadeNamespaceRegistry,
	CascadeTenant,
}

// TeardownStep names a top-level teardown step.
type TeardownStep string

const (
	TeardownStepWipeVectors   TeardownStep = "wipe_vectors"
	TeardownStepCascadeDelete TeardownStep = "cascade_delete"
)
