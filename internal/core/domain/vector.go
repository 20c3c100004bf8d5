package domain

// VectorRecord is the unit stored in the vector index.
type VectorRecord struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata"`
}

// Metadata keys shared by every record kind.
const (
	MetaType      = "type"
	MetaWebsiteID = "websiteId"
	MetaNaturalID = "naturalId"
	MetaText      = "text"
)

// Kind returns the content kind stored in the record metadata.
func (r *VectorRecord) Kind() ContentKind {
	if r.Metadata == nil {
		return ""
	}
	kind, _ := r.Metadata[MetaType].(string)
	return ContentKind(kind)
}

// TenantID returns the tenant id stored in the record metadata.
func (r *VectorRecord) TenantID() string {
	if r.Metadata == nil {
		return ""
	}
	id, _ := r.Metadata[MetaWebsiteID].(string)
	return id
}
