package catalogsync

import "strings"

// GoodTypeProduct is the only POS good type produced by the sync
const GoodTypeProduct = "PRODUCT"

// Good is the POS-side catalog record
type Good struct {
	ID          string
	Code        string
	Name        string
	Price       int64 // minor currency units
	Barcode     string
	GroupID     string
	ExternalRef string
}

// GoodPayload is the full create/update body sent to the POS catalog.
// Updates replace the whole record, so every field is always populated.
type GoodPayload struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Type        string   `json:"type"`
	TaxCodes    []string `json:"tax"`
	ExternalRef string   `json:"external_ref"`
	Barcode     string   `json:"barcode,omitempty"`
	GroupID     string   `json:"group_id,omitempty"`
}

// Group is a POS catalog group; ParentID is empty for top-level groups
type Group struct {
	ID       string
	Name     string
	ParentID string
}

// GroupKey is the uniqueness key of a group: normalized name plus parent id
type GroupKey struct {
	Name     string
	ParentID string
}

// NewGroupKey normalizes a (name, parent) pair
func NewGroupKey(name, parentID string) GroupKey {
	return GroupKey{
		Name:     strings.ToLower(strings.TrimSpace(name)),
		ParentID: parentID,
	}
}

// Key returns the group's uniqueness key
func (g Group) Key() GroupKey {
	return NewGroupKey(g.Name, g.ParentID)
}
