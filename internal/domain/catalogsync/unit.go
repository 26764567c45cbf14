package catalogsync

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// CRM-side read models
// ---------------------------------------------------------------------------

// Category is a CRM product category. ParentName is filled in from the flat
// category listing when the parent is known.
type Category struct {
	ID         int64
	Name       string
	ParentID   *int64
	ParentName string
}

// HasParent reports whether the category sits under a named parent category
func (c *Category) HasParent() bool {
	return c != nil && c.ParentID != nil && strings.TrimSpace(c.ParentName) != ""
}

// Property is a variant property of an offer (e.g. size or color)
type Property struct {
	Name  string
	Value string
}

// Product is a CRM product as returned by the product listing
type Product struct {
	ID         int64
	Name       string
	SKU        string
	Barcode    string
	Price      decimal.Decimal
	HasOffers  bool
	CategoryID *int64
}

// Offer is one variant of a multi-variant CRM product
type Offer struct {
	ID         int64
	ProductID  int64
	Name       string
	SKU        string
	Barcode    string
	Price      decimal.Decimal
	Properties []Property
}

// PropertyValues returns the non-empty property values in listing order
func (o *Offer) PropertyValues() []string {
	values := make([]string, 0, len(o.Properties))
	for _, p := range o.Properties {
		if v := strings.TrimSpace(p.Value); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// ---------------------------------------------------------------------------
// CatalogUnit
// ---------------------------------------------------------------------------

// CatalogUnit is a read-only snapshot of one sellable entity taken during a run.
// For offers ParentProductID is the owning product; for bare products it equals ID.
type CatalogUnit struct {
	ID              int64
	Name            string
	SKU             string
	Barcode         string
	Price           decimal.Decimal
	ParentProductID int64
	IsOffer         bool
	Category        *Category
	PropertyValues  []string
}

// UnitFromProduct builds a unit from a product without variants
func UnitFromProduct(p Product, category *Category) CatalogUnit {
	return CatalogUnit{
		ID:              p.ID,
		Name:            p.Name,
		SKU:             p.SKU,
		Barcode:         p.Barcode,
		Price:           p.Price,
		ParentProductID: p.ID,
		Category:        category,
	}
}

// UnitFromOffer builds a unit from one offer of a product. The offer inherits the
// product's category. When the offer has no name of its own, or carries variant
// properties, the display name is synthesized from the product name and the
// property values.
func UnitFromOffer(product Product, offer Offer, category *Category) CatalogUnit {
	values := offer.PropertyValues()
	name := strings.TrimSpace(offer.Name)
	if name == "" || len(values) > 0 {
		name = strings.TrimSpace(product.Name)
		if len(values) > 0 {
			name = name + " — " + strings.Join(values, ", ")
		}
	}
	return CatalogUnit{
		ID:              offer.ID,
		Name:            name,
		SKU:             offer.SKU,
		Barcode:         offer.Barcode,
		Price:           offer.Price,
		ParentProductID: product.ID,
		IsOffer:         true,
		Category:        category,
		PropertyValues:  values,
	}
}

// Ref returns a short identifier for logs and run summaries, e.g. "offer:12"
func (u CatalogUnit) Ref() string {
	return ExternalRef(u.ID, u.ParentProductID, u.IsOffer)
}

// ExternalRef encodes the CRM source of a POS good
func ExternalRef(id, parentProductID int64, isOffer bool) string {
	if isOffer {
		return "offer:" + strconv.FormatInt(id, 10)
	}
	return "product:" + strconv.FormatInt(parentProductID, 10)
}
