package catalogsync

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Mapper converts catalog units into POS payloads. It is side-effect free.
type Mapper struct {
	taxCodes []string
}

// NewMapper creates a mapper applying the given tax codes to every good
func NewMapper(taxCodes []string) *Mapper {
	codes := make([]string, 0, len(taxCodes))
	codes = append(codes, taxCodes...)
	return &Mapper{taxCodes: codes}
}

// ParseTaxCodes splits a comma separated list, dropping blanks.
// An empty input yields an empty list, meaning no tax codes are applied.
func ParseTaxCodes(raw string) []string {
	codes := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if code := strings.TrimSpace(part); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// MinorUnits converts a major-unit price to integer minor units, rounding half away from zero
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}

// DisplayName returns the unit name, or "Product <id>" when it is blank
func DisplayName(unit CatalogUnit) string {
	if name := strings.TrimSpace(unit.Name); name != "" {
		return name
	}
	return "Product " + strconv.FormatInt(unit.ID, 10)
}

// ToCatalogGood builds the POS payload for a unit. groupID may be empty.
func (m *Mapper) ToCatalogGood(unit CatalogUnit, parentProductID int64, isOffer bool, groupID string) GoodPayload {
	taxCodes := make([]string, len(m.taxCodes))
	copy(taxCodes, m.taxCodes)

	return GoodPayload{
		Code:        DeriveCode(unit),
		Name:        DisplayName(unit),
		Price:       MinorUnits(unit.Price),
		Type:        GoodTypeProduct,
		TaxCodes:    taxCodes,
		ExternalRef: ExternalRef(unit.ID, parentProductID, isOffer),
		Barcode:     strings.TrimSpace(unit.Barcode),
		GroupID:     groupID,
	}
}

// NeedsUpdate reports whether the stored price or name differs from the values
// the unit maps to. Prices are compared after rounding to minor units.
func (m *Mapper) NeedsUpdate(existing Good, unit CatalogUnit) bool {
	if existing.Price != MinorUnits(unit.Price) {
		return true
	}
	return existing.Name != DisplayName(unit)
}
