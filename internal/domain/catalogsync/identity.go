package catalogsync

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxSlugLength bounds codes derived from product names
const MaxSlugLength = 150

var (
	slugDropChars  = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators = regexp.MustCompile(`[\s_-]+`)
)

// DeriveCode returns the cross-system join key for a unit.
// Precedence: trimmed SKU, trimmed barcode, slug of the display name.
// An empty name falls back to "product-<id>". The result may still be empty when
// the name has no word characters at all; callers treat that as a skipped unit.
func DeriveCode(unit CatalogUnit) string {
	if sku := strings.TrimSpace(unit.SKU); sku != "" {
		return sku
	}
	if barcode := strings.TrimSpace(unit.Barcode); barcode != "" {
		return barcode
	}
	if strings.TrimSpace(unit.Name) == "" {
		return "product-" + strconv.FormatInt(unit.ID, 10)
	}
	return Slugify(unit.Name)
}

// Slugify lowercases s, strips non-word characters, collapses whitespace,
// underscores and hyphen runs into single hyphens and trims hyphens at both ends.
func Slugify(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = slugDropChars.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > MaxSlugLength {
		// only ASCII survives the filters above, so byte slicing is safe
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}
