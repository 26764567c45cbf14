package catalogsync

import (
	"strings"

	"golang.org/x/text/cases"
)

// SameName reports whether two display names match exactly after trimming,
// ignoring case (full Unicode case folding).
func SameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}
