package catalogsync

import "errors"

var (
	// ErrGoodAlreadyExists is returned by POS adapters when a create collides
	// with an existing code.
	ErrGoodAlreadyExists = errors.New("catalogsync: good code already exists")
	// ErrGoodNotFound is used internally by adapters; lookups normalize it to nil.
	ErrGoodNotFound = errors.New("catalogsync: good not found")

	// Unit validation errors
	ErrUnitMissingName = errors.New("catalogsync: unit has no name")
	ErrUnitEmptyCode   = errors.New("catalogsync: derived code is empty")

	// Run errors
	ErrProductEnumeration = errors.New("catalogsync: product enumeration failed")
)
