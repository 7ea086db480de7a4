package types

import "errors"

// Sentinel errors returned by BlockStore implementations. Callers should
// use errors.Is (or testify's ErrorIs) rather than comparing error strings.
var (
	// ErrBlockNotFound is returned when a requested height or hash has no
	// corresponding block in the store.
	ErrBlockNotFound = errors.New("types: block not found")

	// ErrBlockExists is returned when SaveBlock is called for a height
	// that already has a block.
	ErrBlockExists = errors.New("types: block already exists at height")

	// ErrBlockAlreadyExists is returned when SaveBlock is called with a
	// hash that is already associated with a different height.
	ErrBlockAlreadyExists = errors.New("types: block hash already exists")
)
