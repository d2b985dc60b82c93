package arbor

import "errors"

var (
	// ErrInvalidCollection is returned for empty or malformed collection names
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrItemNotFound is returned when a referenced item does not exist
	ErrItemNotFound = errors.New("item not found")

	// ErrViewNotFound is returned for unknown or closed view ids
	ErrViewNotFound = errors.New("view not found")

	// ErrInvalidItems is returned when a batch of items cannot be stored
	ErrInvalidItems = errors.New("invalid items")

	// ErrInvalidMove is returned when a move target cannot be resolved,
	// including targets inside the moved branches
	ErrInvalidMove = errors.New("invalid move")
)
