package tree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInsertion is returned when branches are inserted with neither
	// a parent id nor an older sibling id to anchor them.
	ErrInvalidInsertion = errors.New("invalid insertion: neither parent id nor older sibling id given")

	// ErrCyclicHierarchy is matched by every CyclicHierarchyError
	ErrCyclicHierarchy = errors.New("cyclic parent references")
)

// CyclicHierarchyError lists the ids of records whose parent references form
// one or more cycles
type CyclicHierarchyError struct {
	IDs []int
}

func (e *CyclicHierarchyError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%v: records %s", ErrCyclicHierarchy, strings.Join(ids, ", "))
}

func (e *CyclicHierarchyError) Unwrap() error {
	return ErrCyclicHierarchy
}
