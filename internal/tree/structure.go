package tree

import (
	"errors"
	"fmt"
)

// ErrUnknownNode is returned when a structure tree names a record that is
// not among the records it is applied to
var ErrUnknownNode = errors.New("structure references unknown record")

// ApplyIDTree writes the hierarchy described by idTree onto items: every
// listed record gets its parent field set to the enclosing node (0 at the
// top) and its weight field set to its pre-order rank, starting at 1.
// Records not listed keep their fields. Nothing is written unless every id
// in idTree is known.
func ApplyIDTree(idTree []*IDNode, items []Record, opts Options) error {
	opts = opts.withDefaults()

	byID := make(map[int]Record, len(items))
	for _, item := range items {
		byID[item.GetID()] = item
	}

	type placement struct {
		record Record
		parent int
		weight int
	}
	type pending struct {
		node   *IDNode
		parent int
	}

	var placements []placement
	seen := make(map[int]bool)
	stack := make([]pending, 0, len(idTree))
	for i := len(idTree) - 1; i >= 0; i-- {
		stack = append(stack, pending{node: idTree[i]})
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		record, ok := byID[p.node.ID]
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownNode, p.node.ID)
		}
		if seen[p.node.ID] {
			return fmt.Errorf("structure lists record %d more than once", p.node.ID)
		}
		seen[p.node.ID] = true
		placements = append(placements, placement{record: record, parent: p.parent, weight: len(placements) + 1})

		for i := len(p.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: p.node.Children[i], parent: p.node.ID})
		}
	}

	for _, pl := range placements {
		pl.record.Set(opts.ParentKey, pl.parent)
		pl.record.Set(opts.WeightKey, pl.weight)
	}
	return nil
}
