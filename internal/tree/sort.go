package tree

import (
	"slices"
)

// SortTree orders the sequence by the item field named property and flattens
// it to a single level: every node becomes a root level leaf and positions
// are renumbered. Equal values keep their relative order, so sorting an
// already sorted sequence is a no-op. The input nodes are not modified.
func SortTree(seq []*FlatNode, property string, ascending bool) []*FlatNode {
	c := newCollatingComparer()
	out := cloneSequence(seq)
	slices.SortStableFunc(out, func(a, b *FlatNode) int {
		r := c.compare(itemValue(a, property), itemValue(b, property))
		if !ascending {
			return -r
		}
		return r
	})
	for i, n := range out {
		n.Level = 0
		n.Expandable = false
		n.Position = i
	}
	return out
}

func itemValue(n *FlatNode, property string) any {
	if n.Item == nil {
		return nil
	}
	v, _ := n.Item.Get(property)
	return v
}
