package tree

import (
	"slices"
)

// RemoveNodesFromFlatTreeByItemID removes every node whose item id (or node
// id, when byItemID is false) is in deleteIDs and repairs the sequence
// without re-flattening: positions stay contiguous, descendants of a removed
// node move up one level, and the first descendant that moves up into the
// removed node's level inherits its expansion and visibility state.
//
// The input nodes are not modified; the result holds copies.
func RemoveNodesFromFlatTreeByItemID(seq []*FlatNode, deleteIDs []int, byItemID bool) []*FlatNode {
	if len(deleteIDs) == 0 {
		return seq
	}
	remove := make(map[int]bool, len(deleteIDs))
	for _, id := range deleteIDs {
		remove[id] = true
	}
	key := func(n *FlatNode) int {
		if byItemID {
			return n.itemID()
		}
		return n.ID
	}

	work := cloneSequence(seq)
	slices.SortStableFunc(work, func(a, b *FlatNode) int { return a.Position - b.Position })

	for i := 0; i < len(work); {
		removed := work[i]
		if !remove[key(removed)] {
			i++
			continue
		}
		work = slices.Delete(work, i, i+1)

		adjusting, inherited := true, false
		for _, next := range work[i:] {
			next.Position--
			if !adjusting {
				continue
			}
			if next.Level <= removed.Level {
				adjusting = false
				continue
			}
			next.Level--
			if next.Level == removed.Level && !inherited {
				inheritState(next, removed)
				inherited = true
			}
		}
		// the node now at i has not been checked yet
	}
	return work
}

// inheritState moves the expansion and visibility of a removed node onto
// the node that took its place
func inheritState(to, from *FlatNode) {
	to.IsSeen = from.IsSeen
	if to.Expandable {
		to.IsExpanded = from.IsExpanded
	}
}

// ConcatNewNodesFromItems appends items as root level leaves. Positions
// continue after the highest existing position.
func ConcatNewNodesFromItems(seq []*FlatNode, items []Record) []*FlatNode {
	next := len(seq) - 1
	for _, n := range seq {
		if n.Position > next {
			next = n.Position
		}
	}
	next++

	out := make([]*FlatNode, 0, len(seq)+len(items))
	out = append(out, seq...)
	for i, item := range items {
		out = append(out, &FlatNode{
			ID:       item.GetID(),
			Item:     item,
			Level:    0,
			Position: next + i,
			IsSeen:   true,
		})
	}
	return out
}

// SetExpanded expands or collapses the node with the given id and recomputes
// which nodes are seen: a node is seen when every ancestor is expanded.
// Leaves cannot be expanded. The input nodes are not modified.
func SetExpanded(seq []*FlatNode, id int, expanded bool) []*FlatNode {
	out := cloneSequence(seq)
	for _, n := range out {
		if n.ID == id && n.Expandable {
			n.IsExpanded = expanded
		}
	}
	RefreshVisibility(out)
	return out
}

// RefreshVisibility recomputes IsSeen for a pre-order sequence in place
func RefreshVisibility(seq []*FlatNode) {
	type open struct {
		level   int
		showing bool
	}
	var stack []open
	for _, n := range seq {
		for len(stack) > 0 && stack[len(stack)-1].level >= n.Level {
			stack = stack[:len(stack)-1]
		}
		n.IsSeen = len(stack) == 0 || stack[len(stack)-1].showing
		stack = append(stack, open{level: n.Level, showing: n.IsSeen && n.IsExpanded})
	}
}

// CarryExpansion copies IsExpanded from expandable nodes of prev onto
// expandable nodes of next with the same id, then refreshes visibility of
// next in place. Nodes that just gained children keep their own state.
func CarryExpansion(prev, next []*FlatNode) {
	expanded := make(map[int]bool, len(prev))
	for _, n := range prev {
		if n.Expandable {
			expanded[n.ID] = n.IsExpanded
		}
	}
	for _, n := range next {
		if v, ok := expanded[n.ID]; ok && n.Expandable {
			n.IsExpanded = v
		}
	}
	RefreshVisibility(next)
}

func cloneSequence(seq []*FlatNode) []*FlatNode {
	out := make([]*FlatNode, len(seq))
	for i, n := range seq {
		out[i] = n.clone()
	}
	return out
}
