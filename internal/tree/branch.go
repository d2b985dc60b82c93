package tree

import (
	"slices"
)

// GetFlatItemsFromTree returns the records of tree in pre-order
func GetFlatItemsFromTree(tree []*Node) []Record {
	var items []Record
	stack := reversed(tree)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		items = append(items, n.Item)
		stack = append(stack, reversed(n.Children)...)
	}
	return items
}

// GetBranchesFromTree returns, in tree order, the top-most branches whose
// record is in items. Matches below a matched branch are part of that branch
// and are not reported separately.
func GetBranchesFromTree(tree []*Node, items []Record) []*Node {
	selected := idSet(items)
	var branches []*Node
	stack := reversed(tree)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if selected[n.itemID()] {
			branches = append(branches, n)
			continue
		}
		stack = append(stack, reversed(n.Children)...)
	}
	return branches
}

// GetTreeWithoutSelection returns a copy of tree with every branch whose
// record is in items removed, descendants included
func GetTreeWithoutSelection(tree []*Node, items []Record) []*Node {
	return withoutSelection(tree, idSet(items))
}

func withoutSelection(level []*Node, selected map[int]bool) []*Node {
	if level == nil {
		return nil
	}
	out := make([]*Node, 0, len(level))
	for _, n := range level {
		if selected[n.itemID()] {
			continue
		}
		c := *n
		c.Children = withoutSelection(n.Children, selected)
		if len(c.Children) == 0 {
			c.Children = nil
		}
		out = append(out, &c)
	}
	return out
}

// InsertBranchesIntoTree inserts branches as one contiguous run, either
// under parentID (after olderSiblingID, or last) or, with parentID 0,
// directly after the node olderSiblingID wherever it lives. An id of 0 means
// absent. Unknown ids leave the tree unchanged; giving neither id returns
// ErrInvalidInsertion.
func InsertBranchesIntoTree(tree, branches []*Node, parentID, olderSiblingID int) ([]*Node, error) {
	out, _, err := InsertBranches(tree, branches, parentID, olderSiblingID)
	return out, err
}

// InsertBranches is InsertBranchesIntoTree that also reports whether an
// anchor was found and the branches were placed
func InsertBranches(tree, branches []*Node, parentID, olderSiblingID int) ([]*Node, bool, error) {
	if parentID == 0 && olderSiblingID == 0 {
		return nil, false, ErrInvalidInsertion
	}
	if parentID == 0 {
		out, ok := insertAfterSibling(tree, branches, olderSiblingID)
		return out, ok, nil
	}
	out, ok := insertUnderParent(tree, branches, parentID, olderSiblingID)
	return out, ok, nil
}

func insertAfterSibling(level, branches []*Node, siblingID int) ([]*Node, bool) {
	if idx := indexOf(level, siblingID); idx >= 0 {
		return spliceAfter(level, idx, branches), true
	}
	for i, n := range level {
		if len(n.Children) == 0 {
			continue
		}
		if children, ok := insertAfterSibling(n.Children, branches, siblingID); ok {
			return replaceChildren(level, i, children), true
		}
	}
	return level, false
}

func insertUnderParent(level, branches []*Node, parentID, siblingID int) ([]*Node, bool) {
	for i, n := range level {
		if n.ID == parentID {
			return replaceChildren(level, i, insertChildren(n.Children, branches, siblingID)), true
		}
		if len(n.Children) == 0 {
			continue
		}
		if children, ok := insertUnderParent(n.Children, branches, parentID, siblingID); ok {
			return replaceChildren(level, i, children), true
		}
	}
	return level, false
}

// insertChildren places branches among children after siblingID, or at the
// end when siblingID is 0 or not a child
func insertChildren(children, branches []*Node, siblingID int) []*Node {
	if len(children) == 0 {
		return slices.Clone(branches)
	}
	if siblingID != 0 {
		if idx := indexOf(children, siblingID); idx >= 0 {
			return spliceAfter(children, idx, branches)
		}
	}
	out := make([]*Node, 0, len(children)+len(branches))
	out = append(out, children...)
	return append(out, branches...)
}

func spliceAfter(level []*Node, idx int, branches []*Node) []*Node {
	out := make([]*Node, 0, len(level)+len(branches))
	out = append(out, level[:idx+1]...)
	out = append(out, branches...)
	return append(out, level[idx+1:]...)
}

// replaceChildren copies level with the node at i replaced by a copy that
// has the given children
func replaceChildren(level []*Node, i int, children []*Node) []*Node {
	out := slices.Clone(level)
	c := *level[i]
	c.Children = children
	out[i] = &c
	return out
}

func indexOf(level []*Node, id int) int {
	return slices.IndexFunc(level, func(n *Node) bool { return n.ID == id })
}

func idSet(items []Record) map[int]bool {
	set := make(map[int]bool, len(items))
	for _, item := range items {
		set[item.GetID()] = true
	}
	return set
}

func reversed(nodes []*Node) []*Node {
	out := slices.Clone(nodes)
	slices.Reverse(out)
	return out
}

// itemID returns the id of the node's record, or the node id if it has none
func (n *Node) itemID() int {
	if n.Item != nil {
		return n.Item.GetID()
	}
	return n.ID
}
