package tree

// MakeFlatTree builds the sorted tree and flattens it in pre-order.
// Position equals the index in the result and Level the depth of the node.
func MakeFlatTree(items []Record, opts Options) ([]*FlatNode, error) {
	roots, err := MakeSortedTree(items, opts)
	if err != nil {
		return nil, err
	}

	flat := make([]*FlatNode, 0, len(items))
	for _, root := range roots {
		flat = append(flat, MakePartialFlatTree(root, 0)...)
	}
	for i, n := range flat {
		n.Position = i
	}
	return flat, nil
}

// MakePartialFlatTree flattens the branch under node in pre-order, starting
// at the given level. Nodes with children start expanded.
func MakePartialFlatTree(node *Node, level int) []*FlatNode {
	if node == nil {
		return nil
	}

	type pending struct {
		node  *Node
		level int
	}

	var flat []*FlatNode
	stack := []pending{{node: node, level: level}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		hasChildren := len(p.node.Children) > 0
		flat = append(flat, &FlatNode{
			ID:         p.node.ID,
			Item:       p.node.Item,
			Level:      p.level,
			Position:   len(flat),
			IsExpanded: hasChildren,
			Expandable: hasChildren,
			IsSeen:     true,
		})

		for i := len(p.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: p.node.Children[i], level: p.level + 1})
		}
	}
	return flat
}

// MakeTreeFromFlatTree rebuilds the id structure from a level annotated
// sequence. Each top level branch consumes every following node deeper than
// its own level.
func MakeTreeFromFlatTree(nodes []*FlatNode) []*IDNode {
	var tree []*IDNode
	for i := 0; i < len(nodes); {
		branch, consumed := BuildBranchFromFlatTree(nodes, i)
		tree = append(tree, branch)
		i += consumed
	}
	return tree
}

// BuildBranchFromFlatTree builds the branch rooted at nodes[start] and returns
// it together with the number of sequence entries it spans. The branch ends
// at the first node whose level is not deeper than the start node. Nodes that
// jump more than one level below their nearest open ancestor are skipped.
func BuildBranchFromFlatTree(nodes []*FlatNode, start int) (*IDNode, int) {
	if start < 0 || start >= len(nodes) {
		return nil, 0
	}

	type open struct {
		node  *IDNode
		level int
	}

	startLevel := nodes[start].Level
	root := &IDNode{ID: nodes[start].ID}
	stack := []open{{node: root, level: startLevel}}

	i := start + 1
	for ; i < len(nodes) && nodes[i].Level > startLevel; i++ {
		n := nodes[i]
		for stack[len(stack)-1].level >= n.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		if n.Level != parent.level+1 {
			continue
		}
		child := &IDNode{ID: n.ID}
		parent.node.Children = append(parent.node.Children, child)
		stack = append(stack, open{node: child, level: n.Level})
	}
	return root, i - start
}

// StripTree drops names and records, keeping only the id structure
func StripTree(nodes []*Node) []*IDNode {
	if nodes == nil {
		return nil
	}
	out := make([]*IDNode, len(nodes))
	for i, n := range nodes {
		out[i] = &IDNode{ID: n.ID, Children: StripTree(n.Children)}
	}
	return out
}
