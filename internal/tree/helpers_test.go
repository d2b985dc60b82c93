package tree

import (
	"fmt"

	"github.com/Project-Sylos/Arbor/internal/types"
)

var testOpts = Options{WeightKey: "w", ParentKey: "parent"}

// rec builds an item with the test keys "parent" and "w"
func rec(id, parent, weight int) *types.Item {
	return types.NewItem(id, map[string]any{
		"parent": parent,
		"w":      weight,
		"title":  fmt.Sprintf("item %d", id),
	})
}

func records(items ...*types.Item) []Record {
	return types.Items(items)
}

func flatIDs(seq []*FlatNode) []int {
	ids := make([]int, len(seq))
	for i, n := range seq {
		ids[i] = n.ID
	}
	return ids
}

func flatLevels(seq []*FlatNode) []int {
	levels := make([]int, len(seq))
	for i, n := range seq {
		levels[i] = n.Level
	}
	return levels
}

func flatPositions(seq []*FlatNode) []int {
	positions := make([]int, len(seq))
	for i, n := range seq {
		positions[i] = n.Position
	}
	return positions
}

func nodeIDs(nodes []*Node) []int {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// idTree is a compact constructor for expected structures
func idTree(id int, children ...*IDNode) *IDNode {
	return &IDNode{ID: id, Children: children}
}
