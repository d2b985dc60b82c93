package tree

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// Annotation is the pre-order placement of one record
type Annotation struct {
	RecordID   int `json:"record_id"`
	Level      int `json:"level"`
	TreeWeight int `json:"tree_weight"`

	record Record
}

// buildFrame is one pending node of the iterative post-order build
type buildFrame[N any] struct {
	item     Record
	children []Record
	next     int
	built    []N
}

// groupByParent maps parent id to its children, keeping input order.
// Group 0 holds the roots.
func groupByParent(items []Record, parentKey string) map[int][]Record {
	groups := make(map[int][]Record)
	for _, item := range items {
		parent := parentOf(item, parentKey)
		groups[parent] = append(groups[parent], item)
	}
	return groups
}

// childrenOf returns the group of a record. Id 0 is the root marker and can
// never own children.
func childrenOf(groups map[int][]Record, item Record) []Record {
	if item.GetID() == 0 {
		return nil
	}
	return groups[item.GetID()]
}

// MakeTree groups items by the field named parentKey and assembles the
// hierarchy bottom-up, letting factory decide the node shape. Children are
// passed to factory in input order, nil for leaves.
//
// Records that cannot be reached from a root (dangling parent references or
// members of a cycle) are left out. Use CheckHierarchy to detect cycles.
func MakeTree[N any](items []Record, parentKey string, factory func(item Record, children []N) N) []N {
	groups := groupByParent(items, parentKey)

	var out []N
	var stack []buildFrame[N]
	for _, root := range groups[0] {
		stack = append(stack, buildFrame[N]{item: root, children: childrenOf(groups, root)})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.children) {
				child := top.children[top.next]
				top.next++
				stack = append(stack, buildFrame[N]{item: child, children: childrenOf(groups, child)})
				continue
			}

			node := factory(top.item, top.built)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				out = append(out, node)
			} else {
				parent := &stack[len(stack)-1]
				parent.built = append(parent.built, node)
			}
		}
	}
	return out
}

// MakeSortedTree sorts items by weight and builds the nested tree.
// Sibling order is weight order; equal weights keep their input order.
func MakeSortedTree(items []Record, opts Options) ([]*Node, error) {
	opts = opts.withDefaults()
	if err := CheckHierarchy(items, opts.ParentKey); err != nil {
		return nil, err
	}
	return MakeTree(sortByWeight(items, opts.WeightKey), opts.ParentKey, newNode), nil
}

func newNode(item Record, children []*Node) *Node {
	return &Node{
		ID:       item.GetID(),
		Name:     item.Title(),
		Item:     item,
		Children: children,
	}
}

// sortByWeight returns a stably sorted copy of items
func sortByWeight(items []Record, weightKey string) []Record {
	c := newComparer()
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		wa, _ := a.Get(weightKey)
		wb, _ := b.Get(weightKey)
		return c.compare(wa, wb)
	})
	return sorted
}

// Annotate computes the depth and a global pre-order sequence number
// (starting at 1) for every reachable record without touching the records.
// Annotations are returned in pre-order.
func Annotate(items []Record, opts Options) ([]Annotation, error) {
	opts = opts.withDefaults()
	if err := CheckHierarchy(items, opts.ParentKey); err != nil {
		return nil, err
	}
	groups := groupByParent(sortByWeight(items, opts.WeightKey), opts.ParentKey)

	type pending struct {
		item  Record
		level int
	}

	annotations := make([]Annotation, 0, len(items))
	roots := groups[0]
	stack := make([]pending, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, pending{item: roots[i]})
	}

	weight := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		weight++
		annotations = append(annotations, Annotation{
			RecordID:   p.item.GetID(),
			Level:      p.level,
			TreeWeight: weight,
			record:     p.item,
		})

		children := childrenOf(groups, p.item)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, pending{item: children[i], level: p.level + 1})
		}
	}
	return annotations, nil
}

// InjectFlatNodeInformation writes "level" and "tree_weight" onto every
// reachable record. It mutates the records; Annotate is the pure variant.
func InjectFlatNodeInformation(items []Record, opts Options) error {
	annotations, err := Annotate(items, opts)
	if err != nil {
		return err
	}
	for _, a := range annotations {
		a.record.Set(types.FieldLevel, a.Level)
		a.record.Set(types.FieldTreeWeight, a.TreeWeight)
	}
	return nil
}

// CheckHierarchy reports a *CyclicHierarchyError naming every record that
// takes part in a parent reference cycle, including records that are their
// own parent. References to ids outside items are not cycles.
func CheckHierarchy(items []Record, parentKey string) error {
	if parentKey == "" {
		parentKey = types.DefaultParentKey
	}

	g := simple.NewDirectedGraph()
	for _, item := range items {
		if g.Node(int64(item.GetID())) == nil {
			g.AddNode(simple.Node(item.GetID()))
		}
	}

	var cyclic []int
	for _, item := range items {
		parent := parentOf(item, parentKey)
		switch {
		case parent == 0:
			continue
		case parent == item.GetID():
			cyclic = append(cyclic, parent)
			continue
		case g.Node(int64(parent)) == nil:
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(parent), simple.Node(item.GetID())))
	}

	if _, err := topo.Sort(g); err != nil {
		var unorderable topo.Unorderable
		if !errors.As(err, &unorderable) {
			return fmt.Errorf("failed to order hierarchy: %w", err)
		}
		for _, component := range unorderable {
			for _, n := range component {
				cyclic = append(cyclic, int(n.ID()))
			}
		}
	}

	if len(cyclic) == 0 {
		return nil
	}
	slices.Sort(cyclic)
	return &CyclicHierarchyError{IDs: slices.Compact(cyclic)}
}
