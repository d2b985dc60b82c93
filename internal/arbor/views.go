package arbor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Project-Sylos/Arbor/internal/tree"
)

// View is a server-side flattened tree of one collection. It is mutated by
// the incremental tree operations instead of being rebuilt per request.
type View struct {
	ID         string           `json:"id"`
	Collection string           `json:"collection"`
	SortKey    string           `json:"sortKey,omitempty"`
	Ascending  bool             `json:"ascending,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	Nodes      []*tree.FlatNode `json:"nodes"`
}

// snapshot copies the view header. Node sequences are replaced, never
// edited, once stored in a view, so the slice can be shared.
func (v *View) snapshot() *View {
	c := *v
	return &c
}

// OpenView flattens a collection into a new view
func (a *Arbor) OpenView(collection string) (*View, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	nodes, err := a.buildFlat(collection)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	view := &View{
		ID:         uuid.NewString(),
		Collection: collection,
		CreatedAt:  now,
		UpdatedAt:  now,
		Nodes:      nodes,
	}
	a.views[view.ID] = view

	a.log.WithFields(logrus.Fields{
		"collection": collection,
		"view":       view.ID,
		"nodes":      len(nodes),
	}).Debug("Opened view")
	return view.snapshot(), nil
}

// GetView returns the current state of a view
func (a *Arbor) GetView(id string) (*View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	view, ok := a.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	return view.snapshot(), nil
}

// CloseView discards a view
func (a *Arbor) CloseView(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.views[id]; !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	delete(a.views, id)
	return nil
}

// ViewRemove removes nodes from a view only, by item id or node id. The
// store is not touched.
func (a *Arbor) ViewRemove(id string, ids []int, byItemID bool) (*View, error) {
	return a.mutateView(id, func(v *View) error {
		v.Nodes = tree.RemoveNodesFromFlatTreeByItemID(v.Nodes, ids, byItemID)
		return nil
	})
}

// ViewSort sorts a view by an item property. A sorted view is a flat list:
// every node sits at level 0.
func (a *Arbor) ViewSort(id, property string, ascending bool) (*View, error) {
	if property == "" {
		return nil, fmt.Errorf("sort property cannot be empty")
	}
	return a.mutateView(id, func(v *View) error {
		v.Nodes = tree.SortTree(v.Nodes, property, ascending)
		v.SortKey = property
		v.Ascending = ascending
		return nil
	})
}

// ViewExpand expands or collapses one node of a view
func (a *Arbor) ViewExpand(id string, nodeID int, expanded bool) (*View, error) {
	return a.mutateView(id, func(v *View) error {
		v.Nodes = tree.SetExpanded(v.Nodes, nodeID, expanded)
		return nil
	})
}

// ViewStructure returns the hierarchy a view currently describes
func (a *Arbor) ViewStructure(id string) ([]*tree.IDNode, error) {
	view, err := a.GetView(id)
	if err != nil {
		return nil, err
	}
	structure := tree.MakeTreeFromFlatTree(view.Nodes)
	if structure == nil {
		structure = []*tree.IDNode{}
	}
	return structure, nil
}

func (a *Arbor) mutateView(id string, fn func(v *View) error) (*View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	view, ok := a.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	next := view.snapshot()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now()
	a.views[id] = next
	return next.snapshot(), nil
}

// updateViews applies fn to every view of a collection. a.mu must be held.
func (a *Arbor) updateViews(collection string, fn func(v *View) error) error {
	for id, view := range a.views {
		if view.Collection != collection {
			continue
		}
		next := view.snapshot()
		if err := fn(next); err != nil {
			return fmt.Errorf("failed to update view %s: %w", id, err)
		}
		next.UpdatedAt = time.Now()
		a.views[id] = next
	}
	return nil
}

// rebuildViews re-flattens every view of a collection from the store,
// keeping expansion state by node id and re-applying a view's sort.
// a.mu must be held.
func (a *Arbor) rebuildViews(collection string) error {
	hasViews := false
	for _, view := range a.views {
		if view.Collection == collection {
			hasViews = true
			break
		}
	}
	if !hasViews {
		return nil
	}

	return a.updateViews(collection, func(v *View) error {
		nodes, err := a.buildFlat(collection)
		if err != nil {
			return err
		}
		tree.CarryExpansion(v.Nodes, nodes)
		if v.SortKey != "" {
			nodes = tree.SortTree(nodes, v.SortKey, v.Ascending)
		}
		v.Nodes = nodes
		return nil
	})
}
