package arbor

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Project-Sylos/Arbor/internal/tree"
	"github.com/Project-Sylos/Arbor/internal/types"
)

func flatKey(collection string) string {
	return "flat/" + collection
}

// SortedTree builds the nested tree of a collection
func (a *Arbor) SortedTree(collection string) ([]*tree.Node, error) {
	items, err := a.ListItems(collection)
	if err != nil {
		return nil, err
	}
	nodes, err := tree.MakeSortedTree(types.Items(items), a.Options(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to build tree of %s: %w", collection, err)
	}
	if nodes == nil {
		nodes = []*tree.Node{}
	}
	return nodes, nil
}

// FlatTree flattens a collection. Concurrent requests for the same
// collection share one build; callers must treat the result as read-only.
func (a *Arbor) FlatTree(collection string) ([]*tree.FlatNode, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	v, err, shared := a.builds.Do(flatKey(collection), func() (any, error) {
		return a.buildFlat(collection)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		a.log.WithField("collection", collection).Debug("Shared flat tree build")
	}
	return v.([]*tree.FlatNode), nil
}

// buildFlat always builds a fresh sequence the caller may modify
func (a *Arbor) buildFlat(collection string) ([]*tree.FlatNode, error) {
	items, err := a.db.GetItems(collection)
	if err != nil {
		return nil, err
	}
	nodes, err := tree.MakeFlatTree(types.Items(items), a.Options(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to flatten %s: %w", collection, err)
	}
	if nodes == nil {
		nodes = []*tree.FlatNode{}
	}
	return nodes, nil
}

// Annotations computes level and tree_weight for every reachable item
// without writing them
func (a *Arbor) Annotations(collection string) ([]tree.Annotation, error) {
	items, err := a.ListItems(collection)
	if err != nil {
		return nil, err
	}
	annotations, err := tree.Annotate(types.Items(items), a.Options(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to annotate %s: %w", collection, err)
	}
	if annotations == nil {
		annotations = []tree.Annotation{}
	}
	return annotations, nil
}

// Reindex writes level and tree_weight into every item of a collection and
// returns how many items were annotated. Items no longer reachable from a
// root lose stale annotations.
func (a *Arbor) Reindex(collection string) (int, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.db.GetItems(collection)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		delete(item.Fields, types.FieldLevel)
		delete(item.Fields, types.FieldTreeWeight)
	}
	if err := tree.InjectFlatNodeInformation(types.Items(items), a.Options(collection)); err != nil {
		return 0, fmt.Errorf("failed to annotate %s: %w", collection, err)
	}

	annotated := 0
	for _, item := range items {
		if _, ok := item.Fields[types.FieldTreeWeight]; ok {
			annotated++
		}
	}

	if err := a.db.ReplaceCollection(collection, items); err != nil {
		return 0, err
	}
	a.builds.Forget(flatKey(collection))

	a.log.WithFields(logrus.Fields{
		"collection": collection,
		"annotated":  annotated,
		"total":      len(items),
	}).Info("Reindexed collection")
	return annotated, nil
}

// MoveBranches moves the branches rooted at ids (with their descendants) to
// a new place: under parentID after olderSiblingID (or last), or with
// parentID 0 right after olderSiblingID. The new hierarchy is written back
// to the store as parent and weight fields and returned.
func (a *Arbor) MoveBranches(collection string, ids []int, parentID, olderSiblingID int) ([]*tree.IDNode, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no items selected", ErrInvalidMove)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.db.GetItems(collection)
	if err != nil {
		return nil, err
	}
	opts := a.Options(collection)
	records := types.Items(items)

	byID := make(map[int]tree.Record, len(records))
	for _, r := range records {
		byID[r.GetID()] = r
	}
	selection := make([]tree.Record, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
		}
		selection = append(selection, r)
	}

	current, err := tree.MakeSortedTree(records, opts)
	if err != nil {
		return nil, err
	}
	branches := tree.GetBranchesFromTree(current, selection)
	rest := tree.GetTreeWithoutSelection(current, selection)

	moved, placed, err := tree.InsertBranches(rest, branches, parentID, olderSiblingID)
	if err != nil {
		if errors.Is(err, tree.ErrInvalidInsertion) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMove, err)
		}
		return nil, err
	}
	if !placed {
		return nil, fmt.Errorf("%w: target parent %d / sibling %d not found outside the moved branches", ErrInvalidMove, parentID, olderSiblingID)
	}

	structure := tree.StripTree(moved)
	if err := a.applyStructure(collection, items, structure); err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"collection": collection,
		"branches":   len(branches),
		"parent":     parentID,
		"sibling":    olderSiblingID,
	}).Info("Moved branches")
	return structure, nil
}

// ApplyStructure rewrites parent and weight fields of a collection from a
// structure tree, typically one a client produced by reordering a view
func (a *Arbor) ApplyStructure(collection string, structure []*tree.IDNode) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.db.GetItems(collection)
	if err != nil {
		return err
	}
	if err := a.applyStructure(collection, items, structure); err != nil {
		return err
	}
	a.log.WithField("collection", collection).Info("Applied structure")
	return nil
}

// applyStructure expects a.mu to be held
func (a *Arbor) applyStructure(collection string, items []*types.Item, structure []*tree.IDNode) error {
	if err := tree.ApplyIDTree(structure, types.Items(items), a.Options(collection)); err != nil {
		if errors.Is(err, tree.ErrUnknownNode) {
			return fmt.Errorf("%w: %w", ErrItemNotFound, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidItems, err)
	}
	if err := a.db.InsertItems(collection, items); err != nil {
		return err
	}
	a.builds.Forget(flatKey(collection))
	return a.rebuildViews(collection)
}
