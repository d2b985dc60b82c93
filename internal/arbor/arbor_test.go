package arbor

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Project-Sylos/Arbor/internal/config"
	"github.com/Project-Sylos/Arbor/internal/tree"
	"github.com/Project-Sylos/Arbor/internal/types"
)

const agenda = "agenda"

func newTestArbor(t *testing.T) *Arbor {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Store = types.StoreConfig{Driver: types.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "arbor.db")}
	cfg.Seed = types.SeedConfig{MaxDepth: 2, Roots: 3, MinChildren: 1, MaxChildren: 2, Seed: 1}

	a, err := New(&cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func item(id, parent, weight int, title string) *types.Item {
	fields := map[string]any{"title": title, "weight": weight}
	if parent != 0 {
		fields["parent_id"] = parent
	}
	return types.NewItem(id, fields)
}

// agendaItems:
//
//	1 Opening
//	2 Reports
//	  3 Treasurer
//	  4 Secretary
//	5 Adjourn
func agendaItems() []*types.Item {
	return []*types.Item{
		item(5, 0, 3, "Adjourn"),
		item(4, 2, 2, "Secretary"),
		item(3, 2, 1, "Treasurer"),
		item(2, 0, 2, "Reports"),
		item(1, 0, 1, "Opening"),
	}
}

func seeded(t *testing.T) *Arbor {
	t.Helper()
	a := newTestArbor(t)
	require.NoError(t, a.AddItems(agenda, agendaItems()))
	return a
}

func ids(nodes []*tree.FlatNode) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func levels(nodes []*tree.FlatNode) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Level
	}
	return out
}

func seen(nodes []*tree.FlatNode) []bool {
	out := make([]bool, len(nodes))
	for i, n := range nodes {
		out[i] = n.IsSeen
	}
	return out
}

func parentOf(t *testing.T, a *Arbor, id int) int {
	t.Helper()
	it, err := a.GetItem(agenda, id)
	require.NoError(t, err)
	p, _ := types.AsInt(it.Fields["parent_id"])
	return p
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	cfg := config.DefaultConfig()
	cfg.Store.Driver = "oracle"
	_, err = New(&cfg, nil)
	assert.Error(t, err)
}

func TestItems(t *testing.T) {
	a := seeded(t)

	items, err := a.ListItems(agenda)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, 1, items[0].ID, "unannotated items are listed by id")

	it, err := a.GetItem(agenda, 3)
	require.NoError(t, err)
	assert.Equal(t, "Treasurer", it.Title())

	_, err = a.GetItem(agenda, 42)
	assert.ErrorIs(t, err, ErrItemNotFound)

	empty, err := a.ListItems("minutes")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = a.ListItems("bad name!")
	assert.ErrorIs(t, err, ErrInvalidCollection)

	infos, err := a.Collections()
	require.NoError(t, err)
	assert.Equal(t, []types.CollectionInfo{{Name: agenda, ItemCount: 5}}, infos)
}

func TestAddItemsRejectsCycles(t *testing.T) {
	a := seeded(t)

	err := a.AddItems(agenda, []*types.Item{item(2, 3, 2, "Reports")})
	var cyc *tree.CyclicHierarchyError
	require.ErrorIs(t, err, ErrInvalidItems)
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []int{2, 3}, cyc.IDs)

	assert.Equal(t, 0, parentOf(t, a, 2), "rejected batch is not stored")

	err = a.AddItems(agenda, []*types.Item{item(9, 0, 1, "x"), item(9, 0, 2, "y")})
	assert.ErrorIs(t, err, ErrInvalidItems)
}

func TestTrees(t *testing.T) {
	a := seeded(t)

	nested, err := a.SortedTree(agenda)
	require.NoError(t, err)
	assert.Equal(t, []*tree.IDNode{
		{ID: 1},
		{ID: 2, Children: []*tree.IDNode{{ID: 3}, {ID: 4}}},
		{ID: 5},
	}, tree.StripTree(nested))

	flat, err := a.FlatTree(agenda)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(flat))
	assert.Equal(t, []int{0, 0, 1, 1, 0}, levels(flat))

	annotations, err := a.Annotations(agenda)
	require.NoError(t, err)
	require.Len(t, annotations, 5)
	assert.Equal(t, 3, annotations[2].RecordID)
	assert.Equal(t, 1, annotations[2].Level)
	assert.Equal(t, 3, annotations[2].TreeWeight)

	empty, err := a.FlatTree("minutes")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestConcurrentFlatTree(t *testing.T) {
	a := seeded(t)

	var wg sync.WaitGroup
	results := make([][]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			flat, err := a.FlatTree(agenda)
			if err == nil {
				results[i] = ids(flat)
			}
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, []int{1, 2, 3, 4, 5}, r)
	}
}

func TestReindex(t *testing.T) {
	a := seeded(t)
	require.NoError(t, a.AddItems(agenda, []*types.Item{item(9, 77, 1, "Orphan")}))

	n, err := a.Reindex(agenda)
	require.NoError(t, err)
	assert.Equal(t, 5, n, "the orphan is not reachable")

	items, err := a.ListItems(agenda)
	require.NoError(t, err)
	got := make([]int, len(items))
	for i, it := range items {
		got[i] = it.ID
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 9}, got)

	treasurer, err := a.GetItem(agenda, 3)
	require.NoError(t, err)
	level, _ := types.AsInt(treasurer.Fields[types.FieldLevel])
	weight, _ := types.AsInt(treasurer.Fields[types.FieldTreeWeight])
	assert.Equal(t, 1, level)
	assert.Equal(t, 3, weight)

	orphan, err := a.GetItem(agenda, 9)
	require.NoError(t, err)
	_, annotated := orphan.Fields[types.FieldTreeWeight]
	assert.False(t, annotated)
}

func TestDeleteItemsPromotesChildren(t *testing.T) {
	a := seeded(t)
	view, err := a.OpenView(agenda)
	require.NoError(t, err)

	deleted, err := a.DeleteItems(agenda, []int{2, 42})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	assert.Equal(t, 0, parentOf(t, a, 3))
	assert.Equal(t, 0, parentOf(t, a, 4))

	got, err := a.GetView(view.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 5}, ids(got.Nodes))
	assert.Equal(t, []int{0, 0, 0, 0}, levels(got.Nodes))
	for i, n := range got.Nodes {
		assert.Equal(t, i, n.Position)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(view.Nodes), "earlier snapshots are unchanged")
}

func TestDeleteNestedChain(t *testing.T) {
	a := newTestArbor(t)
	require.NoError(t, a.AddItems(agenda, []*types.Item{
		item(1, 0, 1, "a"), item(2, 1, 1, "b"), item(3, 2, 1, "c"), item(4, 3, 1, "d"),
	}))

	_, err := a.DeleteItems(agenda, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, parentOf(t, a, 4))
}

func TestViews(t *testing.T) {
	a := seeded(t)

	view, err := a.OpenView(agenda)
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(view.Nodes))

	collapsed, err := a.ViewExpand(view.ID, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false, true}, seen(collapsed.Nodes))

	structure, err := a.ViewStructure(view.ID)
	require.NoError(t, err)
	assert.Equal(t, []*tree.IDNode{
		{ID: 1},
		{ID: 2, Children: []*tree.IDNode{{ID: 3}, {ID: 4}}},
		{ID: 5},
	}, structure)

	removed, err := a.ViewRemove(view.ID, []int{4}, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 5}, ids(removed.Nodes))
	stored, err := a.ListItems(agenda)
	require.NoError(t, err)
	assert.Len(t, stored, 5, "view removal leaves the store alone")

	sorted, err := a.ViewSort(view.ID, "title", true)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 1, 2, 3}, ids(sorted.Nodes))
	assert.Equal(t, "title", sorted.SortKey)
	assert.Equal(t, []int{0, 0, 0, 0}, levels(sorted.Nodes))

	_, err = a.ViewSort(view.ID, "", true)
	assert.Error(t, err)

	require.NoError(t, a.CloseView(view.ID))
	_, err = a.GetView(view.ID)
	assert.ErrorIs(t, err, ErrViewNotFound)
	assert.ErrorIs(t, a.CloseView(view.ID), ErrViewNotFound)
	_, err = a.ViewExpand("missing", 1, true)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestAddItemsUpdatesViews(t *testing.T) {
	a := seeded(t)
	view, err := a.OpenView(agenda)
	require.NoError(t, err)
	_, err = a.ViewExpand(view.ID, 2, false)
	require.NoError(t, err)

	// a new root is appended without rebuilding
	require.NoError(t, a.AddItems(agenda, []*types.Item{item(6, 0, 0, "Guest speaker")}))
	got, err := a.GetView(view.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids(got.Nodes))
	assert.Equal(t, 5, got.Nodes[5].Position)

	// a nested item rebuilds from the store and keeps node 2 collapsed
	require.NoError(t, a.AddItems(agenda, []*types.Item{item(7, 1, 1, "Welcome")}))
	got, err = a.GetView(view.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 1, 7, 2, 3, 4, 5}, ids(got.Nodes))
	assert.Equal(t, []bool{true, true, true, true, false, false, true}, seen(got.Nodes))
	assert.True(t, got.Nodes[1].IsExpanded)

	// a sorted view stays sorted when a root is appended
	sorted, err := a.OpenView(agenda)
	require.NoError(t, err)
	_, err = a.ViewSort(sorted.ID, "title", true)
	require.NoError(t, err)
	require.NoError(t, a.AddItems(agenda, []*types.Item{item(8, 0, 9, "Apologies")}))
	got, err = a.GetView(sorted.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 8, 6, 1, 2, 4, 3, 7}, ids(got.Nodes))
	assert.Equal(t, "title", got.SortKey)
	for i, n := range got.Nodes {
		assert.Equal(t, i, n.Position)
		assert.Zero(t, n.Level)
	}
}

func TestMoveBranches(t *testing.T) {
	tests := []struct {
		name    string
		ids     []int
		parent  int
		sibling int
		want    []*tree.IDNode
		err     error
	}{
		{
			name:    "under parent after sibling",
			ids:     []int{5},
			parent:  2,
			sibling: 3,
			want: []*tree.IDNode{
				{ID: 1},
				{ID: 2, Children: []*tree.IDNode{{ID: 3}, {ID: 5}, {ID: 4}}},
			},
		},
		{
			name:    "after a root",
			ids:     []int{2},
			sibling: 5,
			want: []*tree.IDNode{
				{ID: 1},
				{ID: 5},
				{ID: 2, Children: []*tree.IDNode{{ID: 3}, {ID: 4}}},
			},
		},
		{
			name:   "last under a leaf",
			ids:    []int{3, 4},
			parent: 1,
			want: []*tree.IDNode{
				{ID: 1, Children: []*tree.IDNode{{ID: 3}, {ID: 4}}},
				{ID: 2},
				{ID: 5},
			},
		},
		{name: "into itself", ids: []int{2}, parent: 3, err: ErrInvalidMove},
		{name: "no target", ids: []int{2}, err: ErrInvalidMove},
		{name: "unknown item", ids: []int{42}, parent: 1, err: ErrItemNotFound},
		{name: "empty selection", parent: 1, err: ErrInvalidMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := seeded(t)
			structure, err := a.MoveBranches(agenda, tt.ids, tt.parent, tt.sibling)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, structure)

			// the store now produces the same structure
			nested, err := a.SortedTree(agenda)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tree.StripTree(nested))
		})
	}
}

func TestApplyStructure(t *testing.T) {
	a := seeded(t)
	view, err := a.OpenView(agenda)
	require.NoError(t, err)

	structure := []*tree.IDNode{
		{ID: 5, Children: []*tree.IDNode{{ID: 1}}},
		{ID: 2, Children: []*tree.IDNode{{ID: 4}, {ID: 3}}},
	}
	require.NoError(t, a.ApplyStructure(agenda, structure))
	assert.Equal(t, 5, parentOf(t, a, 1))

	got, err := a.GetView(view.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 1, 2, 4, 3}, ids(got.Nodes))

	err = a.ApplyStructure(agenda, []*tree.IDNode{{ID: 99}})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSeedAndReset(t *testing.T) {
	a := seeded(t)

	n, err := a.Seed(agenda)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 6, "three roots with at least one child each")

	it, err := a.GetItem(agenda, 6)
	require.NoError(t, err, "seeded ids continue after the highest id")
	assert.NotEmpty(t, it.Title())

	flat, err := a.FlatTree(agenda)
	require.NoError(t, err)
	assert.Len(t, flat, 5+n)

	view, err := a.OpenView(agenda)
	require.NoError(t, err)
	require.NoError(t, a.Reset())
	_, err = a.GetView(view.ID)
	assert.ErrorIs(t, err, ErrViewNotFound)

	infos, err := a.Collections()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestConcurrentSeed(t *testing.T) {
	a := newTestArbor(t)

	var wg sync.WaitGroup
	counts := make([]int, 4)
	errs := make([]error, len(counts))
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i], errs[i] = a.Seed(agenda)
		}(i)
	}
	wg.Wait()

	total := 0
	for i, n := range counts {
		require.NoError(t, errs[i])
		total += n
	}
	info, err := a.Collection(agenda)
	require.NoError(t, err)
	assert.Equal(t, total, info.ItemCount, "no seeded batch overwrote another")
}

func TestDropCollection(t *testing.T) {
	a := seeded(t)
	require.NoError(t, a.AddItems("minutes", []*types.Item{item(1, 0, 1, "Draft")}))
	view, err := a.OpenView(agenda)
	require.NoError(t, err)
	other, err := a.OpenView("minutes")
	require.NoError(t, err)

	info, err := a.Collection(agenda)
	require.NoError(t, err)
	assert.Equal(t, types.CollectionInfo{Name: agenda, ItemCount: 5}, info)

	n, err := a.DropCollection(agenda)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = a.GetView(view.ID)
	assert.ErrorIs(t, err, ErrViewNotFound)
	_, err = a.GetView(other.ID)
	assert.NoError(t, err, "views of other collections stay open")

	info, err = a.Collection(agenda)
	require.NoError(t, err)
	assert.Zero(t, info.ItemCount)
	flat, err := a.FlatTree(agenda)
	require.NoError(t, err)
	assert.Empty(t, flat)

	_, err = a.DropCollection(".bad")
	assert.ErrorIs(t, err, ErrInvalidCollection)
}

func TestConfigCopy(t *testing.T) {
	a := newTestArbor(t)
	cfg := a.Config()
	cfg.Collections["x"] = types.TreeKeys{WeightKey: "rank"}
	assert.NotContains(t, a.Config().Collections, "x")
	assert.Equal(t, "weight", a.Options("agenda").WeightKey)
}
