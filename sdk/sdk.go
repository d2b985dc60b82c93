package sdk

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Project-Sylos/Arbor/internal/arbor"
	"github.com/Project-Sylos/Arbor/internal/config"
	"github.com/Project-Sylos/Arbor/internal/logging"
	"github.com/Project-Sylos/Arbor/internal/tree"
	"github.com/Project-Sylos/Arbor/internal/types"
)

// Arbor is the public SDK interface to the tree service.
// This wraps the internal implementation to provide a clean public API
type Arbor struct {
	impl   *arbor.Arbor
	logger *logrus.Logger
}

// New creates a new Arbor instance using the specified config file
func New(configPath string) (*Arbor, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(cfg, nil)
}

// NewWithDefaults creates a new Arbor instance using default configuration
func NewWithDefaults() (*Arbor, error) {
	cfg := config.DefaultConfig()
	return NewWithConfig(&cfg, nil)
}

// NewWithConfig creates a new Arbor instance from an in-memory configuration.
// A nil logger is built from cfg.Log and writes to stderr.
func NewWithConfig(cfg *Config, logger *logrus.Logger) (*Arbor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		l, err := logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
	}

	impl, err := arbor.New(cfg, logging.Component(logger, "arbor"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Arbor: %w", err)
	}

	return &Arbor{
		impl:   impl,
		logger: logger,
	}, nil
}

// Logger returns the logger the instance writes to
func (a *Arbor) Logger() *logrus.Logger {
	return a.logger
}

// Close closes the store. Always call this during graceful shutdown.
func (a *Arbor) Close() error {
	return a.impl.Close()
}

// GetConfig returns the current configuration
func (a *Arbor) GetConfig() Config {
	return a.impl.Config()
}

// Options returns the tree field names used for a collection
func (a *Arbor) Options(collection string) Options {
	return a.impl.Options(collection)
}

// Health pings the store and counts open views
func (a *Arbor) Health(ctx context.Context) (Health, error) {
	return a.impl.Health(ctx)
}

// Collections lists every non-empty collection
func (a *Arbor) Collections() ([]CollectionInfo, error) {
	return a.impl.Collections()
}

// ListItems returns the items of a collection
func (a *Arbor) ListItems(collection string) ([]*Item, error) {
	return a.impl.ListItems(collection)
}

// GetItem returns one item of a collection
func (a *Arbor) GetItem(collection string, id int) (*Item, error) {
	return a.impl.GetItem(collection, id)
}

// AddItems inserts or replaces items
func (a *Arbor) AddItems(collection string, items []*Item) error {
	return a.impl.AddItems(collection, items)
}

// DeleteItems removes items, promoting their children
func (a *Arbor) DeleteItems(collection string, ids []int) (int, error) {
	return a.impl.DeleteItems(collection, ids)
}

// Collection reports the item count of one collection
func (a *Arbor) Collection(collection string) (CollectionInfo, error) {
	return a.impl.Collection(collection)
}

// DropCollection removes every item of one collection and closes its views
func (a *Arbor) DropCollection(collection string) (int, error) {
	return a.impl.DropCollection(collection)
}

// Reset clears every collection and closes all views
func (a *Arbor) Reset() error {
	return a.impl.Reset()
}

// Seed fills a collection with generated items
func (a *Arbor) Seed(collection string) (int, error) {
	return a.impl.Seed(collection)
}

// SortedTree returns the nested tree of a collection
func (a *Arbor) SortedTree(collection string) ([]*Node, error) {
	return a.impl.SortedTree(collection)
}

// FlatTree returns the flattened tree of a collection. Treat it as read-only.
func (a *Arbor) FlatTree(collection string) ([]*FlatNode, error) {
	return a.impl.FlatTree(collection)
}

// Annotations returns level and tree_weight per reachable item
func (a *Arbor) Annotations(collection string) ([]Annotation, error) {
	return a.impl.Annotations(collection)
}

// Reindex stores level and tree_weight on every item
func (a *Arbor) Reindex(collection string) (int, error) {
	return a.impl.Reindex(collection)
}

// MoveBranches moves branches to a new parent or after a sibling
func (a *Arbor) MoveBranches(collection string, ids []int, parentID, olderSiblingID int) ([]*IDNode, error) {
	return a.impl.MoveBranches(collection, ids, parentID, olderSiblingID)
}

// ApplyStructure rewrites parent and weight fields from a structure tree
func (a *Arbor) ApplyStructure(collection string, structure []*IDNode) error {
	return a.impl.ApplyStructure(collection, structure)
}

// OpenView creates a server-side flat view of a collection
func (a *Arbor) OpenView(collection string) (*View, error) {
	return a.impl.OpenView(collection)
}

// GetView returns the current state of a view
func (a *Arbor) GetView(id string) (*View, error) {
	return a.impl.GetView(id)
}

// CloseView discards a view
func (a *Arbor) CloseView(id string) error {
	return a.impl.CloseView(id)
}

// ViewRemove removes nodes from a view only
func (a *Arbor) ViewRemove(id string, ids []int, byItemID bool) (*View, error) {
	return a.impl.ViewRemove(id, ids, byItemID)
}

// ViewSort sorts a view by an item property
func (a *Arbor) ViewSort(id, property string, ascending bool) (*View, error) {
	return a.impl.ViewSort(id, property, ascending)
}

// ViewExpand expands or collapses a view node
func (a *Arbor) ViewExpand(id string, nodeID int, expanded bool) (*View, error) {
	return a.impl.ViewExpand(id, nodeID, expanded)
}

// ViewStructure returns the hierarchy a view describes
func (a *Arbor) ViewStructure(id string) ([]*IDNode, error) {
	return a.impl.ViewStructure(id)
}

// Re-export types for convenience
type (
	Config         = types.Config
	TreeKeys       = types.TreeKeys
	Record         = types.Record
	Item           = types.Item
	CollectionInfo = types.CollectionInfo
	APIResponse    = types.APIResponse

	Options              = tree.Options
	Node                 = tree.Node
	IDNode               = tree.IDNode
	FlatNode             = tree.FlatNode
	Annotation           = tree.Annotation
	CyclicHierarchyError = tree.CyclicHierarchyError

	View   = arbor.View
	Health = arbor.Health
)

// Re-export errors
var (
	ErrInvalidInsertion = tree.ErrInvalidInsertion
	ErrCyclicHierarchy  = tree.ErrCyclicHierarchy
	ErrUnknownNode      = tree.ErrUnknownNode

	ErrInvalidCollection = arbor.ErrInvalidCollection
	ErrItemNotFound      = arbor.ErrItemNotFound
	ErrViewNotFound      = arbor.ErrViewNotFound
	ErrInvalidItems      = arbor.ErrInvalidItems
	ErrInvalidMove       = arbor.ErrInvalidMove
)

// Re-export the engine so callers can arrange their own records without a store
var (
	NewItem                         = types.NewItem
	MakeSortedTree                  = tree.MakeSortedTree
	MakeFlatTree                    = tree.MakeFlatTree
	MakePartialFlatTree             = tree.MakePartialFlatTree
	MakeTreeFromFlatTree            = tree.MakeTreeFromFlatTree
	BuildBranchFromFlatTree         = tree.BuildBranchFromFlatTree
	Annotate                        = tree.Annotate
	InjectFlatNodeInformation       = tree.InjectFlatNodeInformation
	GetFlatItemsFromTree            = tree.GetFlatItemsFromTree
	GetBranchesFromTree             = tree.GetBranchesFromTree
	GetTreeWithoutSelection         = tree.GetTreeWithoutSelection
	InsertBranchesIntoTree          = tree.InsertBranchesIntoTree
	RemoveNodesFromFlatTreeByItemID = tree.RemoveNodesFromFlatTreeByItemID
	ConcatNewNodesFromItems         = tree.ConcatNewNodesFromItems
	SortTree                        = tree.SortTree
	SetExpanded                     = tree.SetExpanded
	StripTree                       = tree.StripTree
	ApplyIDTree                     = tree.ApplyIDTree
	CheckHierarchy                  = tree.CheckHierarchy
)

// MakeTree builds a tree of any node type from records; see tree.MakeTree
func MakeTree[N any](items []Record, parentKey string, factory func(item Record, children []N) N) []N {
	return tree.MakeTree(items, parentKey, factory)
}
