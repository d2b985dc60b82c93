// Package arbor is the service core: collections of records kept in the
// store, tree builds over them, and server-side flat views that follow
// changes to their collection incrementally.
package arbor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/Project-Sylos/Arbor/internal/config"
	"github.com/Project-Sylos/Arbor/internal/db"
	"github.com/Project-Sylos/Arbor/internal/generator"
	"github.com/Project-Sylos/Arbor/internal/logging"
	"github.com/Project-Sylos/Arbor/internal/tree"
	"github.com/Project-Sylos/Arbor/internal/types"
)

var collectionName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Arbor serves trees over the collections of one store
type Arbor struct {
	db  *db.DB
	cfg *types.Config
	log *logrus.Entry

	// mu serializes mutations so store writes and view updates stay in step
	mu     sync.Mutex
	views  map[string]*View
	builds singleflight.Group
}

// New opens the store named by cfg
func New(cfg *types.Config, logger *logrus.Entry) (*Arbor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if err := config.Normalize(cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if logger == nil {
		logger = logging.Component(nil, "arbor")
	}

	database, err := db.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"driver": cfg.Store.Driver,
		"path":   cfg.Store.DBPath,
	}).Debug("Opened store")

	return &Arbor{
		db:    database,
		cfg:   cfg,
		log:   logger,
		views: make(map[string]*View),
	}, nil
}

// NewFromFile loads the configuration at configPath and opens its store
func NewFromFile(configPath string, logger *logrus.Entry) (*Arbor, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(cfg, logger)
}

// Close closes the store. Open views are dropped.
func (a *Arbor) Close() error {
	a.mu.Lock()
	a.views = make(map[string]*View)
	a.mu.Unlock()
	return a.db.Close()
}

// Config returns a copy of the active configuration
func (a *Arbor) Config() types.Config {
	cfg := *a.cfg
	cfg.Collections = make(map[string]types.TreeKeys, len(a.cfg.Collections))
	for name, keys := range a.cfg.Collections {
		cfg.Collections[name] = keys
	}
	return cfg
}

// Health is the liveness report of a running service
type Health struct {
	Store     string `json:"store"`
	OpenViews int    `json:"open_views"`
}

// Health pings the store and counts open views
func (a *Arbor) Health(ctx context.Context) (Health, error) {
	if err := a.db.Ping(ctx); err != nil {
		return Health{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return Health{Store: a.db.Driver(), OpenViews: len(a.views)}, nil
}

// Options returns the tree field names used for a collection
func (a *Arbor) Options(collection string) tree.Options {
	return tree.OptionsFromKeys(a.cfg.KeysFor(collection))
}

func checkCollection(collection string) error {
	if !collectionName.MatchString(collection) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return nil
}

// Collections lists every collection holding at least one item
func (a *Arbor) Collections() ([]types.CollectionInfo, error) {
	infos, err := a.db.Collections()
	if err != nil {
		return nil, err
	}
	if infos == nil {
		infos = []types.CollectionInfo{}
	}
	return infos, nil
}

// ListItems returns the items of a collection in stored order
func (a *Arbor) ListItems(collection string) ([]*types.Item, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	items, err := a.db.GetItems(collection)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*types.Item{}
	}
	return items, nil
}

// GetItem returns one item
func (a *Arbor) GetItem(collection string, id int) (*types.Item, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	item, err := a.db.GetItem(collection, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
		}
		return nil, err
	}
	return item, nil
}

// AddItems inserts or replaces items. The merged collection must stay free
// of parent cycles. Open views of the collection are updated: new root
// items are appended, anything else rebuilds the view keeping expansion.
func (a *Arbor) AddItems(collection string, items []*types.Item) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.db.GetItems(collection)
	if err != nil {
		return err
	}
	return a.addItems(collection, existing, items)
}

// addItems merges items into existing, the collection as stored. a.mu must
// be held.
func (a *Arbor) addItems(collection string, existing, items []*types.Item) error {
	opts := a.Options(collection)

	known := make(map[int]*types.Item, len(existing))
	for _, item := range existing {
		known[item.ID] = item
	}
	batch := make(map[int]bool, len(items))
	appendOnly := true
	for _, item := range items {
		if item == nil {
			return fmt.Errorf("%w: null item", ErrInvalidItems)
		}
		if batch[item.ID] {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidItems, item.ID)
		}
		batch[item.ID] = true
		if _, replaced := known[item.ID]; replaced || !isRoot(item, opts.ParentKey) {
			appendOnly = false
		}
		known[item.ID] = item
	}

	merged := make([]tree.Record, 0, len(known))
	for _, item := range known {
		merged = append(merged, item)
	}
	if err := tree.CheckHierarchy(merged, opts.ParentKey); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItems, err)
	}

	if err := a.db.InsertItems(collection, items); err != nil {
		return err
	}
	a.builds.Forget(flatKey(collection))

	a.log.WithFields(logrus.Fields{
		"collection": collection,
		"count":      len(items),
		"appendOnly": appendOnly,
	}).Info("Added items")

	if appendOnly {
		records := types.Items(items)
		return a.updateViews(collection, func(v *View) error {
			v.Nodes = tree.ConcatNewNodesFromItems(v.Nodes, records)
			if v.SortKey != "" {
				v.Nodes = tree.SortTree(v.Nodes, v.SortKey, v.Ascending)
			}
			return nil
		})
	}
	return a.rebuildViews(collection)
}

// DeleteItems removes items by id and returns how many existed. Children of
// a removed item move up to the removed item's parent, in the store and in
// open views, so nothing below a removed item disappears.
func (a *Arbor) DeleteItems(collection string, ids []int) (int, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.db.GetItems(collection)
	if err != nil {
		return 0, err
	}
	promoted := promoteChildren(items, ids, a.Options(collection).ParentKey)

	deleted, err := a.db.DeleteAndUpdate(collection, ids, promoted)
	if err != nil {
		return 0, err
	}
	a.builds.Forget(flatKey(collection))

	a.log.WithFields(logrus.Fields{
		"collection": collection,
		"deleted":    deleted,
		"promoted":   len(promoted),
	}).Info("Deleted items")

	err = a.updateViews(collection, func(v *View) error {
		v.Nodes = tree.RemoveNodesFromFlatTreeByItemID(v.Nodes, ids, true)
		return nil
	})
	return deleted, err
}

// Reset removes every item of every collection and closes all views
func (a *Arbor) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.db.DeleteAll(); err != nil {
		return err
	}
	a.views = make(map[string]*View)
	a.log.Info("Reset store")
	return nil
}

// Collection reports the item count of one collection. Collections exist
// implicitly, so an unknown name reports zero items.
func (a *Arbor) Collection(collection string) (types.CollectionInfo, error) {
	if err := checkCollection(collection); err != nil {
		return types.CollectionInfo{}, err
	}
	count, err := a.db.Count(collection)
	if err != nil {
		return types.CollectionInfo{}, err
	}
	return types.CollectionInfo{Name: collection, ItemCount: count}, nil
}

// DropCollection removes every item of one collection, closes its views and
// returns how many items were removed
func (a *Arbor) DropCollection(collection string) (int, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	deleted, err := a.db.DeleteCollection(collection)
	if err != nil {
		return 0, err
	}
	a.builds.Forget(flatKey(collection))
	for id, view := range a.views {
		if view.Collection == collection {
			delete(a.views, id)
		}
	}

	a.log.WithFields(logrus.Fields{
		"collection": collection,
		"deleted":    deleted,
	}).Info("Dropped collection")
	return deleted, nil
}

// Seed fills a collection with generated items numbered after the highest
// existing id and returns how many were added
func (a *Arbor) Seed(collection string) (int, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.db.GetItems(collection)
	if err != nil {
		return 0, err
	}
	firstID := 1
	for _, item := range existing {
		if item.ID >= firstID {
			firstID = item.ID + 1
		}
	}

	items, err := generator.Generate(a.cfg.Seed, a.cfg.KeysFor(collection), firstID)
	if err != nil {
		return 0, fmt.Errorf("failed to generate items: %w", err)
	}
	if err := a.addItems(collection, existing, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// isRoot reports whether item has no parent reference
func isRoot(item *types.Item, parentKey string) bool {
	v, ok := item.Fields[parentKey]
	if !ok || v == nil {
		return true
	}
	if n, ok := types.AsInt(v); ok {
		return n == 0
	}
	return false
}

// promoteChildren points every surviving child of a removed item at the
// nearest surviving ancestor and returns the changed items
func promoteChildren(items []*types.Item, ids []int, parentKey string) []*types.Item {
	removed := make(map[int]bool, len(ids))
	for _, id := range ids {
		removed[id] = true
	}
	parentOf := make(map[int]int, len(items))
	for _, item := range items {
		if n, ok := types.AsInt(item.Fields[parentKey]); ok {
			parentOf[item.ID] = n
		}
	}

	var changed []*types.Item
	for _, item := range items {
		if removed[item.ID] {
			continue
		}
		parent, ok := parentOf[item.ID]
		if !ok || !removed[parent] {
			continue
		}
		seen := map[int]bool{item.ID: true}
		for removed[parent] && !seen[parent] {
			seen[parent] = true
			parent = parentOf[parent]
		}
		updated := item.Clone()
		updated.Fields[parentKey] = parent
		changed = append(changed, updated)
	}
	return changed
}
