// Package tree turns flat record sets into ordered hierarchies and back into
// level/position annotated sequences for list rendering, and mutates those
// structures incrementally without rebuilding them from the records.
package tree

import (
	"github.com/Project-Sylos/Arbor/internal/types"
)

// Record is re-exported so callers of the engine need a single import
type Record = types.Record

// Options names the record fields that describe the hierarchy
type Options struct {
	WeightKey string
	ParentKey string
}

// withDefaults fills empty field names with the package defaults
func (o Options) withDefaults() Options {
	if o.WeightKey == "" {
		o.WeightKey = types.DefaultWeightKey
	}
	if o.ParentKey == "" {
		o.ParentKey = types.DefaultParentKey
	}
	return o
}

// OptionsFromKeys converts configured tree keys to engine options
func OptionsFromKeys(keys types.TreeKeys) Options {
	return Options{WeightKey: keys.WeightKey, ParentKey: keys.ParentKey}.withDefaults()
}

// Node is a nested tree node carrying its record by reference
type Node struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Item     Record  `json:"item"`
	Children []*Node `json:"children,omitempty"`
}

// IDNode is the structure-only form of Node
type IDNode struct {
	ID       int       `json:"id"`
	Children []*IDNode `json:"children,omitempty"`
}

// FlatNode is one row of a flattened tree. Fields that are not part of the
// flat node itself are read from and written to Item.
type FlatNode struct {
	ID         int    `json:"id"`
	Item       Record `json:"item"`
	Level      int    `json:"level"`
	Position   int    `json:"position"`
	IsExpanded bool   `json:"isExpanded"`
	IsSeen     bool   `json:"isSeen"`
	Expandable bool   `json:"expandable"`
	Filtered   bool   `json:"filtered,omitempty"`
}

// Keys owned by FlatNode rather than by its item
const (
	KeyID         = "id"
	KeyItem       = "item"
	KeyLevel      = "level"
	KeyPosition   = "position"
	KeyIsExpanded = "isExpanded"
	KeyExpandable = "expandable"
	KeyIsSeen     = "isSeen"
	KeyFiltered   = "filtered"
)

var flatNodeKeys = map[string]bool{
	KeyID:         true,
	KeyItem:       true,
	KeyLevel:      true,
	KeyPosition:   true,
	KeyIsExpanded: true,
	KeyExpandable: true,
	KeyIsSeen:     true,
	KeyFiltered:   true,
}

// IsFlatNodeKey reports whether key is stored on the flat node itself
func IsFlatNodeKey(key string) bool {
	return flatNodeKeys[key]
}

// GetID implements Record
func (n *FlatNode) GetID() int {
	return n.ID
}

// Title implements Record
func (n *FlatNode) Title() string {
	if n.Item == nil {
		return ""
	}
	return n.Item.Title()
}

// Get reads a flat node key, or falls through to the item
func (n *FlatNode) Get(key string) (any, bool) {
	switch key {
	case KeyID:
		return n.ID, true
	case KeyItem:
		return n.Item, n.Item != nil
	case KeyLevel:
		return n.Level, true
	case KeyPosition:
		return n.Position, true
	case KeyIsExpanded:
		return n.IsExpanded, true
	case KeyExpandable:
		return n.Expandable, true
	case KeyIsSeen:
		return n.IsSeen, true
	case KeyFiltered:
		return n.Filtered, true
	}
	if n.Item == nil {
		return nil, false
	}
	return n.Item.Get(key)
}

// Set writes a flat node key, or writes through to the item.
// Values of the wrong type for a flat node key are ignored.
func (n *FlatNode) Set(key string, value any) {
	switch key {
	case KeyID:
		if id, ok := types.AsInt(value); ok {
			n.ID = id
		}
	case KeyItem:
		if r, ok := value.(Record); ok {
			n.Item = r
		}
	case KeyLevel:
		if v, ok := types.AsInt(value); ok {
			n.Level = v
		}
	case KeyPosition:
		if v, ok := types.AsInt(value); ok {
			n.Position = v
		}
	case KeyIsExpanded:
		if v, ok := value.(bool); ok {
			n.IsExpanded = v
		}
	case KeyExpandable:
		if v, ok := value.(bool); ok {
			n.Expandable = v
		}
	case KeyIsSeen:
		if v, ok := value.(bool); ok {
			n.IsSeen = v
		}
	case KeyFiltered:
		if v, ok := value.(bool); ok {
			n.Filtered = v
		}
	default:
		if n.Item != nil {
			n.Item.Set(key, value)
		}
	}
}

// GetField reads key from a flat node, checking its own keys before the item
func GetField(n *FlatNode, key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	return n.Get(key)
}

// SetField writes key on a flat node, writing through to the item for any
// key the flat node does not own
func SetField(n *FlatNode, key string, value any) {
	if n == nil {
		return
	}
	n.Set(key, value)
}

// clone returns a shallow copy sharing the item
func (n *FlatNode) clone() *FlatNode {
	c := *n
	return &c
}

// itemID returns the id of the node's item, or the node id if it has none
func (n *FlatNode) itemID() int {
	if n.Item != nil {
		return n.Item.GetID()
	}
	return n.ID
}
