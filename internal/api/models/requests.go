package models

import (
	"github.com/Project-Sylos/Arbor/internal/tree"
	"github.com/Project-Sylos/Arbor/internal/types"
)

// AddItemsRequest represents the request to insert or replace items
type AddItemsRequest struct {
	Items []*types.Item `json:"items"`
}

// DeleteItemsRequest represents the request to delete several items
type DeleteItemsRequest struct {
	IDs []int `json:"ids"`
}

// MoveRequest represents the request to move branches within a collection.
// Zero means absent for both target ids.
type MoveRequest struct {
	IDs            []int `json:"ids"`
	ParentID       int   `json:"parent_id"`
	OlderSiblingID int   `json:"older_sibling_id"`
}

// StructureRequest carries a structure tree to write back to a collection
type StructureRequest struct {
	Structure []*tree.IDNode `json:"structure"`
}

// ViewRemoveRequest represents the request to drop nodes from a view.
// ByItemID defaults to true.
type ViewRemoveRequest struct {
	IDs      []int `json:"ids"`
	ByItemID *bool `json:"by_item_id,omitempty"`
}

// ViewSortRequest represents the request to sort a view. Ascending defaults to true.
type ViewSortRequest struct {
	Property  string `json:"property"`
	Ascending *bool  `json:"ascending,omitempty"`
}

// ViewExpandRequest represents the request to expand or collapse a view node
type ViewExpandRequest struct {
	ID       int  `json:"id"`
	Expanded bool `json:"expanded"`
}

// BoolOr returns *b, or def when b is nil
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
