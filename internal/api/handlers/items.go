package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Project-Sylos/Arbor/internal/api/models"
	"github.com/Project-Sylos/Arbor/sdk"
)

// ItemHandler handles item operations within a collection
type ItemHandler struct {
	BaseHandler
	arbor *sdk.Arbor
}

// NewItemHandler creates a new item handler
func NewItemHandler(a *sdk.Arbor) *ItemHandler {
	return &ItemHandler{
		arbor: a,
	}
}

// ListItems handles GET /collections/{collection}/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, req *http.Request) {
	collection := chi.URLParam(req, "collection")

	items, err := h.arbor.ListItems(collection)
	if err != nil {
		h.sendFailure(w, "list items", err)
		return
	}

	h.sendSuccess(w, fmt.Sprintf("Listed %d items", len(items)), items)
}

// AddItems handles POST /collections/{collection}/items
func (h *ItemHandler) AddItems(w http.ResponseWriter, req *http.Request) {
	collection := chi.URLParam(req, "collection")

	var request models.AddItemsRequest
	if err := decodeJSON(req, &request); err != nil {
		h.sendFailure(w, "add items", err)
		return
	}
	if len(request.Items) == 0 {
		h.sendError(w, http.StatusBadRequest, "items cannot be empty")
		return
	}

	if err := h.arbor.AddItems(collection, request.Items); err != nil {
		h.sendFailure(w, "add items", err)
		return
	}

	h.sendSuccess(w, "Items added successfully", map[string]any{
		"collection": collection,
		"count":      len(request.Items),
	})
}

// GetItem handles GET /collections/{collection}/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, req *http.Request) {
	collection := chi.URLParam(req, "collection")
	id, err := intParam(req, "id")
	if err != nil {
		h.sendFailure(w, "get item", err)
		return
	}

	item, err := h.arbor.GetItem(collection, id)
	if err != nil {
		h.sendFailure(w, "get item", err)
		return
	}

	h.sendSuccess(w, "Item retrieved successfully", item)
}

// DeleteItem handles DELETE /collections/{collection}/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, req *http.Request) {
	collection := chi.URLParam(req, "collection")
	id, err := intParam(req, "id")
	if err != nil {
		h.sendFailure(w, "delete item", err)
		return
	}

	deleted, err := h.arbor.DeleteItems(collection, []int{id})
	if err != nil {
		h.sendFailure(w, "delete item", err)
		return
	}
	if deleted == 0 {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("Item %d not found", id))
		return
	}

	h.sendSuccess(w, "Item deleted successfully", map[string]any{"deleted": deleted})
}

// DeleteItems handles POST /collections/{collection}/items/delete
func (h *ItemHandler) DeleteItems(w http.ResponseWriter, req *http.Request) {
	collection := chi.URLParam(req, "collection")

	var request models.DeleteItemsRequest
	if err := decodeJSON(req, &request); err != nil {
		h.sendFailure(w, "delete items", err)
		return
	}

	deleted, err := h.arbor.DeleteItems(collection, request.IDs)
	if err != nil {
		h.sendFailure(w, "delete items", err)
		return
	}

	h.sendSuccess(w, fmt.Sprintf("Deleted %d items", deleted), map[string]any{"deleted": deleted})
}

// Seed handles POST /collections/{collection}/seed
func (h *ItemHandler) Seed(w http.ResponseWriter, req *http.Request) {
	collection := chi.URLParam(req, "collection")

	count, err := h.arbor.Seed(collection)
	if err != nil {
		h.sendFailure(w, "seed collection", err)
		return
	}

	h.sendSuccess(w, fmt.Sprintf("Seeded %d items", count), map[string]any{
		"collection": collection,
		"count":      count,
	})
}
