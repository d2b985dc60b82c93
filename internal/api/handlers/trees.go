package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Project-Sylos/Arbor/internal/api/models"
	"github.com/Project-Sylos/Arbor/sdk"
)

// TreeHandler handles tree builds and structural edits of a collection
type TreeHandler struct {
	BaseHandler
	arbor *sdk.Arbor
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(a *sdk.Arbor) *TreeHandler {
	return &TreeHandler{
		arbor: a,
	}
}

// GetTree handles GET /collections/{collection}/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, req *http.Request) {
	nodes, err := h.arbor.SortedTree(chi.URLParam(req, "collection"))
	if err != nil {
		h.sendFailure(w, "build tree", err)
		return
	}
	h.sendSuccess(w, "Tree built successfully", nodes)
}

// GetFlat handles GET /collections/{collection}/flat
func (h *TreeHandler) GetFlat(w http.ResponseWriter, req *http.Request) {
	nodes, err := h.arbor.FlatTree(chi.URLParam(req, "collection"))
	if err != nil {
		h.sendFailure(w, "flatten tree", err)
		return
	}
	h.sendSuccess(w, "Tree flattened successfully", nodes)
}

// GetAnnotations handles GET /collections/{collection}/annotations
func (h *TreeHandler) GetAnnotations(w http.ResponseWriter, req *http.Request) {
	annotations, err := h.arbor.Annotations(chi.URLParam(req, "collection"))
	if err != nil {
		h.sendFailure(w, "annotate tree", err)
		return
	}
	h.sendSuccess(w, "Annotations computed successfully", annotations)
}

// Reindex handles POST /collections/{collection}/reindex
func (h *TreeHandler) Reindex(w http.ResponseWriter, req *http.Request) {
	annotated, err := h.arbor.Reindex(chi.URLParam(req, "collection"))
	if err != nil {
		h.sendFailure(w, "reindex collection", err)
		return
	}
	h.sendSuccess(w, "Collection reindexed successfully", map[string]any{"annotated": annotated})
}

// Move handles POST /collections/{collection}/move
func (h *TreeHandler) Move(w http.ResponseWriter, req *http.Request) {
	var request models.MoveRequest
	if err := decodeJSON(req, &request); err != nil {
		h.sendFailure(w, "move branches", err)
		return
	}

	structure, err := h.arbor.MoveBranches(chi.URLParam(req, "collection"), request.IDs, request.ParentID, request.OlderSiblingID)
	if err != nil {
		h.sendFailure(w, "move branches", err)
		return
	}
	h.sendSuccess(w, "Branches moved successfully", structure)
}

// ApplyStructure handles POST /collections/{collection}/structure
func (h *TreeHandler) ApplyStructure(w http.ResponseWriter, req *http.Request) {
	var request models.StructureRequest
	if err := decodeJSON(req, &request); err != nil {
		h.sendFailure(w, "apply structure", err)
		return
	}

	if err := h.arbor.ApplyStructure(chi.URLParam(req, "collection"), request.Structure); err != nil {
		h.sendFailure(w, "apply structure", err)
		return
	}
	h.sendSuccess(w, "Structure applied successfully", nil)
}
