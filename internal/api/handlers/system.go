package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Project-Sylos/Arbor/sdk"
)

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	BaseHandler
	arbor *sdk.Arbor
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(a *sdk.Arbor) *SystemHandler {
	return &SystemHandler{
		arbor: a,
	}
}

// Reset handles the reset endpoint
func (h *SystemHandler) Reset(w http.ResponseWriter, req *http.Request) {
	if err := h.arbor.Reset(); err != nil {
		h.sendFailure(w, "reset store", err)
		return
	}

	h.sendSuccess(w, "Store reset successfully", nil)
}

// GetCollections handles the list collections endpoint
func (h *SystemHandler) GetCollections(w http.ResponseWriter, req *http.Request) {
	collections, err := h.arbor.Collections()
	if err != nil {
		h.sendFailure(w, "list collections", err)
		return
	}

	h.sendSuccess(w, "Collections retrieved successfully", collections)
}

// GetCollection handles GET /collections/{collection}
func (h *SystemHandler) GetCollection(w http.ResponseWriter, req *http.Request) {
	info, err := h.arbor.Collection(chi.URLParam(req, "collection"))
	if err != nil {
		h.sendFailure(w, "get collection", err)
		return
	}

	h.sendSuccess(w, "Collection retrieved successfully", info)
}

// DropCollection handles DELETE /collections/{collection}
func (h *SystemHandler) DropCollection(w http.ResponseWriter, req *http.Request) {
	deleted, err := h.arbor.DropCollection(chi.URLParam(req, "collection"))
	if err != nil {
		h.sendFailure(w, "drop collection", err)
		return
	}

	h.sendSuccess(w, "Collection dropped successfully", map[string]int{"deleted": deleted})
}

// GetConfig handles the get config endpoint
func (h *SystemHandler) GetConfig(w http.ResponseWriter, req *http.Request) {
	config := h.arbor.GetConfig()
	h.sendSuccess(w, "Config retrieved successfully", config)
}
