package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Project-Sylos/Arbor/internal/api/models"
	"github.com/Project-Sylos/Arbor/sdk"
)

// ViewHandler handles server-side flat views
type ViewHandler struct {
	BaseHandler
	arbor *sdk.Arbor
}

// NewViewHandler creates a new view handler
func NewViewHandler(a *sdk.Arbor) *ViewHandler {
	return &ViewHandler{
		arbor: a,
	}
}

// OpenView handles POST /collections/{collection}/views
func (h *ViewHandler) OpenView(w http.ResponseWriter, req *http.Request) {
	view, err := h.arbor.OpenView(chi.URLParam(req, "collection"))
	if err != nil {
		h.sendFailure(w, "open view", err)
		return
	}
	h.sendJSON(w, http.StatusCreated, sdk.APIResponse{
		Success: true,
		Message: "View opened successfully",
		Data:    view,
	})
}

// GetView handles GET /views/{id}
func (h *ViewHandler) GetView(w http.ResponseWriter, req *http.Request) {
	view, err := h.arbor.GetView(chi.URLParam(req, "id"))
	if err != nil {
		h.sendFailure(w, "get view", err)
		return
	}
	h.sendSuccess(w, "View retrieved successfully", view)
}

// CloseView handles DELETE /views/{id}
func (h *ViewHandler) CloseView(w http.ResponseWriter, req *http.Request) {
	if err := h.arbor.CloseView(chi.URLParam(req, "id")); err != nil {
		h.sendFailure(w, "close view", err)
		return
	}
	h.sendSuccess(w, "View closed successfully", nil)
}

// Remove handles POST /views/{id}/remove
func (h *ViewHandler) Remove(w http.ResponseWriter, req *http.Request) {
	var request models.ViewRemoveRequest
	if err := decodeJSON(req, &request); err != nil {
		h.sendFailure(w, "remove nodes", err)
		return
	}

	view, err := h.arbor.ViewRemove(chi.URLParam(req, "id"), request.IDs, models.BoolOr(request.ByItemID, true))
	if err != nil {
		h.sendFailure(w, "remove nodes", err)
		return
	}
	h.sendSuccess(w, "Nodes removed successfully", view)
}

// Sort handles POST /views/{id}/sort
func (h *ViewHandler) Sort(w http.ResponseWriter, req *http.Request) {
	var request models.ViewSortRequest
	if err := decodeJSON(req, &request); err != nil {
		h.sendFailure(w, "sort view", err)
		return
	}
	if request.Property == "" {
		h.sendError(w, http.StatusBadRequest, "property is required")
		return
	}

	view, err := h.arbor.ViewSort(chi.URLParam(req, "id"), request.Property, models.BoolOr(request.Ascending, true))
	if err != nil {
		h.sendFailure(w, "sort view", err)
		return
	}
	h.sendSuccess(w, "View sorted successfully", view)
}

// Expand handles POST /views/{id}/expand
func (h *ViewHandler) Expand(w http.ResponseWriter, req *http.Request) {
	var request models.ViewExpandRequest
	if err := decodeJSON(req, &request); err != nil {
		h.sendFailure(w, "expand node", err)
		return
	}

	view, err := h.arbor.ViewExpand(chi.URLParam(req, "id"), request.ID, request.Expanded)
	if err != nil {
		h.sendFailure(w, "expand node", err)
		return
	}
	h.sendSuccess(w, "View updated successfully", view)
}

// Structure handles GET /views/{id}/structure
func (h *ViewHandler) Structure(w http.ResponseWriter, req *http.Request) {
	structure, err := h.arbor.ViewStructure(chi.URLParam(req, "id"))
	if err != nil {
		h.sendFailure(w, "read view structure", err)
		return
	}
	h.sendSuccess(w, "View structure retrieved successfully", structure)
}
