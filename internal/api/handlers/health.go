package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Project-Sylos/Arbor/sdk"
)

// pingTimeout bounds the store check of a health request
const pingTimeout = 2 * time.Second

// HealthHandler reports whether the service and its store are up
type HealthHandler struct {
	BaseHandler
	arbor *sdk.Arbor
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(a *sdk.Arbor) *HealthHandler {
	return &HealthHandler{arbor: a}
}

// HealthCheck answers 200 with the store driver and open view count, or 503
// when the store does not answer
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), pingTimeout)
	defer cancel()

	health, err := h.arbor.Health(ctx)
	if err != nil {
		h.sendError(w, http.StatusServiceUnavailable, "Store unavailable: "+err.Error())
		return
	}
	h.sendSuccess(w, "Arbor API is healthy", health)
}
