package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/Project-Sylos/Arbor/internal/types"
	"github.com/Project-Sylos/Arbor/sdk"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 32 << 20

// errBadRequest marks request decoding failures
var errBadRequest = errors.New("bad request")

// BaseHandler provides common functionality for all API handlers
type BaseHandler struct{}

// sendJSON sends a JSON response with the given status code and data
func (h *BaseHandler) sendJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response with the given status code and message
func (h *BaseHandler) sendError(w http.ResponseWriter, statusCode int, message string) {
	h.sendJSON(w, statusCode, types.APIResponse{
		Success: false,
		Message: message,
	})
}

// sendSuccess sends a success response with the given data
func (h *BaseHandler) sendSuccess(w http.ResponseWriter, message string, data any) {
	h.sendJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// sendFailure sends err with the status code it maps to
func (h *BaseHandler) sendFailure(w http.ResponseWriter, action string, err error) {
	h.sendError(w, statusFor(err), fmt.Sprintf("Failed to %s: %v", action, err))
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, sdk.ErrCyclicHierarchy):
		return http.StatusConflict
	case errors.Is(err, sdk.ErrItemNotFound), errors.Is(err, sdk.ErrViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, sdk.ErrInvalidCollection),
		errors.Is(err, sdk.ErrInvalidItems),
		errors.Is(err, sdk.ErrInvalidMove),
		errors.Is(err, sdk.ErrInvalidInsertion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v
func decodeJSON(req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(nil, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// intParam reads a numeric URL parameter
func intParam(req *http.Request, name string) (int, error) {
	raw := chi.URLParam(req, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errBadRequest, name, raw)
	}
	return n, nil
}
