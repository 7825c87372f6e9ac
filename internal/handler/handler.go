// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/housetable/vetclinic/internal/handler/dto"
	"github.com/housetable/vetclinic/internal/service"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

// Handler serves endpoints that do not belong to a resource.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Index describes the service.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "vetclinic api", map[string]string{
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, dto.ErrorNotFound, "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, dto.ErrorMethodNotAllowed, "method not allowed")
}

// handleServiceError maps service error kinds to HTTP responses.
// Anything without a known kind is logged and reported as a 500.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, dto.ErrorBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, dto.ErrorNotFound, err.Error())
	case errors.Is(err, service.ErrAggregation):
		var cause error
		var kindErr *service.KindError
		if errors.As(err, &kindErr) {
			cause = kindErr.Cause()
		}
		logger.Warn("aggregation_failed", "message", err.Error(), "error", cause)
		writeError(w, http.StatusBadRequest, dto.ErrorBadRequest, err.Error())
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, dto.ErrorInternal, "Something went wrong")
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeSuccess writes the success envelope.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, dto.Response{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Status:  false,
		Name:    name,
		Message: message,
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
