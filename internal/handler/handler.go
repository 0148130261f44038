// Package handler provides HTTP request handlers.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gojson "github.com/goccy/go-json"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/handler/dto"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/service"
)

// Handler serves the router-level fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.NewError(code, message))
}

// decodeJSON reads a single JSON document from the request body.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	if err := gojson.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var (
		notFound   *service.NotFoundError
		validation *model.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "ENTITY_NOT_FOUND", notFound.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", validation.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found or already revoked")
	case errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", err.Error())
	case errors.Is(err, service.ErrRoleNotHeld):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		logger.Error("internal_error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
