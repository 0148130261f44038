package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/handler/dto"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/service"
)

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	accounts *service.Accounts
	logger   *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(accounts *service.Accounts, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{accounts: accounts, logger: logger}
}

// Routes mounts the key routes, e.g. r.Route("/api/apikeys", h.Routes).
func (h *APIKeyHandler) Routes(r chi.Router) {
	r.Get("/", h.ListAPIKeys)
	r.Post("/", h.CreateAPIKey)
	r.Delete("/{key_id}", h.RevokeAPIKey)
	r.Post("/{key_id}/rotate", h.RotateAPIKey)
}

// CreateAPIKey handles POST /api/apikeys.
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req model.APIKeyCreateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return
		}
	}

	created, err := h.accounts.CreateAPIKey(r.Context(), principal, req)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	// The plaintext key is only ever returned here.
	writeJSON(w, http.StatusCreated, created)
}

// ListAPIKeys handles GET /api/apikeys.
func (h *APIKeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keys, err := h.accounts.ListAPIKeys(r.Context(), principal.UserID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.APIKeyListResponse{Keys: keys})
}

// RevokeAPIKey handles DELETE /api/apikeys/{key_id}.
func (h *APIKeyHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.accounts.RevokeAPIKey(r.Context(), principal.UserID, chi.URLParam(r, "key_id")); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RotateAPIKey handles POST /api/apikeys/{key_id}/rotate.
func (h *APIKeyHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	rotated, err := h.accounts.RotateAPIKey(r.Context(), principal.UserID, chi.URLParam(r, "key_id"))
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, rotated)
}
