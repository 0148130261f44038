package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/handler/dto"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/service"
)

// UserHandler serves the current user and the admin user listing.
type UserHandler struct {
	accounts *service.Accounts
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts *service.Accounts, logger *slog.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, logger: logger}
}

// CurrentUser handles GET /api/currentUser.
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.accounts.User(r.Context(), principal.UserID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCurrentUserResponse(user, principal.Roles))
}

// ListUsers handles GET /api/admin/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.Users(r.Context())
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser handles GET /api/admin/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer")
		return
	}

	user, err := h.accounts.User(r.Context(), id)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
