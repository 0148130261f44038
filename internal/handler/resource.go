package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/handler/dto"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/service"
)

// formEntity is an entity that can also be read from query parameters.
type formEntity[T any] interface {
	repository.EntityPtr[T]
	model.FormBinder
}

// Resource serves the CRUD routes of one entity type.
type Resource[T any, PT formEntity[T]] struct {
	svc    *service.Entities[T, PT]
	logger *slog.Logger
}

// NewResource creates a Resource handler backed by svc.
func NewResource[T any, PT formEntity[T]](svc *service.Entities[T, PT], logger *slog.Logger) *Resource[T, PT] {
	return &Resource[T, PT]{svc: svc, logger: logger}
}

// Routes mounts the resource under the current router prefix, e.g.
// r.Route("/api/majors", res.Routes).
//
// Both /{id} and ?id=N forms are served for get, update and delete.
func (h *Resource[T, PT]) Routes(r chi.Router) {
	r.Get("/", h.GetOrList)
	r.Get("/all", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Post("/post", h.CreateFromForm)
	r.Put("/", h.Update)
	r.Put("/{id}", h.Update)
	r.Delete("/", h.Delete)
	r.Delete("/{id}", h.Delete)
}

// GetOrList handles GET /api/{res}. With ?id it returns one entity,
// otherwise every entity matching the remaining query parameters.
func (h *Resource[T, PT]) GetOrList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("id") {
		h.Get(w, r)
		return
	}
	h.List(w, r)
}

// List handles GET /api/{res}/all and filtered listing.
func (h *Resource[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.Filter{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 && values[0] != "" {
			filter[key] = values[0]
		}
	}

	entities, err := h.svc.List(r.Context(), filter)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

// Get handles GET /api/{res}/{id} and GET /api/{res}?id=N.
func (h *Resource[T, PT]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	entity, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

// Create handles POST /api/{res} with a JSON body.
func (h *Resource[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	entity := new(T)
	if err := decodeJSON(r, entity); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	h.create(w, r, entity)
}

// CreateFromForm handles POST /api/{res}/post with fields as query parameters.
func (h *Resource[T, PT]) CreateFromForm(w http.ResponseWriter, r *http.Request) {
	entity := new(T)
	if err := PT(entity).BindForm(r.URL.Query()); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	h.create(w, r, entity)
}

func (h *Resource[T, PT]) create(w http.ResponseWriter, r *http.Request, entity *T) {
	created, err := h.svc.Create(r.Context(), entity)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/{res}/{id} and PUT /api/{res}?id=N. Every
// writable field is replaced by the body.
func (h *Resource[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	entity := new(T)
	if err := decodeJSON(r, entity); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), id, entity)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/{res}/{id} and DELETE /api/{res}?id=N.
func (h *Resource[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.id(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: fmt.Sprintf("%s with id %d deleted", h.svc.Name(), id),
	})
}

// id reads the entity id from the path or the id query parameter and
// writes INVALID_ID when it is missing or malformed.
func (h *Resource[T, PT]) id(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		raw = r.URL.Query().Get("id")
	}
	if raw == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "id is required")
		return 0, false
	}

	// Ids that parse but were never assigned (0, negative) are unknown ids
	// and come back from the store as not found.
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "id must be an integer")
		return 0, false
	}
	return id, true
}
