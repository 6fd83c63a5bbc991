package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/app"
	"github.com/artpar/familyhub/core/query"
	"github.com/artpar/familyhub/core/schema"
)

// RecordHandler serves the collection endpoints of one entity.
type RecordHandler struct {
	service *app.RecordService
	entity  string
	label   string
	logger  zerolog.Logger
}

// NewRecordHandler creates a handler for entity.
func NewRecordHandler(svc *app.RecordService, entity string, logger zerolog.Logger) *RecordHandler {
	return &RecordHandler{
		service: svc,
		entity:  entity,
		label:   schema.Humanize(entity),
		logger:  logger.With().Str("entity", entity).Logger(),
	}
}

// Routes mounts list, create, get, update and delete.
func (h *RecordHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List returns the records matching the query string.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context(), h.entity, query.FromValues(r.URL.Query()))
	if err != nil {
		respondError(w, r, h.logger, h.label, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Create stores a new record and returns it with 201.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, r, h.logger, h.label, err)
		return
	}
	rec, err := h.service.Create(r.Context(), h.entity, body)
	if err != nil {
		respondError(w, r, h.logger, h.label, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Get returns one record.
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), h.entity, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, h.label, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Update applies a partial update. PUT and PATCH behave the same.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, r, h.logger, h.label, err)
		return
	}
	rec, err := h.service.Update(r.Context(), h.entity, chi.URLParam(r, "id"), body)
	if err != nil {
		respondError(w, r, h.logger, h.label, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete removes one record.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), h.entity, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.logger, h.label, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: h.label + " deleted successfully"})
}
