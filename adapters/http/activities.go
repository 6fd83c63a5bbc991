package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/app"
	"github.com/artpar/familyhub/core/query"
)

// ActivityHandler serves scheduled parenting activities.
type ActivityHandler struct {
	service *app.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler creates an activity handler.
func NewActivityHandler(svc *app.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: svc,
		logger:  logger.With().Str("entity", app.ActivityEntity).Logger(),
	}
}

// Routes mounts list and status update.
func (h *ActivityHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Patch("/{id}", h.UpdateStatus)
}

// List returns the couple's scheduled activities with their templates.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), query.FromValues(r.URL.Query()))
	if err != nil {
		respondError(w, r, h.logger, "Activity", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateStatus changes an activity's status.
func (h *ActivityHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		respondError(w, r, h.logger, "Activity", err)
		return
	}
	updated, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		respondError(w, r, h.logger, "Activity", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
