package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/ports"
)

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// HealthHandler reports database connectivity.
type HealthHandler struct {
	db      ports.Pinger
	clock   ports.Clock
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db ports.Pinger, clock ports.Clock, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{db: db, clock: clock, timeout: 5 * time.Second, logger: logger}
}

// Health answers 200 when the database responds and 500 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	now := h.clock.Now().UTC().Format(time.RFC3339Nano)
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusInternalServerError, HealthResponse{
			Status:    "error",
			Database:  "down",
			Timestamp: now,
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "up", Timestamp: now})
}

// VersionHandler returns the build version.
func VersionHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{Version: version, Service: "familyhub"})
	}
}
