// Package http serves the FamilyHub JSON API over chi.
package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/app"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/ports"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Error codes in error bodies.
const (
	CodeValidationFailed = "validation_failed"
	CodeInvalidRequest   = "invalid_request"
	CodeNotFound         = "not_found"
	CodeInternal         = "internal_error"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failed request.
type ErrorDetail struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []FieldDetail `json:"details,omitempty"`
}

// FieldDetail is one rejected input field.
type FieldDetail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// MessageResponse is returned by deletes.
type MessageResponse struct {
	Message string `json:"message"`
}

var errInvalidJSON = errors.New("invalid JSON body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// readBody decodes a JSON request body into an untyped value. Shape checks
// belong to the validator.
func readBody(r *http.Request) (any, error) {
	var body any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return body, nil
}

// respondError maps err onto a status by kind. subject names the resource
// in not-found messages.
func respondError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, subject string, err error) {
	var ve *app.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Code:    CodeValidationFailed,
			Message: ve.Error(),
			Details: fieldDetails(ve.Details()),
		}})
	case errors.Is(err, errInvalidJSON):
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid JSON body")
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, subject+" not found")
	default:
		event := logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context()))
		if errors.Is(err, schema.ErrSchemaNotFound) {
			event = event.Bool("schema_missing", true)
		}
		event.Msg("request failed")
		writeError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

func fieldDetails(errs []schema.FieldError) []FieldDetail {
	out := make([]FieldDetail, len(errs))
	for i, e := range errs {
		out[i] = FieldDetail{Path: e.Path, Message: e.Message}
	}
	return out
}
