// Package server exposes the JSON HTTP API and the per-session event stream.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitsmart/splitsmart/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes v as a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps a service error onto an HTTP status and a JSON error
// body. Unrecognized errors become a generic 500 so internals never leak.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
		msg = err.Error()
	case errors.Is(err, service.ErrUpstream):
		status = http.StatusBadGateway
		msg = err.Error()
	case errors.Is(err, service.ErrCodeExhausted):
		status = http.StatusServiceUnavailable
		msg = err.Error()
	default:
		slog.Error("request failed", "error", err)
	}

	respondJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON request body into v with a 1 MiB cap. Callers
// translate a non-nil error into a 400.
func decodeJSON(r *http.Request, v any) error {
	return decodeJSONLimited(r, v, 1<<20)
}

func decodeJSONLimited(r *http.Request, v any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
