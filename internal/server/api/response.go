// Package api provides the HTTP handlers of the Touchless REST API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// Limits for list endpoints.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var errBadLimit = errors.New("limit must be a positive integer")

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// parseLimit reads the limit query parameter, capped at MaxLimit.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errBadLimit
	}
	if n > MaxLimit {
		n = MaxLimit
	}
	return n, nil
}
