package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/store"
)

// DispatchesHandler serves the most recent dispatches across all sessions.
type DispatchesHandler struct {
	store *store.Store
}

// NewDispatchesHandler creates a DispatchesHandler with the given store.
func NewDispatchesHandler(s *store.Store) *DispatchesHandler {
	return &DispatchesHandler{store: s}
}

// ServeHTTP handles GET /api/dispatches?limit=n.
func (h *DispatchesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dispatches, err := h.store.Dispatches().Recent(limit)
	if err != nil {
		log.WithError(err).Error("Failed to list dispatches")
		writeError(w, http.StatusInternalServerError, "Failed to list dispatches")
		return
	}
	if dispatches == nil {
		dispatches = []*store.Dispatch{}
	}
	writeJSON(w, http.StatusOK, listDispatchesResponse{Dispatches: dispatches})
}
