package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/session"
	"github.com/ayusman/touchless/internal/store"
)

// SessionsHandler serves recorded sessions and their dispatches.
type SessionsHandler struct {
	store    *store.Store
	registry *session.Registry
}

// NewSessionsHandler creates a SessionsHandler. The registry is optional and
// only used to mark sessions that are still open.
func NewSessionsHandler(s *store.Store, reg *session.Registry) *SessionsHandler {
	return &SessionsHandler{store: s, registry: reg}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/dispatches.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		h.get(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "dispatches":
		h.dispatches(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type sessionResponse struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at"`
	Active    bool    `json:"active"`
	Gesture   string  `json:"gesture,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type listDispatchesResponse struct {
	Dispatches []*store.Dispatch `json:"dispatches"`
}

func (h *SessionsHandler) toResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		Source:    s.Source,
		StartedAt: s.StartedAt.Format(time.RFC3339Nano),
	}
	if s.EndedAt != nil {
		ended := s.EndedAt.Format(time.RFC3339Nano)
		resp.EndedAt = &ended
	}
	if h.registry != nil {
		if live, err := h.registry.Get(s.ID); err == nil {
			resp.Active = true
			resp.Gesture = live.Current().String()
		}
	}
	return resp
}

func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		log.WithError(err).Error("Failed to list sessions")
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, h.toResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(s))
}

func (h *SessionsHandler) dispatches(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	dispatches, err := h.store.Dispatches().ListBySession(id)
	if err != nil {
		log.WithError(err).WithField("session", id).Error("Failed to list dispatches")
		writeError(w, http.StatusInternalServerError, "Failed to list dispatches")
		return
	}
	if dispatches == nil {
		dispatches = []*store.Dispatch{}
	}
	writeJSON(w, http.StatusOK, listDispatchesResponse{Dispatches: dispatches})
}
