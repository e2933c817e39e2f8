package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/detector"
)

var (
	// ErrSessionNotFound is returned when no open session has the requested ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned when a frame reaches a session that has ended.
	ErrSessionClosed = errors.New("session closed")
)

// Registry tracks the open sessions of a host.
type Registry struct {
	mu       sync.RWMutex
	opts     Options
	sessions map[string]*Session

	onOpen  func(*Session)
	onClose func(*Session)
}

// NewRegistry creates a Registry whose sessions are built with opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// OnOpen sets a hook called after a session is opened.
func (r *Registry) OnOpen(fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onOpen = fn
}

// OnClose sets a hook called after a session is closed.
func (r *Registry) OnClose(fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = fn
}

// SetOptions changes the configuration used for sessions opened from now on.
// Open sessions keep the options they were created with.
func (r *Registry) SetOptions(opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
}

// Options returns the configuration for new sessions.
func (r *Registry) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// Open starts a new session with fresh state.
func (r *Registry) Open(source string) *Session {
	r.mu.Lock()
	s := New(uuid.New().String(), source, r.opts)
	r.sessions[s.id] = s
	hook := r.onOpen
	r.mu.Unlock()

	log.WithFields(log.Fields{"session": s.id, "source": source}).Info("Session opened")

	if hook != nil {
		hook(s)
	}
	return s
}

// Get returns an open session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends a session and discards its state.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	hook := r.onClose
	r.mu.Unlock()

	s.close()
	log.WithField("session", id).Info("Session closed")

	if hook != nil {
		hook(s)
	}
	return nil
}

// List returns the open sessions, oldest first.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].startedAt.Before(sessions[j].startedAt)
	})
	return sessions
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ProcessFrame runs one frame through the pipeline of session id and returns the
// action to perform, or nil when no hand was seen, nothing stabilized or the
// cooldown held the gesture back. A malformed frame counts as an empty one, so an
// action can still come back together with gesture.ErrInvalidLandmarkSet.
func (r *Registry) ProcessFrame(id string, landmarks []detector.Point3D, handedness detector.Handedness, now time.Time) (*action.Action, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	res, err := s.Process(Frame{Landmarks: landmarks, Handedness: handedness, Timestamp: now})
	return res.Action, err
}

// CloseAll ends every open session.
func (r *Registry) CloseAll() {
	for _, s := range r.List() {
		r.Close(s.id)
	}
}
