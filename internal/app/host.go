package app

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/executor"
	"github.com/ayusman/touchless/internal/gesture"
	"github.com/ayusman/touchless/internal/publish"
	"github.com/ayusman/touchless/internal/session"
	"github.com/ayusman/touchless/internal/store"
)

// DefaultExecTimeout bounds the execution of one action.
const DefaultExecTimeout = 5 * time.Second

// Host carries out what the pipeline decided: it executes fired actions, records
// them and publishes label changes. The local camera loop and remote transports
// share one Host.
type Host struct {
	exec    executor.Executor
	pub     publish.Publisher
	store   *store.Store
	timeout time.Duration

	mu         sync.Mutex
	lastLabels map[string]gesture.Label
}

// NewHost creates a Host. A nil publisher publishes nothing and a nil store
// records nothing.
func NewHost(exec executor.Executor, pub publish.Publisher, st *store.Store) *Host {
	if pub == nil {
		pub = publish.Nop{}
	}
	return &Host{
		exec:       exec,
		pub:        pub,
		store:      st,
		timeout:    DefaultExecTimeout,
		lastLabels: make(map[string]gesture.Label),
	}
}

// Track records session lifecycles of reg in the store.
func (h *Host) Track(reg *session.Registry) {
	reg.OnOpen(func(s *session.Session) {
		if h.store == nil {
			return
		}
		err := h.store.Sessions().Create(&store.Session{ID: s.ID(), Source: s.Source(), StartedAt: s.StartedAt()})
		if err != nil {
			log.WithError(err).WithField("session", s.ID()).Error("Failed to record session")
		}
	})
	reg.OnClose(func(s *session.Session) {
		h.mu.Lock()
		delete(h.lastLabels, s.ID())
		h.mu.Unlock()

		if h.store == nil {
			return
		}
		if err := h.store.Sessions().End(s.ID(), time.Now()); err != nil {
			log.WithError(err).WithField("session", s.ID()).Error("Failed to end session")
		}
	})
}

// Handle executes, records and publishes the outcome of one processed frame. An
// execution failure is logged and recorded; the cooldown already consumed by the
// dispatch is not given back.
func (h *Host) Handle(ctx context.Context, sessionID string, res session.Result, ts time.Time) error {
	var execErr error
	if res.Action != nil {
		execErr = h.execute(ctx, sessionID, *res.Action, ts)
	}

	if h.labelChanged(sessionID, res.Stable) || res.Action != nil {
		if err := h.pub.Publish(publish.NewEvent(sessionID, res.Stable, res.Action, ts)); err != nil {
			log.WithError(err).WithField("session", sessionID).Warn("Failed to publish gesture event")
		}
	}
	return execErr
}

func (h *Host) execute(ctx context.Context, sessionID string, a action.Action, ts time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.exec.Execute(ctx, a)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"session": sessionID,
			"gesture": a.Gesture.String(),
			"action":  a.Kind.String(),
		}).Error("Action failed")
	}

	if h.store != nil {
		d := &store.Dispatch{
			SessionID: sessionID,
			Gesture:   a.Gesture.String(),
			Action:    a.Kind.String(),
			Amount:    a.Amount,
			Path:      a.Path,
			Success:   err == nil,
			CreatedAt: ts,
		}
		if err != nil {
			d.Error = err.Error()
		}
		if recErr := h.store.Dispatches().Create(d); recErr != nil {
			log.WithError(recErr).WithField("session", sessionID).Error("Failed to record dispatch")
		}
	}
	return err
}

func (h *Host) labelChanged(sessionID string, label gesture.Label) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	last, seen := h.lastLabels[sessionID]
	h.lastLabels[sessionID] = label
	return !seen || last != label
}

// Close releases the publisher.
func (h *Host) Close() error {
	return h.pub.Close()
}
