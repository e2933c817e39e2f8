// Package session binds one smoothing window and one cooldown clock to each client
// stream and runs the gesture pipeline for it.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/detector"
	"github.com/ayusman/touchless/internal/gesture"
)

// ErrStaleFrame is returned for a frame older than one the session already processed.
var ErrStaleFrame = errors.New("stale frame")

// Frame is one observation delivered to a session. Empty Landmarks means no hand
// was detected.
type Frame struct {
	Landmarks  []detector.Point3D
	Handedness detector.Handedness
	Timestamp  time.Time
}

// FrameFromHand builds a Frame from a provider detection. A nil hand yields an
// empty frame.
func FrameFromHand(hand *detector.HandLandmarks, ts time.Time) Frame {
	if hand == nil {
		return Frame{Timestamp: ts}
	}
	points := make([]detector.Point3D, detector.NumLandmarks)
	copy(points, hand.Points[:])
	return Frame{
		Landmarks:  points,
		Handedness: hand.Hand(),
		Timestamp:  ts,
	}
}

// Result is the outcome of processing one frame.
type Result struct {
	// Hand reports whether the frame carried a usable hand.
	Hand bool
	// Status is the finger-state vector; zero when Hand is false.
	Status gesture.FingerStatus
	// Raw is the single-frame classification.
	Raw gesture.Label
	// Stable is the smoothed label after this frame.
	Stable gesture.Label
	// Action is set when the dispatcher fired.
	Action *action.Action
}

// Options configures a session pipeline.
type Options struct {
	Window   int
	Dispatch action.Options
}

// DefaultOptions returns the stock pipeline configuration.
func DefaultOptions() Options {
	return Options{
		Window:   gesture.DefaultWindow,
		Dispatch: action.DefaultOptions(),
	}
}

// Session owns the mutable pipeline state of one client stream.
//
// Frames are processed one at a time under the session lock, so concurrent
// producers for the same session are serialized. Sessions never share state.
type Session struct {
	id        string
	source    string
	startedAt time.Time

	mu         sync.Mutex
	smoother   *gesture.Smoother
	dispatcher *action.Dispatcher
	lastFrame  time.Time
	frames     int
	current    gesture.Label
	closed     bool
}

// New creates a session with fresh state.
func New(id, source string, opts Options) *Session {
	return &Session{
		id:         id,
		source:     source,
		startedAt:  time.Now(),
		smoother:   gesture.NewSmoother(opts.Window),
		dispatcher: action.NewDispatcher(opts.Dispatch),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Source describes where the session's frames come from (e.g. "camera", a remote address).
func (s *Session) Source() string { return s.source }

// StartedAt returns the creation time of the session.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Process runs interpret, classify, smooth and dispatch for one frame.
//
// A frame older than the last accepted one is rejected with ErrStaleFrame and leaves
// the state untouched. A malformed landmark set is logged, counted as an empty frame
// and reported with gesture.ErrInvalidLandmarkSet alongside a valid Result.
func (s *Session) Process(f Frame) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, fmt.Errorf("session %s: %w", s.id, ErrSessionClosed)
	}
	if !f.Timestamp.IsZero() {
		if f.Timestamp.Before(s.lastFrame) {
			return Result{}, fmt.Errorf("session %s: %w", s.id, ErrStaleFrame)
		}
		s.lastFrame = f.Timestamp
	}
	now := f.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	s.frames++

	var (
		res     Result
		stepErr error
	)
	if len(f.Landmarks) > 0 {
		status, err := gesture.ComputeFingerStatus(f.Landmarks, f.Handedness)
		if err != nil {
			log.WithFields(log.Fields{
				"session": s.id,
				"points":  len(f.Landmarks),
			}).Warn("Skipping frame with invalid landmark set")
			stepErr = err
		} else {
			res.Hand = true
			res.Status = status
			res.Raw = gesture.Classify(status)
		}
	}

	res.Stable = s.smoother.Push(res.Raw)
	s.current = res.Stable

	if a, fired := s.dispatcher.Dispatch(res.Stable, now); fired {
		res.Action = &a
		log.WithFields(log.Fields{
			"session": s.id,
			"gesture": res.Stable.String(),
			"action":  a.Kind.String(),
		}).Info("Gesture dispatched")
	} else if res.Hand {
		log.WithFields(log.Fields{
			"session": s.id,
			"raw":     res.Raw.String(),
			"stable":  res.Stable.String(),
		}).Debug("Frame classified")
	}

	return res, stepErr
}

// Current returns the latest stabilized label.
func (s *Session) Current() gesture.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// LastFrame returns the timestamp of the last accepted frame, or the zero time.
func (s *Session) LastFrame() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrame
}

// Snapshot is a read-only view of a session's state.
type Snapshot struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	StartedAt time.Time       `json:"started_at"`
	Frames    int             `json:"frames"`
	Current   gesture.Label   `json:"current"`
	Window    []gesture.Label `json:"window"`
	LastFire  *time.Time      `json:"last_fire,omitempty"`
}

// Snapshot copies the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		Source:    s.source,
		StartedAt: s.startedAt,
		Frames:    s.frames,
		Current:   s.current,
		Window:    s.smoother.Window(),
	}
	if last, ok := s.dispatcher.LastFire(); ok {
		snap.LastFire = &last
	}
	return snap
}

// close discards the pipeline state; later frames fail with ErrSessionClosed.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.smoother.Reset()
	s.current = gesture.None
}
