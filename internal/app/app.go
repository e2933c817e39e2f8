// Package app runs the local camera through the gesture pipeline.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/capture"
	"github.com/ayusman/touchless/internal/detector"
	"github.com/ayusman/touchless/internal/gesture"
	"github.com/ayusman/touchless/internal/session"
)

// Loop timing defaults.
const (
	// IdleFPS is the frame rate while the scene is still.
	IdleFPS = 5
	// IdleTimeout is how long without motion before dropping to IdleFPS.
	IdleTimeout = 2 * time.Second
	// DefaultMotionThreshold is the percentage of changed pixels counted as motion.
	DefaultMotionThreshold = 1.0
)

// Config holds the collaborators of the local loop.
type Config struct {
	Registry *session.Registry
	Host     *Host
	Camera   capture.Camera
	// Detector defaults to MediaPipe, falling back to a mock without hands.
	Detector        detector.Detector
	FPS             int
	Mirror          bool
	MotionThreshold float64
}

// App owns the camera loop and its session.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	motion   *capture.MotionDetector
	throttle *capture.Throttle

	mu        sync.RWMutex
	enabled   bool
	mirror    bool
	current   gesture.Label
	status    gesture.FingerStatus
	sess      *session.Session
	onGesture func(gesture.Label, *action.Action)
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates an App. Detection starts disabled.
func New(config Config) *App {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.MotionThreshold <= 0 {
		config.MotionThreshold = DefaultMotionThreshold
	}
	if config.Camera == nil {
		config.Camera = capture.NewCamera(capture.Options{FPS: config.FPS})
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		motion:   capture.NewMotionDetector(config.MotionThreshold),
		throttle: capture.NewThrottle(IdleFPS, config.FPS, IdleTimeout),
		mirror:   config.Mirror,
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Info("Using MediaPipe hand detection")
		} else {
			log.WithError(err).Warn("MediaPipe not available, using mock detector")
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// SetEnabled enables or disables gesture detection. Disabling ends the local
// session, so re-enabling starts with an empty window and a fresh cooldown.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enabled == enabled {
		return
	}
	a.enabled = enabled
	if enabled {
		a.sess = a.config.Registry.Open("camera")
		return
	}
	if a.sess != nil {
		a.config.Registry.Close(a.sess.ID())
		a.sess = nil
	}
	a.current = gesture.None
	a.status = gesture.FingerStatus{}
}

// IsEnabled returns whether gesture detection is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// CurrentGesture returns the latest stabilized label of the local session.
func (a *App) CurrentGesture() gesture.Label {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Overlay returns the finger states of the last local frame and the current
// gesture. Both are zero while disabled.
func (a *App) Overlay() (gesture.FingerStatus, gesture.Label) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status, a.current
}

// Session returns the local session, or nil while disabled.
func (a *App) Session() *session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sess
}

// OnGesture registers a callback run when the stabilized label changes or an
// action fires.
func (a *App) OnGesture(fn func(gesture.Label, *action.Action)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onGesture = fn
}

// SetMirror sets whether camera frames are flipped horizontally before detection.
func (a *App) SetMirror(mirror bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mirror = mirror
}

func (a *App) mirrored() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mirror
}

// SetDetector replaces the hand detector.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Start opens the camera and runs the loop until Stop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh)

	log.WithField("fps", a.config.FPS).Info("Detection loop started")
	return nil
}

// Stop halts the loop and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	a.SetEnabled(false)

	if err := a.camera.Close(); err != nil {
		log.WithError(err).Warn("Error closing camera")
	}
	a.motion.Close()
	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.WithError(err).Warn("Error closing detector")
		}
	}

	log.Info("Detection loop stopped")
}

// ProcessHands feeds one detection result into the local session and hands the
// outcome to the Host. It does nothing while detection is disabled.
func (a *App) ProcessHands(ctx context.Context, hands []detector.HandLandmarks, now time.Time) (session.Result, error) {
	a.mu.RLock()
	sess := a.sess
	a.mu.RUnlock()
	if sess == nil {
		return session.Result{}, nil
	}

	res, err := sess.Process(session.FrameFromHand(detector.FirstHand(hands), now))
	if err != nil && !errors.Is(err, gesture.ErrInvalidLandmarkSet) {
		return res, err
	}

	a.mu.Lock()
	changed := a.current != res.Stable
	a.current = res.Stable
	a.status = res.Status
	callback := a.onGesture
	a.mu.Unlock()

	if callback != nil && (changed || res.Action != nil) {
		callback(res.Stable, res.Action)
	}

	if a.config.Host != nil {
		if hostErr := a.config.Host.Handle(ctx, sess.ID(), res, now); hostErr != nil && err == nil {
			err = hostErr
		}
	}
	return res, err
}
