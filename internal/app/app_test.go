package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/capture"
	"github.com/ayusman/touchless/internal/detector"
	"github.com/ayusman/touchless/internal/executor"
	"github.com/ayusman/touchless/internal/gesture"
	"github.com/ayusman/touchless/internal/publish"
	"github.com/ayusman/touchless/internal/session"
	"github.com/ayusman/touchless/internal/store"
)

// recorder collects executed actions.
type recorder struct {
	mu      sync.Mutex
	actions []action.Action
	err     error
}

func (r *recorder) Execute(ctx context.Context, a action.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return r.err
}

func (r *recorder) executed() []action.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]action.Action(nil), r.actions...)
}

// capturePublisher collects published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []publish.Event
}

func (p *capturePublisher) Publish(e publish.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type fixture struct {
	app   *App
	reg   *session.Registry
	exec  *recorder
	pub   *capturePublisher
	store *store.Store
	det   *detector.MockDetector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		reg:   session.NewRegistry(session.DefaultOptions()),
		exec:  &recorder{},
		pub:   &capturePublisher{},
		store: st,
		det:   detector.NewMockDetector(),
	}

	host := NewHost(f.exec, f.pub, st)
	host.Track(f.reg)

	f.app = New(Config{
		Registry: f.reg,
		Host:     host,
		Camera:   capture.NewMockCamera(nil, false),
		Detector: f.det,
	})
	return f
}

var epoch = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return epoch.Add(time.Duration(seconds * float64(time.Second)))
}

func TestApp_DisabledIgnoresFrames(t *testing.T) {
	f := newFixture(t)
	palm := detector.OpenPalmLandmarks()

	res, err := f.app.ProcessHands(context.Background(), []detector.HandLandmarks{palm}, at(0))
	if err != nil {
		t.Fatalf("ProcessHands() error = %v", err)
	}
	if res.Action != nil || len(f.exec.executed()) != 0 {
		t.Error("disabled app should not dispatch")
	}
	if f.reg.Len() != 0 {
		t.Error("no session should be open while disabled")
	}
}

func TestApp_PalmSwitchesApp(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var labels []gesture.Label
	f.app.OnGesture(func(l gesture.Label, a *action.Action) {
		mu.Lock()
		defer mu.Unlock()
		labels = append(labels, l)
	})

	f.app.SetEnabled(true)
	sess := f.app.Session()
	if sess == nil {
		t.Fatal("enabling should open a session")
	}

	palm := detector.OpenPalmLandmarks()
	for i := 0; i < 7; i++ {
		if _, err := f.app.ProcessHands(context.Background(), []detector.HandLandmarks{palm}, at(0)); err != nil {
			t.Fatalf("ProcessHands() error = %v", err)
		}
	}
	f.app.ProcessHands(context.Background(), []detector.HandLandmarks{palm}, at(0.5))
	f.app.ProcessHands(context.Background(), []detector.HandLandmarks{palm}, at(0.9))

	executed := f.exec.executed()
	if len(executed) != 2 {
		t.Fatalf("expected 2 actions (t=0 and t=0.9), got %d", len(executed))
	}
	for _, a := range executed {
		if a.Kind != action.SwitchApp {
			t.Errorf("expected switch_app, got %v", a.Kind)
		}
	}

	if f.app.CurrentGesture() != gesture.Palm {
		t.Errorf("expected current gesture palm, got %v", f.app.CurrentGesture())
	}

	mu.Lock()
	if len(labels) == 0 || labels[0] != gesture.Palm {
		t.Errorf("expected gesture callback with palm, got %v", labels)
	}
	mu.Unlock()

	dispatches, err := f.store.Dispatches().ListBySession(sess.ID())
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(dispatches) != 2 || dispatches[0].Action != "switch_app" || !dispatches[0].Success {
		t.Errorf("unexpected recorded dispatches %v", dispatches)
	}

	if len(f.pub.events) != 2 {
		t.Errorf("expected one event per dispatch, got %d", len(f.pub.events))
	}
}

func TestApp_NoHandDecaysToNone(t *testing.T) {
	f := newFixture(t)
	f.app.SetEnabled(true)

	fist := detector.FistLandmarks()
	f.app.ProcessHands(context.Background(), []detector.HandLandmarks{fist}, at(0))
	for i := 1; i <= gesture.DefaultWindow; i++ {
		f.app.ProcessHands(context.Background(), nil, at(float64(i)))
	}

	if f.app.CurrentGesture() != gesture.None {
		t.Errorf("expected none after empty frames, got %v", f.app.CurrentGesture())
	}

	last := f.pub.events[len(f.pub.events)-1]
	if last.Gesture != gesture.None || last.Action != nil {
		t.Errorf("expected a none event without action, got %+v", last)
	}
}

func TestApp_ExecutionFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.exec.err = executor.ErrAppNotFound
	f.app.SetEnabled(true)

	three := detector.ThreeFingersLandmarks()
	_, err := f.app.ProcessHands(context.Background(), []detector.HandLandmarks{three}, at(0))
	if !errors.Is(err, executor.ErrAppNotFound) {
		t.Fatalf("expected execution error, got %v", err)
	}

	// The cooldown stays consumed after a failed execution.
	if res, _ := f.app.ProcessHands(context.Background(), []detector.HandLandmarks{three}, at(0.2)); res.Action != nil {
		t.Error("failed action must not reset the cooldown")
	}

	recent, _ := f.store.Dispatches().Recent(10)
	if len(recent) != 1 || recent[0].Success || recent[0].Error == "" {
		t.Errorf("expected one failed dispatch, got %v", recent)
	}
}

func TestApp_DisableEndsSession(t *testing.T) {
	f := newFixture(t)
	f.app.SetEnabled(true)
	id := f.app.Session().ID()

	f.app.SetEnabled(false)

	if f.app.Session() != nil || f.reg.Len() != 0 {
		t.Error("disabling should close the local session")
	}
	rec, err := f.store.Sessions().GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rec.EndedAt == nil {
		t.Error("session record should be ended")
	}

	f.app.SetEnabled(true)
	if f.app.Session() == nil || f.app.Session().ID() == id {
		t.Error("re-enabling should open a fresh session")
	}
}

func TestApp_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	reg := session.NewRegistry(session.DefaultOptions())
	exec := &recorder{}
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})

	a := New(Config{
		Registry: reg,
		Host:     NewHost(exec, nil, nil),
		Camera:   cam,
		Detector: det,
		FPS:      50,
		Mirror:   true,
	})

	a.SetEnabled(true)
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(exec.executed()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	a.Stop()

	executed := exec.executed()
	if len(executed) == 0 {
		t.Fatal("expected the loop to dispatch play_pause")
	}
	if executed[0].Kind != action.PlayPause {
		t.Errorf("expected play_pause, got %v", executed[0].Kind)
	}
	if det.Calls() == 0 || cam.Reads() == 0 {
		t.Error("expected frames to be read and detected")
	}
	if reg.Len() != 0 {
		t.Error("Stop should close the local session")
	}
}

func TestApp_Overlay(t *testing.T) {
	f := newFixture(t)
	f.app.SetEnabled(true)

	thumbs := detector.ThumbsUpLandmarks()
	if _, err := f.app.ProcessHands(context.Background(), []detector.HandLandmarks{thumbs}, at(0)); err != nil {
		t.Fatalf("ProcessHands() error = %v", err)
	}

	status, label := f.app.Overlay()
	if status != (gesture.FingerStatus{Thumb: true}) || label != gesture.ThumbsUp {
		t.Errorf("Overlay() = %s, %v", status, label)
	}

	f.app.ProcessHands(context.Background(), nil, at(0.1))
	if status, label := f.app.Overlay(); status != (gesture.FingerStatus{}) || label != gesture.ThumbsUp {
		t.Errorf("no hand should clear the fingers but keep the stable gesture, got %s, %v", status, label)
	}

	f.app.SetEnabled(false)
	if status, label := f.app.Overlay(); status != (gesture.FingerStatus{}) || label != gesture.None {
		t.Errorf("disabled app should report an empty overlay, got %s, %v", status, label)
	}
}
