package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/detector"
	"github.com/ayusman/touchless/internal/gesture"
)

func TestRegistry_OpenGetClose(t *testing.T) {
	r := NewRegistry(DefaultOptions())

	var opened, closed []string
	r.OnOpen(func(s *Session) { opened = append(opened, s.ID()) })
	r.OnClose(func(s *Session) { closed = append(closed, s.ID()) })

	s := r.Open("camera")
	if s.ID() == "" {
		t.Fatal("expected a session ID")
	}
	if s.Source() != "camera" {
		t.Errorf("expected source camera, got %q", s.Source())
	}

	got, err := r.Get(s.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != s {
		t.Error("Get() returned a different session")
	}

	if err := r.Close(s.ID()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := r.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after close, got %v", err)
	}
	if err := r.Close(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on double close, got %v", err)
	}

	if len(opened) != 1 || len(closed) != 1 || opened[0] != closed[0] {
		t.Errorf("hooks: opened %v closed %v", opened, closed)
	}
}

func TestRegistry_ClosedSessionRejectsFrames(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	s := r.Open("remote")
	r.Close(s.ID())

	palm := detector.OpenPalmLandmarks()
	if _, err := s.Process(handFrame(palm, at(0))); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if s.Current() != gesture.None {
		t.Errorf("closed session should have no current gesture, got %v", s.Current())
	}
}

func TestRegistry_ProcessFrame(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	s := r.Open("remote")
	fist := detector.FistLandmarks()

	a, err := r.ProcessFrame(s.ID(), fist.Points[:], detector.Right, at(0))
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	if a == nil || a.Kind != action.PlayPause {
		t.Fatalf("expected play_pause, got %v", a)
	}

	a, err = r.ProcessFrame(s.ID(), nil, detector.Right, at(0.1))
	if err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	if a != nil {
		t.Errorf("expected no action inside cooldown, got %v", a)
	}

	if _, err := r.ProcessFrame("missing", fist.Points[:], detector.Right, at(0)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	a := r.Open("client-a")
	b := r.Open("client-b")

	palm := detector.OpenPalmLandmarks()
	fist := detector.FistLandmarks()

	first, _ := r.ProcessFrame(a.ID(), palm.Points[:], detector.Right, at(0))
	if first == nil || first.Kind != action.SwitchApp {
		t.Fatalf("session a: expected switch_app, got %v", first)
	}

	// a's cooldown must not gate b.
	second, _ := r.ProcessFrame(b.ID(), fist.Points[:], detector.Right, at(0.1))
	if second == nil || second.Kind != action.PlayPause {
		t.Fatalf("session b: expected play_pause, got %v", second)
	}

	if a.Current() != gesture.Palm || b.Current() != gesture.Fist {
		t.Errorf("windows leaked: a=%v b=%v", a.Current(), b.Current())
	}
	if len(a.Snapshot().Window) != 1 || len(b.Snapshot().Window) != 1 {
		t.Error("each session should have seen exactly one frame")
	}
}

func TestRegistry_ConcurrentSessions(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	palm := detector.OpenPalmLandmarks()

	const clients = 10
	fires := make([]int, clients)

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := r.Open("client")
			for j := 0; j < 20; j++ {
				a, err := r.ProcessFrame(s.ID(), palm.Points[:], detector.Right, at(float64(j)*0.1))
				if err != nil {
					t.Errorf("client %d: %v", i, err)
					return
				}
				if a != nil {
					fires[i]++
				}
			}
		}(i)
	}
	wg.Wait()

	// Frames span 0.0s to 1.9s: fires at 0.0, 0.8 and 1.6.
	for i, n := range fires {
		if n != 3 {
			t.Errorf("client %d: expected 3 fires, got %d", i, n)
		}
	}
	if r.Len() != clients {
		t.Errorf("expected %d sessions, got %d", clients, r.Len())
	}

	r.CloseAll()
	if r.Len() != 0 {
		t.Errorf("expected no sessions after CloseAll, got %d", r.Len())
	}
}

func TestRegistry_SetOptions(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	before := r.Open("camera")

	opts := DefaultOptions()
	opts.Window = 3
	r.SetOptions(opts)
	after := r.Open("camera")

	if r.Options().Window != 3 {
		t.Errorf("expected window 3, got %d", r.Options().Window)
	}

	before.smoother.Push(gesture.Palm)
	after.smoother.Push(gesture.Palm)
	if before.smoother.Cap() != gesture.DefaultWindow {
		t.Errorf("open sessions keep their options, got cap %d", before.smoother.Cap())
	}
	if after.smoother.Cap() != 3 {
		t.Errorf("new sessions use the new options, got cap %d", after.smoother.Cap())
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(DefaultOptions())
	r.Open("a")
	r.Open("b")

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].StartedAt().After(list[1].StartedAt()) {
		t.Error("expected oldest session first")
	}
}
