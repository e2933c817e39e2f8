package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{"explicit", 5.0, 5.0},
		{"low", 0.5, 0.5},
		{"zero uses default", 0, 1.0},
		{"negative uses default", -2, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()

			if md.Threshold() != tt.want {
				t.Errorf("Threshold() = %f, want %f", md.Threshold(), tt.want)
			}
		})
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	if detected, changed := md.Detect(&frame1); detected || changed != 0 {
		t.Errorf("first frame should only set the baseline, got %v %f", detected, changed)
	}
	if detected, changed := md.Detect(&frame2); detected {
		t.Errorf("identical frames should not detect motion, changed = %f", changed)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)

	detected, changed := md.Detect(&white)
	if !detected {
		t.Errorf("black to white should detect motion, changed = %f", changed)
	}
	if changed < 50.0 {
		t.Errorf("changed = %f, expected > 50%% for black to white", changed)
	}
}

func TestMotionDetector_CloseResetsBaseline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)

	black := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	md.Close()
	md.Close()

	if detected, _ := md.Detect(&white); detected {
		t.Error("first frame after Close should only set the baseline")
	}
}

func TestThrottle(t *testing.T) {
	start := time.Unix(0, 0)
	th := NewThrottle(5, 15, 2*time.Second)
	th.lastMotion = start

	if th.FPS() != 15 || !th.Active() {
		t.Fatal("throttle should start active")
	}

	if fps, changed := th.Observe(false, start.Add(time.Second)); changed || fps != 15 {
		t.Errorf("still inside timeout: got %d changed=%v", fps, changed)
	}

	fps, changed := th.Observe(false, start.Add(3*time.Second))
	if !changed || fps != 5 || th.Active() {
		t.Errorf("expected idle after timeout, got %d changed=%v", fps, changed)
	}

	if fps, changed := th.Observe(false, start.Add(4*time.Second)); changed || fps != 5 {
		t.Errorf("idle should stay idle, got %d changed=%v", fps, changed)
	}

	fps, changed = th.Observe(true, start.Add(5*time.Second))
	if !changed || fps != 15 {
		t.Errorf("motion should switch back to active, got %d changed=%v", fps, changed)
	}

	if _, changed := th.Observe(true, start.Add(5500*time.Millisecond)); changed {
		t.Error("motion while active should not report a change")
	}
}
