package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("expected ErrCameraNotOpen before Open(), got %v", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame after all frames consumed, got %v", err)
	}
	if cam.Reads() != 2 {
		t.Errorf("Reads() = %d, want 2", cam.Reads())
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("looping camera should not run out: %v", err)
		}
		f.Close()
	}
}

func TestMockCamera_Empty(t *testing.T) {
	cam := NewMockCamera(nil, true)
	cam.Open()

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
}

func TestMockCamera_FPS(t *testing.T) {
	cam := NewMockCamera(nil, false)
	if cam.FPS() != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", cam.FPS(), DefaultFPS)
	}
	cam.SetFPS(5)
	cam.SetFPS(0)
	if cam.FPS() != 5 {
		t.Errorf("FPS() = %d, want 5", cam.FPS())
	}
}

func TestMockCamera_SetFramesRewinds(t *testing.T) {
	small := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer small.Close()
	large := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer large.Close()

	cam := NewMockCamera([]*gocv.Mat{&small}, false)
	cam.Open()
	defer cam.Close()

	f, _ := cam.ReadFrame()
	f.Close()

	cam.SetFrames([]*gocv.Mat{&large})
	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after SetFrames error = %v", err)
	}
	defer f.Close()
	if f.Rows() != 4 {
		t.Errorf("expected the new frame, got %d rows", f.Rows())
	}
	if !cam.IsOpen() || cam.Reads() != 2 {
		t.Errorf("open=%v reads=%d", cam.IsOpen(), cam.Reads())
	}
}
