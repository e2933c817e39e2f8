package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

var _ Camera = (*MockCamera)(nil)

// MockCamera is a Camera backed by in-memory frames. Each read hands out a
// clone, so the caller owns what it gets.
type MockCamera struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	next   int
	loop   bool
	open   bool
	fps    int
	reads  int
}

// NewMockCamera creates a camera replaying frames. With loop set it starts
// over after the last frame instead of reporting ErrNoFrame.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop, fps: DefaultFPS}
}

// Open rewinds playback.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	c.open, c.next = true, 0
	c.mu.Unlock()
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.open:
		return nil, ErrCameraNotOpen
	case len(c.frames) == 0:
		return nil, ErrNoFrame
	case c.next == len(c.frames) && !c.loop:
		return nil, ErrNoFrame
	}

	frame := c.frames[c.next%len(c.frames)].Clone()
	c.next = c.next%len(c.frames) + 1
	c.reads++
	return &frame, nil
}

// SetFPS changes the reported frame rate. Non-positive values are ignored.
func (c *MockCamera) SetFPS(fps int) {
	if fps > 0 {
		c.mu.Lock()
		c.fps = fps
		c.mu.Unlock()
	}
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns how many frames have been handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// SetFrames swaps the frame sequence and rewinds playback.
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	c.frames, c.next = frames, 0
	c.mu.Unlock()
}
