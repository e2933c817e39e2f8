package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	blurKernel    = 21
	diffThreshold = 25
)

// MotionDetector compares consecutive frames and reports the share of pixels
// that changed.
type MotionDetector struct {
	threshold float64
	prev      gocv.Mat
	hasPrev   bool
	mu        sync.Mutex
}

// NewMotionDetector creates a detector firing when more than threshold percent
// of the pixels change between two frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = 1.0
	}
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect reports whether frame differs from the previous one, and by how many
// percent of its pixels. The first frame only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	defer gray.CopyTo(&m.prev)
	if !m.hasPrev || m.prev.Rows() != gray.Rows() || m.prev.Cols() != gray.Cols() {
		m.hasPrev = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prev, &diff)
	gocv.Threshold(diff, &diff, diffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	return changed > m.threshold, changed
}

// Threshold returns the change percentage above which Detect reports motion.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.hasPrev = false
}

// Throttle lowers the capture rate while the scene is still. It only decides
// how often frames are read; every frame read is still processed.
type Throttle struct {
	IdleFPS   int
	ActiveFPS int
	Timeout   time.Duration

	active     bool
	lastMotion time.Time
}

// NewThrottle creates a Throttle that starts in the active state.
func NewThrottle(idleFPS, activeFPS int, timeout time.Duration) *Throttle {
	return &Throttle{
		IdleFPS:    idleFPS,
		ActiveFPS:  activeFPS,
		Timeout:    timeout,
		active:     true,
		lastMotion: time.Now(),
	}
}

// Observe records whether motion was seen at now and returns the frame rate to
// use, plus whether it changed.
func (t *Throttle) Observe(motion bool, now time.Time) (fps int, changed bool) {
	switch {
	case motion:
		t.lastMotion = now
		if !t.active {
			t.active = true
			return t.ActiveFPS, true
		}
	case t.active && now.Sub(t.lastMotion) > t.Timeout:
		t.active = false
		return t.IdleFPS, true
	}
	return t.FPS(), false
}

// FPS returns the current frame rate.
func (t *Throttle) FPS() int {
	if t.active {
		return t.ActiveFPS
	}
	return t.IdleFPS
}

// Active reports whether motion was seen within the timeout.
func (t *Throttle) Active() bool {
	return t.active
}
