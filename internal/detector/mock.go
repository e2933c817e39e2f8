package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns whatever hands or error it was last given and counts
// how often it was asked.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a MockDetector that sees no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the result of later Detect calls.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	m.hands = hands
	m.mu.Unlock()
}

// SetError makes later Detect calls fail with err. A nil err clears it.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Calls returns the number of Detect calls so far.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockDetector) Detect(*gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

func (m *MockDetector) Close() error { return nil }

// HandPose builds an upright right hand with each finger either extended or curled.
// Extended fingers have their tip well above the PIP joint; curled fingers fold the
// tip back below it. An extended thumb points away from the palm along +x.
func HandPose(thumb, index, middle, ring, pinky bool) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.50, Y: 0.85, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.80, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.74, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.60, Y: 0.70, Z: 0.0}
	if thumb {
		landmarks.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.66, Z: 0.0}
	} else {
		landmarks.Points[ThumbTip] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	}

	fingers := []struct {
		mcp, pip, dip, tip int
		x                  float64
		extended           bool
	}{
		{IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.56, index},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50, middle},
		{RingMCP, RingPIP, RingDIP, RingTip, 0.45, ring},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.40, pinky},
	}

	for _, f := range fingers {
		landmarks.Points[f.mcp] = Point3D{X: f.x, Y: 0.70, Z: 0.0}
		landmarks.Points[f.pip] = Point3D{X: f.x, Y: 0.60, Z: -0.02}
		if f.extended {
			landmarks.Points[f.dip] = Point3D{X: f.x, Y: 0.50, Z: 0.0}
			landmarks.Points[f.tip] = Point3D{X: f.x, Y: 0.40, Z: 0.0}
		} else {
			landmarks.Points[f.dip] = Point3D{X: f.x - 0.01, Y: 0.64, Z: -0.04}
			landmarks.Points[f.tip] = Point3D{X: f.x - 0.02, Y: 0.68, Z: -0.02}
		}
	}

	return landmarks
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks { return HandPose(true, true, true, true, true) }

// FistLandmarks returns a closed fist.
func FistLandmarks() HandLandmarks { return HandPose(false, false, false, false, false) }

// ThumbsUpLandmarks returns a fist with only the thumb extended.
func ThumbsUpLandmarks() HandLandmarks { return HandPose(true, false, false, false, false) }

// TwoFingersLandmarks returns a hand with index and middle extended.
func TwoFingersLandmarks() HandLandmarks { return HandPose(false, true, true, false, false) }

// OneFingerLandmarks returns a hand pointing with the index finger only.
func OneFingerLandmarks() HandLandmarks { return HandPose(false, true, false, false, false) }

// IndexThumbLandmarks returns an "L" shape: index and thumb extended.
func IndexThumbLandmarks() HandLandmarks { return HandPose(true, true, false, false, false) }

// ThreeFingersLandmarks returns index, middle and ring extended with thumb and pinky curled.
func ThreeFingersLandmarks() HandLandmarks { return HandPose(false, true, true, true, false) }
