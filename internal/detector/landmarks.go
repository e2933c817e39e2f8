// Package detector provides the hand-tracking boundary: landmark types, handedness and
// the Detector implementations that turn camera frames into hand poses.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a single normalized landmark. X and Y are in [0,1] image space with Y
// growing downward; Z is the provider's relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Handedness classifies a detected hand as left or right.
type Handedness uint8

const (
	// Right is the zero value so a missing classification falls back to it.
	Right Handedness = iota
	Left
)

// ParseHandedness converts a provider label to a Handedness.
// Anything other than "Left" is treated as Right.
func ParseHandedness(label string) Handedness {
	if label == "Left" {
		return Left
	}
	return Right
}

func (h Handedness) String() string {
	if h == Left {
		return "Left"
	}
	return "Right"
}

// Opposite returns the other hand.
func (h Handedness) Opposite() Handedness {
	if h == Left {
		return Right
	}
	return Left
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Hand returns the parsed handedness of the detection.
func (h *HandLandmarks) Hand() Handedness {
	return ParseHandedness(h.Handedness)
}

// Mirror returns a copy of the hand reflected across the vertical image axis
// (x -> 1-x) with the handedness label swapped.
func (h *HandLandmarks) Mirror() *HandLandmarks {
	if h == nil {
		return nil
	}

	mirrored := &HandLandmarks{
		Handedness: h.Hand().Opposite().String(),
		Score:      h.Score,
	}
	for i, p := range h.Points {
		mirrored.Points[i] = Point3D{X: 1 - p.X, Y: p.Y, Z: p.Z}
	}
	return mirrored
}

// FirstHand returns the first detected hand, or nil when none was found.
// The gesture pipeline only ever tracks a single hand.
func FirstHand(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}
