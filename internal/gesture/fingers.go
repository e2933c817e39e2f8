// Package gesture turns hand landmarks into gesture labels: per-finger extension,
// rule-based classification and temporal smoothing of the label stream.
package gesture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/touchless/internal/detector"
)

// ExtensionMargin is the minimum tip-to-joint offset, in normalized image units,
// for a finger to count as extended.
const ExtensionMargin = 0.02

// ErrInvalidLandmarkSet is returned when a hand does not carry exactly 21 landmarks.
var ErrInvalidLandmarkSet = errors.New("invalid landmark set")

// Finger identifies one digit of the hand.
type Finger uint8

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	numFingers
)

var fingerNames = [numFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f >= numFingers {
		return fmt.Sprintf("finger(%d)", uint8(f))
	}
	return fingerNames[f]
}

// tip and joint landmark indices per finger. The thumb compares against its IP joint,
// the others against the PIP joint.
var fingerJoints = [numFingers]struct{ tip, joint int }{
	Thumb:  {detector.ThumbTip, detector.ThumbIP},
	Index:  {detector.IndexTip, detector.IndexPIP},
	Middle: {detector.MiddleTip, detector.MiddlePIP},
	Ring:   {detector.RingTip, detector.RingPIP},
	Pinky:  {detector.PinkyTip, detector.PinkyPIP},
}

// FingerStatus records which fingers are extended in a single frame.
type FingerStatus struct {
	Thumb  bool
	Index  bool
	Middle bool
	Ring   bool
	Pinky  bool
}

// Extended reports whether the given finger is extended.
func (s FingerStatus) Extended(f Finger) bool {
	switch f {
	case Thumb:
		return s.Thumb
	case Index:
		return s.Index
	case Middle:
		return s.Middle
	case Ring:
		return s.Ring
	case Pinky:
		return s.Pinky
	}
	return false
}

// Count returns the number of extended fingers.
func (s FingerStatus) Count() int {
	n := 0
	for f := Thumb; f < numFingers; f++ {
		if s.Extended(f) {
			n++
		}
	}
	return n
}

// String renders the status as "thumb:1 index:0 middle:0 ring:0 pinky:0".
func (s FingerStatus) String() string {
	var b strings.Builder
	for f := Thumb; f < numFingers; f++ {
		if f > Thumb {
			b.WriteByte(' ')
		}
		b.WriteString(f.String())
		if s.Extended(f) {
			b.WriteString(":1")
		} else {
			b.WriteString(":0")
		}
	}
	return b.String()
}

// ComputeFingerStatus derives the finger-state vector for one hand.
//
// The four fingers are extended when the tip sits above the PIP joint by more than
// ExtensionMargin (y grows downward). The thumb is judged along x and its direction
// depends on handedness. No rotation correction is applied, so the hand is assumed
// to be upright relative to the camera.
func ComputeFingerStatus(points []detector.Point3D, handedness detector.Handedness) (FingerStatus, error) {
	if len(points) != detector.NumLandmarks {
		return FingerStatus{}, fmt.Errorf("%w: got %d points, want %d", ErrInvalidLandmarkSet, len(points), detector.NumLandmarks)
	}

	raised := func(f Finger) bool {
		j := fingerJoints[f]
		return points[j.tip].Y < points[j.joint].Y-ExtensionMargin
	}

	thumb := fingerJoints[Thumb]
	tip, ip := points[thumb.tip], points[thumb.joint]

	status := FingerStatus{
		Index:  raised(Index),
		Middle: raised(Middle),
		Ring:   raised(Ring),
		Pinky:  raised(Pinky),
	}
	if handedness == detector.Left {
		status.Thumb = tip.X < ip.X-ExtensionMargin
	} else {
		status.Thumb = tip.X > ip.X+ExtensionMargin
	}

	return status, nil
}
