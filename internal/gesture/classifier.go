package gesture

import "fmt"

// Label is a recognized hand pose. The zero value is None.
type Label uint8

const (
	None Label = iota
	Palm
	Fist
	ThumbsUp
	TwoFingers
	OneFinger
	IndexThumb
	ThreeFingers

	// LabelCount is the number of labels including None.
	LabelCount
)

var labelNames = [...]string{
	None:         "none",
	Palm:         "palm",
	Fist:         "fist",
	ThumbsUp:     "thumbs_up",
	TwoFingers:   "two_fingers",
	OneFinger:    "one_finger",
	IndexThumb:   "index_thumb",
	ThreeFingers: "three_fingers",
}

var displayNames = [...]string{
	None:         "",
	Palm:         "Palm (All Fingers)",
	Fist:         "Fist (No Fingers)",
	ThumbsUp:     "Thumbs Up",
	TwoFingers:   "Two Fingers (Index+Middle)",
	OneFinger:    "One Finger (Index)",
	IndexThumb:   "Index + Thumb",
	ThreeFingers: "Three Fingers (Index+Middle+Ring)",
}

// Both name tables must cover every label exactly.
var (
	_ [len(labelNames) - int(LabelCount)]struct{}
	_ [int(LabelCount) - len(labelNames)]struct{}
	_ [len(displayNames) - int(LabelCount)]struct{}
	_ [int(LabelCount) - len(displayNames)]struct{}
)

// Labels returns every gesture label except None, in declaration order.
func Labels() []Label {
	labels := make([]Label, 0, LabelCount-1)
	for l := Palm; l < LabelCount; l++ {
		labels = append(labels, l)
	}
	return labels
}

// String returns the wire name of the label, e.g. "thumbs_up".
func (l Label) String() string {
	if l >= LabelCount {
		return fmt.Sprintf("label(%d)", uint8(l))
	}
	return labelNames[l]
}

// DisplayName returns the human readable name shown in UIs. None has no display name.
func (l Label) DisplayName() string {
	if l >= LabelCount {
		return ""
	}
	return displayNames[l]
}

// ParseLabel converts a wire name back to a Label.
func ParseLabel(name string) (Label, error) {
	for l := None; l < LabelCount; l++ {
		if labelNames[l] == name {
			return l, nil
		}
	}
	return None, fmt.Errorf("unknown gesture %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Classify maps a finger-state vector to a gesture label.
//
// Rules are evaluated in order and the first match wins. TwoFingers is tested before
// IndexThumb, so thumb+index+middle resolves to TwoFingers. OneFinger leaves the thumb
// unconstrained and is tested before IndexThumb as well, which means no finger state
// currently classifies as IndexThumb; the label still exists for the action table.
func Classify(s FingerStatus) Label {
	othersFolded := !s.Index && !s.Middle && !s.Ring && !s.Pinky

	switch {
	case s.Thumb && s.Index && s.Middle && s.Ring && s.Pinky:
		return Palm
	case !s.Thumb && othersFolded:
		return Fist
	case s.Thumb && othersFolded:
		return ThumbsUp
	case s.Index && s.Middle && !s.Ring && !s.Pinky:
		return TwoFingers
	case s.Index && !s.Middle && !s.Ring && !s.Pinky:
		return OneFinger
	case s.Index && s.Thumb && !s.Middle && !s.Ring && !s.Pinky:
		return IndexThumb
	case s.Index && s.Middle && s.Ring && !s.Thumb && !s.Pinky:
		return ThreeFingers
	}
	return None
}
