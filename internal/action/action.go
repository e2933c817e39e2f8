// Package action maps stabilized gestures to OS action descriptors and gates them
// behind a cooldown. It never performs the actions itself.
package action

import (
	"fmt"

	"github.com/ayusman/touchless/internal/gesture"
)

// Kind is the type of OS-level effect requested by a gesture.
type Kind uint8

const (
	KindNone Kind = iota
	SwitchApp
	PlayPause
	ShowDesktop
	ScrollDown
	ScrollUp
	ScrollRight
	LaunchApp

	kindCount
)

var kindNames = [...]string{
	KindNone:    "none",
	SwitchApp:   "switch_app",
	PlayPause:   "play_pause",
	ShowDesktop: "show_desktop",
	ScrollDown:  "scroll_down",
	ScrollUp:    "scroll_up",
	ScrollRight: "scroll_right",
	LaunchApp:   "launch_app",
}

var kindTitles = [...]string{
	KindNone:    "None",
	SwitchApp:   "Switch App",
	PlayPause:   "Play/Pause",
	ShowDesktop: "Show Desktop",
	ScrollDown:  "Scroll Down",
	ScrollUp:    "Scroll Up",
	ScrollRight: "Scroll Right",
	LaunchApp:   "Open App",
}

// kindByLabel binds every gesture label to exactly one action kind.
var kindByLabel = [...]Kind{
	gesture.None:         KindNone,
	gesture.Palm:         SwitchApp,
	gesture.Fist:         PlayPause,
	gesture.ThumbsUp:     ShowDesktop,
	gesture.TwoFingers:   ScrollDown,
	gesture.OneFinger:    ScrollUp,
	gesture.IndexThumb:   ScrollRight,
	gesture.ThreeFingers: LaunchApp,
}

var (
	_ [len(kindByLabel) - int(gesture.LabelCount)]struct{}
	_ [int(gesture.LabelCount) - len(kindByLabel)]struct{}
	_ [len(kindNames) - int(kindCount)]struct{}
	_ [int(kindCount) - len(kindNames)]struct{}
	_ [len(kindTitles) - int(kindCount)]struct{}
	_ [int(kindCount) - len(kindTitles)]struct{}
)

// KindFor returns the action kind bound to a gesture label.
func KindFor(l gesture.Label) Kind {
	if l >= gesture.LabelCount {
		return KindNone
	}
	return kindByLabel[l]
}

// Kinds returns every action kind except KindNone.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := SwitchApp; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// String returns the wire name of the kind, e.g. "scroll_down".
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Title returns the human readable name of the kind, e.g. "Scroll Down".
func (k Kind) Title() string {
	if k >= kindCount {
		return k.String()
	}
	return kindTitles[k]
}

// IsScroll reports whether the kind scrolls the focused window.
func (k Kind) IsScroll() bool {
	return k == ScrollDown || k == ScrollUp || k == ScrollRight
}

// Action describes one effect for the executor to perform.
type Action struct {
	Kind    Kind          `json:"kind"`
	Gesture gesture.Label `json:"gesture"`
	// Amount is the scroll magnitude; only set for scroll kinds.
	Amount int `json:"amount,omitempty"`
	// Path is the program to open; only set for LaunchApp.
	Path string `json:"path,omitempty"`
}

// Delta returns the signed scroll offsets. Positive dy scrolls up, positive dx
// scrolls right. Non-scroll kinds return zero.
func (a Action) Delta() (dx, dy int) {
	switch a.Kind {
	case ScrollDown:
		return 0, -a.Amount
	case ScrollUp:
		return 0, a.Amount
	case ScrollRight:
		return a.Amount, 0
	}
	return 0, 0
}

func (a Action) String() string {
	switch {
	case a.Kind == LaunchApp:
		return fmt.Sprintf("%s: %s", a.Kind.Title(), a.Path)
	case a.Kind.IsScroll():
		return fmt.Sprintf("%s (%d)", a.Kind.Title(), a.Amount)
	}
	return a.Kind.Title()
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for i := KindNone; i < kindCount; i++ {
		if kindNames[i] == string(text) {
			*k = i
			return nil
		}
	}
	return fmt.Errorf("unknown action kind %q", text)
}
