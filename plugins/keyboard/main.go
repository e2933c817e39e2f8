// Command keyboard is a macOS plugin that types keys and shortcuts through
// System Events.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ayusman/touchless/internal/plugin"
)

// Keystroke is the params object of the keystroke and shortcut actions.
// A non-nil Code sends a virtual key code and wins over Key.
type Keystroke struct {
	Key       string   `json:"key"`
	Code      *int     `json:"key_code,omitempty"`
	Modifiers []string `json:"modifiers"`
}

var appleModifiers = map[string]string{
	"cmd":     "command down",
	"command": "command down",
	"alt":     "option down",
	"option":  "option down",
	"ctrl":    "control down",
	"control": "control down",
	"shift":   "shift down",
}

var handlers = plugin.Handlers{
	"keystroke": press,
	"shortcut":  press,
}

func main() {
	if err := handlers.Serve(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func press(params json.RawMessage) error {
	var k Keystroke
	if err := plugin.DecodeParams(params, &k); err != nil {
		return err
	}
	if k.Key == "" && k.Code == nil {
		return errors.New("key is required")
	}
	return plugin.AppleScript(k.script())
}

// script renders k as a System Events command.
func (k Keystroke) script() string {
	var b strings.Builder
	b.WriteString(`tell application "System Events" to `)
	if k.Code != nil {
		fmt.Fprintf(&b, "key code %d", *k.Code)
	} else {
		fmt.Fprintf(&b, "keystroke %q", k.Key)
	}

	var mods []string
	for _, m := range k.Modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}
	if len(mods) > 0 {
		fmt.Fprintf(&b, " using {%s}", strings.Join(mods, ", "))
	}
	return b.String()
}
