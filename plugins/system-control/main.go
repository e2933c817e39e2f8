// Command system-control is a plugin for media, volume and brightness keys,
// mouse-wheel scrolling and application launch.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/go-vgo/robotgo"

	"github.com/ayusman/touchless/internal/plugin"
)

// Scroll is the params object of the scroll action.
type Scroll struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Launch is the params object of the launch-app action.
type Launch struct {
	Path string `json:"path"`
}

// systemKey is a hardware key. macOS gets an AppleScript, other platforms a
// robotgo key tap.
type systemKey struct {
	script string
	key    string
}

func keyCode(code int) string {
	return fmt.Sprintf(`tell application "System Events" to key code %d`, code)
}

func volumeBy(delta int) string {
	return fmt.Sprintf(`set volume output volume ((output volume of (get volume settings)) + %d)`, delta)
}

var systemKeys = map[string]systemKey{
	"volume-up":        {volumeBy(10), "audio_vol_up"},
	"volume-down":      {volumeBy(-10), "audio_vol_down"},
	"volume-mute":      {`set volume output muted (not (output muted of (get volume settings)))`, "audio_mute"},
	"brightness-up":    {keyCode(144), "lights_mon_up"},
	"brightness-down":  {keyCode(145), "lights_mon_down"},
	"media-play-pause": {keyCode(100), "audio_play"},
	"media-next":       {keyCode(101), "audio_next"},
	"media-prev":       {keyCode(98), "audio_prev"},
}

func (k systemKey) press() error {
	if runtime.GOOS == "darwin" {
		return plugin.AppleScript(k.script)
	}
	return robotgo.KeyTap(k.key)
}

func newHandlers() plugin.Handlers {
	h := plugin.Handlers{
		"scroll":     scroll,
		"launch-app": launch,
	}
	for name, k := range systemKeys {
		h[name] = plugin.NoParams(k.press)
	}
	return h
}

func main() {
	if err := newHandlers().Serve(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func scroll(params json.RawMessage) error {
	var s Scroll
	if err := plugin.DecodeParams(params, &s); err != nil {
		return err
	}
	if s.DX == 0 && s.DY == 0 {
		return errors.New("dx or dy is required")
	}
	robotgo.Scroll(s.DX, s.DY)
	return nil
}

func launch(params json.RawMessage) error {
	var l Launch
	if err := plugin.DecodeParams(params, &l); err != nil {
		return err
	}
	if l.Path == "" {
		return errors.New("path is required")
	}
	if _, err := os.Stat(l.Path); err != nil {
		return fmt.Errorf("application not found: %w", err)
	}
	return plugin.OpenerCommand(runtime.GOOS, l.Path).Start()
}
