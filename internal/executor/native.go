package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/go-vgo/robotgo"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/plugin"
)

// Input is the synthetic keyboard and mouse used by NativeExecutor.
type Input interface {
	KeyTap(key string, modifiers ...string) error
	Scroll(dx, dy int)
}

// robotgoInput drives the real keyboard and mouse.
type robotgoInput struct{}

func (robotgoInput) KeyTap(key string, modifiers ...string) error {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	return robotgo.KeyTap(key, args...)
}

func (robotgoInput) Scroll(dx, dy int) {
	robotgo.Scroll(dx, dy)
}

// shortcut is a key plus modifiers.
type shortcut struct {
	key       string
	modifiers []string
}

// shortcutsFor returns the platform shortcuts for the key-driven actions.
func shortcutsFor(goos string) map[action.Kind]shortcut {
	switch goos {
	case "darwin":
		return map[action.Kind]shortcut{
			action.SwitchApp:   {"tab", []string{"cmd"}},
			action.PlayPause:   {"space", nil},
			action.ShowDesktop: {"f11", nil},
		}
	default:
		return map[action.Kind]shortcut{
			action.SwitchApp:   {"tab", []string{"alt"}},
			action.PlayPause:   {"space", nil},
			action.ShowDesktop: {"d", []string{"cmd"}},
		}
	}
}

// NativeExecutor injects keystrokes and scroll events in-process with robotgo and
// launches applications with the platform opener.
type NativeExecutor struct {
	input     Input
	shortcuts map[action.Kind]shortcut
	start     func(*exec.Cmd) error
	goos      string
}

// NewNativeExecutor creates a NativeExecutor for the running OS.
func NewNativeExecutor() *NativeExecutor {
	return newNativeExecutor(robotgoInput{}, runtime.GOOS)
}

func newNativeExecutor(input Input, goos string) *NativeExecutor {
	return &NativeExecutor{
		input:     input,
		shortcuts: shortcutsFor(goos),
		start:     (*exec.Cmd).Start,
		goos:      goos,
	}
}

// Execute performs a on the local desktop.
func (e *NativeExecutor) Execute(ctx context.Context, a action.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if sc, ok := e.shortcuts[a.Kind]; ok {
		if err := e.input.KeyTap(sc.key, sc.modifiers...); err != nil {
			return fmt.Errorf("%s: %w", a.Kind, err)
		}
		return nil
	}

	switch {
	case a.Kind.IsScroll():
		dx, dy := a.Delta()
		e.input.Scroll(dx, dy)
		return nil
	case a.Kind == action.LaunchApp:
		return e.launch(a.Path)
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
}

func (e *NativeExecutor) launch(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no application configured", ErrAppNotFound)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrAppNotFound, path)
	}
	if err := e.start(plugin.OpenerCommand(e.goos, path)); err != nil {
		return fmt.Errorf("failed to launch %s: %w", path, err)
	}
	return nil
}
