package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// ErrNoParams is returned by DecodeParams when a request carries no params.
var ErrNoParams = errors.New("params are required")

// Handler performs one action from its raw request params.
type Handler func(params json.RawMessage) error

// Handlers maps action names to handlers. A plugin binary builds one and calls
// Serve from main.
type Handlers map[string]Handler

// Handle decodes a single Request from r and runs the matching handler.
// Failures are reported in the Response, never as a Go error.
func (h Handlers) Handle(r io.Reader) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}

	handler, ok := h[req.Action]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}
	if err := handler(req.Params); err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	return Response{Success: true}
}

// Serve answers one request read from r with a Response written to w.
func (h Handlers) Serve(r io.Reader, w io.Writer) error {
	return json.NewEncoder(w).Encode(h.Handle(r))
}

// NoParams adapts fn to a Handler that ignores its params.
func NoParams(fn func() error) Handler {
	return func(json.RawMessage) error { return fn() }
}

// DecodeParams unmarshals params into v.
func DecodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return ErrNoParams
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	return nil
}

// OpenerCommand builds the command that opens path with the default handler on goos.
func OpenerCommand(goos, path string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path)
	default:
		return exec.Command("xdg-open", path)
	}
}

// AppleScript runs script with osascript. Output is folded into the error.
func AppleScript(script string) error {
	out, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript: %w: %s", err, out)
	}
	return nil
}
