// Package plugin discovers external action handlers and runs them over a
// stdin/stdout JSON protocol.
package plugin

import "encoding/json"

// Manifest is the plugin.json file found in each plugin directory.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
	// Platforms restricts the plugin to the listed GOOS values. Empty means any.
	Platforms    []string        `json:"platforms,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is written to the plugin's stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin declares action.
func (p *Plugin) Handles(action string) bool {
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Supports reports whether the plugin runs on goos.
func (p *Plugin) Supports(goos string) bool {
	if len(p.Manifest.Platforms) == 0 {
		return true
	}
	for _, platform := range p.Manifest.Platforms {
		if platform == goos {
			return true
		}
	}
	return false
}
