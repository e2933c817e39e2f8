package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/plugin"
)

// ErrPluginFailed is returned when a plugin answers with success=false.
var ErrPluginFailed = errors.New("plugin reported failure")

// Route names the plugin action performing an action kind.
type Route struct {
	Plugin string
	Action string
	Params func(a action.Action) any
}

// DefaultRoutes binds every action kind to the bundled keyboard and
// system-control plugins.
func DefaultRoutes() map[action.Kind]Route {
	return map[action.Kind]Route{
		action.SwitchApp: {Plugin: "keyboard", Action: "shortcut", Params: func(action.Action) any {
			return map[string]any{"key": "\t", "modifiers": []string{"command"}}
		}},
		action.PlayPause: {Plugin: "system-control", Action: "media-play-pause"},
		action.ShowDesktop: {Plugin: "keyboard", Action: "shortcut", Params: func(action.Action) any {
			return map[string]any{"key_code": 103}
		}},
		action.ScrollDown:  {Plugin: "system-control", Action: "scroll", Params: scrollParams},
		action.ScrollUp:    {Plugin: "system-control", Action: "scroll", Params: scrollParams},
		action.ScrollRight: {Plugin: "system-control", Action: "scroll", Params: scrollParams},
		action.LaunchApp: {Plugin: "system-control", Action: "launch-app", Params: func(a action.Action) any {
			return map[string]string{"path": a.Path}
		}},
	}
}

func scrollParams(a action.Action) any {
	dx, dy := a.Delta()
	return map[string]int{"dx": dx, "dy": dy}
}

// PluginExecutor performs actions by running external plugins.
type PluginExecutor struct {
	manager *plugin.Manager
	runner  *plugin.Runner
	routes  map[action.Kind]Route
}

// NewPluginExecutor creates a PluginExecutor. Nil routes use DefaultRoutes.
func NewPluginExecutor(manager *plugin.Manager, runner *plugin.Runner, routes map[action.Kind]Route) *PluginExecutor {
	if routes == nil {
		routes = DefaultRoutes()
	}
	return &PluginExecutor{manager: manager, runner: runner, routes: routes}
}

// Execute routes a to its plugin and waits for the answer.
func (e *PluginExecutor) Execute(ctx context.Context, a action.Action) error {
	route, ok := e.routes[a.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
	}

	p, err := e.manager.Get(route.Plugin)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.Kind, route.Plugin, err)
	}
	if !p.Supports(runtime.GOOS) {
		return fmt.Errorf("%s: plugin %s does not support %s", a.Kind, route.Plugin, runtime.GOOS)
	}

	req := &plugin.Request{Action: route.Action, Gesture: a.Gesture.String()}
	if route.Params != nil {
		params, err := json.Marshal(route.Params(a))
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = params
	}

	resp, err := e.runner.Run(ctx, p, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s: %w: %s", route.Plugin, ErrPluginFailed, resp.Error)
	}

	log.WithFields(log.Fields{
		"plugin": route.Plugin,
		"action": route.Action,
	}).Debug("Plugin executed")
	return nil
}
