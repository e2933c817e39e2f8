package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// bundledPlugins locates the plugins directory at the repository root. It
// returns "" unless the named plugin's binary has been built next to its
// manifest.
func bundledPlugins(name string) string {
	for _, root := range []string{"../../plugins", "../../../plugins"} {
		dir := filepath.Join(root, name)
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			continue
		}
		return root
	}
	return ""
}

func TestBundledPlugins_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tests := []struct {
		plugin    string
		goos      string
		req       Request
		errSubstr string
	}{
		{
			plugin:    "system-control",
			req:       Request{Action: "launch-app", Gesture: "three_fingers", Params: json.RawMessage(`{"path":"/nonexistent/application"}`)},
			errSubstr: "application not found",
		},
		{
			plugin:    "system-control",
			req:       Request{Action: "scroll", Gesture: "one_finger", Params: json.RawMessage(`{"dx":0,"dy":0}`)},
			errSubstr: "dx or dy is required",
		},
		{
			plugin:    "system-control",
			req:       Request{Action: "teleport"},
			errSubstr: "unknown action",
		},
		{
			plugin:    "keyboard",
			goos:      "darwin",
			req:       Request{Action: "shortcut", Gesture: "palm", Params: json.RawMessage(`{"key":""}`)},
			errSubstr: "key is required",
		},
	}

	runner := NewRunner(5 * time.Second)
	for _, tt := range tests {
		t.Run(tt.plugin+"/"+tt.req.Action, func(t *testing.T) {
			if tt.goos != "" && runtime.GOOS != tt.goos {
				t.Skipf("%s plugin only runs on %s", tt.plugin, tt.goos)
			}
			root := bundledPlugins(tt.plugin)
			if root == "" {
				t.Skipf("%s plugin not built", tt.plugin)
			}

			m := NewManager(root)
			if err := m.Discover(); err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			p, err := m.Get(tt.plugin)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}

			req := tt.req
			resp, err := runner.Run(context.Background(), p, &req)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if resp.Success {
				t.Fatal("expected the plugin to reject the request")
			}
			if !strings.Contains(resp.Error, tt.errSubstr) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.errSubstr)
			}
		})
	}
}
