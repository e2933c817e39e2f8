package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ayusman/touchless/internal/plugin"
)

func TestNewHandlers_MatchManifest(t *testing.T) {
	data, err := os.ReadFile(plugin.ManifestFile)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var m plugin.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("invalid manifest: %v", err)
	}

	h := newHandlers()
	var names []string
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	declared := append([]string(nil), m.Actions...)
	sort.Strings(declared)

	if strings.Join(names, ",") != strings.Join(declared, ",") {
		t.Errorf("handlers %v do not match manifest actions %v", names, declared)
	}
}

func TestSystemKeys(t *testing.T) {
	if got := systemKeys["media-next"].script; got != `tell application "System Events" to key code 101` {
		t.Errorf("media-next script = %q", got)
	}
	if got := systemKeys["volume-down"].script; !strings.Contains(got, "-10") {
		t.Errorf("volume-down script = %q", got)
	}
	for name, k := range systemKeys {
		if k.script == "" || k.key == "" {
			t.Errorf("%s: incomplete key %+v", name, k)
		}
	}
}

func TestScroll_Validation(t *testing.T) {
	for _, params := range []string{`{"dx":0,"dy":0}`, `[]`, ``} {
		if err := scroll(json.RawMessage(params)); err == nil {
			t.Errorf("scroll(%q): expected error", params)
		}
	}
}

func TestLaunch_Validation(t *testing.T) {
	if err := launch(json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for empty path")
	}

	missing, _ := json.Marshal(Launch{Path: filepath.Join(t.TempDir(), "missing.app")})
	if err := launch(missing); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}
