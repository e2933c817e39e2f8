package config

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Window != 7 {
		t.Errorf("expected window 7, got %d", cfg.Window)
	}
	if cfg.Cooldown != 800*time.Millisecond {
		t.Errorf("expected cooldown 800ms, got %v", cfg.Cooldown)
	}
	if cfg.ScrollAmount != 400 {
		t.Errorf("expected scroll amount 400, got %d", cfg.ScrollAmount)
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{
		"-addr", ":9090",
		"-executor", "log",
		"-window", "5",
		"-cooldown", "1s",
		"-scroll", "120",
		"-app", "/usr/bin/firefox",
		"-origins", "http://a.test, http://b.test",
		"-mirror=false",
		"-overlay=false",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":9090" || cfg.Executor != "log" {
		t.Errorf("unexpected addr/executor %q/%q", cfg.Addr, cfg.Executor)
	}
	if cfg.Window != 5 || cfg.Cooldown != time.Second || cfg.ScrollAmount != 120 {
		t.Errorf("unexpected pipeline config %+v", cfg)
	}
	if cfg.Mirror || cfg.Overlay {
		t.Errorf("expected mirror and overlay disabled, got %v/%v", cfg.Mirror, cfg.Overlay)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("origins = %v, want %v", cfg.AllowedOrigins, want)
	}

	opts := cfg.SessionOptions()
	if opts.Window != 5 || opts.Dispatch.Cooldown != time.Second || opts.Dispatch.AppPath != "/usr/bin/firefox" {
		t.Errorf("unexpected session options %+v", opts)
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("TOUCHLESS_ADDR", ":7070")
	t.Setenv("TOUCHLESS_WINDOW", "9")
	t.Setenv("TOUCHLESS_COOLDOWN", "2s")
	t.Setenv("TOUCHLESS_TRAY", "true")

	cfg, err := Load([]string{"-window", "3"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":7070" {
		t.Errorf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.Window != 3 {
		t.Errorf("flag should win over env, got window %d", cfg.Window)
	}
	if cfg.Cooldown != 2*time.Second {
		t.Errorf("expected env cooldown, got %v", cfg.Cooldown)
	}
	if !cfg.Tray {
		t.Error("expected tray enabled from env")
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("TOUCHLESS_FPS", "fast")

	if _, err := Load(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"executor", []string{"-executor", "telepathy"}},
		{"window", []string{"-window", "0"}},
		{"cooldown", []string{"-cooldown", "-1s"}},
		{"log level", []string{"-log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.args); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestApplySettings(t *testing.T) {
	cfg := Default()

	err := cfg.ApplySettings(map[string]string{
		SettingWindow:       "11",
		SettingCooldown:     "1500ms",
		SettingScrollAmount: "-3",
		SettingAppPath:      "/Applications/Notes.app",
		SettingMirror:       "false",
		"unknown":           "ignored",
	})
	if err == nil {
		t.Error("expected error for negative scroll amount")
	}

	if cfg.Window != 11 || cfg.Cooldown != 1500*time.Millisecond {
		t.Errorf("valid settings not applied: %+v", cfg)
	}
	if cfg.ScrollAmount != 400 {
		t.Errorf("invalid scroll amount should keep the previous value, got %d", cfg.ScrollAmount)
	}
	if cfg.AppPath != "/Applications/Notes.app" || cfg.Mirror {
		t.Errorf("unexpected app path/mirror %q/%v", cfg.AppPath, cfg.Mirror)
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	src := Default()
	src.Window = 4
	src.Cooldown = 2 * time.Second
	src.AppPath = "/bin/true"

	dst := Default()
	if err := dst.ApplySettings(src.Settings()); err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}
	if dst.Window != 4 || dst.Cooldown != 2*time.Second || dst.AppPath != "/bin/true" {
		t.Errorf("settings did not round trip: %+v", dst)
	}
}
