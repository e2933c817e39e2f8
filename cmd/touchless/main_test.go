package main

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/touchless/internal/config"
	"github.com/ayusman/touchless/internal/executor"
	"github.com/ayusman/touchless/internal/publish"
	"github.com/ayusman/touchless/internal/store"
)

func TestNewExecutor(t *testing.T) {
	cfg := config.Default()

	t.Run("log", func(t *testing.T) {
		cfg.Executor = "log"
		exec, err := newExecutor(cfg)
		if err != nil {
			t.Fatalf("newExecutor() error = %v", err)
		}
		if _, ok := exec.(executor.LogExecutor); !ok {
			t.Errorf("expected LogExecutor, got %T", exec)
		}
	})

	t.Run("plugin with missing directory", func(t *testing.T) {
		cfg.Executor = "plugin"
		cfg.PluginDir = filepath.Join(t.TempDir(), "missing")
		exec, err := newExecutor(cfg)
		if err != nil {
			t.Fatalf("newExecutor() error = %v", err)
		}
		if _, ok := exec.(*executor.PluginExecutor); !ok {
			t.Errorf("expected PluginExecutor, got %T", exec)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		cfg.Executor = "telepathy"
		if _, err := newExecutor(cfg); !errors.Is(err, config.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestNewPublisher(t *testing.T) {
	cfg := config.Default()
	if _, ok := newPublisher(cfg).(publish.Nop); !ok {
		t.Error("expected Nop publisher without a Redis address")
	}

	cfg.RedisAddr = "localhost:6379"
	pub := newPublisher(cfg)
	defer pub.Close()
	if rp, ok := pub.(*publish.RedisPublisher); !ok || rp.Channel() != cfg.RedisChannel {
		t.Errorf("expected Redis publisher on %s, got %T", cfg.RedisChannel, pub)
	}
}

func TestApplyStoredSettings(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	cfg := config.Default()
	st.Settings().Set(config.SettingCooldown, "2s")
	st.Settings().Set(config.SettingWindow, "3")

	if err := applyStoredSettings(&cfg, st); err != nil {
		t.Fatalf("applyStoredSettings() error = %v", err)
	}
	if cfg.Cooldown != 2*time.Second || cfg.Window != 3 {
		t.Errorf("settings not applied: cooldown %v window %d", cfg.Cooldown, cfg.Window)
	}

	st.Settings().Set(config.SettingWindow, "-1")
	before := cfg
	if err := applyStoredSettings(&cfg, st); err == nil {
		t.Error("expected an error for an invalid stored window")
	}
	if cfg.Window != before.Window || cfg.Cooldown != before.Cooldown {
		t.Error("invalid stored settings must leave the config unchanged")
	}
}

func TestSettingsURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"0.0.0.0:9000", "http://localhost:9000/"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080/"},
		{"garbage", "http://localhost:8080/"},
	}

	for _, tt := range tests {
		if got := settingsURL(tt.addr); got != tt.want {
			t.Errorf("settingsURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
