package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/app"
	"github.com/ayusman/touchless/internal/config"
	"github.com/ayusman/touchless/internal/detector"
	"github.com/ayusman/touchless/internal/executor"
	"github.com/ayusman/touchless/internal/plugin"
	"github.com/ayusman/touchless/internal/publish"
	"github.com/ayusman/touchless/internal/store"
)

// redisMaxIdle is the idle connection cap of the event publisher pool.
const redisMaxIdle = 3

// applyStoredSettings overrides cfg with the settings saved through the API.
func applyStoredSettings(cfg *config.Config, st *store.Store) error {
	settings, err := st.Settings().All()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	next := *cfg
	if err := next.ApplySettings(settings); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}

// newExecutor builds the executor selected by cfg.Executor.
func newExecutor(cfg config.Config) (executor.Executor, error) {
	switch cfg.Executor {
	case "log":
		return executor.LogExecutor{}, nil
	case "plugin":
		mgr := plugin.NewManager(cfg.PluginDir)
		if err := mgr.Discover(); err != nil {
			return nil, fmt.Errorf("discover plugins in %s: %w", cfg.PluginDir, err)
		}
		for _, p := range mgr.List() {
			log.WithFields(log.Fields{"plugin": p.Manifest.Name, "version": p.Manifest.Version}).Info("Plugin loaded")
		}
		return executor.NewPluginExecutor(mgr, plugin.NewRunner(plugin.DefaultTimeout), executor.DefaultRoutes()), nil
	case "native":
		return executor.NewNativeExecutor(), nil
	}
	return nil, fmt.Errorf("%w: unknown executor %q", config.ErrInvalidConfig, cfg.Executor)
}

// newPublisher publishes gesture events to Redis when an address is configured.
func newPublisher(cfg config.Config) publish.Publisher {
	if cfg.RedisAddr == "" {
		return publish.Nop{}
	}
	log.WithFields(log.Fields{"addr": cfg.RedisAddr, "channel": cfg.RedisChannel}).Info("Publishing gesture events to Redis")
	return publish.NewRedisPublisher(cfg.RedisAddr, cfg.RedisChannel, redisMaxIdle)
}

// remoteDetector returns the detector used for image frames sent by remote
// clients: the camera loop's when there is one, else a MediaPipe detector. Nil
// means remote clients can only send landmarks.
func remoteDetector(a *app.App) detector.Detector {
	if a != nil {
		return a.Detector()
	}
	d, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		log.WithError(err).Warn("MediaPipe not available, remote clients must send landmarks")
		return nil
	}
	return d
}

// settingsURL is the browser address of the web UI served on addr.
func settingsURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and the data directory.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(config.DataDir(), "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
