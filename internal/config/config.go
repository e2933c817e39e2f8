// Package config loads host configuration from flags, environment variables and
// persisted settings.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/gesture"
	"github.com/ayusman/touchless/internal/session"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TOUCHLESS_"

// Setting keys that can be persisted and override the loaded configuration.
const (
	SettingWindow       = "window"
	SettingCooldown     = "cooldown"
	SettingScrollAmount = "scroll_amount"
	SettingAppPath      = "app_path"
	SettingMirror       = "mirror"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the host configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	DBPath         string
	StaticDir      string
	PluginDir      string
	Executor       string

	Camera   bool
	CameraID int
	Width    int
	Height   int
	FPS      int
	Mirror   bool
	// Overlay draws finger states and the gesture on the preview stream.
	Overlay  bool

	Window       int
	Cooldown     time.Duration
	ScrollAmount int
	AppPath      string

	RedisAddr    string
	RedisChannel string

	LogLevel string
	Tray     bool
}

// DataDir returns the directory holding the database and plugins.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".touchless"
	}
	return filepath.Join(home, ".touchless")
}

// Default returns the stock configuration.
func Default() Config {
	dataDir := DataDir()
	return Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
		DBPath:         filepath.Join(dataDir, "touchless.db"),
		PluginDir:      filepath.Join(dataDir, "plugins"),
		Executor:       "native",
		Camera:         true,
		Width:          1280,
		Height:         720,
		FPS:            15,
		Mirror:         true,
		Overlay:        true,
		Window:         gesture.DefaultWindow,
		Cooldown:       action.DefaultCooldown,
		ScrollAmount:   action.DefaultScrollAmount,
		RedisChannel:   "touchless:gestures",
		LogLevel:       "info",
	}
}

// Load parses args on top of Default. Every flag falls back to the matching
// TOUCHLESS_* environment variable, so explicit flags win over the environment.
func Load(args []string) (Config, error) {
	cfg := Default()
	env := envReader{}

	fs := flag.NewFlagSet("touchless", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", env.String("ADDR", cfg.Addr), "HTTP listen address")
	origins := fs.String("origins", env.String("ORIGINS", strings.Join(cfg.AllowedOrigins, ",")), "Comma-separated list of allowed CORS origins (use * for all)")
	fs.StringVar(&cfg.DBPath, "db", env.String("DB_PATH", cfg.DBPath), "Path to SQLite database")
	fs.StringVar(&cfg.StaticDir, "static", env.String("STATIC_DIR", cfg.StaticDir), "Directory of static web files")
	fs.StringVar(&cfg.PluginDir, "plugins", env.String("PLUGIN_DIR", cfg.PluginDir), "Plugin directory")
	fs.StringVar(&cfg.Executor, "executor", env.String("EXECUTOR", cfg.Executor), "Action executor: native, plugin or log")
	fs.BoolVar(&cfg.Camera, "camera", env.Bool("CAMERA", cfg.Camera), "Run the local camera loop")
	fs.IntVar(&cfg.CameraID, "camera-id", env.Int("CAMERA_ID", cfg.CameraID), "Camera device ID")
	fs.IntVar(&cfg.Width, "width", env.Int("WIDTH", cfg.Width), "Capture width")
	fs.IntVar(&cfg.Height, "height", env.Int("HEIGHT", cfg.Height), "Capture height")
	fs.IntVar(&cfg.FPS, "fps", env.Int("FPS", cfg.FPS), "Local loop frame rate")
	fs.BoolVar(&cfg.Mirror, "mirror", env.Bool("MIRROR", cfg.Mirror), "Flip camera frames horizontally")
	fs.IntVar(&cfg.Window, "window", env.Int("WINDOW", cfg.Window), "Smoothing window in frames")
	fs.DurationVar(&cfg.Cooldown, "cooldown", env.Duration("COOLDOWN", cfg.Cooldown), "Minimum time between actions")
	fs.IntVar(&cfg.ScrollAmount, "scroll", env.Int("SCROLL_AMOUNT", cfg.ScrollAmount), "Scroll amount per action")
	fs.StringVar(&cfg.AppPath, "app", env.String("APP_PATH", cfg.AppPath), "Application opened by the three-finger gesture")
	fs.StringVar(&cfg.RedisAddr, "redis", env.String("REDIS_ADDR", cfg.RedisAddr), "Redis address for gesture events (empty disables)")
	fs.StringVar(&cfg.RedisChannel, "redis-channel", env.String("REDIS_CHANNEL", cfg.RedisChannel), "Redis channel for gesture events")
	fs.StringVar(&cfg.LogLevel, "log-level", env.String("LOG_LEVEL", cfg.LogLevel), "Log level")
	fs.BoolVar(&cfg.Overlay, "overlay", env.Bool("OVERLAY", cfg.Overlay), "Draw finger states and the gesture on the preview stream")
	fs.BoolVar(&cfg.Tray, "tray", env.Bool("TRAY", cfg.Tray), "Show the system tray menu")

	if err := env.Err(); err != nil {
		return cfg, err
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.AllowedOrigins = splitOrigins(*origins)

	return cfg, cfg.Validate()
}

// Validate reports configuration values the host cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Executor {
	case "native", "plugin", "log":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown executor %q", ErrInvalidConfig, c.Executor))
	}
	if c.Window < 1 {
		errs = append(errs, fmt.Errorf("%w: window must be positive, got %d", ErrInvalidConfig, c.Window))
	}
	if c.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("%w: cooldown must be positive, got %v", ErrInvalidConfig, c.Cooldown))
	}
	if c.ScrollAmount <= 0 {
		errs = append(errs, fmt.Errorf("%w: scroll amount must be positive, got %d", ErrInvalidConfig, c.ScrollAmount))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, c.FPS))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: bad resolution %dx%d", ErrInvalidConfig, c.Width, c.Height))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// ApplySettings overrides the pipeline fields with persisted settings. Unknown
// keys are ignored; values that do not parse are skipped and reported.
func (c *Config) ApplySettings(settings map[string]string) error {
	var errs []error
	for key, value := range settings {
		var err error
		switch key {
		case SettingWindow:
			c.Window, err = positiveInt(value, c.Window)
		case SettingCooldown:
			var d time.Duration
			if d, err = time.ParseDuration(value); err == nil && d <= 0 {
				err = errNotPositive
			}
			if err == nil {
				c.Cooldown = d
			}
		case SettingScrollAmount:
			c.ScrollAmount, err = positiveInt(value, c.ScrollAmount)
		case SettingAppPath:
			c.AppPath = value
		case SettingMirror:
			var b bool
			if b, err = strconv.ParseBool(value); err == nil {
				c.Mirror = b
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("setting %s=%q: %w", key, value, err))
		}
	}
	return errors.Join(errs...)
}

// Settings returns the persistable pipeline fields as setting key/values.
func (c Config) Settings() map[string]string {
	return map[string]string{
		SettingWindow:       strconv.Itoa(c.Window),
		SettingCooldown:     c.Cooldown.String(),
		SettingScrollAmount: strconv.Itoa(c.ScrollAmount),
		SettingAppPath:      c.AppPath,
		SettingMirror:       strconv.FormatBool(c.Mirror),
	}
}

// DispatcherOptions returns the dispatcher configuration.
func (c Config) DispatcherOptions() action.Options {
	return action.Options{
		Cooldown:     c.Cooldown,
		ScrollAmount: c.ScrollAmount,
		AppPath:      c.AppPath,
	}
}

// SessionOptions returns the per-session pipeline configuration.
func (c Config) SessionOptions() session.Options {
	return session.Options{
		Window:   c.Window,
		Dispatch: c.DispatcherOptions(),
	}
}

// SetupLogging applies the configured level to the standard logrus logger.
func (c Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

var errNotPositive = errors.New("must be positive")

func positiveInt(value string, current int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return current, err
	}
	if n <= 0 {
		return current, errNotPositive
	}
	return n, nil
}

func splitOrigins(s string) []string {
	if strings.TrimSpace(s) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// envReader reads typed TOUCHLESS_* variables and remembers the first parse error.
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	value := os.Getenv(EnvPrefix + key)
	return value, value != ""
}

func (e *envReader) String(key, def string) string {
	if value, ok := e.lookup(key); ok {
		return value
	}
	return def
}

func (e *envReader) Int(key string, def int) int {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) Bool(key string, def bool) bool {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return b
}

func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, key, err)
	}
}

// Err returns the first parse error.
func (e *envReader) Err() error {
	return e.err
}
