// Package server provides the HTTP and WebSocket host of the Touchless gesture
// pipeline.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/touchless/internal/app"
	"github.com/ayusman/touchless/internal/config"
	"github.com/ayusman/touchless/internal/detector"
	"github.com/ayusman/touchless/internal/server/api"
	"github.com/ayusman/touchless/internal/session"
	"github.com/ayusman/touchless/internal/store"
)

// Config holds the server configuration. Routes whose collaborators are nil are
// not registered.
type Config struct {
	StaticDir      string
	AllowedOrigins []string

	Store    *store.Store
	Registry *session.Registry
	Host     *app.Host
	App      *app.App
	// Overlay draws the local pipeline state on /api/stream.
	Overlay  bool
	// Detector turns image frames received on /ws/frames into landmarks.
	Detector detector.Detector

	// Settings is the configuration served and updated by /api/settings.
	Settings config.Config
	// OnSettings is called with the new configuration after a settings update.
	OnSettings func(config.Config)
}

// Server represents the HTTP server for the Touchless host.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	start   time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	s.handler = loggingMiddleware(corsMiddleware(config.AllowedOrigins)(s.mux))
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		sessions := api.NewSessionsHandler(s.config.Store, s.config.Registry)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
		s.mux.Handle("/api/dispatches", api.NewDispatchesHandler(s.config.Store))
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Store, s.config.Settings, s.config.OnSettings))
	}

	if s.config.App != nil {
		s.mux.Handle("/api/gesture", api.NewGestureHandler(s.config.App))
		var overlay OverlaySource
		if s.config.Overlay {
			overlay = s.config.App
		}
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App.Camera(), overlay))
	}

	if s.config.Registry != nil {
		s.mux.Handle("/ws/frames", NewFramesHandler(FramesConfig{
			Registry:       s.config.Registry,
			Host:           s.config.Host,
			Detector:       s.config.Detector,
			AllowedOrigins: s.config.AllowedOrigins,
		}))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Registry != nil {
		response["sessions"] = s.config.Registry.Len()
	}
	if s.config.App != nil {
		response["enabled"] = s.config.App.IsEnabled()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HTTPServer returns an http.Server serving s on addr, ready for graceful
// shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
