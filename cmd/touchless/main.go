package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/app"
	"github.com/ayusman/touchless/internal/capture"
	"github.com/ayusman/touchless/internal/config"
	"github.com/ayusman/touchless/internal/server"
	"github.com/ayusman/touchless/internal/session"
	"github.com/ayusman/touchless/internal/store"
	"github.com/ayusman/touchless/internal/tray"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.SetupLogging()

	log.Info("Touchless - Hand Gesture Control")

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.WithError(err).Fatal("Failed to create data directory")
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize store")
	}
	defer st.Close()

	if err := applyStoredSettings(&cfg, st); err != nil {
		log.WithError(err).Warn("Ignoring invalid stored settings")
	}

	if cfg.StaticDir == "" {
		cfg.StaticDir = findWebDir()
	}
	if cfg.StaticDir != "" {
		log.WithField("dir", cfg.StaticDir).Info("Serving static files")
	}

	reg := session.NewRegistry(cfg.SessionOptions())

	exec, err := newExecutor(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up executor")
	}
	log.WithField("executor", cfg.Executor).Info("Executor ready")

	host := app.NewHost(exec, newPublisher(cfg), st)
	host.Track(reg)
	defer host.Close()

	var application *app.App
	if cfg.Camera {
		application = app.New(app.Config{
			Registry: reg,
			Host:     host,
			Camera: capture.NewCamera(capture.Options{
				DeviceID: cfg.CameraID,
				Width:    cfg.Width,
				Height:   cfg.Height,
				FPS:      cfg.FPS,
			}),
			FPS:    cfg.FPS,
			Mirror: cfg.Mirror,
		})
		if err := application.Start(); err != nil {
			log.WithError(err).Warn("Camera not available, serving remote clients only")
		} else {
			application.SetEnabled(true)
		}
	}

	det := remoteDetector(application)
	if application == nil && det != nil {
		defer det.Close()
	}

	srv := server.New(server.Config{
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins,
		Store:          st,
		Registry:       reg,
		Host:           host,
		App:            application,
		Detector:       det,
		Overlay:        cfg.Overlay,
		Settings:       cfg,
		OnSettings: func(c config.Config) {
			reg.SetOptions(c.SessionOptions())
			if application != nil {
				application.SetMirror(c.Mirror)
			}
		},
	})
	httpSrv := srv.HTTPServer(cfg.Addr)

	go func() {
		log.WithField("addr", cfg.Addr).Info("Starting server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tray && application != nil {
		// systray needs the main goroutine.
		t := tray.New(application, settingsURL(cfg.Addr))
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	} else {
		<-ctx.Done()
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Server shutdown incomplete")
	}

	if application != nil {
		application.Stop()
	}
	reg.CloseAll()
}
