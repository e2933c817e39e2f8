package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/capture"
)

// run reads frames at the throttled rate until stopCh closes.
//
// Each tick reads one frame, mirrors it when configured, updates the motion
// throttle, detects hands and processes the first one. Frames where detection
// fails are skipped; frames without a hand are processed as empty.
func (a *App) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(time.Second / time.Duration(a.throttle.FPS()))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			a.tick(ctx, ticker)
		}
	}
}

func (a *App) tick(ctx context.Context, ticker *time.Ticker) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		log.WithError(err).Debug("Error reading frame")
		return
	}
	defer frame.Close()

	if a.mirrored() {
		capture.Flip(frame)
	}

	now := time.Now()
	motion, _ := a.motion.Detect(frame)
	if fps, changed := a.throttle.Observe(motion, now); changed {
		a.camera.SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
		log.WithField("fps", fps).Debug("Capture rate changed")
	}

	hands, err := a.Detector().Detect(frame)
	if err != nil {
		log.WithError(err).Warn("Error detecting hands")
		return
	}

	if _, err := a.ProcessHands(ctx, hands, now); err != nil {
		log.WithError(err).Debug("Frame not processed cleanly")
	}
}
