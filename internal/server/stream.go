package server

import (
	"fmt"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/touchless/internal/capture"
	"github.com/ayusman/touchless/internal/gesture"
)

const streamBoundary = "frame"

var (
	overlayOn    = color.RGBA{G: 255}
	overlayOff   = color.RGBA{R: 255}
	overlayLabel = color.RGBA{R: 255, G: 255, B: 255}
)

// OverlaySource reports what the preview overlay draws.
type OverlaySource interface {
	Overlay() (gesture.FingerStatus, gesture.Label)
}

// StreamHandler serves the local camera as an MJPEG preview.
type StreamHandler struct {
	camera  capture.Camera
	overlay OverlaySource
}

// NewStreamHandler creates a StreamHandler reading from camera. A non-nil
// overlay is drawn on every frame.
func NewStreamHandler(camera capture.Camera, overlay OverlaySource) *StreamHandler {
	return &StreamHandler{camera: camera, overlay: overlay}
}

// ServeHTTP writes one JPEG part per camera tick until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.camera.IsOpen() {
		http.Error(w, "Camera not available", http.StatusServiceUnavailable)
		return
	}

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(streamBoundary); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
	w.Header().Set("Cache-Control", "no-cache")

	fps := h.camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	flusher, _ := w.(http.Flusher)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, err := h.snapshot()
		if err != nil {
			log.WithError(err).Debug("Stream frame skipped")
			continue
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":   {"image/jpeg"},
			"Content-Length": {strconv.Itoa(len(jpeg))},
		})
		if err != nil {
			return
		}
		if _, err := part.Write(jpeg); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// snapshot reads one frame and returns it JPEG encoded.
func (h *StreamHandler) snapshot() ([]byte, error) {
	frame, err := h.camera.ReadFrame()
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	if h.overlay != nil {
		status, label := h.overlay.Overlay()
		drawOverlay(frame, status, label)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// drawOverlay writes one line per finger in the top left corner, green when
// extended and red when folded, and the gesture along the bottom edge.
func drawOverlay(frame *gocv.Mat, status gesture.FingerStatus, label gesture.Label) {
	for i, f := range []gesture.Finger{gesture.Thumb, gesture.Index, gesture.Middle, gesture.Ring, gesture.Pinky} {
		c, v := overlayOff, 0
		if status.Extended(f) {
			c, v = overlayOn, 1
		}
		gocv.PutText(frame, fmt.Sprintf("%s:%d", f, v), image.Pt(10, 30+i*20), gocv.FontHersheySimplex, 0.6, c, 2)
	}

	name := label.DisplayName()
	if name == "" {
		name = "-"
	}
	gocv.PutText(frame, "Gesture: "+name, image.Pt(10, frame.Rows()-20), gocv.FontHersheySimplex, 0.9, overlayLabel, 2)
}
