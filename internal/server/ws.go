package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/touchless/internal/app"
	"github.com/ayusman/touchless/internal/detector"
	"github.com/ayusman/touchless/internal/gesture"
	"github.com/ayusman/touchless/internal/session"
)

// MaxFrameSize is the largest frame message accepted on /ws/frames.
const MaxFrameSize = 1 << 20

var (
	// ErrBadFrame is returned for frame messages that cannot be decoded.
	ErrBadFrame = errors.New("malformed frame message")
	// ErrNoDetector is returned for image frames when no detector is configured.
	ErrNoDetector = errors.New("no hand detector configured")
)

// FramesConfig holds the collaborators of a FramesHandler.
type FramesConfig struct {
	Registry *session.Registry
	// Host executes, records and publishes; optional.
	Host *app.Host
	// Detector is required for image frames; landmark frames work without it.
	Detector       detector.Detector
	AllowedOrigins []string
}

// FramesHandler runs the frames of each WebSocket connection through a session of
// its own. The session opens on connect and closes on disconnect.
type FramesHandler struct {
	config   FramesConfig
	upgrader websocket.Upgrader
}

// NewFramesHandler creates a FramesHandler.
func NewFramesHandler(config FramesConfig) *FramesHandler {
	return &FramesHandler{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(config.AllowedOrigins, origin)
			},
		},
	}
}

// landmarkMessage is a frame already reduced to landmarks by the client.
// Timestamp is in milliseconds; zero means the time of arrival.
type landmarkMessage struct {
	Landmarks  []detector.Point3D `json:"landmarks"`
	Handedness string             `json:"handedness"`
	Timestamp  float64            `json:"timestamp"`
}

// ServeHTTP upgrades the connection and processes frames in arrival order until
// the client goes away. After each frame the display name of the stable gesture
// is sent back, unless no gesture is stable.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxFrameSize)

	sess := h.config.Registry.Open("websocket")
	defer h.config.Registry.Close(sess.ID())

	logger := log.WithFields(log.Fields{"session": sess.ID(), "remote": r.RemoteAddr})
	ctx := r.Context()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Warn("WebSocket read failed")
			}
			return
		}

		frame, err := h.decode(msgType, data, time.Now())
		if errors.Is(err, ErrBadFrame) {
			// Counted as a frame without a hand, on the client's clock.
			logger.WithError(err).Warn("Malformed frame counted as empty")
			frame, err = session.Frame{Timestamp: sess.LastFrame()}, nil
		}
		if err != nil {
			logger.WithError(err).Warn("Frame skipped")
			continue
		}

		label, err := h.process(ctx, sess, frame)
		if err != nil {
			logger.WithError(err).Warn("Frame skipped")
			continue
		}
		if label == gesture.None {
			continue
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(label.DisplayName())); err != nil {
			logger.WithError(err).Warn("WebSocket write failed")
			return
		}
	}
}

// process runs one frame through sess and hands the outcome to the host. It
// returns the stable label after the frame.
func (h *FramesHandler) process(ctx context.Context, sess *session.Session, frame session.Frame) (gesture.Label, error) {
	res, err := sess.Process(frame)
	if err != nil && !errors.Is(err, gesture.ErrInvalidLandmarkSet) {
		return gesture.None, err
	}

	if h.config.Host != nil {
		// The host has already logged and recorded a failed action; the gesture
		// is still reported to the client.
		_ = h.config.Host.Handle(ctx, sess.ID(), res, frame.Timestamp)
	}
	return res.Stable, nil
}

// decode turns a message into a frame. Text messages hold either landmark JSON or
// a base64 JPEG, optionally as a data URL; binary messages hold raw image bytes.
func (h *FramesHandler) decode(msgType int, data []byte, now time.Time) (session.Frame, error) {
	if msgType == websocket.BinaryMessage {
		return h.detect(data, now)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return session.Frame{}, fmt.Errorf("%w: empty message", ErrBadFrame)
	}

	if trimmed[0] == '{' {
		var msg landmarkMessage
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return session.Frame{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		ts := now
		if msg.Timestamp > 0 {
			ts = time.Unix(0, int64(msg.Timestamp*float64(time.Millisecond)))
		}
		return session.Frame{
			Landmarks:  msg.Landmarks,
			Handedness: detector.ParseHandedness(msg.Handedness),
			Timestamp:  ts,
		}, nil
	}

	encoded := trimmed
	if i := bytes.IndexByte(encoded, ','); i >= 0 {
		encoded = encoded[i+1:]
	}
	img := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(img, encoded)
	if err != nil {
		return session.Frame{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	return h.detect(img[:n], now)
}

// detect decodes an image and runs the hand detector on it.
func (h *FramesHandler) detect(img []byte, now time.Time) (session.Frame, error) {
	if h.config.Detector == nil {
		return session.Frame{}, ErrNoDetector
	}

	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return session.Frame{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return session.Frame{}, fmt.Errorf("%w: not an image", ErrBadFrame)
	}

	hands, err := h.config.Detector.Detect(&mat)
	if err != nil {
		return session.Frame{}, fmt.Errorf("detect hands: %w", err)
	}
	return session.FrameFromHand(detector.FirstHand(hands), now), nil
}
