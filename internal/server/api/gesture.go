package api

import (
	"net/http"

	"github.com/ayusman/touchless/internal/gesture"
)

// GestureSource reports the current stabilized gesture.
type GestureSource interface {
	CurrentGesture() gesture.Label
}

// GestureHandler reports the current gesture of the local camera.
type GestureHandler struct {
	source GestureSource
}

// NewGestureHandler creates a GestureHandler reading from source.
func NewGestureHandler(source GestureSource) *GestureHandler {
	return &GestureHandler{source: source}
}

type gestureResponse struct {
	Gesture *string `json:"gesture"`
}

// ServeHTTP handles GET /api/gesture. The gesture is null when no hand pose is
// currently stable.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var response gestureResponse
	if label := h.source.CurrentGesture(); label != gesture.None {
		name := label.DisplayName()
		response.Gesture = &name
	}
	writeJSON(w, http.StatusOK, response)
}
