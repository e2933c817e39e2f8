package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/config"
	"github.com/ayusman/touchless/internal/store"
)

// SettingsHandler reads and updates the persisted pipeline settings.
type SettingsHandler struct {
	store *store.Store
	apply func(config.Config)

	mu     sync.Mutex
	config config.Config
}

// NewSettingsHandler creates a SettingsHandler starting from cfg. apply, when
// set, is called with the updated configuration after every successful PUT.
func NewSettingsHandler(s *store.Store, cfg config.Config, apply func(config.Config)) *SettingsHandler {
	return &SettingsHandler{store: s, config: cfg, apply: apply}
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
}

// ServeHTTP handles GET and PUT /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// Config returns the current configuration.
func (h *SettingsHandler) Config() config.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settingsResponse{Settings: h.Config().Settings()})
}

// update validates the request as a whole before persisting any key, so a bad
// value leaves every setting unchanged.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "No settings given")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	known := h.config.Settings()
	for key := range req {
		if _, ok := known[key]; !ok {
			writeError(w, http.StatusBadRequest, "Unknown setting: "+key)
			return
		}
	}

	next := h.config
	if err := next.ApplySettings(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := next.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	keys := make([]string, 0, len(req))
	for key := range req {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := h.store.Settings().Set(key, req[key]); err != nil {
			log.WithError(err).WithField("setting", key).Error("Failed to save setting")
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	h.config = next
	if h.apply != nil {
		h.apply(next)
	}
	log.WithField("settings", keys).Info("Settings updated")

	writeJSON(w, http.StatusOK, settingsResponse{Settings: next.Settings()})
}
