// Package tray provides the system tray menu of the Touchless host.
package tray

import (
	"os/exec"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/touchless/internal/action"
	"github.com/ayusman/touchless/internal/gesture"
)

// Controller is the part of the local pipeline the tray drives.
type Controller interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	OnGesture(fn func(gesture.Label, *action.Action))
}

// Tray represents the system tray application.
type Tray struct {
	controller  Controller
	settingsURL string
	openURL     func(url string) error
	onQuit      func()
	mu          sync.RWMutex

	last string

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a Tray driving controller. settingsURL is opened in the browser
// from the settings menu item.
func New(controller Controller, settingsURL string) *Tray {
	t := &Tray{
		controller:  controller,
		settingsURL: settingsURL,
		openURL:     openBrowser,
	}
	controller.OnGesture(t.handleGesture)
	return t
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Touchless")
	systray.SetTooltip("Touchless gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.controller.IsEnabled()), "Toggle gesture recognition")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last), "Last detected gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Touchless")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips gesture recognition on or off.
func (t *Tray) handleToggle() {
	enabled := !t.controller.IsEnabled()
	t.controller.SetEnabled(enabled)

	t.mu.RLock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	t.mu.RUnlock()

	log.WithField("enabled", enabled).Info("Gesture recognition toggled")
}

func (t *Tray) handleSettings() {
	if t.settingsURL == "" {
		return
	}
	if err := t.openURL(t.settingsURL); err != nil {
		log.WithError(err).Warn("Failed to open settings")
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// handleGesture shows the latest gesture, and the action it fired if any.
func (t *Tray) handleGesture(label gesture.Label, a *action.Action) {
	if label == gesture.None && a == nil {
		return
	}

	name := label.DisplayName()
	if a != nil {
		name += " → " + a.String()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = name
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(name))
	}
}

// LastGesture returns the text shown for the last gesture.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}

func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

func openBrowser(url string) error {
	return browserCommand(runtime.GOOS, url).Start()
}
