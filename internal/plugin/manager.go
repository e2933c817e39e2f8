package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// ManifestFile is the name of the manifest inside a plugin directory.
const ManifestFile = "plugin.json"

// Manager holds the plugins found below a directory.
type Manager struct {
	dir string

	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager creates a Manager for dir. Nothing is loaded until Discover.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, plugins: map[string]*Plugin{}}
}

// Discover replaces the known plugins with those currently in the directory.
// A missing directory yields no plugins and no error. Subdirectories without a
// readable manifest are skipped.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		entries, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("failed to scan plugins: %w", err)
	}

	found := make(map[string]*Plugin, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := load(filepath.Join(m.dir, entry.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			log.WithError(err).WithField("dir", entry.Name()).Warn("Skipping plugin")
			continue
		}
		found[p.Manifest.Name] = p
		log.WithFields(log.Fields{
			"plugin":  p.Manifest.Name,
			"version": p.Manifest.Version,
			"actions": p.Manifest.Actions,
		}).Debug("Plugin discovered")
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()
	return nil
}

// load reads the manifest in dir. The directory name stands in for a missing name.
func load(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if manifest.Name == "" {
		manifest.Name = filepath.Base(dir)
	}
	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns the plugin called name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.plugins[name]; ok {
		return p, nil
	}
	return nil, ErrPluginNotFound
}

// List returns the known plugins ordered by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	list := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		list = append(list, p)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Manifest.Name < list[j].Manifest.Name })
	return list
}

// PluginDir returns the directory scanned by Discover.
func (m *Manager) PluginDir() string {
	return m.dir
}
