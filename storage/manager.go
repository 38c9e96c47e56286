package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autoexec/models"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
)

// DefaultSettingsFile is resolved relative to the working directory
const DefaultSettingsFile = "settings.json"

const (
	lockTimeout    = 2 * time.Second
	lockRetryDelay = 10 * time.Millisecond
)

var (
	// ErrSettingsCorrupt is returned alongside defaults when the settings file cannot be parsed
	ErrSettingsCorrupt = errors.New("settings file is corrupt")
	// ErrSettingsLocked means another process held the settings lock for too long
	ErrSettingsLocked = errors.New("settings file is locked by another process")
)

// Manager handles settings persistence
type Manager struct {
	path string
}

// NewManager creates a new storage manager for the given settings file
func NewManager(path string) *Manager {
	if path == "" {
		path = DefaultSettingsFile
	}
	return &Manager{path: filepath.Clean(path)}
}

// Path returns the settings file location
func (m *Manager) Path() string {
	return m.path
}

// SaveSettings saves the settings to disk.
// The file is replaced atomically so LoadSettings never observes a partial write.
func (m *Manager) SaveSettings(settings *models.Settings) error {
	if settings == nil {
		settings = models.DefaultSettings()
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create settings directory %s", dir)
		}
	}

	return m.withLock(false, func() error {
		if err := writeFileAtomic(m.path, data, 0644); err != nil {
			return errors.Wrapf(err, "failed to write settings to %s", m.path)
		}
		return nil
	})
}

// LoadSettings loads the settings from disk.
// A missing file yields defaults. A malformed file also yields defaults, together
// with an error matching ErrSettingsCorrupt so the caller can report it.
func (m *Manager) LoadSettings() (*models.Settings, error) {
	var data []byte
	err := m.withLock(true, func() error {
		var readErr error
		data, readErr = os.ReadFile(m.path)
		return readErr
	})
	if err != nil {
		if os.IsNotExist(err) {
			return models.DefaultSettings(), nil
		}
		return models.DefaultSettings(), errors.Wrapf(err, "failed to read settings from %s", m.path)
	}

	settings := models.DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return models.DefaultSettings(), errors.Mark(errors.Wrapf(err, "failed to parse %s", m.path), ErrSettingsCorrupt)
	}

	settings.ScriptFolder = cleanPath(settings.ScriptFolder)
	return settings, nil
}

// withLock runs fn while holding the settings lock file.
// The lock lives next to the settings file so it survives the atomic rename.
func (m *Manager) withLock(shared bool, fn func() error) error {
	lock := flock.New(m.path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil || !locked {
		// Reads tolerate a lock that cannot be created (read-only directory).
		if shared && !locked && !errors.Is(err, context.DeadlineExceeded) {
			return fn()
		}
		return errors.Join(ErrSettingsLocked, err)
	}
	defer lock.Unlock()

	return fn()
}

// cleanPath cleans and normalizes a folder path
func cleanPath(path string) string {
	// Remove surrounding quotes
	path = strings.Trim(path, `"'`)
	if path == "" {
		return ""
	}

	return filepath.Clean(path)
}
