package engine

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"autoexec/activity"
	"autoexec/models"
	"autoexec/scanner"

	"github.com/cockroachdb/errors"
	cp "github.com/otiai10/copy"
)

var (
	// ErrInvalidName means the name is not a plain file name with the tracked extension
	ErrInvalidName = errors.New("invalid script name")
	// ErrNotInSource means the script is not present in the source folder
	ErrNotInSource = errors.New("script not found in scripts folder")
	// ErrCopyFailed means a script could not be copied into the destination
	ErrCopyFailed = errors.New("copy failed")
	// ErrDeleteFailed means a script could not be removed from the destination
	ErrDeleteFailed = errors.New("delete failed")
	// ErrMultipleActive means a new script was activated but the previous one could not be removed
	ErrMultipleActive = errors.New("more than one script may be active")
	// ErrWrongMode means the operation does not apply to the engine's selection mode
	ErrWrongMode = errors.New("operation not available in this mode")
)

// SettingsStore persists the settings record
type SettingsStore interface {
	SaveSettings(settings *models.Settings) error
}

// Options configures an Engine
type Options struct {
	Destination string
	Extension   string
	Mode        models.Mode
}

// Engine keeps the destination folder in line with the user's choices.
// It holds no per-script state: the destination folder is the source of truth.
// An Engine is not safe for concurrent use; callers drive it from one goroutine.
type Engine struct {
	destination string
	ext         string
	mode        models.Mode
	settings    models.Settings
	store       SettingsStore
	log         *activity.Log

	stat   func(string) (os.FileInfo, error)
	remove func(string) error
}

// New creates an engine from previously loaded settings.
// A nil store disables persistence and a nil log discards entries.
func New(opts Options, settings *models.Settings, store SettingsStore, activityLog *activity.Log) *Engine {
	if opts.Extension == "" {
		opts.Extension = scanner.DefaultExtension
	}
	if settings == nil {
		settings = models.DefaultSettings()
	}
	if activityLog == nil {
		activityLog = activity.New(nil)
	}

	e := &Engine{
		destination: opts.Destination,
		ext:         opts.Extension,
		mode:        opts.Mode,
		settings:    *settings,
		store:       store,
		log:         activityLog,
		stat:        os.Stat,
		remove:      os.Remove,
	}

	// The stored choice must name a file that is actually in the destination
	if e.mode == models.ModeSingle && e.settings.LastSelectedScript != "" {
		if !scanner.ListTracked(e.destination, e.ext).Has(e.settings.LastSelectedScript) {
			e.log.Warn("Last selected script is no longer active", "script", e.settings.LastSelectedScript)
			e.settings.LastSelectedScript = ""
			_ = e.persist()
		}
	}

	return e
}

// Mode returns the selection mode
func (e *Engine) Mode() models.Mode {
	return e.mode
}

// Destination returns the autoexec folder
func (e *Engine) Destination() string {
	return e.destination
}

// Extension returns the tracked extension
func (e *Engine) Extension() string {
	return e.ext
}

// SourceFolder returns the chosen scripts folder, possibly empty
func (e *Engine) SourceFolder() string {
	return e.settings.ScriptFolder
}

// Selected returns the active script in single-select mode
func (e *Engine) Selected() string {
	return e.settings.LastSelectedScript
}

// Settings returns a copy of the current settings record
func (e *Engine) Settings() models.Settings {
	return e.settings
}

// SetSourceFolder changes the scripts folder and persists it
func (e *Engine) SetSourceFolder(path string) error {
	e.settings.ScriptFolder = path
	if err := e.persist(); err != nil {
		return err
	}
	e.log.Info("Set scripts folder: " + path)
	return nil
}

// Scan compares the source and destination folders
func (e *Engine) Scan() Reconciliation {
	return Reconcile(
		scanner.ListTracked(e.settings.ScriptFolder, e.ext),
		scanner.ListTracked(e.destination, e.ext),
	)
}

// Activate copies name from the source folder into the destination.
// It is a no-op when the destination already holds a file with that name.
// After a failure the destination state for name is unknown and callers should re-scan.
func (e *Engine) Activate(name string) error {
	if err := e.validate(name); err != nil {
		return err
	}
	if !scanner.ListTracked(e.settings.ScriptFolder, e.ext).Has(name) {
		return errors.Wrapf(ErrNotInSource, "%q in %q", name, e.settings.ScriptFolder)
	}

	target := filepath.Join(e.destination, name)
	if _, err := os.Stat(target); err == nil {
		e.log.Debug("Script already active", "script", name)
		return nil
	}

	if err := os.MkdirAll(e.destination, 0755); err != nil {
		e.log.Error("Failed to create autoexec folder", "path", e.destination, "error", err)
		return errors.Mark(errors.Wrapf(err, "creating %s", e.destination), ErrCopyFailed)
	}

	source := filepath.Join(e.settings.ScriptFolder, name)
	if err := cp.Copy(source, target, cp.Options{Sync: true}); err != nil {
		e.log.Error("Failed to copy '"+name+"'", "error", err)
		return errors.Mark(errors.Wrapf(err, "copying %q to %s", name, e.destination), ErrCopyFailed)
	}

	e.log.Info("Copied '" + name + "' to " + e.destination)
	return nil
}

// Deactivate removes name from the destination folder.
// Removing an absent file is a no-op. The source folder is never touched.
func (e *Engine) Deactivate(name string) error {
	if err := e.validate(name); err != nil {
		return err
	}

	target := filepath.Join(e.destination, name)
	info, err := e.stat(target)
	if err != nil {
		if absent(err) {
			return nil
		}
		e.log.Error("Failed to check '"+name+"'", "error", err)
		return errors.Mark(errors.Wrapf(err, "checking %q in %s", name, e.destination), ErrDeleteFailed)
	}
	if info.IsDir() {
		return nil
	}

	if err := e.remove(target); err != nil {
		if absent(err) {
			return nil
		}
		e.log.Error("Failed to remove '"+name+"'", "error", err)
		return errors.Mark(errors.Wrapf(err, "removing %q from %s", name, e.destination), ErrDeleteFailed)
	}

	e.log.Info("Removed '" + name + "' from " + e.destination)
	return nil
}

// DeactivateAll removes every tracked file from the destination in sorted order.
// It continues past individual failures and returns the names it removed
// together with every failure joined.
func (e *Engine) DeactivateAll() ([]string, error) {
	var removed []string
	var errs []error
	for _, name := range scanner.Sorted(scanner.ListTracked(e.destination, e.ext)) {
		if err := e.Deactivate(name); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, name)
	}
	return removed, errors.Join(errs...)
}

// Toggle activates or deactivates name in multi-select mode
func (e *Engine) Toggle(name string, on bool) error {
	if e.mode != models.ModeMulti {
		return errors.Wrap(ErrWrongMode, "toggle requires multi-select mode")
	}
	if on {
		return e.Activate(name)
	}
	return e.Deactivate(name)
}

// Select makes name the only active script in single-select mode.
// The previous script is removed first and the copy proceeds even if that
// removal fails. Any other tracked file left in the destination is removed
// afterwards in sorted order. If anything besides name could not be removed
// the returned error matches ErrMultipleActive.
func (e *Engine) Select(name string) error {
	if e.mode != models.ModeSingle {
		return errors.Wrap(ErrWrongMode, "select requires single-select mode")
	}
	if err := e.validate(name); err != nil {
		return err
	}
	if !scanner.ListTracked(e.settings.ScriptFolder, e.ext).Has(name) {
		return errors.Wrapf(ErrNotInSource, "%q in %q", name, e.settings.ScriptFolder)
	}

	previous := e.settings.LastSelectedScript
	var removeErrs []error
	if previous != "" && previous != name {
		if err := e.Deactivate(previous); err != nil {
			removeErrs = append(removeErrs, err)
		}
	}

	if err := e.Activate(name); err != nil {
		if previous != "" && previous != name && len(removeErrs) == 0 {
			// The old script is gone, so nothing is selected anymore
			e.settings.LastSelectedScript = ""
			err = errors.Join(err, e.persist())
		}
		return errors.Join(append(removeErrs, err)...)
	}

	for _, other := range scanner.Sorted(scanner.ListTracked(e.destination, e.ext)) {
		if other == name || other == previous {
			continue
		}
		if err := e.Deactivate(other); err != nil {
			removeErrs = append(removeErrs, err)
		}
	}

	e.settings.LastSelectedScript = name
	saveErr := e.persist()

	if len(removeErrs) > 0 {
		e.log.Warn("Other scripts could not be removed, more than one script is active",
			"selected", name, "failures", len(removeErrs))
		multiErr := errors.Mark(
			errors.Wrapf(errors.Join(removeErrs...), "scripts besides %q are still active", name),
			ErrMultipleActive)
		return errors.Join(multiErr, saveErr)
	}
	return saveErr
}

// SelectNone empties the destination and clears the selection in single-select mode.
// Confirming the destructive action is the caller's job.
func (e *Engine) SelectNone() error {
	if e.mode != models.ModeSingle {
		return errors.Wrap(ErrWrongMode, "select none requires single-select mode")
	}

	removed, err := e.DeactivateAll()
	if err != nil {
		return err
	}

	e.settings.LastSelectedScript = ""
	if err := e.persist(); err != nil {
		return err
	}
	e.log.Info("Deleted all scripts from autoexec", "count", len(removed))
	return nil
}

func (e *Engine) validate(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name ||
		!scanner.IsTracked(name, e.ext) {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

// absent reports whether err means the path, or a folder on its way, does not exist
func absent(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR)
}

func (e *Engine) persist() error {
	if e.store == nil {
		return nil
	}
	settings := e.settings
	if err := e.store.SaveSettings(&settings); err != nil {
		e.log.Error("Failed to save settings", "error", err)
		return err
	}
	return nil
}
