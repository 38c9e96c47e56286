package engine

import (
	"os"
	"path/filepath"
	"testing"

	"autoexec/activity"
	"autoexec/models"
	"autoexec/scanner"
	"autoexec/storage"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	source      string
	destination string
	store       *storage.Manager
	log         *activity.Log
}

func newFixture(t *testing.T, scripts ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		source:      filepath.Join(root, "scripts"),
		destination: filepath.Join(root, "localappdata", "Wave", "autoexec"),
		store:       storage.NewManager(filepath.Join(root, "settings.json")),
		log:         activity.New(nil),
	}
	require.NoError(t, os.MkdirAll(f.source, 0o755))
	for _, name := range scripts {
		writeScript(t, filepath.Join(f.source, name), "-- "+name)
	}
	return f
}

func (f *fixture) engine(mode models.Mode) *Engine {
	settings := &models.Settings{ScriptFolder: f.source}
	return New(Options{Destination: f.destination, Extension: ".luau", Mode: mode}, settings, f.store, f.log)
}

func (f *fixture) active() []string {
	return scanner.Sorted(scanner.ListTracked(f.destination, ".luau"))
}

func TestScanClassifiesScripts(t *testing.T) {
	f := newFixture(t, "a.luau", "b.luau", "readme.txt")
	writeScript(t, filepath.Join(f.destination, "b.luau"), "")
	writeScript(t, filepath.Join(f.destination, "orphan.luau"), "")

	r := f.engine(models.ModeMulti).Scan()
	assert.Equal(t, []string{"a.luau"}, r.InSourceOnly)
	assert.Equal(t, []string{"orphan.luau"}, r.InDestinationOnly)
	assert.Equal(t, []string{"b.luau"}, r.InBoth)
	assert.Equal(t, []string{"a.luau", "b.luau"}, r.Source())
	assert.Equal(t, []string{"b.luau", "orphan.luau"}, r.Active())

	scripts := r.Scripts()
	require.Len(t, scripts, 3)
	assert.Equal(t, models.StateInactive, scripts[0].State())
	assert.Equal(t, models.StateActive, scripts[1].State())
	assert.Equal(t, models.StateOrphaned, scripts[2].State())
}

func TestScanWithoutFolders(t *testing.T) {
	e := New(Options{Destination: filepath.Join(t.TempDir(), "missing")}, nil, nil, nil)

	r := e.Scan()
	assert.Empty(t, r.Scripts())
}

func TestActivateCopiesAndCreatesDestination(t *testing.T) {
	f := newFixture(t, "x.luau")
	e := f.engine(models.ModeMulti)

	require.NoError(t, e.Activate("x.luau"))

	data, err := os.ReadFile(filepath.Join(f.destination, "x.luau"))
	require.NoError(t, err)
	assert.Equal(t, "-- x.luau", string(data))
	assert.FileExists(t, filepath.Join(f.source, "x.luau"))
	assert.Contains(t, f.log.Entries()[len(f.log.Entries())-1].Message, "Copied 'x.luau'")
}

func TestActivateIsIdempotent(t *testing.T) {
	f := newFixture(t, "x.luau")
	e := f.engine(models.ModeMulti)

	require.NoError(t, e.Activate("x.luau"))
	first, err := os.ReadFile(filepath.Join(f.destination, "x.luau"))
	require.NoError(t, err)

	require.NoError(t, e.Activate("x.luau"))
	second, err := os.ReadFile(filepath.Join(f.destination, "x.luau"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"x.luau"}, f.active())
}

func TestActivateKeepsExistingDestinationFile(t *testing.T) {
	f := newFixture(t, "x.luau")
	writeScript(t, filepath.Join(f.destination, "x.luau"), "edited in place")

	require.NoError(t, f.engine(models.ModeMulti).Activate("x.luau"))

	data, err := os.ReadFile(filepath.Join(f.destination, "x.luau"))
	require.NoError(t, err)
	assert.Equal(t, "edited in place", string(data))
}

func TestActivateRejectsUnknownScript(t *testing.T) {
	f := newFixture(t, "x.luau")
	e := f.engine(models.ModeMulti)

	err := e.Activate("y.luau")
	assert.True(t, errors.Is(err, ErrNotInSource))
	assert.Empty(t, f.active())
}

func TestActivateRejectsInvalidNames(t *testing.T) {
	f := newFixture(t, "x.luau")
	e := f.engine(models.ModeMulti)

	for _, name := range []string{"", "x.lua", "../x.luau", "sub/x.luau", `sub\x.luau`} {
		assert.True(t, errors.Is(e.Activate(name), ErrInvalidName), name)
		assert.True(t, errors.Is(e.Deactivate(name), ErrInvalidName), name)
	}
}

func TestActivateReportsCopyFailure(t *testing.T) {
	f := newFixture(t, "x.luau")
	// A regular file where the destination folder should be
	writeScript(t, f.destination, "not a directory")

	err := f.engine(models.ModeMulti).Activate("x.luau")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCopyFailed))

	entries := f.log.Entries()
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[len(entries)-1].Message, "error=")
}

func TestDeactivateIsIdempotent(t *testing.T) {
	f := newFixture(t, "x.luau")
	e := f.engine(models.ModeMulti)

	require.NoError(t, e.Deactivate("x.luau"))
	require.NoError(t, e.Activate("x.luau"))
	require.NoError(t, e.Deactivate("x.luau"))
	require.NoError(t, e.Deactivate("x.luau"))

	assert.Empty(t, f.active())
	assert.FileExists(t, filepath.Join(f.source, "x.luau"))
}

func TestActivateDeactivateRoundTrip(t *testing.T) {
	f := newFixture(t, "x.luau", "y.luau")
	writeScript(t, filepath.Join(f.destination, "keep.luau"), "")
	writeScript(t, filepath.Join(f.destination, "other.txt"), "")
	before := listDir(t, f.destination)

	e := f.engine(models.ModeMulti)
	require.NoError(t, e.Activate("x.luau"))
	require.NoError(t, e.Deactivate("x.luau"))

	assert.Equal(t, before, listDir(t, f.destination))
}

func TestDeactivateAllEmptiesDestination(t *testing.T) {
	f := newFixture(t)
	writeScript(t, filepath.Join(f.destination, "b.luau"), "")
	writeScript(t, filepath.Join(f.destination, "a.luau"), "")
	writeScript(t, filepath.Join(f.destination, "keep.txt"), "")

	removed, err := f.engine(models.ModeMulti).DeactivateAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.luau", "b.luau"}, removed)
	assert.Empty(t, f.active())
	assert.FileExists(t, filepath.Join(f.destination, "keep.txt"))
}

func TestDeactivateAllContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"c.luau", "a.luau", "b.luau"} {
		writeScript(t, filepath.Join(f.destination, name), "")
	}
	e := f.engine(models.ModeMulti)
	attempts := failRemoving(e, "b.luau")

	removed, err := e.DeactivateAll()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeleteFailed))
	assert.Contains(t, err.Error(), "b.luau")
	assert.Equal(t, []string{"a.luau", "b.luau", "c.luau"}, *attempts)
	assert.Equal(t, []string{"a.luau", "c.luau"}, removed)
	assert.Equal(t, []string{"b.luau"}, f.active())
}

func TestDeactivateReportsDeleteFailure(t *testing.T) {
	f := newFixture(t, "x.luau")
	e := f.engine(models.ModeMulti)
	require.NoError(t, e.Activate("x.luau"))
	failRemoving(e, "x.luau")

	err := e.Deactivate("x.luau")
	assert.True(t, errors.Is(err, ErrDeleteFailed))
	assert.Equal(t, []string{"x.luau"}, f.active())

	entries := f.log.Entries()
	assert.Contains(t, entries[len(entries)-1].Message, "Failed to remove 'x.luau'")
}

func TestDeactivateReportsUnreadableEntry(t *testing.T) {
	f := newFixture(t, "x.luau")
	e := f.engine(models.ModeMulti)
	require.NoError(t, e.Activate("x.luau"))
	e.stat = func(path string) (os.FileInfo, error) {
		return nil, &os.PathError{Op: "stat", Path: path, Err: os.ErrPermission}
	}

	err := e.Deactivate("x.luau")
	assert.True(t, errors.Is(err, ErrDeleteFailed))
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Equal(t, []string{"x.luau"}, f.active())
}

func TestDeactivateWithDestinationFile(t *testing.T) {
	f := newFixture(t, "x.luau")
	writeScript(t, f.destination, "not a directory")

	assert.NoError(t, f.engine(models.ModeMulti).Deactivate("x.luau"))
}

func TestDeactivateAllMissingDestination(t *testing.T) {
	f := newFixture(t)

	removed, err := f.engine(models.ModeMulti).DeactivateAll()
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestEndToEndActivation(t *testing.T) {
	f := newFixture(t, "x.luau", "y.luau")
	e := f.engine(models.ModeMulti)

	require.NoError(t, e.Activate("x.luau"))
	assert.Equal(t, []string{"x.luau"}, f.active())

	require.NoError(t, e.Activate("y.luau"))
	assert.Equal(t, []string{"x.luau", "y.luau"}, f.active())

	require.NoError(t, e.Deactivate("x.luau"))
	assert.Equal(t, []string{"y.luau"}, f.active())
}

func TestToggleLeavesOrphansAlone(t *testing.T) {
	f := newFixture(t, "a.luau", "b.luau", "c.luau")
	writeScript(t, filepath.Join(f.destination, "orphan.luau"), "")
	e := f.engine(models.ModeMulti)

	require.NoError(t, e.Toggle("a.luau", true))
	require.NoError(t, e.Toggle("b.luau", true))
	require.NoError(t, e.Toggle("c.luau", true))
	require.NoError(t, e.Toggle("b.luau", false))

	assert.Equal(t, []string{"a.luau", "c.luau", "orphan.luau"}, f.active())

	r := e.Scan()
	assert.Equal(t, []string{"a.luau", "c.luau"}, r.InBoth)
	assert.Equal(t, []string{"orphan.luau"}, r.InDestinationOnly)

	// Unchecking an orphan removes it
	require.NoError(t, e.Toggle("orphan.luau", false))
	assert.Equal(t, []string{"a.luau", "c.luau"}, f.active())
}

func TestToggleRequiresMultiMode(t *testing.T) {
	f := newFixture(t, "a.luau")

	err := f.engine(models.ModeSingle).Toggle("a.luau", true)
	assert.True(t, errors.Is(err, ErrWrongMode))
}

func TestSelectKeepsOneActiveScript(t *testing.T) {
	f := newFixture(t, "a.luau", "b.luau")
	e := f.engine(models.ModeSingle)

	require.NoError(t, e.Select("a.luau"))
	assert.Equal(t, []string{"a.luau"}, f.active())
	assert.Equal(t, "a.luau", e.Selected())

	require.NoError(t, e.Select("b.luau"))
	assert.Equal(t, []string{"b.luau"}, f.active())
	assert.Equal(t, "b.luau", e.Selected())

	require.NoError(t, e.Select("b.luau"))
	assert.Equal(t, []string{"b.luau"}, f.active())

	saved, err := f.store.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "b.luau", saved.LastSelectedScript)
	assert.Equal(t, f.source, saved.ScriptFolder)
}

func TestSelectUnknownScriptKeepsSelection(t *testing.T) {
	f := newFixture(t, "a.luau")
	e := f.engine(models.ModeSingle)
	require.NoError(t, e.Select("a.luau"))

	err := e.Select("missing.luau")
	assert.True(t, errors.Is(err, ErrNotInSource))
	assert.Equal(t, []string{"a.luau"}, f.active())
	assert.Equal(t, "a.luau", e.Selected())
}

func TestSelectRemovesOtherActiveScripts(t *testing.T) {
	f := newFixture(t, "a.luau", "b.luau")
	writeScript(t, filepath.Join(f.destination, "b.luau"), "")
	writeScript(t, filepath.Join(f.destination, "orphan.luau"), "")
	writeScript(t, filepath.Join(f.destination, "keep.txt"), "")
	e := f.engine(models.ModeSingle)

	require.NoError(t, e.Select("a.luau"))
	assert.Equal(t, []string{"a.luau"}, f.active())
	assert.Equal(t, "a.luau", e.Selected())
	assert.FileExists(t, filepath.Join(f.destination, "keep.txt"))
}

func TestSelectReportsMultipleActiveWhenPreviousStays(t *testing.T) {
	f := newFixture(t, "a.luau", "b.luau")
	e := f.engine(models.ModeSingle)
	require.NoError(t, e.Select("a.luau"))
	failRemoving(e, "a.luau")

	err := e.Select("b.luau")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMultipleActive))
	assert.True(t, errors.Is(err, ErrDeleteFailed))
	assert.Equal(t, []string{"a.luau", "b.luau"}, f.active())
	assert.Equal(t, "b.luau", e.Selected())

	entries := f.log.Entries()
	assert.Equal(t, log.WarnLevel, entries[len(entries)-1].Level)
}

func TestSelectReportsMultipleActiveForLeftovers(t *testing.T) {
	f := newFixture(t, "a.luau")
	writeScript(t, filepath.Join(f.destination, "c.luau"), "")
	writeScript(t, filepath.Join(f.destination, "d.luau"), "")
	e := f.engine(models.ModeSingle)
	attempts := failRemoving(e, "c.luau")

	err := e.Select("a.luau")
	assert.True(t, errors.Is(err, ErrMultipleActive))
	assert.Equal(t, []string{"c.luau", "d.luau"}, *attempts)
	assert.Equal(t, []string{"a.luau", "c.luau"}, f.active())
	assert.Equal(t, "a.luau", e.Selected())
}

func TestSelectNoneClearsEverything(t *testing.T) {
	f := newFixture(t, "a.luau")
	writeScript(t, filepath.Join(f.destination, "orphan.luau"), "")
	e := f.engine(models.ModeSingle)
	require.NoError(t, e.Select("a.luau"))

	require.NoError(t, e.SelectNone())
	assert.Empty(t, f.active())
	assert.Empty(t, e.Selected())

	saved, err := f.store.LoadSettings()
	require.NoError(t, err)
	assert.Empty(t, saved.LastSelectedScript)
}

func TestSelectRequiresSingleMode(t *testing.T) {
	f := newFixture(t, "a.luau")
	e := f.engine(models.ModeMulti)

	assert.True(t, errors.Is(e.Select("a.luau"), ErrWrongMode))
	assert.True(t, errors.Is(e.SelectNone(), ErrWrongMode))
}

func TestNewClearsStaleSelection(t *testing.T) {
	f := newFixture(t, "a.luau")
	settings := &models.Settings{ScriptFolder: f.source, LastSelectedScript: "a.luau"}

	e := New(Options{Destination: f.destination, Mode: models.ModeSingle}, settings, f.store, f.log)
	assert.Empty(t, e.Selected())

	saved, err := f.store.LoadSettings()
	require.NoError(t, err)
	assert.Empty(t, saved.LastSelectedScript)
}

func TestNewKeepsValidSelection(t *testing.T) {
	f := newFixture(t, "a.luau")
	writeScript(t, filepath.Join(f.destination, "a.luau"), "")
	settings := &models.Settings{ScriptFolder: f.source, LastSelectedScript: "a.luau"}

	e := New(Options{Destination: f.destination, Mode: models.ModeSingle}, settings, f.store, f.log)
	assert.Equal(t, "a.luau", e.Selected())
}

func TestSetSourceFolderPersists(t *testing.T) {
	f := newFixture(t)
	e := New(Options{Destination: f.destination}, nil, f.store, f.log)

	require.NoError(t, e.SetSourceFolder(f.source))
	assert.Equal(t, f.source, e.SourceFolder())

	saved, err := f.store.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, f.source, saved.ScriptFolder)
}

// failRemoving makes removal of the named scripts fail and records every attempt
func failRemoving(e *Engine, names ...string) *[]string {
	attempts := &[]string{}
	e.remove = func(path string) error {
		name := filepath.Base(path)
		*attempts = append(*attempts, name)
		for _, n := range names {
			if n == name {
				return &os.PathError{Op: "remove", Path: path, Err: os.ErrPermission}
			}
		}
		return os.Remove(path)
	}
	return attempts
}

func writeScript(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
