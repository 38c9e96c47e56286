package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDelay   = 20 * time.Millisecond
	waitTimeout = 3 * time.Second
	quietPeriod = 300 * time.Millisecond
)

func TestWatcherSignalsTrackedChanges(t *testing.T) {
	source := t.TempDir()
	destination := t.TempDir()

	w := NewWatcher(".luau", testDelay, nil)
	require.NoError(t, w.Restart(source, destination))
	defer w.Stop()
	assert.Equal(t, []string{filepath.Clean(source), filepath.Clean(destination)}, w.Watched())

	writeFile(t, filepath.Join(source, "a.luau"))
	expectRescan(t, w)

	require.NoError(t, os.Remove(filepath.Join(source, "a.luau")))
	expectRescan(t, w)

	writeFile(t, filepath.Join(destination, "b.luau"))
	expectRescan(t, w)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	w := NewWatcher(".luau", testDelay, nil)
	require.NoError(t, w.Restart(dir))
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.luau"), 0o755))
	expectQuiet(t, w)
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()

	w := NewWatcher(".luau", 100*time.Millisecond, nil)
	require.NoError(t, w.Restart(dir))
	defer w.Stop()

	for _, name := range []string{"a.luau", "b.luau", "c.luau"} {
		writeFile(t, filepath.Join(dir, name))
	}
	expectRescan(t, w)
	expectQuiet(t, w)
}

func TestWatcherSkipsMissingFolders(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "does-not-exist")

	w := NewWatcher(".luau", testDelay, nil)
	require.NoError(t, w.Restart(missing, dir, ""))
	defer w.Stop()

	assert.Equal(t, []string{filepath.Clean(dir)}, w.Watched())
}

func TestWatcherRestartDropsOldFolders(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()

	w := NewWatcher(".luau", testDelay, nil)
	require.NoError(t, w.Restart(oldDir))
	defer w.Stop()

	require.NoError(t, w.Restart(newDir))
	assert.Equal(t, []string{filepath.Clean(newDir)}, w.Watched())

	writeFile(t, filepath.Join(oldDir, "a.luau"))
	expectQuiet(t, w)

	writeFile(t, filepath.Join(newDir, "b.luau"))
	expectRescan(t, w)
}

func TestWatcherStop(t *testing.T) {
	dir := t.TempDir()

	w := NewWatcher(".luau", testDelay, nil)
	require.NoError(t, w.Restart(dir))
	w.Stop()
	w.Stop()

	writeFile(t, filepath.Join(dir, "a.luau"))
	expectQuiet(t, w)
	assert.Empty(t, w.Watched())
}

func TestWatcherCloseEndsConsumers(t *testing.T) {
	dir := t.TempDir()

	w := NewWatcher(".luau", testDelay, nil)
	require.NoError(t, w.Restart(dir))

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for range w.Rescans() {
		}
	}()

	w.Close()
	w.Close()
	w.Stop()

	select {
	case <-finished:
	case <-time.After(waitTimeout):
		t.Fatalf("consumer still running after Close")
	}
	assert.ErrorIs(t, w.Restart(dir), ErrClosed)
	assert.Empty(t, w.Watched())
}

func expectRescan(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Rescans():
	case <-time.After(waitTimeout):
		t.Fatalf("expected a rescan request")
	}
}

func expectQuiet(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Rescans():
		t.Fatalf("unexpected rescan request")
	case <-time.After(quietPeriod):
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}
