package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTracked(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.luau"))
	mustWrite(t, filepath.Join(dir, "b.luau"))
	mustWrite(t, filepath.Join(dir, "notes.txt"))
	mustWrite(t, filepath.Join(dir, "upper.LUAU"))
	mustWrite(t, filepath.Join(dir, "nested", "c.luau"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.luau"), 0o755))

	got := ListTracked(dir, ".luau")
	assert.Equal(t, []string{"a.luau", "b.luau"}, Sorted(got))
	assert.True(t, got.Has("a.luau"))
	assert.False(t, got.Has("c.luau"))
}

func TestListTrackedMissingDirectory(t *testing.T) {
	got := ListTracked(filepath.Join(t.TempDir(), "does-not-exist"), ".luau")
	assert.Empty(t, got)

	assert.Empty(t, ListTracked("", ".luau"))
}

func TestListTrackedOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.luau")
	mustWrite(t, path)

	assert.Empty(t, ListTracked(path, ".luau"))
}

func TestIsTracked(t *testing.T) {
	assert.True(t, IsTracked("x.luau", ".luau"))
	assert.False(t, IsTracked("x.luau.bak", ".luau"))
	assert.False(t, IsTracked("x.lua", ".luau"))
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("print('hi')"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
