package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "current.json")

	require.NoError(t, WriteFileAtomic(path, []byte("hello world"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not remain")
}

func TestWriteFileAtomicOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "current.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions", "nested", "game.json")
	require.NoError(t, WriteFileAtomic(path, []byte("{}"), 0o644))
	assert.FileExists(t, path)
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	type entry struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}
	path := filepath.Join(t.TempDir(), "entries.json")

	var missing []entry
	found, err := ReadJSON(path, &missing)
	require.NoError(t, err)
	assert.False(t, found)

	want := []entry{{"Asha", 12}, {"Ravi", 40}}
	require.NoError(t, WriteJSON(path, want))

	var got []entry
	found, err = ReadJSON(path, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestReadJSONCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	var v map[string]any
	found, err := ReadJSON(path, &v)
	assert.True(t, found)
	assert.Error(t, err)
}
