package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReload(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.Append("id-1", "hello world", "")
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)
	entries := reopened.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "id-1", entries[0].ID)
	assert.Equal(t, "hello world", entries[0].Text)
}

func TestDeleteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.Append("id-1", "hi", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete("id-1"))
	assert.Empty(t, s.All())
	require.NoError(t, s.Delete("id-1")) // second delete of the same ID is a no-op
}

func TestDeleteRemovesWavFile(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "seg.wav")
	require.NoError(t, os.WriteFile(wavPath, []byte("RIFF"), 0o644))

	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Append("id-1", "hi", wavPath)
	require.NoError(t, err)

	require.NoError(t, s.Delete("id-1"))
	_, statErr := os.Stat(wavPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRetentionEvictsOldestAndDeletesWav(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	s.retention = 2

	wav1 := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(wav1, []byte("x"), 0o644))

	_, err = s.Append("id-1", "one", wav1)
	require.NoError(t, err)
	_, err = s.Append("id-2", "two", "")
	require.NoError(t, err)
	_, err = s.Append("id-3", "three", "")
	require.NoError(t, err)

	entries := s.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "id-2", entries[0].ID)
	assert.Equal(t, "id-3", entries[1].ID)

	_, statErr := os.Stat(wav1)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadClearsWavPathForMissingFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Append("id-1", "hi", filepath.Join(dir, "nonexistent.wav"))
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)
	entries := reopened.All()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].WavPath)
	assert.Equal(t, "hi", entries[0].Text)
}
