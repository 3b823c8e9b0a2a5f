package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDefaultCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	store := Open(dir)

	require.NoError(t, store.EnsureDefault())

	sessions, err := store.load()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, DefaultName, sessions[0].Name)
	assert.True(t, sessions[0].Active)
}

func TestEnsureDefaultIsIdempotent(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, store.EnsureDefault())
	require.NoError(t, store.EnsureDefault())

	sessions, err := store.load()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestCorruptDatabaseReportsNotRunning(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions.yaml"), []byte("{not yaml"), 0o644))

	err := Open(dir).EnsureDefault()
	assert.ErrorIs(t, err, ErrDatabaseNotRunning)
}
