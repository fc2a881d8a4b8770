package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteBackend_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("CreatesParentDirectory", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "dir", "mappings.db")

		backend := NewSQLiteBackend()
		require.NoError(t, backend.Initialize(path, false))
		defer backend.Close()

		assert.FileExists(t, path)
	})

	t.Run("ReadOnlyMissingFile", func(t *testing.T) {
		t.Parallel()
		backend := NewSQLiteBackend()
		err := backend.Initialize(filepath.Join(t.TempDir(), "missing.db"), true)

		assert.Error(t, err)
	})
}

func TestSQLiteBackend_Reopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "mappings.db")

	backend := NewSQLiteBackend()
	require.NoError(t, backend.Initialize(path, false))
	require.NoError(t, backend.Persist(ctx, "f_F", sampleMappings()))
	rev, err := backend.Revision(ctx, "f_F")
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	reopened := NewSQLiteBackend()
	require.NoError(t, reopened.Initialize(path, true))
	defer reopened.Close()

	all, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleMappings(), all["f_F"])

	got, err := reopened.Revision(ctx, "f_F")
	require.NoError(t, err)
	assert.Equal(t, rev, got)

	assert.ErrorIs(t, reopened.Persist(ctx, "f_B", sampleMappings()), ErrReadOnly)
}
