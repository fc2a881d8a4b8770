package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/prefill-go/internal/prefill"
)

// backendPath returns a fresh location for a backend of the given kind.
func backendPath(t *testing.T, kind string) string {
	t.Helper()
	dir := t.TempDir()
	switch kind {
	case KindSQLite:
		return filepath.Join(dir, "mappings.db")
	default:
		return filepath.Join(dir, "mappings")
	}
}

func openTestBackend(t *testing.T, kind string) MappingBackend {
	t.Helper()
	b, err := Open(kind, backendPath(t, kind), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func sampleMappings() map[string]prefill.Mapping {
	return map[string]prefill.Mapping{
		"email": {TargetFieldID: "email", SourceType: prefill.SourceDirect, SourceID: "f_D", SourceFieldID: "email"},
		"name":  {TargetFieldID: "name", SourceType: prefill.SourceGlobal, SourceID: "global_action", SourceFieldID: "name"},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, kind := range Kinds {
		b, err := New(kind)
		require.NoError(t, err, kind)
		assert.NotNil(t, b)
	}

	_, err := New("postgres")
	assert.Error(t, err)
}

func TestMappingBackends(t *testing.T) {
	t.Parallel()

	for _, kind := range Kinds {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			t.Run("EmptyStore", func(t *testing.T) {
				b := openTestBackend(t, kind)

				all, err := b.LoadAll(ctx)
				require.NoError(t, err)
				assert.Empty(t, all)
				assert.Equal(t, 0, b.FormCount())

				rev, err := b.Revision(ctx, "f_F")
				require.NoError(t, err)
				assert.Empty(t, rev)
			})

			t.Run("PersistAndLoad", func(t *testing.T) {
				b := openTestBackend(t, kind)

				require.NoError(t, b.Persist(ctx, "f_F", sampleMappings()))
				require.NoError(t, b.Persist(ctx, "f_B", map[string]prefill.Mapping{}))

				all, err := b.LoadAll(ctx)
				require.NoError(t, err)
				require.Len(t, all, 2)
				assert.Equal(t, sampleMappings(), all["f_F"])
				assert.NotNil(t, all["f_B"])
				assert.Empty(t, all["f_B"])

				require.NoError(t, b.Persist(ctx, "f_F", sampleMappings()))
				assert.Equal(t, 2, b.FormCount())
			})

			t.Run("PersistReplacesSet", func(t *testing.T) {
				b := openTestBackend(t, kind)

				require.NoError(t, b.Persist(ctx, "f_F", sampleMappings()))
				first, err := b.Revision(ctx, "f_F")
				require.NoError(t, err)
				require.NotEmpty(t, first)

				remaining := sampleMappings()
				delete(remaining, "email")
				require.NoError(t, b.Persist(ctx, "f_F", remaining))

				all, err := b.LoadAll(ctx)
				require.NoError(t, err)
				assert.Equal(t, remaining, all["f_F"])

				second, err := b.Revision(ctx, "f_F")
				require.NoError(t, err)
				assert.NotEqual(t, first, second)
			})

			t.Run("LoadAllReturnsCopies", func(t *testing.T) {
				b := openTestBackend(t, kind)
				require.NoError(t, b.Persist(ctx, "f_F", sampleMappings()))

				all, err := b.LoadAll(ctx)
				require.NoError(t, err)
				delete(all["f_F"], "email")

				again, err := b.LoadAll(ctx)
				require.NoError(t, err)
				assert.Len(t, again["f_F"], 2)
			})

			t.Run("ClosedBackend", func(t *testing.T) {
				b := openTestBackend(t, kind)
				require.NoError(t, b.Close())

				assert.ErrorIs(t, b.Persist(ctx, "f_F", sampleMappings()), ErrNotInitialized)
				_, err := b.LoadAll(ctx)
				assert.ErrorIs(t, err, ErrNotInitialized)
				require.NoError(t, b.Close())
			})

			t.Run("RestoresStore", func(t *testing.T) {
				b := openTestBackend(t, kind)

				s := prefill.NewStore(b, prefill.WithLogger(nil))
				require.NoError(t, s.SetMapping(ctx, "f_F", "email", sampleMappings()["email"]))
				s.Select("f_B")

				restored := prefill.NewStore(nil)
				require.NoError(t, restored.Restore(ctx, b))

				assert.True(t, restored.HasMapping("f_F", "email"))
				assert.Equal(t, prefill.SourceDirect, restored.MappingsFor("f_F")["email"].SourceType)
			})
		})
	}
}

func TestMemoryBackend_ReadOnly(t *testing.T) {
	t.Parallel()

	b := NewMemoryBackend()
	require.NoError(t, b.Initialize("", true))

	err := b.Persist(context.Background(), "f_F", sampleMappings())
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Equal(t, 0, b.FormCount())
}
