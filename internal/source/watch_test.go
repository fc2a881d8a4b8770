package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/prefill-go/internal/graph"
)

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "blueprint.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "v0", "nodes": [], "forms": []}`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *graph.Blueprint, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, nil, func(doc *graph.Blueprint) {
			reloaded <- doc
		})
	}()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{"), 0o644))

	// A malformed write is skipped; the watcher keeps running.
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	var got *graph.Blueprint
	deadline := time.After(10 * time.Second)
	for i := 1; got == nil; i++ {
		content := fmt.Sprintf(`{"id": "v%d", "nodes": [], "forms": []}`, i)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		select {
		case got = <-reloaded:
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
	assert.NotEqual(t, "v0", got.ID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	t.Parallel()

	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "bp.json"), 0, nil, func(*graph.Blueprint) {})
	assert.Error(t, err)
}
