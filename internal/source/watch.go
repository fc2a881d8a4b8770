package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Benny93/prefill-go/internal/graph"
)

// DefaultDebounce is the quiet period after the last change before a reload.
const DefaultDebounce = 250 * time.Millisecond

// Watch monitors the blueprint file at path and calls onChange with the
// re-read document after each burst of changes. Documents that fail to load
// are logged and skipped. Blocks until the context is cancelled.
//
// The parent directory is watched rather than the file, so editors that
// save by renaming a temporary file over the original are still seen.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func(*graph.Blueprint)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	src := NewFileSource(abs)

	batchTimer := time.NewTimer(debounce)
	batchTimer.Stop() // Don't start yet

	logger.Info("watching blueprint", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			batchTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "path", abs, "err", err)

		case <-batchTimer.C:
			doc, err := src.Load(ctx)
			if err != nil {
				logger.Warn("reloading blueprint failed", "path", abs, "err", err)
				continue
			}
			logger.Info("blueprint reloaded", "path", abs, "nodes", len(doc.Nodes), "forms", len(doc.Forms))
			onChange(doc)
		}
	}
}
