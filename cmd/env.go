package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Benny93/prefill-go/internal/config"
	"github.com/Benny93/prefill-go/internal/prefill"
	"github.com/Benny93/prefill-go/internal/source"
	"github.com/Benny93/prefill-go/internal/storage"
)

// env is everything a command needs to work on one blueprint.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	src        source.Source
	backend    storage.MappingBackend
	session    *prefill.Session
}

func (e *env) Close() error {
	if e.backend == nil {
		return nil
	}
	return e.backend.Close()
}

// watchPath returns the file to watch for graph changes, or "" when the
// source is not a local file.
func (e *env) watchPath() (string, error) {
	switch s := e.src.(type) {
	case *source.FileSource:
		return s.Path, nil
	case *source.DirSource:
		return s.Path()
	default:
		return "", nil
	}
}

// persisted reports whether mappings outlive the process.
func (e *env) persisted() bool {
	return e.cfg.Storage.Backend != storage.KindMemory
}

// loadConfig reads the config file and applies command-line overrides.
func (c *CLI) loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if c.Config != "" {
		cfg, path, err = config.LoadFromPath(c.Config)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if c.Graph != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = c.Graph
	}
	if c.Tenant != "" {
		cfg.TenantID = c.Tenant
	}
	if c.Blueprint != "" {
		cfg.BlueprintID = c.Blueprint
	}
	if c.Backend != "" && c.Backend != cfg.Storage.Backend {
		cfg.Storage.Backend = c.Backend
		cfg.Storage.Path = ""
	}
	if c.Store != "" {
		cfg.Storage.Path = c.Store
	}
	cfg.Complete()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

func (c *CLI) logger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case c.Verbose:
		level = slog.LevelDebug
	case c.Quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))
}

// open loads the configured blueprint, opens the mapping backend and
// restores the stored mappings into a new session. Read-only commands
// against a backend that was never written fall back to an empty store.
func (c *CLI) open(ctx context.Context, readOnly bool) (*env, error) {
	cfg, path, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, configPath: path, logger: c.logger()}

	e.src, err = newSource(cfg)
	if err != nil {
		return nil, err
	}

	doc, err := e.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading blueprint: %w", err)
	}

	e.backend, err = openBackend(cfg, readOnly)
	if err != nil {
		return nil, err
	}

	e.session = prefill.NewSession(doc, e.backend,
		prefill.WithLogger(e.logger),
		prefill.WithGlobalSources(cfg.GlobalSources()...),
	)
	if err := e.session.Store().Restore(ctx, e.backend); err != nil {
		_ = e.backend.Close()
		return nil, err
	}

	e.logger.Debug("session ready",
		"blueprint", doc.ID,
		"forms", len(doc.Forms),
		"backend", cfg.Storage.Backend,
	)
	return e, nil
}

func newSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceFile:
		return source.NewFileSource(cfg.Source.Path), nil
	case config.SourceDir:
		return source.NewDirSource(cfg.Source.Path, cfg.TenantID, cfg.BlueprintID), nil
	case config.SourceHTTP:
		return source.NewHTTPSource(cfg.Source.BaseURL, cfg.TenantID, cfg.BlueprintID, cfg.Source.Timeout.Duration()), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownSource, cfg.Source.Kind)
	}
}

func openBackend(cfg *config.Config, readOnly bool) (storage.MappingBackend, error) {
	kind, path := cfg.Storage.Backend, cfg.Storage.Path
	if kind == storage.KindMemory {
		readOnly = false
	}

	if readOnly {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return storage.Open(storage.KindMemory, "", false)
		}
	}

	return storage.Open(kind, path, readOnly)
}

func writeJSON(w io.Writer, v any) error {
	data, err := jsonIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
