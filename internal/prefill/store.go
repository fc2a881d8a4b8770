package prefill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// Persister is the external mapping store. It receives the full mapping set
// of a form after every change.
type Persister interface {
	Persist(ctx context.Context, formID string, mappings map[string]Mapping) error
}

// Loader reads every persisted form configuration.
type Loader interface {
	LoadAll(ctx context.Context) (map[string]map[string]Mapping, error)
}

// Option configures a Store or a Session.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	globals []GlobalSource
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used to report persistence failures.
// A nil logger silences them.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		o.logger = l
	}
}

// WithGlobalSources replaces the built-in global sources of a Session.
func WithGlobalSources(sources ...GlobalSource) Option {
	return func(o *options) {
		o.globals = sources
	}
}

// Store holds the chosen mapping per target form and field.
//
// The in-memory state is the source of truth for the session: every change
// is committed before it is handed to the Persister, and a failed persist is
// reported to the caller without rolling the change back. Persist calls are
// issued in commit order.
type Store struct {
	mu        sync.RWMutex
	persistMu sync.Mutex

	configs   map[string]*FormConfig
	selected  string
	persister Persister
	logger    *slog.Logger
}

// NewStore creates an empty store. A nil persister keeps mappings in memory only.
func NewStore(p Persister, opts ...Option) *Store {
	o := newOptions(opts)
	return &Store{
		configs:   make(map[string]*FormConfig),
		persister: p,
		logger:    o.logger,
	}
}

// Select marks formID as the active target and creates its empty
// configuration on first selection. Selecting again changes nothing else.
func (s *Store) Select(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = formID
	s.ensure(formID)
}

// Selected returns the active target form.
func (s *Store) Selected() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != ""
}

// SetMapping inserts or replaces the mapping of targetFieldID and persists
// the form's updated mapping set.
func (s *Store) SetMapping(ctx context.Context, formID, targetFieldID string, m Mapping) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	m.TargetFieldID = targetFieldID

	s.mu.Lock()
	cfg := s.ensure(formID)
	cfg.Mappings[targetFieldID] = m
	snapshot := copyMappings(cfg.Mappings)
	s.mu.Unlock()

	return s.persist(ctx, formID, targetFieldID, snapshot)
}

// RemoveMapping deletes the mapping of fieldID and persists the remaining
// set. It does nothing for a form that has no configuration.
func (s *Store) RemoveMapping(ctx context.Context, formID, fieldID string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	cfg, ok := s.configs[formID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(cfg.Mappings, fieldID)
	snapshot := copyMappings(cfg.Mappings)
	s.mu.Unlock()

	return s.persist(ctx, formID, fieldID, snapshot)
}

// MappingsFor returns a copy of the mappings of formID, empty when unknown.
func (s *Store) MappingsFor(formID string) map[string]Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[formID]
	if !ok {
		return map[string]Mapping{}
	}
	return copyMappings(cfg.Mappings)
}

// HasMapping reports whether fieldID of formID has a mapping.
func (s *Store) HasMapping(formID, fieldID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[formID]
	if !ok {
		return false
	}
	_, ok = cfg.Mappings[fieldID]
	return ok
}

// Configs returns a copy of every form configuration, sorted by form id.
func (s *Store) Configs() []FormConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FormConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		out = append(out, FormConfig{FormID: cfg.FormID, Mappings: copyMappings(cfg.Mappings)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FormID < out[j].FormID })
	return out
}

// Restore replaces the in-memory configurations with those read from l.
// Nothing is persisted back.
func (s *Store) Restore(ctx context.Context, l Loader) error {
	all, err := l.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("restoring mappings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs = make(map[string]*FormConfig, len(all))
	for formID, mappings := range all {
		s.configs[formID] = &FormConfig{FormID: formID, Mappings: copyMappings(mappings)}
	}
	return nil
}

// ensure returns the configuration of formID, creating it if needed.
// Must be called with the write lock held.
func (s *Store) ensure(formID string) *FormConfig {
	cfg, ok := s.configs[formID]
	if !ok {
		cfg = &FormConfig{FormID: formID, Mappings: make(map[string]Mapping)}
		s.configs[formID] = cfg
	}
	return cfg
}

func (s *Store) persist(ctx context.Context, formID, fieldID string, mappings map[string]Mapping) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Persist(ctx, formID, mappings); err != nil {
		s.logger.Warn("persisting prefill mappings failed",
			"form_id", formID,
			"field_id", fieldID,
			"err", err,
		)
		return fmt.Errorf("persisting mappings for form %s: %w", formID, err)
	}
	return nil
}
