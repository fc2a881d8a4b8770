// Package storage provides the mapping persistence backends for prefill.
//
// It defines the MappingBackend interface that all storage implementations
// must satisfy. A backend receives the complete mapping set of one target
// form on every change and stamps it with a fresh revision id.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Benny93/prefill-go/internal/prefill"
)

// Backend kinds accepted by New.
const (
	KindMemory = "memory"
	KindBadger = "badger"
	KindSQLite = "sqlite"
)

// Kinds lists every supported backend kind.
var Kinds = []string{KindMemory, KindBadger, KindSQLite}

// ErrNotInitialized is returned when a backend is used before Initialize
// or after Close.
var ErrNotInitialized = errors.New("storage backend not initialized")

// ErrReadOnly is returned when persisting to a backend opened read-only.
var ErrReadOnly = errors.New("storage backend is read-only")

func errReadOnly(formID string) error {
	return fmt.Errorf("persisting form %s: %w", formID, ErrReadOnly)
}

// MappingBackend defines the interface for mapping storage implementations.
//
// Implementations must be thread-safe and support concurrent access. They
// satisfy prefill.Persister and prefill.Loader.
type MappingBackend interface {
	// Lifecycle methods

	// Initialize opens or creates the storage backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// Mappings

	// Persist replaces the stored mapping set of formID and records a new
	// revision for it. An empty set is stored as an empty configuration.
	Persist(ctx context.Context, formID string, mappings map[string]prefill.Mapping) error

	// LoadAll returns every stored form configuration keyed by form id.
	LoadAll(ctx context.Context) (map[string]map[string]prefill.Mapping, error)

	// Revision returns the revision id of the last persist of formID, or ""
	// if the form was never persisted.
	Revision(ctx context.Context, formID string) (string, error)

	// FormCount returns the number of stored form configurations.
	FormCount() int
}

// New returns an uninitialized backend of the given kind.
func New(kind string) (MappingBackend, error) {
	switch kind {
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindBadger:
		return NewBadgerBackend(), nil
	case KindSQLite:
		return NewSQLiteBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// Open creates a backend of the given kind and initializes it at path.
func Open(kind, path string, readOnly bool) (MappingBackend, error) {
	b, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := b.Initialize(path, readOnly); err != nil {
		return nil, fmt.Errorf("initializing %s backend: %w", kind, err)
	}
	return b, nil
}
