package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Benny93/prefill-go/internal/prefill"
)

// MemoryBackend is an in-memory implementation of MappingBackend for testing
// and for sessions that do not need to outlive the process.
type MemoryBackend struct {
	mu        sync.RWMutex
	forms     map[string]map[string]prefill.Mapping
	revisions map[string]string
	readOnly  bool
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		forms:     make(map[string]map[string]prefill.Mapping),
		revisions: make(map[string]string),
	}
}

// Initialize implements MappingBackend. The path is ignored.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.forms == nil {
		m.forms = make(map[string]map[string]prefill.Mapping)
		m.revisions = make(map[string]string)
	}
	m.readOnly = readOnly
	return nil
}

// Close implements MappingBackend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms = nil
	m.revisions = nil
	return nil
}

// Persist implements MappingBackend.
func (m *MemoryBackend) Persist(ctx context.Context, formID string, mappings map[string]prefill.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.forms == nil {
		return ErrNotInitialized
	}
	if m.readOnly {
		return errReadOnly(formID)
	}

	m.forms[formID] = copyMappings(mappings)
	m.revisions[formID] = uuid.NewString()
	return nil
}

// LoadAll implements MappingBackend.
func (m *MemoryBackend) LoadAll(ctx context.Context) (map[string]map[string]prefill.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.forms == nil {
		return nil, ErrNotInitialized
	}

	out := make(map[string]map[string]prefill.Mapping, len(m.forms))
	for formID, mappings := range m.forms {
		out[formID] = copyMappings(mappings)
	}
	return out, nil
}

// Revision implements MappingBackend.
func (m *MemoryBackend) Revision(ctx context.Context, formID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.revisions == nil {
		return "", ErrNotInitialized
	}
	return m.revisions[formID], nil
}

// FormCount returns the number of stored form configurations.
func (m *MemoryBackend) FormCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.forms)
}

func copyMappings(in map[string]prefill.Mapping) map[string]prefill.Mapping {
	out := make(map[string]prefill.Mapping, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
