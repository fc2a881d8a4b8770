package prefill

import (
	"context"
	"fmt"
	"sync"

	"github.com/Benny93/prefill-go/internal/graph"
)

// ProviderFields groups the candidates one provider offers for a form.
type ProviderFields struct {
	Kind   SourceKind    `json:"kind"`
	Name   string        `json:"name"`
	Fields []FieldOption `json:"fields"`
}

// Session composes the graph model, the provider registry and the mapping
// store into the surface the operator works against.
//
// Providers are registered during construction, so ProvidersFor never sees
// a partially populated registry. Reload swaps the graph without touching
// stored mappings.
type Session struct {
	mu    sync.RWMutex
	model *graph.Model

	registry *Registry
	store    *Store
}

// NewSession builds a session over doc. A nil persister keeps mappings in
// memory only.
func NewSession(doc *graph.Blueprint, p Persister, opts ...Option) *Session {
	o := newOptions(opts)
	s := &Session{
		model: graph.NewModel(doc),
		store: NewStore(p, opts...),
	}
	s.registry = NewDefaultRegistry(s, o.globals...)
	return s
}

// Model implements GraphView.
func (s *Session) Model() *graph.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Reload replaces the graph document.
func (s *Session) Reload(doc *graph.Blueprint) {
	m := graph.NewModel(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
}

// Registry returns the session's provider registry.
func (s *Session) Registry() *Registry { return s.registry }

// Store returns the session's mapping store.
func (s *Session) Store() *Store { return s.store }

// Forms returns every form of the current graph.
func (s *Session) Forms() []graph.Form {
	return s.Model().Forms()
}

// FormByID returns a form of the current graph.
func (s *Session) FormByID(formID string) (graph.Form, bool) {
	return s.Model().FormByID(formID)
}

// Select marks formID as the active target form.
func (s *Session) Select(formID string) {
	s.store.Select(formID)
}

// Selected returns the active target form.
func (s *Session) Selected() (string, bool) {
	return s.store.Selected()
}

// ProvidersFor returns the providers able to contribute to formID.
func (s *Session) ProvidersFor(formID string) []DataSourceProvider {
	return s.registry.ProvidersFor(formID)
}

// AvailableFields lists the candidates one provider offers for formID.
func (s *Session) AvailableFields(kind SourceKind, formID string) ([]FieldOption, error) {
	p, ok := s.registry.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}
	return p.AvailableFields(formID), nil
}

// Candidates lists the candidates of every provider able to contribute to formID.
func (s *Session) Candidates(formID string) []ProviderFields {
	var out []ProviderFields
	for _, p := range s.ProvidersFor(formID) {
		out = append(out, ProviderFields{
			Kind:   p.Kind(),
			Name:   p.Name(),
			Fields: p.AvailableFields(formID),
		})
	}
	return out
}

// FieldValue resolves a preview value through the provider of ref.Kind.
func (s *Session) FieldValue(ref SourceRef) (any, bool) {
	p, ok := s.registry.Get(ref.Kind)
	if !ok {
		return nil, false
	}
	return p.FieldValue(ref)
}

// MapField maps targetFieldID of formID to a candidate the provider of kind
// currently offers. The candidate check is what keeps a mapping's source
// type equal to the live classification at creation time.
func (s *Session) MapField(ctx context.Context, formID, targetFieldID string, kind SourceKind, sourceID, sourceFieldID string) (Mapping, error) {
	form, ok := s.FormByID(formID)
	if !ok {
		return Mapping{}, fmt.Errorf("%w: %s", ErrUnknownForm, formID)
	}
	if _, ok := form.Fields().Get(targetFieldID); !ok {
		return Mapping{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, formID, targetFieldID)
	}

	fields, err := s.AvailableFields(kind, formID)
	if err != nil {
		return Mapping{}, err
	}

	for _, opt := range fields {
		if opt.FormID == sourceID && opt.ID == sourceFieldID {
			m := Mapping{
				TargetFieldID: targetFieldID,
				SourceType:    kind,
				SourceID:      sourceID,
				SourceFieldID: sourceFieldID,
			}
			return m, s.store.SetMapping(ctx, formID, targetFieldID, m)
		}
	}

	return Mapping{}, fmt.Errorf("%w: %s.%s by %s provider for form %s",
		ErrNotOffered, sourceID, sourceFieldID, kind, formID)
}

// SetMapping stores m for targetFieldID of formID without checking it
// against the providers.
func (s *Session) SetMapping(ctx context.Context, formID, targetFieldID string, m Mapping) error {
	return s.store.SetMapping(ctx, formID, targetFieldID, m)
}

// RemoveMapping deletes the mapping of fieldID of formID.
func (s *Session) RemoveMapping(ctx context.Context, formID, fieldID string) error {
	return s.store.RemoveMapping(ctx, formID, fieldID)
}

// MappingsFor returns the mappings of formID.
func (s *Session) MappingsFor(formID string) map[string]Mapping {
	return s.store.MappingsFor(formID)
}

// HasMapping reports whether fieldID of formID has a mapping.
func (s *Session) HasMapping(formID, fieldID string) bool {
	return s.store.HasMapping(formID, fieldID)
}

// Check reports stored mappings that no longer match the live graph.
func (s *Session) Check() []StaleMapping {
	return CheckMappings(s.registry, s.store.Configs())
}
