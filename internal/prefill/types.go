// Package prefill classifies upstream forms of a blueprint graph and turns
// that classification into candidate prefill fields.
//
// Three data-source providers (direct parents, transitive ancestors and a
// fixed set of global sources) share one contract and are looked up by
// kind through a Registry. The Store records which candidate the operator
// picked for each target field and hands every change to a Persister.
package prefill

import (
	"errors"
	"fmt"
)

// SourceKind tags a data-source provider and the mappings it produced.
type SourceKind string

const (
	SourceDirect     SourceKind = "direct"
	SourceTransitive SourceKind = "transitive"
	SourceGlobal     SourceKind = "global"
)

// Kinds lists the built-in source kinds in their canonical order.
var Kinds = []SourceKind{SourceDirect, SourceTransitive, SourceGlobal}

// ParseSourceKind converts a string into a built-in SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	for _, kind := range Kinds {
		if string(kind) == s {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

var (
	// ErrUnknownProvider is returned when no provider is registered for a kind.
	ErrUnknownProvider = errors.New("unknown source kind")

	// ErrUnknownForm is returned when a target form is absent from the graph.
	ErrUnknownForm = errors.New("unknown form")

	// ErrUnknownField is returned when a target field is absent from its form.
	ErrUnknownField = errors.New("unknown field")

	// ErrNotOffered is returned when a source field is not a candidate of the
	// chosen provider for the target form.
	ErrNotOffered = errors.New("source field not offered")
)

// FieldOption is a candidate prefill source. It is derived on demand and
// never persisted.
type FieldOption struct {
	// ID is the source field id.
	ID string `json:"id"`

	// Label is the human-readable field label.
	Label string `json:"label"`

	// FormID is the owning form id, or a prefixed global source id.
	FormID string `json:"formId"`

	// FormName is the owning form's display name.
	FormName string `json:"formName"`

	// FieldType is the declared type tag of the field.
	FieldType string `json:"fieldType"`

	// Path is the dotted display path, "{formName}.{fieldId}".
	Path string `json:"path"`
}

// Ref returns the source reference of the option under the given kind.
func (o FieldOption) Ref(kind SourceKind) SourceRef {
	return SourceRef{Kind: kind, SourceID: o.FormID, FieldID: o.ID}
}

// SourceRef points at one field of one source.
type SourceRef struct {
	Kind     SourceKind `json:"type"`
	SourceID string     `json:"id"`
	FieldID  string     `json:"fieldId"`
}

func (r SourceRef) String() string {
	return fmt.Sprintf("%s:%s.%s", r.Kind, r.SourceID, r.FieldID)
}

// Mapping records that a target field is prefilled from one source field.
//
// SourceType equals the classification of SourceID's node relative to the
// target form at the moment the mapping was created. It is not re-checked
// afterwards; see CheckMappings.
type Mapping struct {
	TargetFieldID string     `json:"fieldId"`
	SourceType    SourceKind `json:"sourceType"`
	SourceID      string     `json:"sourceId"`
	SourceFieldID string     `json:"sourceField"`
}

// Source returns the mapping's source reference.
func (m Mapping) Source() SourceRef {
	return SourceRef{Kind: m.SourceType, SourceID: m.SourceID, FieldID: m.SourceFieldID}
}

// FormConfig holds the mappings of one target form keyed by target field id.
type FormConfig struct {
	FormID   string             `json:"formId"`
	Mappings map[string]Mapping `json:"mappings"`
}

func copyMappings(in map[string]Mapping) map[string]Mapping {
	out := make(map[string]Mapping, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
