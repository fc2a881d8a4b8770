package prefill

import (
	"fmt"
	"sort"
)

// StaleMapping is a stored mapping whose source no longer matches what the
// providers offer for its form.
type StaleMapping struct {
	FormID  string     `json:"formId"`
	Mapping Mapping    `json:"mapping"`
	Current SourceKind `json:"current,omitempty"`
	Reason  string     `json:"reason"`
}

// CheckMappings re-classifies every stored mapping against the registry's
// providers. Mappings are trusted as created everywhere else; this is the
// explicit, opt-in way to find the ones a graph edit has invalidated.
//
// Current is set when another provider now offers the same source field.
func CheckMappings(r *Registry, configs []FormConfig) []StaleMapping {
	var stale []StaleMapping

	for _, cfg := range configs {
		offered := offeredBy(r, cfg.FormID)

		for _, fieldID := range sortedKeys(cfg.Mappings) {
			m := cfg.Mappings[fieldID]
			key := fieldKey{formID: m.SourceID, fieldID: m.SourceFieldID}
			kinds := offered[key]

			if containsKind(kinds, m.SourceType) {
				continue
			}

			entry := StaleMapping{FormID: cfg.FormID, Mapping: m}
			switch {
			case len(kinds) > 0:
				entry.Current = kinds[0]
				entry.Reason = fmt.Sprintf("source is now %s, mapped as %s", kinds[0], m.SourceType)
			case !r.hasKind(m.SourceType):
				entry.Reason = fmt.Sprintf("no provider for source kind %q", m.SourceType)
			default:
				entry.Reason = "source field is no longer offered"
			}
			stale = append(stale, entry)
		}
	}

	return stale
}

func offeredBy(r *Registry, formID string) map[fieldKey][]SourceKind {
	out := make(map[fieldKey][]SourceKind)
	for _, p := range r.All() {
		for _, opt := range p.AvailableFields(formID) {
			key := fieldKey{formID: opt.FormID, fieldID: opt.ID}
			out[key] = append(out[key], p.Kind())
		}
	}
	return out
}

func (r *Registry) hasKind(kind SourceKind) bool {
	_, ok := r.Get(kind)
	return ok
}

func containsKind(kinds []SourceKind, kind SourceKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]Mapping) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
