package prefill

import (
	"fmt"
	"strings"
)

// GlobalPrefix namespaces global source ids so they never collide with form ids.
const GlobalPrefix = "global_"

// GlobalSource is a graph-independent field source.
type GlobalSource struct {
	ID     string
	Name   string
	Fields []GlobalField
}

// GlobalField is one field of a global source.
type GlobalField struct {
	ID    string
	Label string
	Type  string
}

// DefaultGlobalSources are the built-in action and client organisation properties.
var DefaultGlobalSources = []GlobalSource{
	{
		ID:   "action",
		Name: "Action Properties",
		Fields: []GlobalField{
			{ID: "name", Label: "Name", Type: "string"},
			{ID: "description", Label: "Description", Type: "string"},
			{ID: "status", Label: "Status", Type: "string"},
			{ID: "created_at", Label: "Created At", Type: "datetime"},
		},
	},
	{
		ID:   "client",
		Name: "Client Organisation Properties",
		Fields: []GlobalField{
			{ID: "org_name", Label: "Organisation Name", Type: "string"},
			{ID: "industry", Label: "Industry", Type: "string"},
			{ID: "contact_email", Label: "Contact Email", Type: "string"},
			{ID: "region", Label: "Region", Type: "string"},
		},
	},
}

// GlobalProvider offers the fixed global sources to every form.
type GlobalProvider struct {
	sources []GlobalSource
}

// NewGlobalProvider creates a provider over the given sources, or over
// DefaultGlobalSources when none are given.
func NewGlobalProvider(sources ...GlobalSource) *GlobalProvider {
	if len(sources) == 0 {
		sources = DefaultGlobalSources
	}
	return &GlobalProvider{sources: sources}
}

// Kind implements DataSourceProvider.
func (p *GlobalProvider) Kind() SourceKind { return SourceGlobal }

// Name implements DataSourceProvider.
func (p *GlobalProvider) Name() string { return "Global Properties" }

// AvailableFields implements DataSourceProvider. The target form is ignored.
func (p *GlobalProvider) AvailableFields(string) []FieldOption {
	var out []FieldOption
	for _, src := range p.sources {
		for _, field := range src.Fields {
			out = append(out, FieldOption{
				ID:        field.ID,
				Label:     field.Label,
				FormID:    GlobalPrefix + src.ID,
				FormName:  src.Name,
				FieldType: field.Type,
				Path:      src.Name + "." + field.Label,
			})
		}
	}
	return out
}

// FieldValue implements DataSourceProvider.
func (p *GlobalProvider) FieldValue(ref SourceRef) (any, bool) {
	id, ok := strings.CutPrefix(ref.SourceID, GlobalPrefix)
	if !ok {
		return nil, false
	}
	for _, src := range p.sources {
		if src.ID != id {
			continue
		}
		for _, field := range src.Fields {
			if field.ID == ref.FieldID {
				return fmt.Sprintf("Global value from %s.%s", id, ref.FieldID), true
			}
		}
	}
	return nil, false
}

// CanHandleForm implements DataSourceProvider. Global data is available to every form.
func (p *GlobalProvider) CanHandleForm(string) bool {
	return true
}
