package prefill

import (
	"fmt"

	"github.com/Benny93/prefill-go/internal/graph"
)

// DataSourceProvider supplies candidate fields for a target form.
//
// Implementations are pure: listing fields and answering CanHandleForm
// perform no I/O and never fail. An unknown target form yields no fields.
type DataSourceProvider interface {
	// Kind is the registry key of the provider.
	Kind() SourceKind

	// Name is the display name of the provider.
	Name() string

	// AvailableFields lists candidate fields for the target form.
	AvailableFields(targetFormID string) []FieldOption

	// FieldValue returns a preview value for a source reference. The second
	// result is false when the reference cannot be resolved.
	FieldValue(ref SourceRef) (any, bool)

	// CanHandleForm reports whether the provider can contribute to the form.
	CanHandleForm(targetFormID string) bool
}

// GraphView gives providers access to the current graph model.
type GraphView interface {
	Model() *graph.Model
}

type staticView struct {
	model *graph.Model
}

func (v staticView) Model() *graph.Model { return v.model }

// StaticGraph returns a GraphView that always yields m.
func StaticGraph(m *graph.Model) GraphView {
	return staticView{model: m}
}

// fieldKey identifies a candidate across nodes backed by the same form.
type fieldKey struct {
	formID  string
	fieldID string
}

// targetNode resolves the node instantiating targetFormID.
func targetNode(view GraphView, targetFormID string) (*graph.Model, graph.Node, bool) {
	if view == nil {
		return nil, graph.Node{}, false
	}
	m := view.Model()
	if m == nil {
		return nil, graph.Node{}, false
	}
	node, ok := m.NodeByComponentID(targetFormID)
	return m, node, ok
}

// collectFields emits one option per (form, field) for the forms backing
// nodeIDs, in node order then field declaration order. The first node that
// yields a key wins; keys in exclude are never emitted. Nodes without a
// backing form are skipped.
func collectFields(m *graph.Model, nodeIDs []string, exclude map[fieldKey]struct{}) []FieldOption {
	var out []FieldOption
	seen := make(map[fieldKey]struct{})

	for _, nodeID := range nodeIDs {
		node, ok := m.NodeByID(nodeID)
		if !ok {
			continue
		}
		form, ok := m.FormByID(node.ComponentID())
		if !ok {
			continue
		}

		for _, prop := range form.Fields() {
			key := fieldKey{formID: form.ID, fieldID: prop.ID}
			if _, skip := exclude[key]; skip {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			out = append(out, formOption(form, prop))
		}
	}

	return out
}

// formKeys returns every (form, field) key reachable through nodeIDs.
func formKeys(m *graph.Model, nodeIDs []string) map[fieldKey]struct{} {
	keys := make(map[fieldKey]struct{})
	for _, nodeID := range nodeIDs {
		node, ok := m.NodeByID(nodeID)
		if !ok {
			continue
		}
		form, ok := m.FormByID(node.ComponentID())
		if !ok {
			continue
		}
		for _, prop := range form.Fields() {
			keys[fieldKey{formID: form.ID, fieldID: prop.ID}] = struct{}{}
		}
	}
	return keys
}

func formOption(form graph.Form, prop graph.Property) FieldOption {
	label := prop.Definition.Title
	if label == "" {
		label = prop.ID
	}
	return FieldOption{
		ID:        prop.ID,
		Label:     label,
		FormID:    form.ID,
		FormName:  form.Name,
		FieldType: prop.Definition.TypeTag(),
		Path:      form.Name + "." + prop.ID,
	}
}

// formFieldValue is the preview hook shared by graph-backed providers.
// Real values come from live submission data, which this package does not
// see; the placeholder only proves the reference resolves.
func formFieldValue(view GraphView, ref SourceRef) (any, bool) {
	if view == nil || view.Model() == nil {
		return nil, false
	}
	form, ok := view.Model().FormByID(ref.SourceID)
	if !ok {
		return nil, false
	}
	if _, ok := form.Fields().Get(ref.FieldID); !ok {
		return nil, false
	}
	return fmt.Sprintf("Value from %s.%s", ref.SourceID, ref.FieldID), true
}
