package prefill

// TransitiveProvider offers the fields of forms that reach the target form
// only through longer paths.
//
// Direct parents are recomputed and excluded here, both as nodes and as
// (form, field) keys: when one reusable form backs a direct parent and a
// deeper ancestor, its fields belong to the direct provider only. The two
// providers therefore never list the same key for one target.
type TransitiveProvider struct {
	graph GraphView
}

// NewTransitiveProvider creates a transitive-ancestor provider over the given graph.
func NewTransitiveProvider(g GraphView) *TransitiveProvider {
	return &TransitiveProvider{graph: g}
}

// Kind implements DataSourceProvider.
func (p *TransitiveProvider) Kind() SourceKind { return SourceTransitive }

// Name implements DataSourceProvider.
func (p *TransitiveProvider) Name() string { return "Transitive Dependencies" }

// AvailableFields implements DataSourceProvider.
func (p *TransitiveProvider) AvailableFields(targetFormID string) []FieldOption {
	m, node, ok := targetNode(p.graph, targetFormID)
	if !ok {
		return nil
	}

	tr := m.Traversal()
	direct := tr.DirectParents(node.ID)
	transitive := tr.ClassifyAncestors(node.ID).Transitive

	return collectFields(m, transitive, formKeys(m, direct))
}

// FieldValue implements DataSourceProvider.
func (p *TransitiveProvider) FieldValue(ref SourceRef) (any, bool) {
	return formFieldValue(p.graph, ref)
}

// CanHandleForm implements DataSourceProvider.
func (p *TransitiveProvider) CanHandleForm(targetFormID string) bool {
	m, node, ok := targetNode(p.graph, targetFormID)
	if !ok {
		return false
	}
	return len(m.Traversal().TransitiveOnly(node.ID)) > 0
}
