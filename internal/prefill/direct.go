package prefill

// DirectProvider offers the fields of forms whose nodes feed directly into
// the target form's node.
type DirectProvider struct {
	graph GraphView
}

// NewDirectProvider creates a direct-parent provider over the given graph.
func NewDirectProvider(g GraphView) *DirectProvider {
	return &DirectProvider{graph: g}
}

// Kind implements DataSourceProvider.
func (p *DirectProvider) Kind() SourceKind { return SourceDirect }

// Name implements DataSourceProvider.
func (p *DirectProvider) Name() string { return "Direct Dependencies" }

// AvailableFields implements DataSourceProvider.
func (p *DirectProvider) AvailableFields(targetFormID string) []FieldOption {
	m, node, ok := targetNode(p.graph, targetFormID)
	if !ok {
		return nil
	}
	return collectFields(m, m.Traversal().DirectParents(node.ID), nil)
}

// FieldValue implements DataSourceProvider.
func (p *DirectProvider) FieldValue(ref SourceRef) (any, bool) {
	return formFieldValue(p.graph, ref)
}

// CanHandleForm implements DataSourceProvider.
func (p *DirectProvider) CanHandleForm(targetFormID string) bool {
	m, node, ok := targetNode(p.graph, targetFormID)
	if !ok {
		return false
	}
	return len(m.Traversal().DirectParents(node.ID)) > 0
}
