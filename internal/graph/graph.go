package graph

// Model is a read-only, indexed view of one blueprint document.
//
// Lookups by node id, form id and component id are O(1). The underlying
// document is never modified; callers receive copies of slices so they
// cannot mutate the model either.
type Model struct {
	doc *Blueprint

	nodesByID   map[string]*Node
	formsByID   map[string]*Form
	byComponent map[string]*Node
	edges       []Edge
	traversal   *Traversal
}

// NewModel indexes a blueprint document. A nil document yields an empty model.
//
// When the document carries no edges at all, the edge set is derived from
// node prerequisites.
func NewModel(doc *Blueprint) *Model {
	if doc == nil {
		doc = &Blueprint{}
	}

	m := &Model{
		doc:         doc,
		nodesByID:   make(map[string]*Node, len(doc.Nodes)),
		formsByID:   make(map[string]*Form, len(doc.Forms)),
		byComponent: make(map[string]*Node, len(doc.Nodes)),
	}

	for i := range doc.Nodes {
		node := &doc.Nodes[i]
		m.nodesByID[node.ID] = node
		// First node in document order wins for a shared component.
		if _, ok := m.byComponent[node.ComponentID()]; !ok {
			m.byComponent[node.ComponentID()] = node
		}
	}

	for i := range doc.Forms {
		form := &doc.Forms[i]
		m.formsByID[form.ID] = form
	}

	m.edges = doc.Edges
	if len(m.edges) == 0 {
		m.edges = DeriveEdges(doc.Nodes)
	}
	m.traversal = NewTraversal(doc.Nodes, m.edges)

	return m
}

// Blueprint returns the document metadata (id, tenant, name).
func (m *Model) Blueprint() Blueprint {
	return Blueprint{
		ID:          m.doc.ID,
		TenantID:    m.doc.TenantID,
		Name:        m.doc.Name,
		Description: m.doc.Description,
	}
}

// Document returns the underlying document.
func (m *Model) Document() *Blueprint {
	return m.doc
}

// Forms returns every form in document order.
func (m *Model) Forms() []Form {
	out := make([]Form, len(m.doc.Forms))
	copy(out, m.doc.Forms)
	return out
}

// FormByID returns the form with the given id.
func (m *Model) FormByID(formID string) (Form, bool) {
	form, ok := m.formsByID[formID]
	if !ok {
		return Form{}, false
	}
	return *form, true
}

// FormFields returns the fields of a form, or nil for an unknown form.
func (m *Model) FormFields(formID string) Properties {
	form, ok := m.formsByID[formID]
	if !ok {
		return nil
	}
	return form.Fields()
}

// Nodes returns every node in document order.
func (m *Model) Nodes() []Node {
	out := make([]Node, len(m.doc.Nodes))
	copy(out, m.doc.Nodes)
	return out
}

// NodeByID returns the node with the given id.
func (m *Model) NodeByID(nodeID string) (Node, bool) {
	node, ok := m.nodesByID[nodeID]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

// NodeByComponentID returns the first node instantiating the given form.
func (m *Model) NodeByComponentID(componentID string) (Node, bool) {
	node, ok := m.byComponent[componentID]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

// Edges returns the edge set the traversal operates on.
func (m *Model) Edges() []Edge {
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out
}

// Traversal returns the traversal engine bound to this model's nodes and edges.
func (m *Model) Traversal() *Traversal {
	return m.traversal
}

// Stats returns a summary of graph size.
func (m *Model) Stats() map[string]int {
	return map[string]int{
		"nodes": len(m.doc.Nodes),
		"edges": len(m.edges),
		"forms": len(m.doc.Forms),
	}
}
