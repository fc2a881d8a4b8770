// Package graphtest builds small blueprint documents for tests.
package graphtest

import (
	"github.com/Benny93/prefill-go/internal/graph"
)

// Node returns a form node instantiating componentID.
func Node(id, componentID string, prerequisites ...string) graph.Node {
	if prerequisites == nil {
		prerequisites = []string{}
	}
	return graph.Node{
		ID:   id,
		Type: "form",
		Data: graph.NodeData{
			ID:            "bp_c_" + id,
			ComponentKey:  id,
			ComponentType: "form",
			ComponentID:   componentID,
			Name:          id,
			Prerequisites: prerequisites,
		},
	}
}

// Form returns a form whose fields are short-text inputs titled after their ids.
func Form(id, name string, fieldIDs ...string) graph.Form {
	props := make(graph.Properties, 0, len(fieldIDs))
	for _, fieldID := range fieldIDs {
		props = append(props, graph.Property{
			ID: fieldID,
			Definition: graph.FieldDefinition{
				AvantosType: "short-text",
				Title:       fieldID,
				Type:        "string",
			},
		})
	}
	return graph.Form{
		ID:          id,
		Name:        name,
		IsReusable:  false,
		FieldSchema: graph.FieldSchema{Type: "object", Properties: props},
	}
}

// Blueprint returns the reference DAG:
//
//	A -> B -> D -> F
//	A -> C -> E -> F
//
// Node X instantiates form f_X ("Form X") with fields email and name.
// Edges are listed explicitly and match the prerequisites.
func Blueprint() *graph.Blueprint {
	nodes := []graph.Node{
		Node("form-A", "f_A"),
		Node("form-B", "f_B", "form-A"),
		Node("form-C", "f_C", "form-A"),
		Node("form-D", "f_D", "form-B"),
		Node("form-E", "f_E", "form-C"),
		Node("form-F", "f_F", "form-D", "form-E"),
	}

	var forms []graph.Form
	for _, x := range []string{"A", "B", "C", "D", "E", "F"} {
		forms = append(forms, Form("f_"+x, "Form "+x, "email", "name"))
	}

	return &graph.Blueprint{
		ID:       "bp_456",
		TenantID: "123",
		Name:     "Onboarding",
		Nodes:    nodes,
		Edges: []graph.Edge{
			{Source: "form-A", Target: "form-B"},
			{Source: "form-A", Target: "form-C"},
			{Source: "form-B", Target: "form-D"},
			{Source: "form-C", Target: "form-E"},
			{Source: "form-D", Target: "form-F"},
			{Source: "form-E", Target: "form-F"},
		},
		Forms: forms,
	}
}

// SharedForms returns a graph in which one reusable form backs several nodes:
//
//	root(f_shared) -> mid(f_mid) -> target(f_target)
//	left(f_shared) -> target
//	right(f_shared) -> target
//	deep(f_deep) -> mid
//	deep2(f_deep) -> mid
//
// f_shared appears both as a direct parent (left, right) and as a deeper
// ancestor (root); f_deep backs two transitive ancestors.
func SharedForms() *graph.Blueprint {
	nodes := []graph.Node{
		Node("root", "f_shared"),
		Node("deep", "f_deep"),
		Node("deep2", "f_deep"),
		Node("mid", "f_mid", "root", "deep", "deep2"),
		Node("left", "f_shared"),
		Node("right", "f_shared"),
		Node("target", "f_target", "mid", "left", "right"),
	}

	doc := &graph.Blueprint{
		ID:       "bp_shared",
		TenantID: "123",
		Name:     "Shared",
		Nodes:    nodes,
		Forms: []graph.Form{
			Form("f_shared", "Shared", "email", "phone"),
			Form("f_deep", "Deep", "ssn"),
			Form("f_mid", "Mid", "notes"),
			Form("f_target", "Target", "email"),
		},
	}
	doc.Edges = graph.DeriveEdges(nodes)
	return doc
}
