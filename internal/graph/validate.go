package graph

import (
	"fmt"
	"sort"
)

// IssueKind classifies a validation finding.
type IssueKind string

const (
	IssueDuplicateNode        IssueKind = "duplicate_node"
	IssueDanglingPrerequisite IssueKind = "dangling_prerequisite"
	IssueDanglingEdge         IssueKind = "dangling_edge"
	IssueMissingForm          IssueKind = "missing_form"
	IssueMissingEdge          IssueKind = "missing_edge"
	IssueExtraEdge            IssueKind = "extra_edge"
)

// ValidationIssue is one structural finding about a blueprint document.
type ValidationIssue struct {
	Kind   IssueKind
	NodeID string
	Ref    string
	Msg    string
}

func (i ValidationIssue) Error() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Msg)
}

// Validate reports reference and edge-consistency problems in a document.
//
// It is a diagnostic: traversal and providers tolerate every issue it
// reports by skipping the broken reference. Acyclicity is not checked.
// Issues are sorted by kind, then node id, then reference.
func Validate(doc *Blueprint) []ValidationIssue {
	if doc == nil {
		return nil
	}

	var issues []ValidationIssue

	nodeIDs := make(map[string]bool, len(doc.Nodes))
	for _, node := range doc.Nodes {
		if nodeIDs[node.ID] {
			issues = append(issues, ValidationIssue{
				Kind:   IssueDuplicateNode,
				NodeID: node.ID,
				Msg:    fmt.Sprintf("duplicate node id %q", node.ID),
			})
		}
		nodeIDs[node.ID] = true
	}

	formIDs := make(map[string]bool, len(doc.Forms))
	for _, form := range doc.Forms {
		formIDs[form.ID] = true
	}

	for _, node := range doc.Nodes {
		if !formIDs[node.ComponentID()] {
			issues = append(issues, ValidationIssue{
				Kind:   IssueMissingForm,
				NodeID: node.ID,
				Ref:    node.ComponentID(),
				Msg:    fmt.Sprintf("node %q references unknown form %q", node.ID, node.ComponentID()),
			})
		}
		for _, prereq := range node.Prerequisites() {
			if !nodeIDs[prereq] {
				issues = append(issues, ValidationIssue{
					Kind:   IssueDanglingPrerequisite,
					NodeID: node.ID,
					Ref:    prereq,
					Msg:    fmt.Sprintf("node %q lists unknown prerequisite %q", node.ID, prereq),
				})
			}
		}
	}

	for _, edge := range doc.Edges {
		for _, end := range []string{edge.Source, edge.Target} {
			if !nodeIDs[end] {
				issues = append(issues, ValidationIssue{
					Kind:   IssueDanglingEdge,
					NodeID: edge.Target,
					Ref:    end,
					Msg:    fmt.Sprintf("edge %q -> %q references unknown node %q", edge.Source, edge.Target, end),
				})
			}
		}
	}

	// Edges must be exactly the inverse of the prerequisites relation.
	if len(doc.Edges) > 0 {
		issues = append(issues, compareEdges(DeriveEdges(doc.Nodes), doc.Edges)...)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Kind != issues[j].Kind {
			return issues[i].Kind < issues[j].Kind
		}
		if issues[i].NodeID != issues[j].NodeID {
			return issues[i].NodeID < issues[j].NodeID
		}
		return issues[i].Ref < issues[j].Ref
	})

	return issues
}

func compareEdges(expected, actual []Edge) []ValidationIssue {
	want := make(map[Edge]bool, len(expected))
	for _, e := range expected {
		want[e] = true
	}
	have := make(map[Edge]bool, len(actual))
	for _, e := range actual {
		have[e] = true
	}

	var issues []ValidationIssue
	for e := range want {
		if !have[e] {
			issues = append(issues, ValidationIssue{
				Kind:   IssueMissingEdge,
				NodeID: e.Target,
				Ref:    e.Source,
				Msg:    fmt.Sprintf("prerequisite %q of %q has no edge", e.Source, e.Target),
			})
		}
	}
	for e := range have {
		if !want[e] {
			issues = append(issues, ValidationIssue{
				Kind:   IssueExtraEdge,
				NodeID: e.Target,
				Ref:    e.Source,
				Msg:    fmt.Sprintf("edge %q -> %q is not backed by a prerequisite", e.Source, e.Target),
			})
		}
	}
	return issues
}
