package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/prefill-go/internal/graph"
	"github.com/Benny93/prefill-go/internal/graph/graphtest"
)

func kinds(issues []graph.ValidationIssue) []graph.IssueKind {
	out := make([]graph.IssueKind, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Kind)
	}
	return out
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("CleanDocument", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, graph.Validate(graphtest.Blueprint()))
	})

	t.Run("NilDocument", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, graph.Validate(nil))
	})

	t.Run("MissingForm", func(t *testing.T) {
		t.Parallel()
		doc := graphtest.Blueprint()
		doc.Forms = doc.Forms[1:]

		issues := graph.Validate(doc)
		require.Len(t, issues, 1)
		assert.Equal(t, graph.IssueMissingForm, issues[0].Kind)
		assert.Equal(t, "form-A", issues[0].NodeID)
		assert.Equal(t, "f_A", issues[0].Ref)
	})

	t.Run("DanglingPrerequisite", func(t *testing.T) {
		t.Parallel()
		doc := graphtest.Blueprint()
		doc.Nodes = append(doc.Nodes, graphtest.Node("form-G", "f_A", "form-ghost"))
		doc.Edges = append(doc.Edges, graph.Edge{Source: "form-ghost", Target: "form-G"})

		assert.ElementsMatch(t,
			[]graph.IssueKind{graph.IssueDanglingEdge, graph.IssueDanglingPrerequisite},
			kinds(graph.Validate(doc)))
	})

	t.Run("EdgeMismatch", func(t *testing.T) {
		t.Parallel()
		doc := graphtest.Blueprint()
		doc.Edges = append(doc.Edges[:5:5], graph.Edge{Source: "form-A", Target: "form-F"})

		issues := graph.Validate(doc)
		assert.Equal(t, []graph.IssueKind{graph.IssueExtraEdge, graph.IssueMissingEdge}, kinds(issues))
		assert.Contains(t, issues[1].Error(), "missing_edge")
	})

	t.Run("DuplicateNode", func(t *testing.T) {
		t.Parallel()
		doc := graphtest.Blueprint()
		doc.Nodes = append(doc.Nodes, graphtest.Node("form-A", "f_A"))

		assert.Contains(t, kinds(graph.Validate(doc)), graph.IssueDuplicateNode)
	})
}
