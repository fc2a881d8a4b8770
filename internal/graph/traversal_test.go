package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Benny93/prefill-go/internal/graph"
	"github.com/Benny93/prefill-go/internal/graph/graphtest"
)

func newReferenceTraversal() *graph.Traversal {
	doc := graphtest.Blueprint()
	return graph.NewTraversal(doc.Nodes, doc.Edges)
}

func TestTraversal_DirectParents(t *testing.T) {
	t.Parallel()

	tr := newReferenceTraversal()

	t.Run("SingleParent", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"form-A"}, tr.DirectParents("form-B"))
	})

	t.Run("MultipleParents", func(t *testing.T) {
		t.Parallel()
		assert.ElementsMatch(t, []string{"form-D", "form-E"}, tr.DirectParents("form-F"))
	})

	t.Run("RootNode", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, tr.DirectParents("form-A"))
	})

	t.Run("UnknownNode", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, tr.DirectParents("form-missing"))
	})

	t.Run("DuplicateEdgesCollapse", func(t *testing.T) {
		t.Parallel()
		dup := graph.NewTraversal(nil, []graph.Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "b"},
		})
		assert.Equal(t, []string{"a"}, dup.DirectParents("b"))
	})
}

func TestTraversal_DirectDependents(t *testing.T) {
	t.Parallel()

	tr := newReferenceTraversal()

	assert.ElementsMatch(t, []string{"form-B", "form-C"}, tr.DirectDependents("form-A"))
	assert.Empty(t, tr.DirectDependents("form-F"))
}

func TestTraversal_AllAncestors(t *testing.T) {
	t.Parallel()

	tr := newReferenceTraversal()

	t.Run("DeepNode", func(t *testing.T) {
		t.Parallel()
		ancestors := tr.AllAncestors("form-F")
		assert.Len(t, ancestors, 5)
		assert.ElementsMatch(t, []string{"form-A", "form-B", "form-C", "form-D", "form-E"}, ancestors)
	})

	t.Run("OnlyDirectParent", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"form-A"}, tr.AllAncestors("form-B"))
	})

	t.Run("RootNode", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, tr.AllAncestors("form-A"))
	})

	t.Run("Idempotent", func(t *testing.T) {
		t.Parallel()
		assert.ElementsMatch(t, tr.AllAncestors("form-F"), tr.AllAncestors("form-F"))
	})

	t.Run("TerminatesOnCycle", func(t *testing.T) {
		t.Parallel()
		cyclic := graph.NewTraversal(nil, []graph.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "a"},
		})
		assert.ElementsMatch(t, []string{"a", "b"}, cyclic.AllAncestors("c"))
	})

	t.Run("NoDuplicatesOnDiamond", func(t *testing.T) {
		t.Parallel()
		ancestors := tr.AllAncestors("form-F")
		seen := map[string]bool{}
		for _, id := range ancestors {
			assert.False(t, seen[id], "duplicate ancestor %s", id)
			seen[id] = true
		}
	})
}

func TestTraversal_ParentsAreAncestors(t *testing.T) {
	t.Parallel()

	doc := graphtest.Blueprint()
	tr := graph.NewTraversal(doc.Nodes, doc.Edges)

	for _, node := range doc.Nodes {
		ancestors := tr.AllAncestors(node.ID)
		for _, parent := range tr.DirectParents(node.ID) {
			assert.Contains(t, ancestors, parent, "parent %s of %s", parent, node.ID)
		}
	}
}

func TestTraversal_HasPath(t *testing.T) {
	t.Parallel()

	tr := newReferenceTraversal()

	tests := []struct {
		name     string
		source   string
		target   string
		expected bool
	}{
		{name: "DirectEdge", source: "form-A", target: "form-B", expected: true},
		{name: "IndirectPath", source: "form-A", target: "form-F", expected: true},
		{name: "Backwards", source: "form-F", target: "form-A", expected: false},
		{name: "Reflexive", source: "form-A", target: "form-A", expected: true},
		{name: "SiblingBranches", source: "form-B", target: "form-E", expected: false},
		{name: "UnknownSource", source: "form-missing", target: "form-A", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tr.HasPath(tt.source, tt.target))
		})
	}
}

func TestTraversal_ClassifyAncestors(t *testing.T) {
	t.Parallel()

	tr := newReferenceTraversal()

	t.Run("DirectAndTransitive", func(t *testing.T) {
		t.Parallel()
		result := tr.ClassifyAncestors("form-F")

		assert.ElementsMatch(t, []string{"form-D", "form-E"}, result.Direct)
		assert.ElementsMatch(t, []string{"form-A", "form-B", "form-C"}, result.Transitive)

		union := append(append([]string{}, result.Direct...), result.Transitive...)
		assert.ElementsMatch(t, tr.AllAncestors("form-F"), union)
		for _, id := range result.Direct {
			assert.NotContains(t, result.Transitive, id)
		}
	})

	t.Run("OnlyDirect", func(t *testing.T) {
		t.Parallel()
		result := tr.ClassifyAncestors("form-B")
		assert.Equal(t, []string{"form-A"}, result.Direct)
		assert.Empty(t, result.Transitive)
	})

	t.Run("RootNode", func(t *testing.T) {
		t.Parallel()
		result := tr.ClassifyAncestors("form-A")
		assert.Empty(t, result.Direct)
		assert.Empty(t, result.Transitive)
	})
}

func TestTraversal_HasNode(t *testing.T) {
	t.Parallel()

	tr := newReferenceTraversal()

	assert.True(t, tr.HasNode("form-A"))
	assert.False(t, tr.HasNode("form-Z"))
}
