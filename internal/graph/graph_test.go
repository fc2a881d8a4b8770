package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/prefill-go/internal/graph"
	"github.com/Benny93/prefill-go/internal/graph/graphtest"
)

func TestNewModel(t *testing.T) {
	t.Parallel()

	t.Run("NilDocument", func(t *testing.T) {
		t.Parallel()
		m := graph.NewModel(nil)

		assert.NotNil(t, m)
		assert.Empty(t, m.Forms())
		assert.Empty(t, m.Nodes())
		assert.Empty(t, m.Traversal().DirectParents("anything"))
	})

	t.Run("Stats", func(t *testing.T) {
		t.Parallel()
		m := graph.NewModel(graphtest.Blueprint())

		assert.Equal(t, map[string]int{"nodes": 6, "edges": 6, "forms": 6}, m.Stats())
		assert.Equal(t, "bp_456", m.Blueprint().ID)
		assert.Empty(t, m.Blueprint().Nodes)
	})

	t.Run("DerivesEdgesWhenMissing", func(t *testing.T) {
		t.Parallel()
		doc := graphtest.Blueprint()
		doc.Edges = nil
		m := graph.NewModel(doc)

		assert.Len(t, m.Edges(), 6)
		assert.ElementsMatch(t, []string{"form-D", "form-E"}, m.Traversal().DirectParents("form-F"))
	})
}

func TestModel_Lookups(t *testing.T) {
	t.Parallel()

	m := graph.NewModel(graphtest.Blueprint())

	t.Run("FormByID", func(t *testing.T) {
		t.Parallel()
		form, ok := m.FormByID("f_B")
		require.True(t, ok)
		assert.Equal(t, "Form B", form.Name)

		_, ok = m.FormByID("f_missing")
		assert.False(t, ok)
	})

	t.Run("NodeByID", func(t *testing.T) {
		t.Parallel()
		node, ok := m.NodeByID("form-C")
		require.True(t, ok)
		assert.Equal(t, "f_C", node.ComponentID())
		assert.Equal(t, []string{"form-A"}, node.Prerequisites())
	})

	t.Run("NodeByComponentID", func(t *testing.T) {
		t.Parallel()
		node, ok := m.NodeByComponentID("f_F")
		require.True(t, ok)
		assert.Equal(t, "form-F", node.ID)

		_, ok = m.NodeByComponentID("f_missing")
		assert.False(t, ok)
	})

	t.Run("FormFields", func(t *testing.T) {
		t.Parallel()
		fields := m.FormFields("f_A")
		require.Len(t, fields, 2)
		assert.Equal(t, "email", fields[0].ID)
		assert.Nil(t, m.FormFields("f_missing"))
	})

	t.Run("FormsInDocumentOrder", func(t *testing.T) {
		t.Parallel()
		forms := m.Forms()
		require.Len(t, forms, 6)
		assert.Equal(t, "f_A", forms[0].ID)
		assert.Equal(t, "f_F", forms[5].ID)
	})
}

func TestModel_SharedComponentFirstNodeWins(t *testing.T) {
	t.Parallel()

	m := graph.NewModel(graphtest.SharedForms())

	node, ok := m.NodeByComponentID("f_shared")
	require.True(t, ok)
	assert.Equal(t, "root", node.ID)
}

func TestModel_ReturnsCopies(t *testing.T) {
	t.Parallel()

	m := graph.NewModel(graphtest.Blueprint())

	forms := m.Forms()
	forms[0].Name = "mutated"

	form, _ := m.FormByID("f_A")
	assert.Equal(t, "Form A", form.Name)
}
