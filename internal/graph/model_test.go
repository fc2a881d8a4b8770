package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const formJSON = `{
	"id": "f_1",
	"name": "Intake",
	"is_reusable": true,
	"field_schema": {
		"type": "object",
		"properties": {
			"zeta": {"avantos_type": "short-text", "title": "Zeta", "type": "string"},
			"alpha": {"avantos_type": "multi-select", "type": "array"},
			"email": {"type": "string", "format": "email"}
		},
		"required": ["email"]
	}
}`

func TestProperties_JSON(t *testing.T) {
	t.Parallel()

	t.Run("KeepsDeclarationOrder", func(t *testing.T) {
		t.Parallel()
		var form Form
		require.NoError(t, json.Unmarshal([]byte(formJSON), &form))

		ids := make([]string, 0, len(form.Fields()))
		for _, p := range form.Fields() {
			ids = append(ids, p.ID)
		}
		assert.Equal(t, []string{"zeta", "alpha", "email"}, ids)
		assert.True(t, form.IsReusable)
		assert.Equal(t, []string{"email"}, form.FieldSchema.Required)
	})

	t.Run("RoundTripPreservesOrder", func(t *testing.T) {
		t.Parallel()
		var form Form
		require.NoError(t, json.Unmarshal([]byte(formJSON), &form))

		data, err := json.Marshal(form)
		require.NoError(t, err)

		var again Form
		require.NoError(t, json.Unmarshal(data, &again))
		assert.Equal(t, form.Fields(), again.Fields())
	})

	t.Run("DuplicateKeyKeepsFirstPosition", func(t *testing.T) {
		t.Parallel()
		var props Properties
		require.NoError(t, json.Unmarshal([]byte(`{"a":{"title":"one"},"b":{},"a":{"title":"two"}}`), &props))
		require.Len(t, props, 2)
		assert.Equal(t, "a", props[0].ID)
		assert.Equal(t, "two", props[0].Definition.Title)
	})

	t.Run("Null", func(t *testing.T) {
		t.Parallel()
		var props Properties
		require.NoError(t, json.Unmarshal([]byte(`null`), &props))
		assert.Nil(t, props)
	})

	t.Run("NotAnObject", func(t *testing.T) {
		t.Parallel()
		var props Properties
		assert.Error(t, json.Unmarshal([]byte(`["a"]`), &props))
	})
}

func TestProperties_YAML(t *testing.T) {
	t.Parallel()

	src := `
id: f_2
name: Review
field_schema:
  type: object
  properties:
    second:
      avantos_type: short-text
    first:
      avantos_type: checkbox-group
`
	var form Form
	require.NoError(t, yaml.Unmarshal([]byte(src), &form))
	require.Len(t, form.Fields(), 2)
	assert.Equal(t, "second", form.Fields()[0].ID)
	assert.Equal(t, "first", form.Fields()[1].ID)

	out, err := yaml.Marshal(form)
	require.NoError(t, err)

	var again Form
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, form.Fields(), again.Fields())
}

func TestFieldDefinition_TypeTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short-text", FieldDefinition{AvantosType: "short-text", Type: "string"}.TypeTag())
	assert.Equal(t, "string", FieldDefinition{Type: "string"}.TypeTag())
}

func TestProperties_Lookup(t *testing.T) {
	t.Parallel()

	props := Properties{
		{ID: "email", Definition: FieldDefinition{Title: "Email"}},
		{ID: "name", Definition: FieldDefinition{Title: "Name"}},
	}

	def, ok := props.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "Name", def.Title)

	_, ok = props.Get("missing")
	assert.False(t, ok)

	assert.Len(t, props.Map(), 2)
}

func TestDeriveEdges(t *testing.T) {
	t.Parallel()

	nodes := []Node{
		{ID: "a", Data: NodeData{ComponentID: "f_a"}},
		{ID: "b", Data: NodeData{ComponentID: "f_b", Prerequisites: []string{"a"}}},
		{ID: "c", Data: NodeData{ComponentID: "f_c", Prerequisites: []string{"a", "b"}}},
	}

	assert.Equal(t, []Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "c"},
		{Source: "b", Target: "c"},
	}, DeriveEdges(nodes))
}
