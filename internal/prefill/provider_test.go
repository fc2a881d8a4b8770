package prefill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/prefill-go/internal/graph"
	"github.com/Benny93/prefill-go/internal/graph/graphtest"
)

func referenceView() GraphView {
	return StaticGraph(graph.NewModel(graphtest.Blueprint()))
}

func sharedView() GraphView {
	return StaticGraph(graph.NewModel(graphtest.SharedForms()))
}

func paths(opts []FieldOption) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Path)
	}
	return out
}

func TestDirectProvider_AvailableFields(t *testing.T) {
	t.Parallel()

	t.Run("ParentFormsInDeclarationOrder", func(t *testing.T) {
		t.Parallel()
		p := NewDirectProvider(referenceView())

		fields := p.AvailableFields("f_F")

		assert.ElementsMatch(t,
			[]string{"Form D.email", "Form D.name", "Form E.email", "Form E.name"},
			paths(fields))
		require.Len(t, fields, 4)
		assert.Equal(t, FieldOption{
			ID:        "email",
			Label:     "email",
			FormID:    fields[0].FormID,
			FormName:  fields[0].FormName,
			FieldType: "short-text",
			Path:      fields[0].FormName + ".email",
		}, fields[0])
		assert.Equal(t, "name", fields[1].ID)
	})

	t.Run("RootFormHasNone", func(t *testing.T) {
		t.Parallel()
		p := NewDirectProvider(referenceView())
		assert.Empty(t, p.AvailableFields("f_A"))
	})

	t.Run("UnknownForm", func(t *testing.T) {
		t.Parallel()
		p := NewDirectProvider(referenceView())
		assert.Empty(t, p.AvailableFields("f_missing"))
	})

	t.Run("DeduplicatesReusableForm", func(t *testing.T) {
		t.Parallel()
		p := NewDirectProvider(sharedView())

		fields := p.AvailableFields("f_target")

		assert.Equal(t, []string{"Mid.notes", "Shared.email", "Shared.phone"}, paths(fields))
	})

	t.Run("SkipsNodeWithoutForm", func(t *testing.T) {
		t.Parallel()
		doc := graphtest.Blueprint()
		doc.Forms = doc.Forms[:3] // drop f_D, f_E, f_F
		doc.Forms = append(doc.Forms, graphtest.Form("f_F", "Form F", "email"))
		p := NewDirectProvider(StaticGraph(graph.NewModel(doc)))

		assert.Empty(t, p.AvailableFields("f_F"))
		assert.True(t, p.CanHandleForm("f_F"))
	})

	t.Run("LabelFallsBackToFieldID", func(t *testing.T) {
		t.Parallel()
		doc := graphtest.Blueprint()
		doc.Forms[0].FieldSchema.Properties[0].Definition.Title = "Email address"
		doc.Forms[0].FieldSchema.Properties[1].Definition.Title = ""
		p := NewDirectProvider(StaticGraph(graph.NewModel(doc)))

		fields := p.AvailableFields("f_B")
		require.Len(t, fields, 2)
		assert.Equal(t, "Email address", fields[0].Label)
		assert.Equal(t, "name", fields[1].Label)
	})
}

func TestTransitiveProvider_AvailableFields(t *testing.T) {
	t.Parallel()

	t.Run("ExcludesDirectParents", func(t *testing.T) {
		t.Parallel()
		p := NewTransitiveProvider(referenceView())

		fields := p.AvailableFields("f_F")

		assert.ElementsMatch(t, []string{
			"Form A.email", "Form A.name",
			"Form B.email", "Form B.name",
			"Form C.email", "Form C.name",
		}, paths(fields))
	})

	t.Run("OnlyDirectParents", func(t *testing.T) {
		t.Parallel()
		p := NewTransitiveProvider(referenceView())
		assert.Empty(t, p.AvailableFields("f_B"))
	})

	t.Run("DirectTakesPrecedenceForSharedForm", func(t *testing.T) {
		t.Parallel()
		view := sharedView()
		direct := NewDirectProvider(view).AvailableFields("f_target")
		transitive := NewTransitiveProvider(view).AvailableFields("f_target")

		assert.Equal(t, []string{"Deep.ssn"}, paths(transitive))

		directKeys := map[fieldKey]bool{}
		for _, o := range direct {
			directKeys[fieldKey{o.FormID, o.ID}] = true
		}
		for _, o := range transitive {
			assert.False(t, directKeys[fieldKey{o.FormID, o.ID}], "%s listed by both providers", o.Path)
		}
	})

	t.Run("DisjointFromDirect", func(t *testing.T) {
		t.Parallel()
		view := referenceView()
		for _, form := range view.Model().Forms() {
			direct := NewDirectProvider(view).AvailableFields(form.ID)
			transitive := NewTransitiveProvider(view).AvailableFields(form.ID)
			for _, d := range direct {
				for _, tr := range transitive {
					assert.False(t, d.FormID == tr.FormID && d.ID == tr.ID)
				}
			}
		}
	})
}

func TestProviders_DanglingPrerequisite(t *testing.T) {
	t.Parallel()

	doc := graphtest.Blueprint()
	last := len(doc.Nodes) - 1
	doc.Nodes[last].Data.Prerequisites = append(doc.Nodes[last].Data.Prerequisites, "ghost")
	doc.Edges = nil // derive edges, ghost -> form-F included
	view := StaticGraph(graph.NewModel(doc))

	var direct, transitive []FieldOption
	require.NotPanics(t, func() {
		direct = NewDirectProvider(view).AvailableFields("f_F")
		transitive = NewTransitiveProvider(view).AvailableFields("f_F")
	})

	assert.ElementsMatch(t,
		[]string{"Form D.email", "Form D.name", "Form E.email", "Form E.name"},
		paths(direct))
	assert.ElementsMatch(t, []string{
		"Form A.email", "Form A.name",
		"Form B.email", "Form B.name",
		"Form C.email", "Form C.name",
	}, paths(transitive))
	assert.True(t, NewDirectProvider(view).CanHandleForm("f_F"))
}

func TestProviders_CanHandleForm(t *testing.T) {
	t.Parallel()

	view := referenceView()
	direct := NewDirectProvider(view)
	transitive := NewTransitiveProvider(view)
	global := NewGlobalProvider()

	tests := []struct {
		formID     string
		direct     bool
		transitive bool
	}{
		{formID: "f_A", direct: false, transitive: false},
		{formID: "f_B", direct: true, transitive: false},
		{formID: "f_D", direct: true, transitive: true},
		{formID: "f_F", direct: true, transitive: true},
		{formID: "f_missing", direct: false, transitive: false},
	}

	for _, tt := range tests {
		t.Run(tt.formID, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.direct, direct.CanHandleForm(tt.formID))
			assert.Equal(t, tt.transitive, transitive.CanHandleForm(tt.formID))
			assert.True(t, global.CanHandleForm(tt.formID))
		})
	}
}

func TestGlobalProvider(t *testing.T) {
	t.Parallel()

	p := NewGlobalProvider()

	t.Run("SameFieldsForEveryForm", func(t *testing.T) {
		t.Parallel()
		a := p.AvailableFields("f_A")
		missing := p.AvailableFields("not-in-graph")

		assert.NotEmpty(t, a)
		assert.Equal(t, a, missing)
		assert.Len(t, a, 8)
	})

	t.Run("NamespacedIDs", func(t *testing.T) {
		t.Parallel()
		for _, o := range p.AvailableFields("") {
			assert.Contains(t, []string{"global_action", "global_client"}, o.FormID)
		}
		first := p.AvailableFields("")[0]
		assert.Equal(t, "Action Properties.Name", first.Path)
	})

	t.Run("FieldValue", func(t *testing.T) {
		t.Parallel()
		v, ok := p.FieldValue(SourceRef{Kind: SourceGlobal, SourceID: "global_client", FieldID: "region"})
		assert.True(t, ok)
		assert.Equal(t, "Global value from client.region", v)

		_, ok = p.FieldValue(SourceRef{Kind: SourceGlobal, SourceID: "client", FieldID: "region"})
		assert.False(t, ok)

		_, ok = p.FieldValue(SourceRef{Kind: SourceGlobal, SourceID: "global_client", FieldID: "nope"})
		assert.False(t, ok)
	})

	t.Run("CustomSources", func(t *testing.T) {
		t.Parallel()
		custom := NewGlobalProvider(GlobalSource{
			ID:     "tenant",
			Name:   "Tenant",
			Fields: []GlobalField{{ID: "plan", Label: "Plan", Type: "string"}},
		})
		fields := custom.AvailableFields("f_A")
		require.Len(t, fields, 1)
		assert.Equal(t, "global_tenant", fields[0].FormID)
	})
}

func TestGraphProviders_FieldValue(t *testing.T) {
	t.Parallel()

	p := NewTransitiveProvider(referenceView())

	v, ok := p.FieldValue(SourceRef{Kind: SourceTransitive, SourceID: "f_A", FieldID: "email"})
	assert.True(t, ok)
	assert.Equal(t, "Value from f_A.email", v)

	_, ok = p.FieldValue(SourceRef{Kind: SourceTransitive, SourceID: "f_A", FieldID: "phone"})
	assert.False(t, ok)

	_, ok = p.FieldValue(SourceRef{Kind: SourceTransitive, SourceID: "f_missing", FieldID: "email"})
	assert.False(t, ok)

	var nilView GraphView
	_, ok = NewDirectProvider(nilView).FieldValue(SourceRef{SourceID: "f_A", FieldID: "email"})
	assert.False(t, ok)
	assert.False(t, NewDirectProvider(nilView).CanHandleForm("f_A"))
}
