package prefill

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a fixed-answer provider for registry tests.
type stubProvider struct {
	kind   SourceKind
	name   string
	handle bool
}

func (p stubProvider) Kind() SourceKind                    { return p.kind }
func (p stubProvider) Name() string                        { return p.name }
func (p stubProvider) AvailableFields(string) []FieldOption { return nil }
func (p stubProvider) FieldValue(SourceRef) (any, bool)     { return nil, false }
func (p stubProvider) CanHandleForm(string) bool            { return p.handle }

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	t.Run("GetUnknownKind", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		_, ok := r.Get(SourceDirect)
		assert.False(t, ok)
		assert.Empty(t, r.All())
	})

	t.Run("LastRegistrationWinsKeepsPosition", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry(
			stubProvider{kind: "a", name: "first a"},
			stubProvider{kind: "b", name: "b"},
		)
		r.Register(stubProvider{kind: "a", name: "second a"})

		p, ok := r.Get("a")
		require.True(t, ok)
		assert.Equal(t, "second a", p.Name())

		all := r.All()
		require.Len(t, all, 2)
		assert.Equal(t, SourceKind("a"), all[0].Kind())
		assert.Equal(t, SourceKind("b"), all[1].Kind())
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.Register(stubProvider{kind: SourceGlobal, handle: true})
			}()
			go func() {
				defer wg.Done()
				_ = r.ProvidersFor("f_A")
			}()
		}
		wg.Wait()

		assert.Len(t, r.All(), 1)
	})
}

func TestRegistry_ProvidersFor(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		stubProvider{kind: "yes", handle: true},
		stubProvider{kind: "no", handle: false},
		stubProvider{kind: "also", handle: true},
	)

	got := r.ProvidersFor("any")
	require.Len(t, got, 2)
	assert.Equal(t, SourceKind("yes"), got[0].Kind())
	assert.Equal(t, SourceKind("also"), got[1].Kind())
}

func TestRegistry_Default(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry(referenceView())

	assert.True(t, r.Ready())
	for _, kind := range Kinds {
		p, ok := r.Get(kind)
		require.True(t, ok)
		assert.Equal(t, kind, p.Kind())
	}

	kinds := func(ps []DataSourceProvider) []SourceKind {
		var out []SourceKind
		for _, p := range ps {
			out = append(out, p.Kind())
		}
		return out
	}

	assert.Equal(t, []SourceKind{SourceGlobal}, kinds(r.ProvidersFor("f_A")))
	assert.Equal(t, []SourceKind{SourceDirect, SourceGlobal}, kinds(r.ProvidersFor("f_B")))
	assert.Equal(t, Kinds, kinds(r.ProvidersFor("f_F")))
	assert.Equal(t, []SourceKind{SourceGlobal}, kinds(r.ProvidersFor("f_missing")))
}

func TestRegistry_Ready(t *testing.T) {
	t.Parallel()

	r := NewRegistry(NewDirectProvider(referenceView()))

	assert.False(t, r.Ready())
	assert.True(t, r.Ready(SourceDirect))
	assert.False(t, r.Ready(SourceDirect, SourceGlobal))

	r.Register(NewGlobalProvider())
	r.Register(NewTransitiveProvider(referenceView()))
	assert.True(t, r.Ready())
}

func TestParseSourceKind(t *testing.T) {
	t.Parallel()

	for _, kind := range Kinds {
		got, err := ParseSourceKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	_, err := ParseSourceKind("Direct")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
