package binding

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/viewbindgen/internal/model"
)

var validFlags = map[model.Flags]bool{
	0:                             true,
	model.PrivateCommand:          true,
	model.PrivateReactiveProperty: true,
	model.PublicObservable | model.PrivateCommand:                true,
	model.PublicObservable | model.PrivateReactiveProperty:       true,
	model.PublicObservable:                                       true,
	model.PublicReactiveProperty | model.PrivateReactiveProperty: true,
	model.PublicReactiveProperty:                                 true,
}

func TestResolveFlagsCompleteness(t *testing.T) {
	p := Policy{Owner: "HudModelGenerated"}
	for f := model.Flags(0); f < 16; f++ {
		_, err := p.ResolveFlags("Score", f, "int")
		if validFlags[f] {
			assert.NoError(t, err, "flags %s", f)
			continue
		}
		require.Error(t, err, "flags %s", f)
		assert.True(t, errors.Is(err, model.ErrConfiguration), "flags %s", f)
	}
}

func TestResolveTable(t *testing.T) {
	p := Policy{Owner: "HudModelGenerated"}
	tests := []struct {
		name                 string
		flags                model.Flags
		private, public      bool
		publicField, dispose bool
		invoke               bool
		stream               string
	}{
		{"existing", 0, false, false, false, false, false, "vm.Score()"},
		{"private command", model.PrivateCommand, true, false, false, true, true, "vm.scoreCmd"},
		{"private property", model.PrivateReactiveProperty, true, false, false, true, false, "vm.score"},
		{"command stream", model.PublicObservable | model.PrivateCommand, true, true, false, true, true, "vm.Score()"},
		{"property stream", model.PublicObservable | model.PrivateReactiveProperty, true, true, false, true, false, "vm.Score()"},
		{"external stream", model.PublicObservable, false, false, true, false, false, "vm.Score"},
		{"read-only property", model.PublicReactiveProperty | model.PrivateReactiveProperty, true, true, false, true, false, "vm.Score()"},
		{"external property", model.PublicReactiveProperty, false, false, true, false, false, "vm.Score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := p.ResolveFlags("Score", tt.flags, "int")
			require.NoError(t, err)
			assert.Equal(t, tt.private, r.PrivateField != nil)
			assert.Equal(t, tt.private, r.PrivateInit != nil)
			assert.Equal(t, tt.public, r.PublicMethod != nil)
			assert.Equal(t, tt.publicField, r.PublicField != nil)
			assert.Equal(t, tt.dispose, r.DisposeStmt != nil)
			assert.Equal(t, tt.invoke, r.InvokeExpr() != nil)
			assert.Equal(t, tt.stream, render(r.Stream(jen.Id("vm"))))
		})
	}
}

func TestResolveNoPrimitive(t *testing.T) {
	r, err := Policy{}.Resolve(model.AutoCreation{})
	require.NoError(t, err)
	assert.Nil(t, r.Stream(jen.Id("vm")))
	assert.Nil(t, r.InvokeExpr())
	assert.Empty(t, r.PrivateName())
}

func TestResolveFragments(t *testing.T) {
	p := Policy{Owner: "HudModelGenerated"}

	r, err := p.ResolveFlags("Score", model.PublicObservable|model.PrivateReactiveProperty, "int")
	require.NoError(t, err)
	assert.Equal(t, "g.score = rx.NewProperty[int]()", render(r.PrivateInit))
	assert.Equal(t, "g.disposables.Add(g.score)", render(r.DisposeStmt))
	assert.Contains(t, render(r.PublicMethod), "func (g *HudModelGenerated) Score() rx.Observable[int] {")
	assert.Contains(t, render(r.PublicMethod), "return g.score")

	r, err = p.ResolveFlags("Play", model.PrivateCommand, "Unit")
	require.NoError(t, err)
	assert.Equal(t, "g.playCmd = rx.NewCommand[rx.Unit]()", render(r.PrivateInit))
	assert.Equal(t, "g.playCmd.Execute(rx.Unit{})", render(r.InvokeExpr()))

	r, err = p.ResolveFlags("Buy", model.PrivateCommand, "Item")
	require.NoError(t, err)
	assert.Equal(t, "g.buyCmd.Execute(arg)", render(r.InvokeExpr()))
	assert.Equal(t, "vm.buyCmd.Execute(vm)", render(r.Invoke(jen.Id("vm"), jen.Id("vm"))))
}

func TestResolveNamingStable(t *testing.T) {
	p := Policy{Owner: "HudModelGenerated", Naming: Naming{PrivatePrefix: "_"}}
	a, err := p.ResolveFlags("Score", model.PrivateReactiveProperty, "int")
	require.NoError(t, err)
	b, err := p.ResolveFlags("Score", model.PrivateReactiveProperty, "int")
	require.NoError(t, err)
	assert.Equal(t, a.PrivateName(), b.PrivateName())
	assert.Equal(t, render(a.PrivateInit), render(b.PrivateInit))
	assert.Equal(t, "_score", a.PrivateName())
}

func TestResolveUnknownCreation(t *testing.T) {
	_, err := Policy{}.Resolve(model.AutoCreation{Name: "X", Creation: model.Creation(42)})
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}
