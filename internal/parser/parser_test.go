package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/viewbindgen/internal/model"
)

const hudPkg = "github.com/acme/game/hud"

func parseHud(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	p, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, p.ParseDir(filepath.Join("testdata", "hud"), hudPkg))
	return p
}

// rendered maps owner to source with whitespace collapsed, so assertions do
// not depend on gofmt alignment.
func rendered(t *testing.T, p *Parser) (map[string]string, model.Diagnostics) {
	t.Helper()
	files, diags := NewRenderer(&p.Opts).Render(p.Artifacts)
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Owner] = strings.Join(strings.Fields(string(f.Content)), " ")
	}
	return out, diags
}

func TestParseDirCollectsViews(t *testing.T) {
	p := parseHud(t)

	var names []string
	for _, v := range p.Views {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"HudModel", "HudView", "MiniHudView", "GhostView", "DebugView"}, names)

	hud := p.Views[1]
	assert.True(t, hud.IsView)
	assert.Equal(t, model.TypeRef{PkgPath: hudPkg, Name: "HudModel"}, hud.ViewModel)
	for _, m := range hud.Members {
		assert.NotEqual(t, "Plain", m.Name, "omitted field collected")
		assert.NotEqual(t, "HintKey", m.Name, "untagged field collected")
	}

	hm := p.Views[0]
	assert.False(t, hm.IsView)
	require.Len(t, hm.Members, 1)
	assert.Equal(t, model.MemberType, hm.Members[0].Kind)
	assert.Len(t, hm.Members[0].Directives, 2)
}

func TestAssembleHud(t *testing.T) {
	p := parseHud(t)
	arts := p.Artifacts

	require.Len(t, arts.Diagnostics, 3)
	assert.True(t, errors.Is(arts.Diagnostics[0], model.ErrUnsupportedOperation))
	assert.Equal(t, "Tint", arts.Diagnostics[0].Member)
	assert.Contains(t, arts.Diagnostics[1].Error(), "unknown binding type")
	assert.Equal(t, "Broken", arts.Diagnostics[1].Member)
	assert.Contains(t, arts.Diagnostics[2].Error(), "viewmodel type")
	assert.Equal(t, "GhostView", arts.Diagnostics[2].View)

	var views []string
	for _, va := range arts.Views {
		views = append(views, va.Name)
	}
	assert.Equal(t, []string{"HudView", "MiniHudView", "DebugView"}, views)
	for _, va := range arts.Views {
		assert.True(t, va.NeedsDisposal, va.Name)
	}

	require.Len(t, arts.ViewModels, 1)
	vm := arts.ViewModels[0]
	assert.Equal(t, "HudModel", vm.Name)
	assert.Equal(t, []string{"HudModel", "HudView", "MiniHudView", "DebugView"}, vm.Sources)
	assert.True(t, vm.NeedsDisposal)
	assert.True(t, vm.NeedsLocalization)
	assert.Equal(t, model.TypeRef{PkgPath: hudPkg, Name: "Localizer"}, vm.Localizer)

	names := func(specs []model.AutoCreation) []string {
		var out []string
		for _, s := range specs {
			out = append(out, s.Name)
		}
		return out
	}
	var calls, observed, subscribed []model.AutoCreation
	for _, m := range vm.MethodCalls {
		calls = append(calls, m.Creation)
	}
	for _, o := range vm.Observables {
		observed = append(observed, o.Creation)
	}
	for _, s := range vm.Subscriptions {
		subscribed = append(subscribed, s.Creation)
	}
	assert.Equal(t, []string{"Restart", "Play", ""}, names(calls))
	assert.Equal(t, []string{"Lives", "Score", "Alive", "Fps"}, names(observed))
	assert.Equal(t, []string{"Died", "Score"}, names(subscribed))
}

func TestRenderHudView(t *testing.T) {
	p := parseHud(t)
	files, diags := rendered(t, p)
	require.Empty(t, diags)

	src := files["HudView"]
	require.NotEmpty(t, src)
	for _, want := range []string{
		"// Code generated by viewbindgen. DO NOT EDIT.",
		"package hud",
		"type HudViewBindings struct { disposables rx.Disposables }",
		"func (v *HudView) Initialize(vm *HudModel) {",
		"v.Score.SetText(fmt.Sprint(value))",
		"rx.DelayFrames(vm.Score(), 3)",
		"for _, label := range v.Labels {",
		"v.Dead.SetActive(!value)",
		"rx.ThrottleFirst(v.Play.Clicked(),",
		"vm.playCmd.Execute(rx.Unit{})",
		"vm.Quit()",
		`vm.Localize("hud.title")`,
		"vm.Localize(v.HintKey)",
		"v.Hint.Placeholder().SetText(value)",
		"for i := range v.Slots {",
		"v.Slots[i].Initialize(vm.Slots[i])",
		"v.Stats.Initialize(vm)",
		"rx.Subscribe(vm.Died(), v.OnDied)",
		"rx.Where(vm.Score(), func(value int) bool { return value > 100 })",
		"func (v *HudView) Deinitialize() { v.disposables.Dispose()",
		"for _, slot := range v.Slots { slot.Deinitialize() }",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "v.Tint")
	assert.NotContains(t, src, "v.Broken")
	assert.NotContains(t, src, "v.Plain")

	body := src[strings.Index(src, "Initialize(vm"):]
	order := []string{"v.Slots[i].Initialize", `vm.Localize("hud.title")`, "v.Score.SetText", "v.Play.Clicked", "v.OnDied"}
	last := -1
	for _, s := range order {
		i := strings.Index(body, s)
		require.GreaterOrEqual(t, i, 0, s)
		assert.Greater(t, i, last, "%s out of order", s)
		last = i
	}
}

func TestRenderHudViewModel(t *testing.T) {
	p := parseHud(t)
	files, _ := rendered(t, p)

	src := files["HudModel"]
	require.NotEmpty(t, src)
	for _, want := range []string{
		"type HudModelGenerated struct {",
		"restartCmd *rx.Command[rx.Unit]",
		"playCmd *rx.Command[rx.Unit]",
		"lives *rx.Property[int]",
		"score *rx.Property[int]",
		"fps *rx.Property[int]",
		"diedCmd *rx.Command[rx.Unit]",
		"localizer Localizer",
		"disposables rx.Disposables",
		"func (g *HudModelGenerated) initGenerated() {",
		"g.score = rx.NewProperty[int]()",
		"g.disposables.Add(g.score)",
		"func (g *HudModelGenerated) Lives() rx.ReadOnlyProperty[int] { return g.lives }",
		"func (g *HudModelGenerated) Score() rx.Observable[int] { return g.score }",
		"func (g *HudModelGenerated) Died() rx.Observable[rx.Unit] { return g.diedCmd }",
		"func (g *HudModelGenerated) Restart() { g.restartCmd.Execute(rx.Unit{}) }",
		"func (g *HudModelGenerated) Dispose() { g.disposables.Dispose() }",
		"func (g *HudModelGenerated) SetLocalizer(localizer Localizer) { g.localizer = localizer }",
		"func (g *HudModelGenerated) Localize(key string) rx.Observable[string] { return g.localizer.Localize(key) }",
		`func (g *HudModelGenerated) LocalizationKeys() []string { return []string{"hud.title"} }`,
	} {
		assert.Contains(t, src, want)
	}
	assert.Equal(t, 1, strings.Count(src, "score *rx.Property[int]"), "score declared twice")
	assert.NotContains(t, src, "alive")
}

func TestRenderIsDeterministic(t *testing.T) {
	first, _ := rendered(t, parseHud(t))
	second, _ := rendered(t, parseHud(t))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("output differs between runs (-first +second):\n%s", diff)
	}
}

func TestExcludeViews(t *testing.T) {
	p := parseHud(t, WithExcludeViews("debugview", "GhostView"))
	require.Len(t, p.Artifacts.Diagnostics, 2)
	for _, va := range p.Artifacts.Views {
		assert.NotEqual(t, "DebugView", va.Name)
	}
	require.Len(t, p.Artifacts.ViewModels, 1)
	assert.NotContains(t, p.Artifacts.ViewModels[0].Sources, "DebugView")
}

func TestMissingLocalizerDropsLocalizations(t *testing.T) {
	p := parseHud(t, WithLocalizerType("Translator"))

	var found int
	for _, d := range p.Artifacts.Diagnostics {
		if strings.Contains(d.Error(), "localization provider") {
			found++
		}
	}
	assert.Equal(t, 3, found)

	vm := p.Artifacts.ViewModels[0]
	assert.False(t, vm.NeedsLocalization)
	assert.Empty(t, vm.Localizations)
	for _, va := range p.Artifacts.Views {
		assert.Empty(t, va.Localizations, va.Name)
	}

	files, _ := rendered(t, p)
	assert.NotContains(t, files["HudModel"], "SetLocalizer")
	assert.NotContains(t, files["HudView"], "Localize(")
}

func TestCrossPackageView(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.ParseDir(filepath.Join("testdata", "models"), "github.com/acme/game/models"))
	require.NoError(t, p.ParseDir(filepath.Join("testdata", "shop"), "github.com/acme/game/shop"))

	diags := p.Artifacts.Diagnostics
	require.Len(t, diags, 2)
	assert.Equal(t, "Gold", diags[0].Member)
	assert.Contains(t, diags[0].Error(), "not reachable from package shop")
	assert.Equal(t, "Buy", diags[1].Member)
	assert.Contains(t, diags[1].Error(), "unexported field")

	files, rdiags := rendered(t, p)
	require.Empty(t, rdiags)

	view := files["ShopView"]
	assert.Contains(t, view, "func (v *ShopView) Initialize(vm *models.ShopModel) {")
	assert.Contains(t, view, "rx.Subscribe(vm.Price(), func(value int) {")
	assert.Contains(t, view, "rx.Subscribe(vm.Bought(), v.OnBought)")
	assert.Contains(t, view, "vm.SellSelected()")
	assert.NotContains(t, view, "vm.gold")
	assert.NotContains(t, view, "buyCmd")

	vm := files["ShopModel"]
	assert.Contains(t, vm, "package models")
	assert.Contains(t, vm, "buyCmd *rx.Command[rx.Unit]")
	assert.Contains(t, vm, "gold *rx.Property[int]")
	assert.Contains(t, vm, "cooldown *rx.Property[time.Duration]")
	assert.Contains(t, vm, "func (g *ShopModelGenerated) Bought() rx.Observable[Item]")
	assert.Contains(t, vm, "func (g *ShopModelGenerated) Cooldown() rx.Observable[time.Duration]")
}

const arenaPkg = "github.com/acme/game/arena"

// parseSource scans src as the only file of a throwaway package.
func parseSource(t *testing.T, src string) *Parser {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arena.go"), []byte(src), 0o644))
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.ParseDir(dir, arenaPkg))
	return p
}

func TestRenderSubviewCollections(t *testing.T) {
	p := parseSource(t, `package arena

type ListModel struct{}

//bind:view ListModel
type ListView struct {
	Cards []*CardView `+"`bind:\"subviews\"`"+`
	Rows  []*RowView  `+"`bind:\"subviews model=Entries match=FieldMatch viewkey=ID modelkey=Key nullcheck\"`"+`
	Tiles []*TileView `+"`bind:\"subviews model=Entries match=WithMethod method=SameTile\"`"+`
}
`)
	require.Empty(t, p.Artifacts.Diagnostics)
	files, diags := rendered(t, p)
	require.Empty(t, diags)

	src := files["ListView"]
	require.NotEmpty(t, src)
	for _, want := range []string{
		"for _, card := range v.Cards { card.Initialize(vm) }",
		"for _, row := range v.Rows { if row == nil { continue } " +
			"for _, model := range vm.Entries { if row.ID == model.Key { row.Initialize(model) break } } }",
		"for _, tile := range v.Tiles { " +
			"for _, model := range vm.Entries { if v.SameTile(tile, model) { tile.Initialize(model) break } } }",
		"func (v *ListView) Deinitialize() { for _, card := range v.Cards { card.Deinitialize() } " +
			"for _, row := range v.Rows { if row == nil { continue } row.Deinitialize() } " +
			"for _, tile := range v.Tiles { tile.Deinitialize() } }",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "disposables")
}

func TestGeneratedIdentifiersAreUnique(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		member string
		want   string
		absent string
		once   string
	}{
		{
			name: "accessor and forwarding method",
			src: `//bind:view ArenaModel
type ArenaView struct {
	Play *Button ` + "`bind:\"call Play forward primitive=Play flags=PublicObservable|PrivateCommand\"`" + `
}
`,
			member: "Play",
			want:   "the accessor of Play and the forwarding method Play are both named Play",
			absent: "vm.Play()",
			once:   "func (g *ArenaModelGenerated) Play()",
		},
		{
			name: "accessor and generated member",
			src: `//bind:view ArenaModel
type ArenaView struct {
	Coins *Label ` + "`bind:\"observe Dispose as=Text type=int flags=PublicObservable|PrivateReactiveProperty\"`" + `
}
`,
			member: "Coins",
			want:   "generated member Dispose and the accessor of Dispose are both named Dispose",
			absent: "vm.Dispose()",
			once:   "func (g *ArenaModelGenerated) Dispose()",
		},
		{
			name: "forwarding method and generated member",
			src: `//bind:model
//bind:call Localize forward primitive=Speak flags=PrivateCommand
type Arena struct{}
`,
			member: "Arena",
			want:   "generated member Localize and the forwarding method Localize are both named Localize",
			once:   "func (g *ArenaGenerated) Localize(",
		},
		{
			name: "two backing fields",
			src: `//bind:view ArenaModel
type ArenaView struct {
	Fire *Button ` + "`bind:\"call primitive=Fire flags=PrivateCommand\"`" + `
	Heat *Label  ` + "`bind:\"observe FireCmd as=Text type=int flags=PrivateReactiveProperty\"`" + `
}
`,
			member: "Heat",
			want:   "the backing field of Fire and the backing field of FireCmd are both named fireCmd",
			absent: "func(value int)",
			once:   "fireCmd *rx.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parseSource(t, "package arena\n\ntype ArenaModel struct{}\n\n"+tt.src)

			diags := p.Artifacts.Diagnostics
			require.Len(t, diags, 1)
			assert.True(t, errors.Is(diags[0], model.ErrConfiguration))
			assert.Contains(t, diags[0].Error(), tt.want)
			assert.Equal(t, tt.member, diags[0].Member)

			files, rdiags := rendered(t, p)
			require.Empty(t, rdiags)
			for owner, src := range files {
				assert.LessOrEqual(t, strings.Count(src, tt.once), 1, owner)
			}
			if tt.absent != "" {
				assert.NotContains(t, files["ArenaView"], tt.absent)
			}
		})
	}
}

func TestRenderReportsFileNameCollision(t *testing.T) {
	p := parseSource(t, `package arena

type ArenaModel struct{}

//bind:view ArenaModel
type HudView struct {
	Score *Label `+"`bind:\"observe Score as=Text type=int flags=PublicObservable|PrivateReactiveProperty\"`"+`
}

//bind:view ArenaModel
type HUDView struct {
	Score *Label `+"`bind:\"observe Score as=Text type=int flags=PublicObservable|PrivateReactiveProperty\"`"+`
}
`)
	require.Empty(t, p.Artifacts.Diagnostics)

	files, diags := NewRenderer(&p.Opts).Render(p.Artifacts)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Error(), "both generate hud_view_g.go")
	require.Len(t, files, 2)
	assert.NotEqual(t, files[0].Path, files[1].Path)
}

func TestParseModule(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, body string) {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	write("go.mod", "module example.com/arcade\n\ngo 1.22\n")
	write("models/menu.go", `package models

type MenuModel struct{}
`)
	write("ui/menu.go", `package ui

import "example.com/arcade/models"

//bind:view models.MenuModel
type MenuView struct {
	Title *Label `+"`bind:\"observe Title as=Text type=string flags=PublicObservable|PrivateReactiveProperty\"`"+`
}

type Label struct{}
`)

	p, err := New(WithInDir(filepath.Join(dir, "ui")))
	require.NoError(t, err)
	require.NoError(t, p.Parse())

	assert.Equal(t, "example.com/arcade", p.Module)
	assert.Equal(t, dir, p.ModDir)
	require.Empty(t, p.Artifacts.Diagnostics)
	require.Len(t, p.Artifacts.ViewModels, 1)
	vm := p.Artifacts.ViewModels[0]
	assert.Equal(t, "models", vm.PkgName)
	assert.Equal(t, filepath.Join(dir, "models"), vm.Dir)
}

func TestEnsurePackageOutsideModule(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	p.Module, p.ModDir = "example.com/arcade", t.TempDir()

	_, err = p.ensurePackage("example.com/other/models")
	assert.True(t, errors.Is(err, ErrOutsideModule))

	require.NoError(t, os.MkdirAll(filepath.Join(p.ModDir, "empty"), 0o755))
	_, err = p.ensurePackage("example.com/arcade/empty")
	assert.True(t, errors.Is(err, ErrNoPackage))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "hud_view_g.go", FileName("HudView"))
	assert.Equal(t, "hud_view_g.go", FileName("HUDView"))
	assert.Equal(t, "shop_model_g.go", FileName("ShopModel"))
}
