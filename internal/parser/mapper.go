package parser

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/viewbindgen/internal/binding"
	"github.com/cmmoran/viewbindgen/internal/model"
)

// LocalizerRef reads the configured provider type. A bare name lives in
// home, the viewmodel package.
func LocalizerRef(s, home string) model.TypeRef {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return model.TypeRef{PkgPath: s[:i], Name: s[i+1:]}
	}
	return model.TypeRef{PkgPath: home, Name: s}
}

// Assembler maps annotated types onto generation artifacts: one view
// artifact per view, one viewmodel artifact per distinct viewmodel type.
type Assembler struct {
	opts  *Options
	pkgs  Packages
	diags model.Diagnostics
}

func NewAssembler(opts *Options, pkgs Packages) *Assembler {
	return &Assembler{opts: opts, pkgs: pkgs}
}

// Assemble builds every descriptor, merges viewmodel contributions across
// views and plain models, and deduplicates them.
func (a *Assembler) Assemble(views model.RawViews) *model.Artifacts {
	var (
		arts    = &model.Artifacts{}
		vms     = map[model.TypeRef]*model.ViewModelArtifact{}
		missing = map[model.TypeRef]bool{}
		byVM    = map[model.TypeRef][]*model.ViewArtifact{}
		order   []model.TypeRef
	)

	for _, v := range views {
		dirs, diags := NewBuilder(a.opts, v).Build()
		a.diags = append(a.diags, diags...)

		ref := model.TypeRef{PkgPath: v.PkgPath, Name: v.Name}
		if v.IsView {
			ref = v.ViewModel
		}
		if missing[ref] {
			continue
		}
		vm := vms[ref]
		if vm == nil {
			var err error
			if vm, err = a.newViewModel(ref); err != nil {
				a.diags.Add(model.Locate(err, v.Name, "", "", v.Pos))
				missing[ref] = true
				continue
			}
			vms[ref] = vm
			order = append(order, ref)
		}

		if v.IsView {
			va := &model.ViewArtifact{
				ClassIdentity: model.ClassIdentity{
					Name:    v.Name,
					PkgPath: v.PkgPath,
					PkgName: v.PkgName,
					Dir:     v.Dir,
					Imports: v.Imports,
				},
				ViewModel:  ref,
				Directives: a.reachable(v, ref, dirs),
			}
			arts.Views = append(arts.Views, va)
			byVM[ref] = append(byVM[ref], va)
		}

		vm.Sources = appendUnique(vm.Sources, v.Name)
		vm.Imports = appendUnique(vm.Imports, v.Imports...)
		vm.MethodCalls = append(vm.MethodCalls, dirs.MethodCalls...)
		vm.Subscriptions = append(vm.Subscriptions, dirs.Subscriptions...)
		vm.Observables = append(vm.Observables, dirs.Observables...)
		vm.Localizations = append(vm.Localizations, dirs.Localizations...)
	}

	for _, ref := range order {
		vm := vms[ref]
		rejected := a.finishViewModel(vm)
		for _, va := range byVM[ref] {
			rejected.prune(&va.Directives)
		}
		if vm.NeedsLocalization && !a.pkgs.HasType(vm.Localizer) {
			for _, l := range vm.Localizations {
				a.diags.Add(model.Locate(errors.WithHint(
					model.Configf("localization provider %s not found for %s", vm.Localizer, vm.Name),
					"declare the provider type or set localizer_type"),
					sourceOf(byVM[ref], l), l.Member, "localize", l.Pos))
			}
			vm.Localizations, vm.NeedsLocalization = nil, false
			for _, va := range byVM[ref] {
				va.Localizations = nil
			}
		}
		arts.ViewModels = append(arts.ViewModels, vm)
	}
	for _, va := range arts.Views {
		va.NeedsDisposal = viewNeedsDisposal(va)
	}
	arts.Diagnostics = a.diags
	return arts
}

func (a *Assembler) newViewModel(ref model.TypeRef) (*model.ViewModelArtifact, error) {
	info, ok := a.pkgs[ref.PkgPath]
	if !ok {
		return nil, errors.WithHint(model.Configf("viewmodel package %s was not loaded", ref.PkgPath),
			"keep viewmodels inside the scanned module")
	}
	if !info.Types[ref.Name] {
		return nil, errors.WithHint(model.Configf("viewmodel type %s not found", ref),
			"declare "+ref.Name+" in "+info.Dir)
	}
	return &model.ViewModelArtifact{
		ClassIdentity: model.ClassIdentity{
			Name:    ref.Name,
			PkgPath: ref.PkgPath,
			PkgName: info.Name,
			Dir:     info.Dir,
		},
	}, nil
}

// fixedMembers are the identifiers every generated viewmodel may declare.
func fixedMembers(n binding.Naming) []string {
	return []string{
		initHook, "Dispose", "SetLocalizer", "Localize", "LocalizationKeys",
		localizerField, n.Field(binding.DisposablesField),
	}
}

// rejection records declarations dropped from a viewmodel so the views
// stop referring to them.
type rejection struct {
	primitives map[string]bool
	methods    map[string]bool
}

func (r rejection) prune(d *model.Directives) {
	gone := func(c model.AutoCreation) bool {
		return c.Creation != model.CreationNone && c.Creation != model.CreationExisting && r.primitives[c.Name]
	}
	d.Observables = filter(d.Observables, func(o model.ObservableField) bool { return !gone(o.Creation) })
	d.Subscriptions = filter(d.Subscriptions, func(s model.Subscription) bool { return !gone(s.Creation) })
	d.MethodCalls = filter(d.MethodCalls, func(m model.MethodCall) bool {
		return !gone(m.Creation) && !(m.Forward && r.methods[m.Method])
	})
}

// finishViewModel deduplicates and resolves name clashes, both between
// primitives and between the identifiers synthesized for them.
func (a *Assembler) finishViewModel(vm *model.ViewModelArtifact) rejection {
	vm.MethodCalls = binding.DedupMethodCalls(vm.MethodCalls)
	vm.Subscriptions = binding.DedupSubscriptions(vm.Subscriptions)
	vm.Observables = binding.DedupObservables(vm.Observables)

	seen := map[string]model.AutoCreation{}
	clash := func(c model.AutoCreation, o model.Origin) bool {
		if c.Creation == model.CreationNone || c.Creation == model.CreationExisting {
			return false
		}
		prev, ok := seen[c.Name]
		if !ok {
			seen[c.Name] = c
			return false
		}
		if prev.Equivalent(c) {
			return false
		}
		a.diags.Add(model.Locate(errors.WithHint(
			model.Configf("primitive %s declared as %s and as %s", c.Name, prev.Creation, c.Creation),
			"use the same flags and type everywhere the primitive is named"),
			vm.Name, o.Member, "", o.Pos))
		return true
	}
	vm.MethodCalls = filter(vm.MethodCalls, func(m model.MethodCall) bool { return !clash(m.Creation, m.Origin) })
	vm.Observables = filter(vm.Observables, func(o model.ObservableField) bool { return !clash(o.Creation, o.Origin) })
	vm.Subscriptions = filter(vm.Subscriptions, func(s model.Subscription) bool { return !clash(s.Creation, s.Origin) })

	rejected := a.claimIdentifiers(vm)

	for _, c := range viewModelSpecs(vm) {
		if c.HasPrivateCreation() {
			vm.NeedsDisposal = true
		}
	}
	vm.NeedsLocalization = len(vm.Localizations) > 0
	vm.Localizer = LocalizerRef(a.opts.LocalizerType, vm.PkgPath)
	return rejected
}

// claimIdentifiers gives every generated member of vm a distinct name. The
// first claimant of an identifier keeps it; later ones are reported and
// dropped.
func (a *Assembler) claimIdentifiers(vm *model.ViewModelArtifact) rejection {
	var (
		naming   = a.opts.Naming()
		owners   = map[string]string{}
		claimed  = map[string]bool{}
		rejected = rejection{primitives: map[string]bool{}, methods: map[string]bool{}}
	)
	for _, id := range fixedMembers(naming) {
		owners[id] = "generated member " + id
	}
	claim := func(id, owner string, o model.Origin) bool {
		prev, ok := owners[id]
		if ok && prev != owner {
			a.diags.Add(model.Locate(errors.WithHint(
				model.Configf("%s and %s are both named %s in %s", prev, owner, id, vm.Name+generatedSuffix),
				"rename the primitive or the method"),
				vm.Name, o.Member, "", o.Pos))
			return false
		}
		owners[id] = owner
		return true
	}
	primitive := func(c model.AutoCreation, o model.Origin) bool {
		if claimed[c.Name] {
			return true
		}
		if rejected.primitives[c.Name] {
			return false
		}
		if c.HasPrivateCreation() && !claim(naming.Private(c), "the backing field of "+c.Name, o) ||
			c.HasPublicCreation() && !claim(naming.Public(c), "the accessor of "+c.Name, o) {
			rejected.primitives[c.Name] = true
			return false
		}
		claimed[c.Name] = true
		return true
	}

	vm.MethodCalls = filter(vm.MethodCalls, func(m model.MethodCall) bool {
		if !primitive(m.Creation, m.Origin) {
			return false
		}
		if m.Forward && !claim(m.Method, "the forwarding method "+m.Method, m.Origin) {
			rejected.methods[m.Method] = true
			return false
		}
		return true
	})
	vm.Observables = filter(vm.Observables, func(o model.ObservableField) bool { return primitive(o.Creation, o.Origin) })
	vm.Subscriptions = filter(vm.Subscriptions, func(s model.Subscription) bool { return primitive(s.Creation, s.Origin) })
	return rejected
}

// reachable drops view statements that would touch unexported viewmodel
// fields from another package. The viewmodel still declares them.
func (a *Assembler) reachable(v *model.RawView, ref model.TypeRef, dirs model.Directives) model.Directives {
	if ref.PkgPath == v.PkgPath {
		return dirs
	}
	private := func(c model.AutoCreation, o model.Origin) bool {
		switch c.Creation {
		case model.CreationPrivateCommand, model.CreationPrivateProperty:
		default:
			return false
		}
		a.diags.Add(model.Locate(errors.WithHint(
			model.Configf("%s primitive %s is not reachable from package %s", c.Creation, c.Name, v.PkgName),
			"add PublicObservable to the flags or move the view next to "+ref.Name),
			v.Name, o.Member, "", o.Pos))
		return true
	}
	out := dirs
	out.Observables = filter(append([]model.ObservableField(nil), dirs.Observables...),
		func(o model.ObservableField) bool { return !private(o.Creation, o.Origin) })
	out.Subscriptions = filter(append([]model.Subscription(nil), dirs.Subscriptions...),
		func(s model.Subscription) bool { return !private(s.Creation, s.Origin) })
	out.MethodCalls = filter(append([]model.MethodCall(nil), dirs.MethodCalls...), func(m model.MethodCall) bool {
		if m.Method != "" || m.Widget == "" {
			return true
		}
		if m.Creation.Creation.IsCommand() {
			a.diags.Add(model.Locate(model.Configf("command %s is executed through an unexported field of %s", m.Creation.Name, ref.Name),
				v.Name, m.Member, "call", m.Pos))
			return false
		}
		return true
	})
	return out
}

// viewModelSpecs lists the auto-creation specs of vm in render order.
func viewModelSpecs(vm *model.ViewModelArtifact) []model.AutoCreation {
	out := make([]model.AutoCreation, 0, len(vm.MethodCalls)+len(vm.Observables)+len(vm.Subscriptions))
	for _, m := range vm.MethodCalls {
		out = append(out, m.Creation)
	}
	for _, o := range vm.Observables {
		out = append(out, o.Creation)
	}
	for _, s := range vm.Subscriptions {
		out = append(out, s.Creation)
	}
	return out
}

func viewNeedsDisposal(va *model.ViewArtifact) bool {
	if len(va.Observables) > 0 || len(va.Subscriptions) > 0 || len(va.Localizations) > 0 {
		return true
	}
	for _, m := range va.MethodCalls {
		if m.Widget != "" {
			return true
		}
	}
	return false
}

func sourceOf(views []*model.ViewArtifact, l model.Localization) string {
	for _, va := range views {
		for _, x := range va.Localizations {
			if x.Pos == l.Pos {
				return va.Name
			}
		}
	}
	return ""
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, x := range in {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		if !contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
