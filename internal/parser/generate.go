package parser

import (
	"bytes"
	"go/token"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/dave/jennifer/jen"
	"github.com/iancoleman/strcase"

	"github.com/cmmoran/viewbindgen/internal/binding"
	"github.com/cmmoran/viewbindgen/internal/model"
)

const (
	GeneratedSuffix = "_g.go"
	Banner          = "Code generated by viewbindgen. DO NOT EDIT."

	bindingsSuffix  = "Bindings"
	generatedSuffix = "Generated"
	initHook        = "initGenerated"
	localizerField  = "localizer"
)

// FileName is the generated file for a type, e.g. HudView -> hud_view_g.go.
func FileName(typeName string) string {
	return strcase.ToSnake(typeName) + GeneratedSuffix
}

// GeneratedFile is one rendered artifact.
type GeneratedFile struct {
	Path    string
	Owner   string
	Content []byte
}

// Renderer emits Go source for assembled artifacts.
type Renderer struct {
	opts *Options
}

func NewRenderer(opts *Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render emits every artifact. A statement that cannot be emitted is
// reported and left out; its file is still written.
func (r *Renderer) Render(arts *model.Artifacts) ([]GeneratedFile, model.Diagnostics) {
	var (
		out   []GeneratedFile
		diags model.Diagnostics
		paths = map[string]string{}
	)
	emit := func(id model.ClassIdentity, f *jen.File) {
		path := filepath.Join(id.Dir, FileName(id.Name))
		if prev, ok := paths[path]; ok {
			diags.Add(model.Locate(errors.WithHint(
				model.Configf("%s and %s both generate %s", prev, id.Name, filepath.Base(path)),
				"rename one of the types"),
				id.Name, "", "", token.Position{}))
			return
		}
		paths[path] = id.Name
		buf := &bytes.Buffer{}
		if err := f.Render(buf); err != nil {
			diags.Add(model.Locate(err, id.Name, "", "", token.Position{}))
			return
		}
		out = append(out, GeneratedFile{
			Path:    path,
			Owner:   id.Name,
			Content: buf.Bytes(),
		})
	}
	for _, va := range arts.Views {
		f, d := r.ViewFile(va)
		diags = append(diags, d...)
		emit(va.ClassIdentity, f)
	}
	for _, vm := range arts.ViewModels {
		f, d := r.ViewModelFile(vm)
		diags = append(diags, d...)
		emit(vm.ClassIdentity, f)
	}
	return out, diags
}

func (r *Renderer) newFile(id model.ClassIdentity) *jen.File {
	f := jen.NewFilePathName(id.PkgPath, id.PkgName)
	f.HeaderComment(Banner)
	if r.opts.Header != "" {
		f.HeaderComment(r.opts.Header)
	}
	return f
}

func (r *Renderer) policy(owner, home string, imports []string) binding.Policy {
	return binding.Policy{
		Runtime: r.opts.Runtime,
		Naming:  r.opts.Naming(),
		Owner:   owner,
		Types:   binding.NewTypeResolver(home, imports),
	}
}

func (r *Renderer) disposables(recv string) *jen.Statement {
	return jen.Id(recv).Dot(r.opts.Naming().Field(binding.DisposablesField))
}

// -----------------------------------------------------------------------------
// View
// -----------------------------------------------------------------------------

// ViewFile renders <View>Bindings plus Initialize and Deinitialize on the view.
func (r *Renderer) ViewFile(va *model.ViewArtifact) (*jen.File, model.Diagnostics) {
	var (
		f     = r.newFile(va.ClassIdentity)
		vb    = &viewBody{r: r, va: va, policy: r.policy(va.ViewModel.Name+generatedSuffix, va.ViewModel.PkgPath, va.Imports)}
		rt    = r.opts.Runtime
		bname = va.Name + bindingsSuffix
	)

	fields := []jen.Code{}
	if va.NeedsDisposal {
		fields = append(fields, jen.Id(r.opts.Naming().Field(binding.DisposablesField)).Qual(rt, "Disposables"))
	}
	f.Commentf("%s is embedded by %s.", bname, va.Name)
	f.Type().Id(bname).Struct(fields...)
	f.Line()

	f.Comment("Initialize binds the view to vm.")
	f.Func().Params(vb.recv()).Id("Initialize").
		Params(jen.Id(binding.ViewModelParam).Op("*").Qual(va.ViewModel.PkgPath, va.ViewModel.Name)).
		Block(vb.initialize()...)
	f.Line()

	f.Comment("Deinitialize releases what Initialize set up.")
	f.Func().Params(vb.recv()).Id("Deinitialize").Params().Block(vb.deinitialize()...)

	return f, vb.diags
}

type viewBody struct {
	r      *Renderer
	va     *model.ViewArtifact
	policy binding.Policy
	diags  model.Diagnostics
}

func (b *viewBody) recv() *jen.Statement {
	return jen.Id(binding.ViewReceiver).Op("*").Id(b.va.Name)
}

func (b *viewBody) fail(err error, directive string, o model.Origin) {
	b.diags.Add(model.Locate(err, b.va.Name, o.Member, directive, o.Pos))
}

func view() *jen.Statement { return jen.Id(binding.ViewReceiver) }
func vm() *jen.Statement   { return jen.Id(binding.ViewModelParam) }

// subscribe registers handler on stream with the view's disposables.
func (b *viewBody) subscribe(stream, handler jen.Code) *jen.Statement {
	return b.r.disposables(binding.ViewReceiver).Dot("Add").Call(
		jen.Qual(b.r.opts.Runtime, "Subscribe").Call(stream, handler),
	)
}

func (b *viewBody) initialize() []jen.Code {
	var out []jen.Code
	for _, s := range b.va.Subviews {
		out = append(out, b.subview(s))
	}
	for _, s := range b.va.SubviewCollections {
		out = append(out, b.subviewCollection(s))
	}
	for _, l := range b.va.Localizations {
		out = append(out, b.localization(l))
	}
	for _, o := range b.va.Observables {
		if stmt := b.observable(o); stmt != nil {
			out = append(out, stmt)
		}
	}
	for _, m := range b.va.MethodCalls {
		if stmt := b.methodCall(m); stmt != nil {
			out = append(out, stmt)
		}
	}
	for _, s := range b.va.Subscriptions {
		if stmt := b.subscription(s); stmt != nil {
			out = append(out, stmt)
		}
	}
	return out
}

func (b *viewBody) deinitialize() []jen.Code {
	var out []jen.Code
	if b.va.NeedsDisposal {
		out = append(out, b.r.disposables(binding.ViewReceiver).Dot("Dispose").Call())
	}
	for _, s := range b.va.Subviews {
		stmt := view().Dot(s.Field).Dot("Deinitialize").Call()
		if s.NullCheck {
			stmt = jen.If(view().Dot(s.Field).Op("!=").Nil()).Block(stmt)
		}
		out = append(out, stmt)
	}
	for _, s := range b.va.SubviewCollections {
		elem := binding.Element(s.Field)
		body := []jen.Code{}
		if s.NullCheck {
			body = append(body, jen.If(jen.Id(elem).Op("==").Nil()).Block(jen.Continue()))
		}
		body = append(body, jen.Id(elem).Dot("Deinitialize").Call())
		out = append(out, jen.For(jen.List(jen.Id("_"), jen.Id(elem)).Op(":=").Range().Add(view().Dot(s.Field))).Block(body...))
	}
	return out
}

func (b *viewBody) subview(s model.Subview) jen.Code {
	arg := vm()
	if !s.ReuseParent {
		arg = vm().Dot(s.ModelField)
	}
	stmt := view().Dot(s.Field).Dot("Initialize").Call(arg)
	if s.NullCheck {
		return jen.If(view().Dot(s.Field).Op("!=").Nil()).Block(stmt)
	}
	return stmt
}

func (b *viewBody) subviewCollection(s model.SubviewCollection) jen.Code {
	var (
		elem   = binding.Element(s.Field)
		models = vm().Dot(s.ModelField)
		skip   = func(x jen.Code) jen.Code {
			return jen.If(jen.Add(x).Op("==").Nil()).Block(jen.Continue())
		}
	)
	if s.Strategy == model.MatchIndex {
		item := view().Dot(s.Field).Index(jen.Id(binding.IndexVar))
		body := []jen.Code{}
		if s.NullCheck {
			body = append(body, skip(item.Clone()))
		}
		body = append(body, item.Clone().Dot("Initialize").Call(models.Clone().Index(jen.Id(binding.IndexVar))))
		return jen.For(jen.Id(binding.IndexVar).Op(":=").Range().Add(view().Dot(s.Field))).Block(body...)
	}

	body := []jen.Code{}
	if s.NullCheck {
		body = append(body, skip(jen.Id(elem)))
	}
	switch s.Strategy {
	case model.MatchSameModel:
		body = append(body, jen.Id(elem).Dot("Initialize").Call(vm()))
	case model.MatchFieldMatch, model.MatchWithMethod:
		cond := jen.Id(elem).Dot(s.ViewKey).Op("==").Id(binding.ModelVar).Dot(s.ModelKey)
		if s.Strategy == model.MatchWithMethod {
			cond = view().Dot(s.Matcher).Call(jen.Id(elem), jen.Id(binding.ModelVar))
		}
		body = append(body, jen.For(jen.List(jen.Id("_"), jen.Id(binding.ModelVar)).Op(":=").Range().Add(models)).Block(
			jen.If(cond).Block(
				jen.Id(elem).Dot("Initialize").Call(jen.Id(binding.ModelVar)),
				jen.Break(),
			),
		))
	}
	return jen.For(jen.List(jen.Id("_"), jen.Id(elem)).Op(":=").Range().Add(view().Dot(s.Field))).Block(body...)
}

func (b *viewBody) localization(l model.Localization) jen.Code {
	key := jen.Lit(l.Key)
	if l.IsDynamic() {
		key = view().Dot(l.KeyProvider)
	}
	target := view().Dot(l.Field)
	if l.Placeholder {
		target = target.Dot("Placeholder").Call()
	}
	set := target.Dot("SetText").Call(jen.Id(binding.ValueParam))
	if l.NullCheck {
		set = jen.If(view().Dot(l.Field).Op("!=").Nil()).Block(set)
	}
	return b.subscribe(
		vm().Dot("Localize").Call(key),
		jen.Func().Params(jen.Id(binding.ValueParam).String()).Block(set),
	)
}

func (b *viewBody) observable(o model.ObservableField) jen.Code {
	res, err := b.policy.Resolve(o.Creation)
	if err != nil {
		b.fail(err, "observe", o.Origin)
		return nil
	}
	stream := res.Stream(vm())
	if stream == nil {
		b.fail(model.Configf("observe of %q has no stream", o.Creation.Name), "observe", o.Origin)
		return nil
	}
	delayed, err := binding.DelayStream(b.r.opts.Runtime, stream, o.Delay)
	if err != nil {
		b.fail(err, "observe", o.Origin)
		return nil
	}
	assign, err := binding.Assign(binding.Assignment{
		Type:       o.Type,
		Inverted:   o.Inverted,
		Collection: o.Collection,
		NullCheck:  o.NullCheck,
		Target:     view().Dot(o.Field),
		Value:      jen.Id(binding.ValueParam),
		Element:    binding.Element(o.Field),
	})
	if err != nil {
		b.fail(err, "observe", o.Origin)
		return nil
	}
	return b.subscribe(delayed,
		jen.Func().Params(jen.Id(binding.ValueParam).Add(b.policy.ValueType(o.Creation))).Block(assign))
}

func (b *viewBody) methodCall(m model.MethodCall) jen.Code {
	if m.Widget == "" {
		return nil
	}
	var action *jen.Statement
	if m.Method != "" {
		recv := view()
		if m.OnViewModel {
			recv = vm()
		}
		args := []jen.Code{}
		if m.PassModel {
			args = append(args, vm())
		}
		action = recv.Dot(m.Method).Call(args...)
	} else {
		res, err := b.policy.Resolve(m.Creation)
		if err != nil {
			b.fail(err, "call", m.Origin)
			return nil
		}
		var arg jen.Code
		if m.PassModel {
			arg = vm()
		}
		action = res.Invoke(vm(), arg)
	}
	stream, err := binding.ThrottleStream(b.r.opts.Runtime, view().Dot(m.Widget).Dot(m.Event).Call(), m.Debounce)
	if err != nil {
		b.fail(err, "call", m.Origin)
		return nil
	}
	stmt := b.subscribe(stream, jen.Func().Params(jen.Qual(b.r.opts.Runtime, "Unit")).Block(action))
	if m.NullCheck {
		return jen.If(view().Dot(m.Widget).Op("!=").Nil()).Block(stmt)
	}
	return stmt
}

func (b *viewBody) subscription(s model.Subscription) jen.Code {
	res, err := b.policy.Resolve(s.Creation)
	if err != nil {
		b.fail(err, "subscribe", s.Origin)
		return nil
	}
	stream := res.Stream(vm())
	if stream == nil {
		b.fail(model.Configf("subscribe to %q has no stream", s.Creation.Name), "subscribe", s.Origin)
		return nil
	}
	if s.Filter != "" {
		pred := jen.Code(view().Dot(s.Filter))
		if !token.IsIdentifier(s.Filter) {
			pred = jen.Func().Params(jen.Id(binding.ValueParam).Add(b.policy.ValueType(s.Creation))).Bool().
				Block(jen.Return(jen.Op(s.Filter)))
		}
		stream = jen.Qual(b.r.opts.Runtime, "Where").Call(stream, pred)
	}
	return b.subscribe(stream, view().Dot(s.Method))
}

// -----------------------------------------------------------------------------
// ViewModel
// -----------------------------------------------------------------------------

// ViewModelFile renders <ViewModel>Generated with its backing primitives,
// accessors, forwarding methods and lifecycle hooks.
func (r *Renderer) ViewModelFile(vm *model.ViewModelArtifact) (*jen.File, model.Diagnostics) {
	var (
		f      = r.newFile(vm.ClassIdentity)
		gname  = vm.Name + generatedSuffix
		policy = r.policy(gname, vm.PkgPath, vm.Imports)
		self   = jen.Id(binding.GeneratedReceiver)
		recv   = func() *jen.Statement { return jen.Id(binding.GeneratedReceiver).Op("*").Id(gname) }
		diags  model.Diagnostics
		kept   []binding.Resolution
	)
	fail := func(err error, member string, pos token.Position) {
		diags.Add(model.Locate(err, vm.Name, member, "", pos))
	}

	origins := viewModelOrigins(vm)
	for i, spec := range viewModelSpecs(vm) {
		dup := false
		for _, k := range kept {
			if k.Spec().Equivalent(spec) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		res, err := policy.Resolve(spec)
		if err != nil {
			fail(err, origins[i].Member, origins[i].Pos)
			continue
		}
		kept = append(kept, res)
	}

	fields := []jen.Code{}
	inits := []jen.Code{}
	for _, res := range kept {
		if res.PrivateField != nil {
			fields = append(fields, res.PrivateField)
			inits = append(inits, res.PrivateInit)
			if vm.NeedsDisposal {
				inits = append(inits, res.DisposeStmt)
			}
		}
		if res.PublicField != nil {
			fields = append(fields, res.PublicField)
		}
	}
	if vm.NeedsLocalization {
		fields = append(fields, jen.Id(localizerField).Qual(vm.Localizer.PkgPath, vm.Localizer.Name))
	}
	if vm.NeedsDisposal {
		fields = append(fields, jen.Id(r.opts.Naming().Field(binding.DisposablesField)).Qual(r.opts.Runtime, "Disposables"))
	}

	f.Commentf("%s is embedded by %s.", gname, vm.Name)
	f.Type().Id(gname).Struct(fields...)
	f.Line()

	f.Commentf("%s constructs the generated primitives. Call it from every %s constructor.", initHook, vm.Name)
	f.Func().Params(recv()).Id(initHook).Params().Block(inits...)
	f.Line()

	for _, res := range kept {
		if res.PublicMethod != nil {
			f.Add(res.PublicMethod)
			f.Line()
		}
	}

	forwarded := map[string]model.AutoCreation{}
	for _, m := range vm.MethodCalls {
		if !m.Forward {
			continue
		}
		if prev, ok := forwarded[m.Method]; ok {
			if !prev.Equivalent(m.Creation) {
				fail(model.Configf("method %s forwards to both %s and %s", m.Method, prev.Name, m.Creation.Name), m.Member, m.Pos)
			}
			continue
		}
		res, err := policy.Resolve(m.Creation)
		if err != nil {
			fail(err, m.Member, m.Pos)
			continue
		}
		forwarded[m.Method] = m.Creation
		params := []jen.Code{}
		if m.Creation.HasArgument() {
			params = append(params, jen.Id(binding.ArgParam).Add(policy.ValueType(m.Creation)))
		}
		f.Func().Params(recv()).Id(m.Method).Params(params...).Block(res.InvokeExpr())
		f.Line()
	}

	if vm.NeedsDisposal {
		f.Comment("Dispose releases every generated primitive.")
		f.Func().Params(recv()).Id("Dispose").Params().Block(
			r.disposables(binding.GeneratedReceiver).Dot("Dispose").Call(),
		)
		f.Line()
	}

	if vm.NeedsLocalization {
		provider := jen.Qual(vm.Localizer.PkgPath, vm.Localizer.Name)
		f.Func().Params(recv()).Id("SetLocalizer").Params(jen.Id(localizerField).Add(provider)).Block(
			self.Clone().Dot(localizerField).Op("=").Id(localizerField),
		)
		f.Line()
		f.Comment("Localize streams the text for key in the current language.")
		f.Func().Params(recv()).Id("Localize").Params(jen.Id("key").String()).
			Qual(r.opts.Runtime, "Observable").Types(jen.String()).
			Block(jen.Return(self.Clone().Dot(localizerField).Dot("Localize").Call(jen.Id("key"))))
		f.Line()

		keys := []jen.Code{}
		seen := map[string]bool{}
		for _, l := range vm.Localizations {
			if l.IsDynamic() || seen[l.Key] {
				continue
			}
			seen[l.Key] = true
			keys = append(keys, jen.Lit(l.Key))
		}
		f.Comment("LocalizationKeys lists the literal keys the bound views use.")
		f.Func().Params(recv()).Id("LocalizationKeys").Params().Index().String().
			Block(jen.Return(jen.Index().String().Values(keys...)))
	}

	return f, diags
}

// viewModelOrigins parallels viewModelSpecs.
func viewModelOrigins(vm *model.ViewModelArtifact) []model.Origin {
	out := make([]model.Origin, 0, len(vm.MethodCalls)+len(vm.Observables)+len(vm.Subscriptions))
	for _, m := range vm.MethodCalls {
		out = append(out, m.Origin)
	}
	for _, o := range vm.Observables {
		out = append(out, o.Origin)
	}
	for _, s := range vm.Subscriptions {
		out = append(out, s.Origin)
	}
	return out
}
