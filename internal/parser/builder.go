package parser

import (
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/viewbindgen/internal/binding"
	"github.com/cmmoran/viewbindgen/internal/model"
)

// DefaultEvent is the widget stream a call directive listens to.
const DefaultEvent = "Clicked"

// Builder turns the raw directives of one annotated type into descriptors.
// A malformed directive is reported and skipped; the rest still build.
type Builder struct {
	opts  *Options
	view  *model.RawView
	diags model.Diagnostics
}

// NewBuilder initializes a Builder for one view or plain model.
func NewBuilder(opts *Options, view *model.RawView) *Builder {
	return &Builder{opts: opts, view: view}
}

type kindRule struct {
	members  []model.MemberKind
	named    []string
	switches []string
	maxPos   int
}

var kindRules = map[string]kindRule{
	"call": {
		members:  []model.MemberKind{model.MemberField, model.MemberType},
		named:    []string{"event", "debounce", "primitive", "flags", "type"},
		switches: []string{"vm", "model", "forward", "nullcheck"},
		maxPos:   1,
	},
	"localize": {
		members:  []model.MemberKind{model.MemberField},
		named:    []string{"provider"},
		switches: []string{"placeholder", "nullcheck"},
		maxPos:   1,
	},
	"observe": {
		members:  []model.MemberKind{model.MemberField, model.MemberType},
		named:    []string{"as", "flags", "type", "delay"},
		switches: []string{"invert", "each", "nullcheck", "frames"},
		maxPos:   1,
	},
	"subscribe": {
		members: []model.MemberKind{model.MemberMethod},
		named:   []string{"flags", "type", "filter"},
		maxPos:  1,
	},
	"subview": {
		members:  []model.MemberKind{model.MemberField},
		named:    []string{"model"},
		switches: []string{"reuse", "nullcheck"},
	},
	"subviews": {
		members:  []model.MemberKind{model.MemberField},
		named:    []string{"model", "match", "key", "viewkey", "modelkey", "method"},
		switches: []string{"nullcheck"},
	},
}

func kindNames() string {
	names := make([]string, 0, len(kindRules))
	for k := range kindRules {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Build produces the descriptors of the view in declaration order.
func (b *Builder) Build() (model.Directives, model.Diagnostics) {
	var out model.Directives
	for _, m := range b.view.Members {
		for _, d := range m.Directives {
			if err := b.buildOne(&out, m, d); err != nil {
				b.diags.Add(model.Locate(err, b.view.Name, m.Name, d.Kind, d.Pos))
			}
		}
	}
	return out, b.diags
}

func (b *Builder) buildOne(out *model.Directives, m *model.RawMember, d *model.RawDirective) error {
	if err := checkShape(d, m); err != nil {
		return err
	}
	origin := model.Origin{Member: m.Name, Pos: d.Pos}

	switch d.Kind {
	case "call":
		mc, err := b.methodCall(origin, m, d)
		if err != nil {
			return err
		}
		out.MethodCalls = append(out.MethodCalls, mc)
	case "localize":
		l, err := b.localization(origin, m, d)
		if err != nil {
			return err
		}
		out.Localizations = append(out.Localizations, l)
	case "observe":
		o, err := b.observable(origin, m, d)
		if err != nil {
			return err
		}
		out.Observables = append(out.Observables, o)
	case "subscribe":
		s, err := b.subscription(origin, m, d)
		if err != nil {
			return err
		}
		out.Subscriptions = append(out.Subscriptions, s)
	case "subview":
		s, err := b.subview(origin, m, d)
		if err != nil {
			return err
		}
		out.Subviews = append(out.Subviews, s)
	case "subviews":
		s, err := b.subviewCollection(origin, m, d)
		if err != nil {
			return err
		}
		out.SubviewCollections = append(out.SubviewCollections, s)
	}
	return nil
}

// checkShape rejects unknown kinds, misplaced directives and arguments the
// kind does not take.
func checkShape(d *model.RawDirective, m *model.RawMember) error {
	rule, ok := kindRules[d.Kind]
	if !ok {
		return errors.WithHint(model.Configf("unknown directive %q", d.Kind), "valid directives: "+kindNames())
	}
	placed := false
	for _, k := range rule.members {
		if k == m.Kind {
			placed = true
		}
	}
	if !placed {
		return model.Configf("%s directive is not allowed on a %s", d.Kind, m.Kind)
	}
	for _, k := range sortedKeys(d.Named) {
		if !contains(rule.named, k) {
			return errors.WithHint(model.Configf("%s does not take %s=", d.Kind, k),
				"arguments: "+strings.Join(rule.named, ", "))
		}
	}
	for _, k := range sortedKeys(d.Switches) {
		if !contains(rule.switches, k) {
			return model.Configf("%s does not take the %s switch", d.Kind, k)
		}
	}
	if len(d.Positional) > rule.maxPos {
		return model.Configf("%s takes at most %d positional argument(s), got %q", d.Kind, rule.maxPos, d.Positional)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Descriptor builders
// -----------------------------------------------------------------------------

func (b *Builder) methodCall(origin model.Origin, m *model.RawMember, d *model.RawDirective) (model.MethodCall, error) {
	mc := model.MethodCall{
		Origin:      origin,
		Method:      d.First(),
		OnViewModel: d.Switch("vm"),
		PassModel:   d.Switch("model"),
		Forward:     d.Switch("forward"),
		NullCheck:   d.Switch("nullcheck"),
	}
	if m.Kind == model.MemberField {
		mc.Widget = m.Name
		mc.Event = DefaultEvent
	}
	if ev, ok := d.Arg("event"); ok {
		if m.Kind != model.MemberField {
			return mc, model.Configf("event= needs a widget field")
		}
		if !token.IsIdentifier(ev) {
			return mc, model.Configf("invalid event accessor %q", ev)
		}
		mc.Event = ev
	}
	debounce, err := intArg(d, "debounce")
	if err != nil {
		return mc, err
	}
	mc.Debounce = debounce
	primitive, _ := d.Arg("primitive")
	if mc.Creation, err = autoCreation(d, primitive); err != nil {
		return mc, err
	}
	if mc.Method != "" && !token.IsIdentifier(mc.Method) {
		return mc, model.Configf("invalid method name %q", mc.Method)
	}

	switch {
	case mc.Method == "" && !mc.Creation.Creation.IsCommand():
		return mc, errors.WithHint(model.Configf("call needs a method or a command primitive"),
			"name a method, or add primitive=<Name> flags=PrivateCommand")
	case mc.Forward && !mc.Creation.Creation.IsCommand():
		return mc, model.Configf("forward requires a command primitive, got %s", mc.Creation.Creation)
	case mc.Forward && mc.Method == "":
		return mc, model.Configf("forward requires a method name")
	case m.Kind == model.MemberType && !mc.Forward && mc.Creation.IsNone():
		return mc, model.Configf("type-level call declares nothing to generate")
	}
	if err := b.checkPayload(mc); err != nil {
		return mc, err
	}
	if mc.Forward {
		// the forwarding method lives on the viewmodel
		mc.OnViewModel = true
	}
	return mc, nil
}

// checkPayload matches what a widget call hands its command against the
// command payload. The view can pass nothing or its viewmodel.
func (b *Builder) checkPayload(mc model.MethodCall) error {
	if mc.Widget == "" || (mc.Method != "" && !mc.Forward) || !mc.Creation.Creation.IsCommand() {
		return nil
	}
	ref := b.viewModelRef()
	typed := mc.Creation.HasArgument()
	switch {
	case typed && !mc.PassModel:
		return errors.WithHint(
			model.Configf("command %s takes a %s the widget cannot supply", mc.Creation.Name, mc.Creation.ArgumentType),
			"drop type=, or add model with type=*"+ref.Name)
	case mc.PassModel && !typed:
		return errors.WithHint(model.Configf("model passes %s but command %s takes no argument", ref.Name, mc.Creation.Name),
			"add type=*"+ref.Name)
	case typed && !isModelPointer(mc.Creation.ArgumentType, ref):
		return model.Configf("model passes *%s but command %s takes %s", ref.Name, mc.Creation.Name, mc.Creation.ArgumentType)
	}
	return nil
}

func (b *Builder) viewModelRef() model.TypeRef {
	if b.view.IsView {
		return b.view.ViewModel
	}
	return model.TypeRef{PkgPath: b.view.PkgPath, Name: b.view.Name}
}

// isModelPointer accepts *Name, or *pkg.Name when qualified.
func isModelPointer(argType string, ref model.TypeRef) bool {
	t, ok := strings.CutPrefix(strings.TrimSpace(argType), "*")
	if !ok {
		return false
	}
	if i := strings.LastIndexByte(t, '.'); i >= 0 {
		t = t[i+1:]
	}
	return t == ref.Name
}

func (b *Builder) localization(origin model.Origin, m *model.RawMember, d *model.RawDirective) (model.Localization, error) {
	l := model.Localization{
		Origin:      origin,
		Field:       m.Name,
		Placeholder: d.Switch("placeholder"),
		NullCheck:   d.Switch("nullcheck"),
		Key:         d.First(),
	}
	l.KeyProvider, _ = d.Arg("provider")
	switch {
	case l.Key == "" && l.KeyProvider == "":
		return l, errors.WithHint(model.Configf("localize needs a key"),
			"give a literal key or provider=<Field> naming a view field holding one")
	case l.Key != "" && l.KeyProvider != "":
		return l, model.Configf("localize takes a literal key or a provider, not both")
	case l.KeyProvider != "" && !token.IsIdentifier(l.KeyProvider):
		return l, model.Configf("invalid key provider %q", l.KeyProvider)
	}
	return l, nil
}

func (b *Builder) observable(origin model.Origin, m *model.RawMember, d *model.RawDirective) (model.ObservableField, error) {
	o := model.ObservableField{Origin: origin}
	name := d.First()
	if name == "" {
		return o, model.Configf("observe needs a primitive name")
	}
	var err error
	if o.Creation, err = autoCreation(d, name); err != nil {
		return o, err
	}
	if m.Kind == model.MemberType {
		for _, k := range []string{"as", "delay"} {
			if _, ok := d.Arg(k); ok {
				return o, model.Configf("%s= needs a widget field", k)
			}
		}
		if len(d.Switches) > 0 {
			return o, model.Configf("type-level observe only declares a primitive")
		}
		if o.Creation.Creation == model.CreationExisting {
			return o, model.Configf("type-level observe of %q declares nothing to generate", name)
		}
		return o, nil
	}

	o.Field = m.Name
	as, ok := d.Arg("as")
	if !ok {
		return o, errors.WithHint(model.Configf("observe needs a binding type"), "add as=Text, as=Alpha, ...")
	}
	if o.Type, err = model.ParseBindingType(as); err != nil {
		return o, err
	}
	o.Inverted = d.Switch("invert")
	if o.Inverted && !binding.Invertible(o.Type) {
		return o, model.Unsupportedf("binding type %s cannot be inverted", o.Type)
	}
	o.Collection = m.IsSlice || d.Switch("each")
	o.NullCheck = d.Switch("nullcheck")
	if o.Delay.Value, err = intArg(d, "delay"); err != nil {
		return o, err
	}
	o.Delay.Frames = d.Switch("frames")
	return o, nil
}

func (b *Builder) subscription(origin model.Origin, m *model.RawMember, d *model.RawDirective) (model.Subscription, error) {
	s := model.Subscription{Origin: origin, Method: m.Name}
	name := d.First()
	if name == "" {
		return s, model.Configf("subscribe needs a primitive name")
	}
	var err error
	if s.Creation, err = autoCreation(d, name); err != nil {
		return s, err
	}
	if f, ok := d.Arg("filter"); ok {
		if err = validateFilter(f); err != nil {
			return s, err
		}
		s.Filter = strings.TrimSpace(f)
	}
	return s, nil
}

func (b *Builder) subview(origin model.Origin, m *model.RawMember, d *model.RawDirective) (model.Subview, error) {
	s := model.Subview{
		Origin:      origin,
		Field:       m.Name,
		ReuseParent: d.Switch("reuse"),
		NullCheck:   d.Switch("nullcheck"),
	}
	mf, ok := d.Arg("model")
	switch {
	case ok && s.ReuseParent:
		return s, model.Configf("subview takes model= or reuse, not both")
	case ok && !token.IsIdentifier(mf):
		return s, model.Configf("invalid viewmodel field %q", mf)
	case ok:
		s.ModelField = mf
	case !s.ReuseParent:
		s.ModelField = m.Name
	}
	return s, nil
}

func (b *Builder) subviewCollection(origin model.Origin, m *model.RawMember, d *model.RawDirective) (model.SubviewCollection, error) {
	s := model.SubviewCollection{
		Origin:     origin,
		Field:      m.Name,
		ModelField: m.Name,
		NullCheck:  d.Switch("nullcheck"),
	}
	if mf, ok := d.Arg("model"); ok {
		if !token.IsIdentifier(mf) {
			return s, model.Configf("invalid viewmodel field %q", mf)
		}
		s.ModelField = mf
	}
	if match, ok := d.Arg("match"); ok {
		strategy, err := model.ParseMatchStrategy(match)
		if err != nil {
			return s, err
		}
		s.Strategy = strategy
	}
	key, _ := d.Arg("key")
	s.ViewKey, s.ModelKey = key, key
	if vk, ok := d.Arg("viewkey"); ok {
		s.ViewKey = vk
	}
	if mk, ok := d.Arg("modelkey"); ok {
		s.ModelKey = mk
	}
	s.Matcher, _ = d.Arg("method")

	switch s.Strategy {
	case model.MatchFieldMatch:
		if s.ViewKey == "" || s.ModelKey == "" {
			return s, errors.WithHint(model.Configf("FieldMatch needs the fields to compare"),
				"add key=<Field>, or viewkey=<Field> modelkey=<Field>")
		}
		if !token.IsIdentifier(s.ViewKey) || !token.IsIdentifier(s.ModelKey) {
			return s, model.Configf("invalid match fields %q/%q", s.ViewKey, s.ModelKey)
		}
	case model.MatchWithMethod:
		if s.Matcher == "" {
			return s, errors.WithHint(model.Configf("WithMethod needs a predicate"),
				"add method=<ViewMethod> taking a view and a viewmodel element")
		}
		if !token.IsIdentifier(s.Matcher) {
			return s, model.Configf("invalid match method %q", s.Matcher)
		}
	}
	if s.Strategy != model.MatchFieldMatch && (s.ViewKey != "" || s.ModelKey != "") {
		return s, model.Configf("match keys only apply to FieldMatch, strategy is %s", s.Strategy)
	}
	if s.Strategy != model.MatchWithMethod && s.Matcher != "" {
		return s, model.Configf("method= only applies to WithMethod, strategy is %s", s.Strategy)
	}
	return s, nil
}

// -----------------------------------------------------------------------------
// Argument helpers
// -----------------------------------------------------------------------------

func autoCreation(d *model.RawDirective, name string) (model.AutoCreation, error) {
	if name != "" && !token.IsIdentifier(name) {
		return model.AutoCreation{}, model.Configf("invalid primitive name %q", name)
	}
	if name != "" && !token.IsExported(name) {
		return model.AutoCreation{}, errors.WithHint(model.Configf("primitive name %q is not exported", name),
			"primitives are named by their public accessor, e.g. "+binding.Capitalize(name))
	}
	raw, _ := d.Arg("flags")
	flags, err := model.ParseFlags(raw)
	if err != nil {
		return model.AutoCreation{}, err
	}
	argType, hasType := d.Arg("type")
	if hasType && argType != model.UnitType {
		if err = binding.ValidateType(argType); err != nil {
			return model.AutoCreation{}, err
		}
	}
	spec, err := model.NewAutoCreation(name, flags, argType)
	if err != nil {
		return model.AutoCreation{}, err
	}
	if hasType && spec.IsNone() {
		return model.AutoCreation{}, model.Configf("type= needs a primitive")
	}
	return spec, nil
}

func intArg(d *model.RawDirective, key string) (int, error) {
	raw, ok := d.Arg(key)
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.Configf("%s must be an integer, got %q", key, raw)
	}
	if n < 0 {
		return 0, model.Configf("%s must not be negative, got %d", key, n)
	}
	return n, nil
}

// validateFilter accepts a predicate method name or a boolean expression
// over value.
func validateFilter(f string) error {
	f = strings.TrimSpace(f)
	if f == "" {
		return model.Configf("empty filter")
	}
	if token.IsIdentifier(f) {
		return nil
	}
	if _, err := parser.ParseExpr(f); err != nil {
		return errors.WithHint(model.Configf("invalid filter %q: %v", f, err),
			"use a view method name or an expression over value, e.g. filter='value > 0'")
	}
	return nil
}
