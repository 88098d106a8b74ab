package binding

import (
	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/viewbindgen/internal/model"
)

// Identifiers shared by every generated file.
const (
	ViewReceiver      = "v"
	ViewModelParam    = "vm"
	ValueParam        = "value"
	GeneratedReceiver = "g"
	IndexVar          = "i"
	ModelVar          = "model"
	ArgParam          = "arg"

	DisposablesField = "disposables"
)

// DefaultRuntime is the import path of the reactive runtime generated code
// is written against.
const DefaultRuntime = "github.com/cmmoran/viewbind/rx"

// Policy turns auto-creation specs into declarations for a generated type.
type Policy struct {
	Runtime string
	Naming  Naming
	// Owner is the generated struct the declarations belong to.
	Owner string
	// Types renders payload types; nil emits them verbatim.
	Types *TypeResolver
}

func (p Policy) runtime() string {
	if p.Runtime == "" {
		return DefaultRuntime
	}
	return p.Runtime
}

// Resolution is the outcome of Resolve. Any fragment may be nil.
type Resolution struct {
	// PrivateField declares the backing primitive inside the generated struct.
	PrivateField *jen.Statement
	// PrivateInit constructs the backing primitive.
	PrivateInit *jen.Statement
	// PublicField is a directly-held exported field.
	PublicField *jen.Statement
	// PublicMethod is a read-only accessor delegating to the backing primitive.
	PublicMethod *jen.Statement
	// DisposeStmt registers the backing primitive for disposal.
	DisposeStmt *jen.Statement

	spec    model.AutoCreation
	private string
	public  string
	rt      string
}

func (r Resolution) Spec() model.AutoCreation { return r.spec }

// PrivateName is the backing identifier, "" when nothing is synthesized.
func (r Resolution) PrivateName() string { return r.private }

// Invoke executes the backing command reached through recv. It is nil unless
// the spec creates a command. arg is ignored for payload-free commands.
func (r Resolution) Invoke(recv, arg jen.Code) *jen.Statement {
	if !r.spec.Creation.IsCommand() {
		return nil
	}
	if !r.spec.HasArgument() || arg == nil {
		arg = jen.Qual(r.rt, "Unit").Values()
	}
	return jen.Add(recv).Dot(r.private).Dot("Execute").Call(arg)
}

// InvokeExpr is Invoke on the generated receiver with the forwarded argument.
func (r Resolution) InvokeExpr() *jen.Statement {
	return r.Invoke(jen.Id(GeneratedReceiver), jen.Id(ArgParam))
}

// Stream is the expression a view uses to observe the primitive through the
// viewmodel value recv. It is nil for CreationNone.
func (r Resolution) Stream(recv jen.Code) *jen.Statement {
	switch r.spec.Creation {
	case model.CreationNone:
		return nil
	case model.CreationPrivateCommand, model.CreationPrivateProperty:
		return jen.Add(recv).Dot(r.private)
	case model.CreationExternalStream, model.CreationExternalProperty:
		return jen.Add(recv).Dot(r.public)
	default:
		return jen.Add(recv).Dot(r.public).Call()
	}
}

// ValueType is the payload type, or the runtime Unit when there is none.
func (p Policy) ValueType(spec model.AutoCreation) *jen.Statement {
	if spec.HasArgument() {
		return p.Types.Type(spec.ArgumentType)
	}
	return jen.Qual(p.runtime(), "Unit")
}

func (p Policy) generic(name string, spec model.AutoCreation) *jen.Statement {
	return jen.Qual(p.runtime(), name).Types(p.ValueType(spec))
}

func (p Policy) self() *jen.Statement { return jen.Id(GeneratedReceiver) }

func (p Policy) accessor(name string, result *jen.Statement, body jen.Code) *jen.Statement {
	return jen.Func().
		Params(jen.Id(GeneratedReceiver).Op("*").Id(p.Owner)).
		Id(name).Params().Add(result).
		Block(jen.Return(body))
}

// Resolve is total over the closed Creation set.
func (p Policy) Resolve(spec model.AutoCreation) (Resolution, error) {
	r := Resolution{spec: spec, rt: p.runtime(), public: p.Naming.Public(spec)}
	disposables := p.self().Dot(p.Naming.Field(DisposablesField))

	backing := func(kind, ctor string) {
		r.private = p.Naming.Private(spec)
		r.PrivateField = jen.Id(r.private).Op("*").Add(p.generic(kind, spec))
		r.PrivateInit = p.self().Dot(r.private).Op("=").Add(p.generic(ctor, spec)).Call()
		r.DisposeStmt = disposables.Clone().Dot("Add").Call(p.self().Dot(r.private))
	}

	switch spec.Creation {
	case model.CreationNone, model.CreationExisting:
	case model.CreationPrivateCommand:
		backing("Command", "NewCommand")
	case model.CreationPrivateProperty:
		backing("Property", "NewProperty")
	case model.CreationCommandStream:
		backing("Command", "NewCommand")
		r.PublicMethod = p.accessor(r.public, p.generic("Observable", spec), p.self().Dot(r.private))
	case model.CreationPropertyStream:
		backing("Property", "NewProperty")
		r.PublicMethod = p.accessor(r.public, p.generic("Observable", spec), p.self().Dot(r.private))
	case model.CreationExternalStream:
		r.PublicField = jen.Id(r.public).Add(p.generic("Observable", spec))
	case model.CreationReadOnlyProperty:
		backing("Property", "NewProperty")
		r.PublicMethod = p.accessor(r.public, p.generic("ReadOnlyProperty", spec), p.self().Dot(r.private))
	case model.CreationExternalProperty:
		r.PublicField = jen.Id(r.public).Add(p.generic("ReadOnlyProperty", spec))
	default:
		return Resolution{}, model.Configf("unsupported auto-creation %s for %q", spec.Creation, spec.Name)
	}
	return r, nil
}

// ResolveFlags validates a raw flag set and resolves it.
func (p Policy) ResolveFlags(name string, flags model.Flags, argType string) (Resolution, error) {
	spec, err := model.NewAutoCreation(name, flags, argType)
	if err != nil {
		return Resolution{}, err
	}
	return p.Resolve(spec)
}
