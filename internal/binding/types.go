package binding

import (
	"go/ast"
	"go/parser"
	"go/types"
	"path"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/viewbindgen/internal/model"
)

var builtinIdents = map[string]struct{}{
	"string": {}, "bool": {}, "byte": {}, "rune": {}, "int": {}, "int8": {}, "int16": {},
	"int32": {}, "int64": {}, "uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {},
	"uintptr": {}, "float32": {}, "float64": {}, "complex64": {}, "complex128": {}, "error": {},
	"any": {}, "comparable": {},
}

// ValidateType reports whether expr is usable as a payload type.
func ValidateType(expr string) error {
	_, err := parseType(expr)
	return err
}

func parseType(expr string) (ast.Expr, error) {
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, model.Configf("invalid argument type %q: %v", expr, err)
	}
	if !isTypeShaped(e) {
		return nil, model.Configf("invalid argument type %q: not a type expression", expr)
	}
	return e, nil
}

func isTypeShaped(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		_, ok := t.X.(*ast.Ident)
		return ok
	case *ast.StarExpr:
		return isTypeShaped(t.X)
	case *ast.ArrayType:
		return isTypeShaped(t.Elt)
	case *ast.MapType:
		return isTypeShaped(t.Key) && isTypeShaped(t.Value)
	case *ast.ChanType:
		return isTypeShaped(t.Value)
	case *ast.IndexExpr:
		return isTypeShaped(t.X) && isTypeShaped(t.Index)
	case *ast.IndexListExpr:
		for _, i := range t.Indices {
			if !isTypeShaped(i) {
				return false
			}
		}
		return isTypeShaped(t.X)
	case *ast.FuncType, *ast.StructType, *ast.InterfaceType:
		return true
	case *ast.ParenExpr:
		return isTypeShaped(t.X)
	}
	return false
}

// TypeResolver renders payload type expressions for one generated file.
// Bare non-builtin identifiers belong to Home, the package declaring the
// viewmodel; selectors resolve through Imports (alias → path).
type TypeResolver struct {
	Home    string
	Imports map[string]string
}

// NewTypeResolver keys each import path by its last element.
func NewTypeResolver(home string, imports []string) *TypeResolver {
	r := &TypeResolver{Home: home, Imports: make(map[string]string, len(imports))}
	for _, imp := range imports {
		r.Imports[path.Base(imp)] = imp
	}
	return r
}

// Type renders expr. Unparseable input is emitted verbatim; it was rejected
// with a diagnostic before rendering.
func (r *TypeResolver) Type(expr string) *jen.Statement {
	if r == nil {
		return jen.Id(expr)
	}
	e, err := parseType(expr)
	if err != nil {
		return jen.Id(expr)
	}
	return r.render(e)
}

func (r *TypeResolver) render(e ast.Expr) *jen.Statement {
	switch t := e.(type) {
	case *ast.Ident:
		if _, ok := builtinIdents[t.Name]; ok || r.Home == "" {
			return jen.Id(t.Name)
		}
		return jen.Qual(r.Home, t.Name)
	case *ast.SelectorExpr:
		pkg := t.X.(*ast.Ident).Name
		if p, ok := r.Imports[pkg]; ok {
			return jen.Qual(p, t.Sel.Name)
		}
		// stdlib packages need no declaration
		return jen.Qual(pkg, t.Sel.Name)
	case *ast.StarExpr:
		return jen.Op("*").Add(r.render(t.X))
	case *ast.ArrayType:
		if t.Len == nil {
			return jen.Index().Add(r.render(t.Elt))
		}
		return jen.Index(jen.Id(exprString(t.Len))).Add(r.render(t.Elt))
	case *ast.MapType:
		return jen.Map(r.render(t.Key)).Add(r.render(t.Value))
	case *ast.ChanType:
		switch t.Dir {
		case ast.SEND:
			return jen.Chan().Op("<-").Add(r.render(t.Value))
		case ast.RECV:
			return jen.Op("<-").Chan().Add(r.render(t.Value))
		}
		return jen.Chan().Add(r.render(t.Value))
	case *ast.IndexExpr:
		return r.render(t.X).Types(r.render(t.Index))
	case *ast.IndexListExpr:
		args := make([]jen.Code, len(t.Indices))
		for i, x := range t.Indices {
			args[i] = r.render(x)
		}
		return r.render(t.X).Types(args...)
	case *ast.ParenExpr:
		return r.render(t.X)
	}
	return jen.Id(exprString(e))
}

func exprString(e ast.Expr) string { return types.ExprString(e) }
