package model

import (
	"go/token"
)

type MemberKind int

const (
	MemberField MemberKind = iota
	MemberMethod
	MemberType // directive attached to the type declaration itself
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberMethod:
		return "method"
	case MemberType:
		return "type"
	}
	return "unknown"
}

// RawDirective is one binding directive exactly as the scanner read it.
type RawDirective struct {
	Kind       string            // "observe", "call", ...
	Positional []string          // bare words in order
	Named      map[string]string // key=value arguments
	Switches   map[string]bool   // bare flags such as "invert"
	Pos        token.Position
}

// Arg returns the named argument and whether it was present.
func (d *RawDirective) Arg(key string) (string, bool) {
	if d == nil || d.Named == nil {
		return "", false
	}
	v, ok := d.Named[key]
	return v, ok
}

// Switch reports whether a bare flag was set. key=true/false is accepted too.
func (d *RawDirective) Switch(key string) bool {
	if d == nil {
		return false
	}
	if d.Switches[key] {
		return true
	}
	v, ok := d.Named[key]
	return ok && (v == "true" || v == "1")
}

// First returns the first positional argument or "".
func (d *RawDirective) First() string {
	if d == nil || len(d.Positional) == 0 {
		return ""
	}
	return d.Positional[0]
}

type RawMember struct {
	Name       string     // Go identifier
	Kind       MemberKind // field or method
	IsSlice    bool       // field type is a slice or array
	Directives []*RawDirective
	Pos        token.Position
}

// TypeRef names a Go type by import path and identifier.
type TypeRef struct {
	PkgPath string // "" when local to the view's package
	Name    string
}

func (t TypeRef) IsZero() bool { return t.Name == "" }

func (t TypeRef) String() string {
	if t.PkgPath == "" {
		return t.Name
	}
	return t.PkgPath + "." + t.Name
}

// RawView is everything the scanner learned about one annotated type.
type RawView struct {
	Name      string  // type name
	PkgPath   string  // e.g. "github.com/you/game/ui"
	PkgName   string  // package clause name
	Dir       string  // on-disk directory of the package
	IsView    bool    // view family vs plain model
	ViewModel TypeRef // only for views
	Imports   []string
	Members   []*RawMember
	Pos       token.Position
}

type RawViews []*RawView
