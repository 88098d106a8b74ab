package binding

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"

	"github.com/cmmoran/viewbindgen/internal/model"
)

const commandSuffix = "Cmd"

// Naming derives synthesized identifiers. It is pure: equal inputs give
// equal names on every run.
type Naming struct {
	PrivatePrefix string
}

// Decapitalize lowers the first rune only.
func Decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// Capitalize uppers the first rune only.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func escapeKeyword(s string) string {
	if token.IsKeyword(s) {
		return s + "_"
	}
	return s
}

// Private names the backing primitive of spec.
func (n Naming) Private(spec model.AutoCreation) string {
	name := Decapitalize(spec.Name)
	if spec.Creation.IsCommand() && !strings.HasSuffix(name, commandSuffix) {
		name += commandSuffix
	}
	return escapeKeyword(n.PrivatePrefix + name)
}

// Public names the exposed accessor or field of spec.
func (n Naming) Public(spec model.AutoCreation) string {
	return spec.Name
}

// Field names a generated bookkeeping field such as the disposables bag.
func (n Naming) Field(name string) string {
	return escapeKeyword(n.PrivatePrefix + name)
}

// reserved are identifiers generated code already binds in scope.
var reserved = map[string]bool{
	ViewReceiver:      true,
	ViewModelParam:    true,
	ValueParam:        true,
	GeneratedReceiver: true,
	IndexVar:          true,
	ModelVar:          true,
	ArgParam:          true,
}

// Element names the loop variable ranging over a collection field, e.g.
// Labels -> label. Uncountable or reserved names get an "Item" suffix.
func Element(field string) string {
	base := Decapitalize(field)
	single := inflection.Singular(base)
	if single == base || single == "" || reserved[single] {
		single = base + "Item"
	}
	return escapeKeyword(single)
}
