package parser

import (
	"go/ast"
	"go/token"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/viewbindgen/internal/model"
)

// switches are the bare words read as flags rather than positional
// arguments.
var switches = map[string]struct{}{
	"invert": {}, "nullcheck": {}, "vm": {}, "model": {}, "forward": {},
	"placeholder": {}, "reuse": {}, "frames": {}, "each": {},
}

// parseDirective tokenizes one directive such as
//
//	observe Score as=Text type=int flags=PublicObservable|PrivateReactiveProperty invert
//
// Values containing spaces are quoted with ' or ".
func parseDirective(text string, pos token.Position) (*model.RawDirective, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, model.Locate(err, "", "", "", pos)
	}
	if len(toks) == 0 {
		return nil, model.Locate(model.Configf("empty directive"), "", "", "", pos)
	}
	d := &model.RawDirective{
		Kind:     strings.ToLower(toks[0]),
		Named:    map[string]string{},
		Switches: map[string]bool{},
		Pos:      pos,
	}
	for _, tok := range toks[1:] {
		if k, v, ok := splitNamed(tok); ok {
			if _, dup := d.Named[k]; dup {
				return nil, model.Locate(model.Configf("argument %q given twice", k), "", "", d.Kind, pos)
			}
			d.Named[k] = v
			continue
		}
		if _, ok := switches[tok]; ok {
			d.Switches[tok] = true
			continue
		}
		d.Positional = append(d.Positional, tok)
	}
	return d, nil
}

func splitNamed(tok string) (key, val string, ok bool) {
	i := strings.IndexByte(tok, '=')
	if i <= 0 {
		return "", "", false
	}
	key = tok[:i]
	for _, r := range key {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", "", false
		}
	}
	return strings.ToLower(key), tok[i+1:], true
}

func tokenize(s string) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		open  bool
	)
	flush := func() {
		if cur.Len() > 0 || open {
			out = append(out, cur.String())
		}
		cur.Reset()
		open = false
	}
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			open = true
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, errors.WithHint(model.Configf("unterminated quote in %q", s),
			"quote values containing spaces with ' inside struct tags")
	}
	flush()
	return out, nil
}

// commentDirectives extracts every "//<prefix><directive>" line from cg.
func commentDirectives(fset *token.FileSet, cg *ast.CommentGroup, prefix string) ([]*model.RawDirective, error) {
	if cg == nil {
		return nil, nil
	}
	var (
		out  []*model.RawDirective
		errs []error
	)
	for _, c := range cg.List {
		txt, ok := strings.CutPrefix(c.Text, "//")
		if !ok {
			continue
		}
		txt, ok = strings.CutPrefix(strings.TrimLeft(txt, " \t"), prefix)
		if !ok {
			continue
		}
		d, err := parseDirective(txt, fset.Position(c.Slash))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, d)
	}
	return out, errors.Join(errs...)
}
