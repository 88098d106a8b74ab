package parser

import (
	"reflect"
	"strings"
)

// viewExcluded reports whether an annotated type is listed in ExcludeViews.
func viewExcluded(name string, opts *Options) bool {
	for _, ex := range opts.ExcludeViews {
		if strings.EqualFold(ex, name) {
			return true
		}
	}
	return false
}

// fieldDirectives returns the directive strings carried by a struct tag
// literal under key. A "-" value omits the field entirely.
func fieldDirectives(tagLit, key string) (parts []string, omitted bool) {
	if tagLit == "" {
		return nil, false
	}
	tag := reflect.StructTag(strings.Trim(tagLit, "`"))
	v, ok := tag.Lookup(key)
	if !ok {
		return nil, false
	}
	if strings.TrimSpace(v) == "-" {
		return nil, true
	}
	return splitTagParts(v), false
}

// splitTagParts splits a tag value on ';' outside single quotes.
func splitTagParts(tagVal string) []string {
	var (
		out    []string
		quoted bool
		start  int
	)
	for i, r := range tagVal {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == ';' && !quoted:
			if part := strings.TrimSpace(tagVal[start:i]); part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(tagVal[start:]); part != "" {
		out = append(out, part)
	}
	return out
}
