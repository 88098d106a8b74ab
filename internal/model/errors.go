package model

import (
	"fmt"
	"go/token"

	"github.com/cockroachdb/errors"
)

var (
	// ErrConfiguration marks malformed or unsupported directive combinations.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnsupportedOperation marks requests the generator has no form for,
	// such as inverting a color binding. It is also a configuration error.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Configf returns an error marked as ErrConfiguration.
func Configf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}

// Unsupportedf returns an error marked as both ErrUnsupportedOperation and
// ErrConfiguration.
func Unsupportedf(format string, args ...any) error {
	err := errors.Mark(errors.Newf(format, args...), ErrUnsupportedOperation)
	return errors.Mark(err, ErrConfiguration)
}

// ConfigurationError locates a failed directive.
type ConfigurationError struct {
	View      string
	Member    string
	Directive string
	Pos       token.Position
	Err       error
}

func (e *ConfigurationError) Error() string {
	loc := e.View
	if e.Member != "" {
		loc += "." + e.Member
	}
	if e.Directive != "" {
		loc += " [" + e.Directive + "]"
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %v", e.Pos, loc, e.Err)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Locate attaches identity to err. A nil err stays nil.
func Locate(err error, view, member, directive string, pos token.Position) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*ConfigurationError); ok {
		out := *ce
		if out.View == "" {
			out.View = view
		}
		if out.Member == "" {
			out.Member = member
		}
		if out.Directive == "" {
			out.Directive = directive
		}
		if !out.Pos.IsValid() {
			out.Pos = pos
		}
		return &out
	}
	if !errors.Is(err, ErrConfiguration) {
		err = errors.Mark(err, ErrConfiguration)
	}
	return &ConfigurationError{View: view, Member: member, Directive: directive, Pos: pos, Err: err}
}

// Diagnostics collects located errors in the order they were found.
type Diagnostics []*ConfigurationError

func (d *Diagnostics) Add(err error) {
	if err == nil {
		return
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		*d = append(*d, ce)
		return
	}
	*d = append(*d, &ConfigurationError{Err: err})
}

func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	errs := make([]error, len(d))
	for i, e := range d {
		errs[i] = e
	}
	return errors.Join(errs...)
}
