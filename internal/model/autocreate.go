package model

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Flags is the raw auto-creation bitset as written in a directive.
type Flags uint8

const (
	PublicObservable Flags = 1 << iota
	PublicReactiveProperty
	PrivateReactiveProperty
	PrivateCommand
)

const allFlags = PublicObservable | PublicReactiveProperty | PrivateReactiveProperty | PrivateCommand

var flagNames = []struct {
	flag Flags
	name string
}{
	{PublicObservable, "PublicObservable"},
	{PublicReactiveProperty, "PublicReactiveProperty"},
	{PrivateReactiveProperty, "PrivateReactiveProperty"},
	{PrivateCommand, "PrivateCommand"},
}

func (f Flags) Has(o Flags) bool { return f&o == o }

func (f Flags) String() string {
	if f == 0 {
		return "None"
	}
	parts := make([]string, 0, 4)
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if rest := f &^ allFlags; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseFlags reads "A|B" (also "," separated). "None" and "" are the empty set.
func ParseFlags(s string) (Flags, error) {
	var out Flags
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "None") {
			continue
		}
		found := false
		for _, fn := range flagNames {
			if strings.EqualFold(fn.name, part) {
				out |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, errors.WithHint(Configf("unknown auto-creation flag %q", part),
				"valid flags: PublicObservable, PublicReactiveProperty, PrivateReactiveProperty, PrivateCommand")
		}
	}
	return out, nil
}

// Creation is the closed set of valid auto-creation shapes. Every valid
// flag combination maps to exactly one Creation.
type Creation int

const (
	// CreationNone involves no primitive at all.
	CreationNone Creation = iota
	// CreationExisting references a hand-written primitive by name.
	CreationExisting
	CreationPrivateCommand
	CreationPrivateProperty
	// CreationCommandStream exposes a private command as a read-only stream.
	CreationCommandStream
	// CreationPropertyStream exposes a private property as a read-only stream.
	CreationPropertyStream
	// CreationExternalStream holds a stream supplied by hand-written code.
	CreationExternalStream
	// CreationReadOnlyProperty exposes a private property read-only.
	CreationReadOnlyProperty
	// CreationExternalProperty holds a read-only property supplied by hand-written code.
	CreationExternalProperty
)

var creationByFlags = map[Flags]Creation{
	PrivateCommand:                                   CreationPrivateCommand,
	PrivateReactiveProperty:                          CreationPrivateProperty,
	PublicObservable | PrivateCommand:                CreationCommandStream,
	PublicObservable | PrivateReactiveProperty:       CreationPropertyStream,
	PublicObservable:                                 CreationExternalStream,
	PublicReactiveProperty | PrivateReactiveProperty: CreationReadOnlyProperty,
	PublicReactiveProperty:                           CreationExternalProperty,
}

var creationNames = [...]string{
	CreationNone:             "None",
	CreationExisting:         "Existing",
	CreationPrivateCommand:   "PrivateCommand",
	CreationPrivateProperty:  "PrivateProperty",
	CreationCommandStream:    "CommandStream",
	CreationPropertyStream:   "PropertyStream",
	CreationExternalStream:   "ExternalStream",
	CreationReadOnlyProperty: "ReadOnlyProperty",
	CreationExternalProperty: "ExternalProperty",
}

func (c Creation) String() string {
	if c < 0 || int(c) >= len(creationNames) {
		return "Creation(?)"
	}
	return creationNames[c]
}

// Flags returns the bitset this creation was declared with.
func (c Creation) Flags() Flags {
	for f, cc := range creationByFlags {
		if cc == c {
			return f
		}
	}
	return 0
}

func (c Creation) HasPrivateCreation() bool {
	return c.Flags()&(PrivateCommand|PrivateReactiveProperty) != 0
}

func (c Creation) HasPublicCreation() bool {
	return c.Flags()&(PublicObservable|PublicReactiveProperty) != 0
}

func (c Creation) IsCommand() bool {
	return c == CreationPrivateCommand || c == CreationCommandStream
}

// CreationFor looks up the creation for a flag set. The empty set splits on
// whether a primitive is named at all.
func CreationFor(flags Flags, name string) (Creation, error) {
	if flags == 0 {
		if name == "" {
			return CreationNone, nil
		}
		return CreationExisting, nil
	}
	c, ok := creationByFlags[flags]
	if !ok {
		return CreationNone, errors.WithHint(
			Configf("unsupported auto-creation flag combination %s", flags),
			"valid combinations: PrivateCommand, PrivateReactiveProperty, PublicObservable|PrivateCommand, "+
				"PublicObservable|PrivateReactiveProperty, PublicObservable, "+
				"PublicReactiveProperty|PrivateReactiveProperty, PublicReactiveProperty")
	}
	return c, nil
}

// UnitType is the argument sentinel meaning "no payload".
const UnitType = "Unit"

// AutoCreation describes the viewmodel-side primitive behind a binding.
// Values are immutable and compared structurally.
type AutoCreation struct {
	Name         string
	Creation     Creation
	ArgumentType string
}

// NewAutoCreation validates the flag combination and builds the spec.
func NewAutoCreation(name string, flags Flags, argType string) (AutoCreation, error) {
	c, err := CreationFor(flags, name)
	if err != nil {
		return AutoCreation{}, err
	}
	if c != CreationNone && name == "" {
		return AutoCreation{}, Configf("auto-creation %s requires a primitive name", c)
	}
	return AutoCreation{Name: name, Creation: c, ArgumentType: strings.TrimSpace(argType)}, nil
}

func (a AutoCreation) Flags() Flags { return a.Creation.Flags() }

// HasArgument reports a payload type other than the Unit sentinel.
func (a AutoCreation) HasArgument() bool {
	return a.ArgumentType != "" && a.ArgumentType != UnitType
}

func (a AutoCreation) HasPrivateCreation() bool { return a.Creation.HasPrivateCreation() }

func (a AutoCreation) HasPublicCreation() bool { return a.Creation.HasPublicCreation() }

func (a AutoCreation) IsNone() bool { return a.Creation == CreationNone }

// Equivalent is the dedup equality: same creation, same name, same effective
// argument. Absent, empty and Unit arguments are all "no argument".
func (a AutoCreation) Equivalent(b AutoCreation) bool {
	if a.Creation != b.Creation || a.Name != b.Name {
		return false
	}
	if a.HasArgument() != b.HasArgument() {
		return false
	}
	return !a.HasArgument() || a.ArgumentType == b.ArgumentType
}
