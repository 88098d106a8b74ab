package model

import (
	"go/token"
	"strings"

	"github.com/cockroachdb/errors"
)

// BindingType names the widget property an observed value is pushed into.
type BindingType int

const (
	BindText BindingType = iota
	BindImageFill
	BindGameObjectActivity
	BindActivity
	BindColor
	BindSprite
	BindEnabled
	BindInteractable
	BindAlpha
	BindEffectColor
)

var bindingTypeNames = [...]string{
	BindText:               "Text",
	BindImageFill:          "ImageFill",
	BindGameObjectActivity: "GameObjectActivity",
	BindActivity:           "Activity",
	BindColor:              "Color",
	BindSprite:             "Sprite",
	BindEnabled:            "Enabled",
	BindInteractable:       "Interactable",
	BindAlpha:              "Alpha",
	BindEffectColor:        "EffectColor",
}

func (b BindingType) String() string {
	if b < 0 || int(b) >= len(bindingTypeNames) {
		return "BindingType(?)"
	}
	return bindingTypeNames[b]
}

func ParseBindingType(s string) (BindingType, error) {
	for i, n := range bindingTypeNames {
		if strings.EqualFold(n, s) {
			return BindingType(i), nil
		}
	}
	return 0, errors.WithHint(Configf("unknown binding type %q", s),
		"valid binding types: "+strings.Join(bindingTypeNames[:], ", "))
}

// MatchStrategy pairs nested views with nested viewmodels.
type MatchStrategy int

const (
	MatchSameModel MatchStrategy = iota
	MatchIndex
	MatchFieldMatch
	MatchWithMethod
)

var matchNames = [...]string{
	MatchSameModel:  "SameModel",
	MatchIndex:      "Index",
	MatchFieldMatch: "FieldMatch",
	MatchWithMethod: "WithMethod",
}

func (m MatchStrategy) String() string {
	if m < 0 || int(m) >= len(matchNames) {
		return "MatchStrategy(?)"
	}
	return matchNames[m]
}

func ParseMatchStrategy(s string) (MatchStrategy, error) {
	for i, n := range matchNames {
		if strings.EqualFold(n, s) {
			return MatchStrategy(i), nil
		}
	}
	return 0, errors.WithHint(Configf("unknown matching strategy %q", s),
		"valid strategies: "+strings.Join(matchNames[:], ", "))
}

// Delay defers an observed value by frames or milliseconds.
type Delay struct {
	Value  int
	Frames bool
}

func (d Delay) IsZero() bool { return d.Value == 0 }

// Origin records where a descriptor was declared.
type Origin struct {
	Member string
	Pos    token.Position
}

// MethodCall invokes a method when a widget fires.
type MethodCall struct {
	Origin
	Widget      string // owning widget field
	Event       string // widget stream accessor
	Debounce    int    // milliseconds, measured from the last invocation
	NullCheck   bool
	PassModel   bool
	Method      string
	OnViewModel bool
	Forward     bool // generate a viewmodel method that forwards to the command
	Creation    AutoCreation
}

// Localization assigns localized text to a text widget.
type Localization struct {
	Origin
	Field       string
	Placeholder bool
	NullCheck   bool
	Key         string
	KeyProvider string // view field holding the key; "" means Key is literal
}

func (l Localization) IsDynamic() bool { return l.KeyProvider != "" }

// ObservableField pushes an observed value into a widget property.
type ObservableField struct {
	Origin
	Field      string
	Type       BindingType
	Inverted   bool
	Collection bool
	NullCheck  bool
	Delay      Delay
	Creation   AutoCreation
}

// Subscription calls a view method whenever a stream emits.
type Subscription struct {
	Origin
	Method   string
	Filter   string
	Creation AutoCreation
}

// Subview initializes one nested view.
type Subview struct {
	Origin
	Field       string
	ModelField  string
	ReuseParent bool
	NullCheck   bool
}

// SubviewCollection pairs a slice of nested views to a slice of viewmodels.
type SubviewCollection struct {
	Origin
	Field      string
	ModelField string
	Strategy   MatchStrategy
	ViewKey    string // FieldMatch: field on each view element
	ModelKey   string // FieldMatch: field on each viewmodel element
	Matcher    string // WithMethod: predicate on the view
	NullCheck  bool
}

// Directives is every descriptor declared on one type, in declaration order.
type Directives struct {
	MethodCalls        []MethodCall
	Localizations      []Localization
	Observables        []ObservableField
	Subscriptions      []Subscription
	Subviews           []Subview
	SubviewCollections []SubviewCollection
}

func (d *Directives) Len() int {
	return len(d.MethodCalls) + len(d.Localizations) + len(d.Observables) +
		len(d.Subscriptions) + len(d.Subviews) + len(d.SubviewCollections)
}
