package binding

import (
	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/viewbindgen/internal/model"
)

type inversion int

const (
	invertNone inversion = iota
	invertNegate
	invertComplement
)

type setter struct {
	method    string
	inversion inversion
	text      bool
}

// setters is the fixed binding-type table. Each entry names the widget
// setter and how an inverted value is formed.
var setters = map[model.BindingType]setter{
	model.BindText:               {method: "SetText", inversion: invertNegate, text: true},
	model.BindImageFill:          {method: "SetFillAmount", inversion: invertComplement},
	model.BindGameObjectActivity: {method: "SetActive", inversion: invertNegate},
	model.BindActivity:           {method: "SetComponentActive", inversion: invertNegate},
	model.BindColor:              {method: "SetColor", inversion: invertNone},
	model.BindSprite:             {method: "SetSprite", inversion: invertNone},
	model.BindEnabled:            {method: "SetEnabled", inversion: invertNegate},
	model.BindInteractable:       {method: "SetInteractable", inversion: invertNegate},
	model.BindAlpha:              {method: "SetAlpha", inversion: invertComplement},
	model.BindEffectColor:        {method: "SetEffectColor", inversion: invertNone},
}

// Invertible reports whether t has an inverted form.
func Invertible(t model.BindingType) bool {
	s, ok := setters[t]
	return ok && s.inversion != invertNone
}

// Assignment describes one push of an observed value into a widget.
type Assignment struct {
	Type       model.BindingType
	Inverted   bool
	Collection bool
	NullCheck  bool
	Target     jen.Code
	Value      jen.Code
	// Element is the loop variable for collections; Element(field) when empty.
	Element string
}

// Assign builds the statement for a. Collections range over Target and
// apply the single-element statement to each element.
func Assign(a Assignment) (*jen.Statement, error) {
	s, ok := setters[a.Type]
	if !ok {
		return nil, model.Configf("unknown binding type %d", int(a.Type))
	}
	if a.Inverted && s.inversion == invertNone {
		return nil, model.Unsupportedf("binding type %s cannot be inverted", a.Type)
	}
	if !a.Collection {
		return single(s, a.Inverted, a.NullCheck, a.Target, a.Value), nil
	}
	elem := a.Element
	if elem == "" {
		elem = "elem"
	}
	body := single(s, a.Inverted, a.NullCheck, jen.Id(elem), a.Value)
	return jen.For(
		jen.List(jen.Id("_"), jen.Id(elem)).Op(":=").Range().Add(a.Target),
	).Block(body), nil
}

func single(s setter, inverted, nullCheck bool, target, value jen.Code) *jen.Statement {
	v := jen.Add(value)
	if inverted {
		switch s.inversion {
		case invertNegate:
			v = jen.Op("!").Add(value)
		case invertComplement:
			v = jen.Lit(1).Op("-").Add(value)
		}
	}
	if s.text {
		v = jen.Qual("fmt", "Sprint").Call(v)
	}
	stmt := jen.Add(target).Dot(s.method).Call(v)
	if nullCheck {
		return jen.If(jen.Add(target).Op("!=").Nil()).Block(stmt)
	}
	return stmt
}

// DelayStream defers stream by d frames or milliseconds. A zero delay
// returns stream unchanged.
func DelayStream(runtime string, stream jen.Code, d model.Delay) (*jen.Statement, error) {
	if d.Value < 0 {
		return nil, model.Configf("delay must not be negative, got %d", d.Value)
	}
	if runtime == "" {
		runtime = DefaultRuntime
	}
	switch {
	case d.IsZero():
		return jen.Add(stream), nil
	case d.Frames:
		return jen.Qual(runtime, "DelayFrames").Call(stream, jen.Lit(d.Value)), nil
	default:
		return jen.Qual(runtime, "Delay").Call(stream, jen.Lit(d.Value).Op("*").Qual("time", "Millisecond")), nil
	}
}

// ThrottleStream drops emissions within window milliseconds of the last
// one that passed.
func ThrottleStream(runtime string, stream jen.Code, window int) (*jen.Statement, error) {
	if window < 0 {
		return nil, model.Configf("debounce must not be negative, got %d", window)
	}
	if runtime == "" {
		runtime = DefaultRuntime
	}
	if window == 0 {
		return jen.Add(stream), nil
	}
	return jen.Qual(runtime, "ThrottleFirst").Call(stream, jen.Lit(window).Op("*").Qual("time", "Millisecond")), nil
}
