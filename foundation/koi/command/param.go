// File: param.go
// Title: Command Parameters
// Description: Tagged two-variant parameter type with safe and fail-fast
//              payload extraction.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

package command

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the variant held by a Parameter
type Kind uint8

const (
	KindBasic Kind = iota + 1
	KindComposite
)

// String returns the lower-case variant name
func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindComposite:
		return "composite"
	default:
		return "invalid"
	}
}

// Parameter is one command argument. The zero value is invalid and is
// reported as neither basic nor composite.
type Parameter struct {
	kind  Kind
	name  string
	value string
}

// Basic creates a Basic parameter holding a raw token
func Basic(value string) Parameter {
	return Parameter{kind: KindBasic, value: value}
}

// Composite creates a Composite parameter written name(value)
func Composite(name, value string) Parameter {
	return Parameter{kind: KindComposite, name: name, value: value}
}

// Kind returns the variant held by p
func (p Parameter) Kind() Kind { return p.kind }

func (p Parameter) IsBasic() bool     { return p.kind == KindBasic }
func (p Parameter) IsComposite() bool { return p.kind == KindComposite }

// AsBasic returns the raw token and true for a Basic parameter
func (p Parameter) AsBasic() (string, bool) {
	if p.kind != KindBasic {
		return "", false
	}
	return p.value, true
}

// AsComposite returns name, value and true for a Composite parameter
func (p Parameter) AsComposite() (name, value string, ok bool) {
	if p.kind != KindComposite {
		return "", "", false
	}
	return p.name, p.value, true
}

// Value returns the raw token of a Basic parameter. It panics with a
// *VariantError on a Composite.
func (p Parameter) Value() string {
	if p.kind != KindBasic {
		panic(&VariantError{Op: "Value", Want: KindBasic, Got: p.kind})
	}
	return p.value
}

// NameValue returns the name and inner value of a Composite parameter. It
// panics with a *VariantError on a Basic.
func (p Parameter) NameValue() (string, string) {
	if p.kind != KindComposite {
		panic(&VariantError{Op: "NameValue", Want: KindComposite, Got: p.kind})
	}
	return p.name, p.value
}

// Raw reproduces the parameter's source token
func (p Parameter) Raw() string {
	if p.kind == KindComposite {
		return p.name + "(" + p.value + ")"
	}
	return p.value
}

// String implements fmt.Stringer
func (p Parameter) String() string {
	return p.Raw()
}

// Typed interprets a Basic parameter as a typed value
func (p Parameter) Typed() (Value, error) {
	raw, ok := p.AsBasic()
	if !ok {
		return Value{}, &VariantError{Op: "Typed", Want: KindBasic, Got: p.kind}
	}
	return ParseValue(raw)
}

// Composite interprets the inner text of a Composite parameter as a
// single value, a list or a dictionary
func (p Parameter) Composite() (CompositeValue, error) {
	_, inner, ok := p.AsComposite()
	if !ok {
		return CompositeValue{}, &VariantError{Op: "Composite", Want: KindComposite, Got: p.kind}
	}
	return ParseComposite(inner)
}

type paramJSON struct {
	Kind  string `json:"kind"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// MarshalJSON implements json.Marshaler
func (p Parameter) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case KindBasic:
		return json.Marshal(paramJSON{Kind: "basic", Value: p.value})
	case KindComposite:
		return json.Marshal(paramJSON{Kind: "composite", Name: p.name, Value: p.value})
	default:
		return nil, fmt.Errorf("marshal parameter: invalid kind %d", p.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var raw paramJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "basic":
		*p = Basic(raw.Value)
	case "composite":
		if !isIdentifier(raw.Name) {
			return fmt.Errorf("unmarshal parameter: invalid composite name %q", raw.Name)
		}
		*p = Composite(raw.Name, raw.Value)
	default:
		return fmt.Errorf("unmarshal parameter: unknown kind %q", raw.Kind)
	}
	return nil
}

// isIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// IsIdentifier reports whether s can be used as a composite name
func IsIdentifier(s string) bool {
	return isIdentifier(s)
}
