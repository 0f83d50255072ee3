package scad

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParameterKind is the simplified enum for customizer-friendly value kinds.
type ParameterKind string

const (
	KindBoolean ParameterKind = "boolean"
	KindInteger ParameterKind = "integer"
	KindNumber  ParameterKind = "number"
	KindString  ParameterKind = "string"
	KindVector  ParameterKind = "vector"
)

// ConstraintKind enumerates the annotation shapes a descriptor can carry.
type ConstraintKind string

const (
	ConstraintNone  ConstraintKind = "none"
	ConstraintRange ConstraintKind = "range"
	ConstraintEnum  ConstraintKind = "enum"
)

// HiddenGroup is the reserved group name whose members never reach the
// rendered form but still participate in compilation.
const HiddenGroup = "Hidden"

// EnumOption is a single allowed value plus its display label. Label falls
// back to the raw value text when the annotation carries none.
type EnumOption struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Constraint restricts the values a parameter accepts. Range constraints
// bound numeric (and per-element vector) values; enum constraints pin the
// value to an ordered option list.
type Constraint struct {
	Kind    ConstraintKind `json:"kind"`
	Min     float64        `json:"min,omitempty"`
	Step    float64        `json:"step,omitempty"`
	Max     float64        `json:"max,omitempty"`
	Options []EnumOption   `json:"options,omitempty"`
}

// Descriptor models one customizable variable recovered from the model
// source. Declaration order is preserved by slice position in Schema and is
// significant: it drives generated form layout.
type Descriptor struct {
	Name        string        `json:"name"`
	Kind        ParameterKind `json:"kind"`
	Default     any           `json:"default"`
	Group       string        `json:"group,omitempty"`
	Description string        `json:"description,omitempty"`
	Hidden      bool          `json:"hidden,omitempty"`
	Constraint  Constraint    `json:"constraint"`
	Line        int           `json:"line"`
}

// Group is a named partition of descriptors in declaration order. The empty
// name identifies the implicit default group.
type Group struct {
	Name   string `json:"name"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Warning records a non-fatal parse anomaly. Warnings never block schema
// construction; they are collected for diagnostics.
type Warning struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Schema is the ordered parameter schema produced by one parse of a source
// revision. It is immutable after construction; a new parse replaces the
// whole schema.
type Schema struct {
	Groups     []Group      `json:"groups"`
	Parameters []Descriptor `json:"parameters"`
	Warnings   []Warning    `json:"warnings,omitempty"`
}

// Descriptor looks up a parameter by name.
func (s *Schema) Descriptor(name string) (Descriptor, bool) {
	for _, d := range s.Parameters {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// GroupParameters returns the descriptors declared inside the named group,
// in declaration order.
func (s *Schema) GroupParameters(group string) []Descriptor {
	var out []Descriptor
	for _, d := range s.Parameters {
		if d.Group == group {
			out = append(out, d)
		}
	}
	return out
}

// Defaults returns a name-to-default mapping for every parameter.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.Parameters))
	for _, d := range s.Parameters {
		out[d.Name] = d.Default
	}
	return out
}

// Normalize coerces a candidate value into the descriptor's canonical Go
// representation (bool, int, float64, string or []float64) and validates it
// against the constraint. JSON decoding hands numbers over as float64 and
// vectors as []any, so coercion happens here rather than at every call site.
func (d Descriptor) Normalize(value any) (any, error) {
	typed, err := coerce(d.Kind, value)
	if err != nil {
		return nil, err
	}
	if err := d.checkConstraint(typed); err != nil {
		return nil, err
	}
	return typed, nil
}

// Validate reports whether the value satisfies the descriptor's kind and
// constraint without returning the normalized form.
func (d Descriptor) Validate(value any) error {
	_, err := d.Normalize(value)
	return err
}

func (d Descriptor) checkConstraint(value any) error {
	switch d.Constraint.Kind {
	case ConstraintRange:
		return d.checkRange(value)
	case ConstraintEnum:
		return d.checkEnum(value)
	default:
		return nil
	}
}

func (d Descriptor) checkRange(value any) error {
	check := func(v float64) error {
		if v < d.Constraint.Min || v > d.Constraint.Max {
			return fmt.Errorf("value %v outside range [%v:%v]", v, d.Constraint.Min, d.Constraint.Max)
		}
		return nil
	}
	switch v := value.(type) {
	case int:
		return check(float64(v))
	case float64:
		return check(v)
	case []float64:
		for _, elem := range v {
			if err := check(elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("range constraint does not apply to %T", value)
	}
}

func (d Descriptor) checkEnum(value any) error {
	for _, opt := range d.Constraint.Options {
		if valuesEqual(opt.Value, value) {
			return nil
		}
	}
	return fmt.Errorf("value %v not among %d enumeration options", value, len(d.Constraint.Options))
}

func coerce(kind ParameterKind, value any) (any, error) {
	switch kind {
	case KindBoolean:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KindInteger:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == math.Trunc(v) {
				return int(v), nil
			}
			return nil, fmt.Errorf("value %v is not an integer", v)
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("value %q is not an integer", v)
			}
			return parsed, nil
		}
	case KindNumber:
		switch v := value.(type) {
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("value %q is not a number", v)
			}
			return parsed, nil
		}
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case KindVector:
		switch v := value.(type) {
		case []float64:
			return append([]float64(nil), v...), nil
		case []any:
			out := make([]float64, 0, len(v))
			for _, elem := range v {
				switch n := elem.(type) {
				case int:
					out = append(out, float64(n))
				case float64:
					out = append(out, n)
				default:
					return nil, fmt.Errorf("vector element %v is not numeric", elem)
				}
			}
			return out, nil
		}
	default:
		return nil, fmt.Errorf("unknown parameter kind %q", kind)
	}
	return nil, fmt.Errorf("value of type %T does not match kind %s", value, kind)
}

func valuesEqual(a, b any) bool {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// KindOf infers the parameter kind for a canonical Go value. It returns an
// error for representations the customizer does not model.
func KindOf(value any) (ParameterKind, error) {
	switch value.(type) {
	case bool:
		return KindBoolean, nil
	case int:
		return KindInteger, nil
	case float64:
		return KindNumber, nil
	case string:
		return KindString, nil
	case []float64:
		return KindVector, nil
	default:
		return "", errors.New("scad: unsupported value representation")
	}
}
