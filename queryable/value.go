// Package queryable holds the typed value model shared by the query AST,
// the clause compilers, and the execution engine: scalar kinds, static
// types (kind plus nullability), and tagged scalar values.
package queryable

import (
	"fmt"
	"time"
)

// Kind enumerates the scalar kinds an attribute or literal can have.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Type is the static type of an attribute or compiled expression.
// Nullable types can represent the absence of a value.
type Type struct {
	Kind     Kind
	Nullable bool
}

// AsNullable returns the same type widened to admit null.
func (t Type) AsNullable() Type {
	return Type{Kind: t.Kind, Nullable: true}
}

// String renders the type, with a trailing "?" for nullable types.
func (t Type) String() string {
	if t.Nullable {
		return t.Kind.String() + "?"
	}
	return t.Kind.String()
}

// Value is a typed scalar value, possibly null. A null Value still carries
// the kind it is a null of, so comparisons stay typed.
type Value struct {
	Kind Kind
	Null bool

	Str   string
	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
}

// Typed value constructors.
func String(s string) Value    { return Value{Kind: KindString, Str: s} }
func Int(i int64) Value        { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value    { return Value{Kind: KindFloat, Float: f} }
func Bool(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func Time(t time.Time) Value   { return Value{Kind: KindTime, Time: t} }
func NullOf(kind Kind) Value   { return Value{Kind: kind, Null: true} }

// Type returns the static type of the value. Null values report as nullable.
func (v Value) Type() Type {
	return Type{Kind: v.Kind, Nullable: v.Null}
}

// IsNumeric reports whether the value is an int or float.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// AsFloat widens an int or float value to float64.
func (v Value) AsFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// String renders the value for display and hashing.
func (v Value) String() string {
	if v.Null {
		return "null"
	}
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindTime:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("value(%d)", uint8(v.Kind))
	}
}
