package gelf

import (
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindUint
	KindFloat
	KindDecimal
	KindBool
	KindObject
	KindArray
)

// Value is the serializable form of one GELF field value. It is a closed
// tagged union: FieldEncoder is the only producer outside of tests, and the
// JSON and msgpack renderers switch over Kind exhaustively.
type Value struct {
	kind   Kind
	str    string // KindString, KindDecimal (exact decimal text)
	i      int64
	u      uint64
	f      float64
	bits   int // float precision, 32 or 64
	b      bool
	fields []Field
	items  []Value
}

// Field is a named Value. Objects keep their fields in declaration order.
type Field struct {
	Key   string
	Value Value
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func UintValue(u uint64) Value   { return Value{kind: KindUint, u: u} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }

// FloatValue holds f, remembering whether it came from a 32 or 64 bit float
// so it renders with the matching precision.
func FloatValue(f float64, bitSize int) Value {
	if bitSize != 32 {
		bitSize = 64
	}
	return Value{kind: KindFloat, f: f, bits: bitSize}
}

// DecimalValue holds an exact decimal number in its text form, e.g. "12.340".
func DecimalValue(s string) Value { return Value{kind: KindDecimal, str: s} }

func ObjectValue(fields ...Field) Value { return Value{kind: KindObject, fields: fields} }
func ArrayValue(items ...Value) Value   { return Value{kind: KindArray, items: items} }

func (v Value) Kind() Kind { return v.kind }

// Str returns the text of a string or decimal Value.
func (v Value) Str() string      { return v.str }
func (v Value) Int() int64       { return v.i }
func (v Value) Uint() uint64     { return v.u }
func (v Value) Float() float64   { return v.f }
func (v Value) Bool() bool       { return v.b }
func (v Value) Fields() []Field  { return v.fields }
func (v Value) Items() []Value   { return v.items }
func (v Value) IsValid() bool    { return v.kind != KindInvalid }

// Lookup returns the field of an object Value named key.
func (v Value) Lookup(key string) (Value, bool) {
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Any converts v to plain Go values: string, int64, uint64, float64, bool,
// map[string]any and []any. Decimals convert to their text.
func (v Value) Any() any {
	switch v.kind {
	case KindString, KindDecimal:
		return v.str
	case KindInt:
		return v.i
	case KindUint:
		return v.u
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindObject:
		m := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			m[f.Key] = f.Value.Any()
		}
		return m
	case KindArray:
		s := make([]any, len(v.items))
		for i, item := range v.items {
			s[i] = item.Any()
		}
		return s
	default:
		return nil
	}
}

// formatFloat renders finite floats as JSON numbers. Non-finite floats have no
// JSON number form and are reported as not ok.
func formatFloat(f float64, bitSize int) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", false
	case math.IsInf(f, 1):
		return "Infinity", false
	case math.IsInf(f, -1):
		return "-Infinity", false
	}
	return strconv.FormatFloat(f, 'g', -1, bitSize), true
}
