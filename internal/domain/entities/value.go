package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueInvalid ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
	ValueReference
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "bool"
	case ValueReference:
		return "reference"
	default:
		return "invalid"
	}
}

// Value is a relation property value: a string, number, boolean or a
// reference to another entity.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// StringValue returns a string value.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// NumberValue returns a numeric value.
func NumberValue(n float64) Value { return Value{kind: ValueNumber, num: n} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }

// ReferenceValue returns a reference to the entity with the given identifier.
func ReferenceValue(id string) Value { return Value{kind: ValueReference, str: id} }

// ValueOf converts a loosely typed input (from JSON, CSV or flags) into a Value.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case int:
		return NumberValue(float64(x)), nil
	case int64:
		return NumberValue(float64(x)), nil
	case float64:
		return NumberValue(x), nil
	case float32:
		return NumberValue(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("converting %q: %w", x, err)
		}
		return NumberValue(f), nil
	case time.Time:
		return StringValue(x.UTC().Format(time.RFC3339)), nil
	case *EntityRef:
		if x == nil {
			return Value{}, fmt.Errorf("nil entity reference")
		}
		return ReferenceValue(x.ID), nil
	default:
		return Value{}, fmt.Errorf("unsupported property value type %T", v)
	}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsZero reports whether v holds nothing.
func (v Value) IsZero() bool { return v.kind == ValueInvalid }

// Number returns the numeric payload.
func (v Value) Number() (float64, bool) { return v.num, v.kind == ValueNumber }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == ValueBool }

// Reference returns the referenced identifier.
func (v Value) Reference() (string, bool) { return v.str, v.kind == ValueReference }

// String renders the value as the lexical form used in storage.
func (v Value) String() string {
	switch v.kind {
	case ValueString, ValueReference:
		return v.str
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// MarshalJSON writes the natural JSON form of the payload.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueBool:
		return json.Marshal(v.b)
	case ValueString, ValueReference:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}
