package types

import (
	"fmt"
	"reflect"
)

// Null represents an expression null literal distinct from an absent value.
type Null struct{}

// MarshalJSON implements json.Marshaler for Null.
// This ensures that Null serializes to JSON null instead of {}.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String renders Null the way the expression language spells it.
func (Null) String() string {
	return "null"
}

// NullValue is the singleton value used for a present-but-null value.
var NullValue = Null{}

// Kind is the coarse category of a runtime value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
	KindOther
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindNumber:  "number",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
	KindOther:   "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Type describes a value: its Kind and, when known, the Go type that carries it.
type Type struct {
	Kind   Kind
	GoType reflect.Type
}

func (t Type) String() string {
	if t.GoType == nil {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.GoType)
}

// TypeNull is the descriptor of NullValue and of untyped nil.
var TypeNull = Type{Kind: KindNull}

// TypedValue pairs a value with its type descriptor. Reads return it and
// writes accept it; the descriptor drives coercion in operator nodes.
type TypedValue struct {
	Value interface{}
	Type  Type
}

// NullTypedValue is the TypedValue of NullValue.
var NullTypedValue = TypedValue{Value: NullValue, Type: TypeNull}

// TypedValueOf wraps v with a descriptor derived from its dynamic type.
// A nil v is normalized to NullValue.
func TypedValueOf(v interface{}) TypedValue {
	if v == nil {
		return NullTypedValue
	}
	return TypedValue{Value: v, Type: TypeOf(v)}
}

// IsNull reports whether the value is null.
func (tv TypedValue) IsNull() bool {
	if tv.Value == nil {
		return true
	}
	_, ok := tv.Value.(Null)
	return ok
}

// Interface returns the plain Go value, mapping NullValue to nil.
func (tv TypedValue) Interface() interface{} {
	if tv.IsNull() {
		return nil
	}
	return tv.Value
}

func (tv TypedValue) String() string {
	return fmt.Sprintf("%v:%s", tv.Interface(), tv.Type)
}

// TypeOf returns the descriptor for v.
func TypeOf(v interface{}) Type {
	switch v.(type) {
	case nil, Null:
		return TypeNull
	case bool:
		return Type{Kind: KindBoolean, GoType: reflect.TypeOf(v)}
	case string:
		return Type{Kind: KindString, GoType: reflect.TypeOf(v)}
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return Type{Kind: KindNumber, GoType: reflect.TypeOf(v)}
	case []interface{}:
		return Type{Kind: KindArray, GoType: reflect.TypeOf(v)}
	case map[string]interface{}:
		return Type{Kind: KindObject, GoType: reflect.TypeOf(v)}
	}
	rt := reflect.TypeOf(v)
	switch rt.Kind() {
	case reflect.Slice, reflect.Array:
		return Type{Kind: KindArray, GoType: rt}
	case reflect.Map, reflect.Struct:
		return Type{Kind: KindObject, GoType: rt}
	case reflect.Ptr:
		if rt.Elem().Kind() == reflect.Struct {
			return Type{Kind: KindObject, GoType: rt}
		}
	}
	return Type{Kind: KindOther, GoType: rt}
}
