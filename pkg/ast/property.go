package ast

import (
	"math"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/sandrolain/gospel/pkg/types"
)

// PropertyReference reads a property of the active context object.
type PropertyReference struct {
	pos
	name string
}

func NewPropertyReference(name string, position int) *PropertyReference {
	return &PropertyReference{pos: pos(position), name: name}
}

// Name returns the property name.
func (p *PropertyReference) Name() string {
	return p.name
}

// Evaluate reads the property from the active object. A key missing from a
// map reads as null; a property of anything that is not a map or a struct is
// an ErrPropertyNotFound error.
func (p *PropertyReference) Evaluate(scope Scope) (types.TypedValue, error) {
	target := scope.ActiveContextObject()
	v, err := readProperty(target.Value, p.name)
	if err != nil {
		return types.TypedValue{}, err.withPosition(p.Position())
	}
	return types.TypedValueOf(v), nil
}

// Assign stores value under the property of the active object.
func (p *PropertyReference) Assign(scope Scope, value types.TypedValue) error {
	m, ok := scope.ActiveContextObject().Value.(map[string]interface{})
	if !ok {
		return notWritable(p)
	}
	m[p.name] = value.Value
	return nil
}

// IsWritable is true when the active object is a map.
func (p *PropertyReference) IsWritable(scope Scope) bool {
	_, ok := scope.ActiveContextObject().Value.(map[string]interface{})
	return ok
}

func (p *PropertyReference) String() string {
	return p.name
}

// accessError is a lookup failure that does not know its position yet.
type accessError struct {
	code types.ErrorCode
	msg  string
}

func (e *accessError) withPosition(position int) *types.Error {
	return types.NewError(e.code, e.msg, position)
}

func readProperty(target interface{}, name string) (interface{}, *accessError) {
	switch t := target.(type) {
	case map[string]interface{}:
		if v, ok := t[name]; ok {
			return v, nil
		}
		return types.NullValue, nil
	case nil, types.Null:
		return nil, &accessError{types.ErrPropertyNotFound, "cannot read property '" + name + "' of null"}
	}
	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, &accessError{types.ErrPropertyNotFound, "cannot read property '" + name + "' of null"}
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return types.NullValue, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		if f, ok := structField(rv, name); ok {
			return f.Interface(), nil
		}
	}
	return nil, &accessError{
		types.ErrPropertyNotFound,
		"property '" + name + "' not found on " + types.TypeOf(target).String(),
	}
}

// structField finds an exported field by Go name or by json tag name.
func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if sf.Name == name || tag == name {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Indexer is a [expr] step: an element of a list, a character of a string
// or an entry of a map, taken from the active object.
type Indexer struct {
	pos
	index Node
}

func NewIndexer(index Node, position int) *Indexer {
	return &Indexer{pos: pos(position), index: index}
}

func (ix *Indexer) Evaluate(scope Scope) (types.TypedValue, error) {
	target := scope.ActiveContextObject()
	key, err := ix.index.Evaluate(scope)
	if err != nil {
		return types.TypedValue{}, err
	}
	switch t := target.Value.(type) {
	case map[string]interface{}:
		k, err := cast.ToStringE(key.Value)
		if err != nil {
			return types.TypedValue{}, types.NewError(types.ErrCannotConvertString, "map key must be a string", ix.Position()).WithCause(err)
		}
		if v, ok := t[k]; ok {
			return types.TypedValueOf(v), nil
		}
		return types.NullTypedValue, nil
	case string:
		chars := []rune(t)
		i, err := ix.position(key, len(chars))
		if err != nil {
			return types.TypedValue{}, err
		}
		return types.TypedValueOf(string(chars[i])), nil
	}
	rv := reflect.ValueOf(target.Value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		i, err := ix.position(key, rv.Len())
		if err != nil {
			return types.TypedValue{}, err
		}
		return types.TypedValueOf(rv.Index(i).Interface()), nil
	}
	return types.TypedValue{}, types.Errorf(types.ErrInvalidTypeOperation, ix.Position(),
		"cannot index into %s", target.Type)
}

// position converts an index value into a checked offset. The index must
// be a whole number.
func (ix *Indexer) position(key types.TypedValue, length int) (int, error) {
	if key.Type.Kind != types.KindNumber {
		return 0, types.Errorf(types.ErrCannotConvertNumber, ix.Position(), "index must be a number, got %s", key.Type)
	}
	f, err := cast.ToFloat64E(key.Value)
	if err != nil {
		return 0, types.NewError(types.ErrCannotConvertNumber, "invalid index", ix.Position()).WithCause(err)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, types.Errorf(types.ErrCannotConvertNumber, ix.Position(), "index %v is not a whole number", f)
	}
	if f < 0 || f >= float64(length) {
		return 0, types.Errorf(types.ErrIndexOutOfBounds, ix.Position(), "index %v out of bounds for length %d", f, length)
	}
	return int(f), nil
}

// Assign replaces a list element or sets a map entry.
func (ix *Indexer) Assign(scope Scope, value types.TypedValue) error {
	target := scope.ActiveContextObject()
	key, err := ix.index.Evaluate(scope)
	if err != nil {
		return err
	}
	switch t := target.Value.(type) {
	case map[string]interface{}:
		k, err := cast.ToStringE(key.Value)
		if err != nil {
			return types.NewError(types.ErrCannotConvertString, "map key must be a string", ix.Position()).WithCause(err)
		}
		t[k] = value.Value
		return nil
	case []interface{}:
		i, err := ix.position(key, len(t))
		if err != nil {
			return err
		}
		t[i] = value.Value
		return nil
	}
	return notWritable(ix)
}

// IsWritable is true when the active object is a map or a []interface{}.
func (ix *Indexer) IsWritable(scope Scope) bool {
	switch scope.ActiveContextObject().Value.(type) {
	case map[string]interface{}, []interface{}:
		return true
	}
	return false
}

func (ix *Indexer) String() string {
	return "[" + ix.index.String() + "]"
}
