package ast

import (
	"reflect"
	"sort"

	"github.com/sandrolain/gospel/pkg/types"
)

// Projection is a ![expr] step: expr is evaluated once per element of the
// active collection, with the element as the active context object.
type Projection struct {
	pos
	readOnly
	expr Node
}

func NewProjection(expr Node, position int) *Projection {
	return &Projection{pos: pos(position), expr: expr}
}

func (p *Projection) Evaluate(scope Scope) (types.TypedValue, error) {
	elems, err := elements(scope.ActiveContextObject(), p.Position())
	if err != nil {
		return types.TypedValue{}, err
	}
	out := make([]interface{}, 0, len(elems))
	for _, elem := range elems {
		if err := canceled(scope, p.Position()); err != nil {
			return types.TypedValue{}, err
		}
		tv, err := evaluateWith(scope, elem, p.expr)
		if err != nil {
			return types.TypedValue{}, err
		}
		out = append(out, tv.Value)
	}
	return types.TypedValueOf(out), nil
}

func (p *Projection) Assign(Scope, types.TypedValue) error {
	return notWritable(p)
}

func (p *Projection) String() string {
	return "![" + p.expr.String() + "]"
}

// SelectionMode picks which matching elements a Selection keeps.
type SelectionMode uint8

const (
	SelectAll SelectionMode = iota
	SelectFirst
	SelectLast
)

var selectionPrefix = [...]string{
	SelectAll:   "?[",
	SelectFirst: "^[",
	SelectLast:  "$[",
}

// Selection is a ?[pred], ^[pred] or $[pred] step: it keeps the elements of
// the active collection for which pred, evaluated with the element as the
// active context object, is true. On a map the elements are the entries,
// each seen as an object with "key" and "value" properties, and the result
// is a map.
type Selection struct {
	pos
	readOnly
	mode SelectionMode
	pred Node
}

func NewSelection(mode SelectionMode, pred Node, position int) *Selection {
	return &Selection{pos: pos(position), mode: mode, pred: pred}
}

func (s *Selection) Evaluate(scope Scope) (types.TypedValue, error) {
	target := scope.ActiveContextObject()
	elems, err := elements(target, s.Position())
	if err != nil {
		return types.TypedValue{}, err
	}
	var picked []types.TypedValue
	for _, elem := range elems {
		if err := canceled(scope, s.Position()); err != nil {
			return types.TypedValue{}, err
		}
		tv, err := evaluateWith(scope, elem, s.pred)
		if err != nil {
			return types.TypedValue{}, err
		}
		ok, isBool := tv.Value.(bool)
		if !isBool {
			return types.TypedValue{}, types.Errorf(types.ErrInvalidTypeOperation, s.Position(),
				"selection criteria must evaluate to a boolean, got %s", tv.Type)
		}
		if !ok {
			continue
		}
		if s.mode == SelectFirst {
			picked = []types.TypedValue{elem}
			break
		}
		if s.mode == SelectLast {
			picked = picked[:0]
		}
		picked = append(picked, elem)
	}
	if _, isMap := target.Value.(map[string]interface{}); isMap {
		out := make(map[string]interface{}, len(picked))
		for _, entry := range picked {
			e := entry.Value.(map[string]interface{})
			out[e["key"].(string)] = e["value"]
		}
		return types.TypedValueOf(out), nil
	}
	if s.mode != SelectAll {
		if len(picked) == 0 {
			return types.NullTypedValue, nil
		}
		return picked[0], nil
	}
	out := make([]interface{}, len(picked))
	for i, tv := range picked {
		out[i] = tv.Value
	}
	return types.TypedValueOf(out), nil
}

func (s *Selection) Assign(Scope, types.TypedValue) error {
	return notWritable(s)
}

func (s *Selection) String() string {
	return selectionPrefix[s.mode] + s.pred.String() + "]"
}

// elements lists the members of a collection. Map entries are listed in key
// order as {"key": k, "value": v} objects.
func elements(target types.TypedValue, position int) ([]types.TypedValue, error) {
	switch t := target.Value.(type) {
	case []interface{}:
		out := make([]types.TypedValue, len(t))
		for i, v := range t {
			out[i] = types.TypedValueOf(v)
		}
		return out, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]types.TypedValue, len(keys))
		for i, k := range keys {
			out[i] = types.TypedValueOf(map[string]interface{}{"key": k, "value": t[k]})
		}
		return out, nil
	}
	rv := reflect.ValueOf(target.Value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]types.TypedValue, rv.Len())
		for i := range out {
			out[i] = types.TypedValueOf(rv.Index(i).Interface())
		}
		return out, nil
	}
	return nil, types.Errorf(types.ErrNotACollection, position, "%s is not a collection", target.Type)
}

func canceled(scope Scope, position int) error {
	if err := scope.Canceled(); err != nil {
		return types.NewError(types.ErrEvaluationCanceled, "evaluation canceled", position).WithCause(err)
	}
	return nil
}
