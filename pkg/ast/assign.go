package ast

import (
	"github.com/sandrolain/gospel/pkg/types"
)

// Assign is target = value. It yields the assigned value.
type Assign struct {
	pos
	readOnly
	target Node
	value  Node
}

func NewAssign(target, value Node, position int) *Assign {
	return &Assign{pos: pos(position), target: target, value: value}
}

// Evaluate checks that the target is writable before the value is
// evaluated, so a rejected assignment has no side effects. A path target
// evaluates its prefix once.
func (a *Assign) Evaluate(scope Scope) (types.TypedValue, error) {
	value := func() (types.TypedValue, error) {
		return a.value.Evaluate(scope)
	}
	if c, ok := a.target.(*CompoundExpression); ok {
		return c.assign(scope, value)
	}
	if !a.target.IsWritable(scope) {
		return types.TypedValue{}, notWritable(a.target)
	}
	v, err := value()
	if err != nil {
		return types.TypedValue{}, err
	}
	if err := a.target.Assign(scope, v); err != nil {
		return types.TypedValue{}, err
	}
	return v, nil
}

func (a *Assign) Assign(Scope, types.TypedValue) error {
	return notWritable(a)
}

func (a *Assign) String() string {
	return "(" + a.target.String() + " = " + a.value.String() + ")"
}
