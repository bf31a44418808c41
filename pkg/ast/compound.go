package ast

import (
	"strings"

	"github.com/sandrolain/gospel/pkg/types"
)

// CompoundExpression is a dotted path a.b[0].c. Each step after the first is
// evaluated with the previous step's result as the active context object.
type CompoundExpression struct {
	pos
	steps []Node
}

// NewCompoundExpression builds a path from at least two steps.
func NewCompoundExpression(steps []Node, position int) *CompoundExpression {
	return &CompoundExpression{pos: pos(position), steps: steps}
}

// Steps returns the path steps.
func (c *CompoundExpression) Steps() []Node {
	return c.steps
}

func (c *CompoundExpression) Evaluate(scope Scope) (types.TypedValue, error) {
	return c.walk(scope, c.steps)
}

// walk evaluates steps in sequence and returns the last result.
func (c *CompoundExpression) walk(scope Scope, steps []Node) (types.TypedValue, error) {
	result, err := steps[0].Evaluate(scope)
	if err != nil {
		return types.TypedValue{}, err
	}
	for _, step := range steps[1:] {
		if result, err = evaluateWith(scope, result, step); err != nil {
			return types.TypedValue{}, err
		}
	}
	return result, nil
}

// Assign evaluates every step but the last and assigns through the last one.
func (c *CompoundExpression) Assign(scope Scope, value types.TypedValue) error {
	_, err := c.assign(scope, func() (types.TypedValue, error) {
		return value, nil
	})
	return err
}

// assign evaluates the path prefix once. next supplies the value and is only
// called after the last step proved writable on the prefix result.
func (c *CompoundExpression) assign(scope Scope, next func() (types.TypedValue, error)) (types.TypedValue, error) {
	last := len(c.steps) - 1
	target, err := c.walk(scope, c.steps[:last])
	if err != nil {
		return types.TypedValue{}, err
	}
	step := c.steps[last]
	if !writableOn(scope, target, step) {
		return types.TypedValue{}, notWritable(c)
	}
	v, err := next()
	if err != nil {
		return types.TypedValue{}, err
	}
	scope.PushActiveContextObject(target)
	defer scope.PopActiveContextObject()
	if err := step.Assign(scope, v); err != nil {
		return types.TypedValue{}, err
	}
	return v, nil
}

// IsWritable evaluates the path prefix; a prefix that fails to evaluate makes
// the path not writable.
func (c *CompoundExpression) IsWritable(scope Scope) bool {
	last := len(c.steps) - 1
	target, err := c.walk(scope, c.steps[:last])
	if err != nil {
		return false
	}
	return writableOn(scope, target, c.steps[last])
}

func writableOn(scope Scope, target types.TypedValue, step Node) bool {
	scope.PushActiveContextObject(target)
	defer scope.PopActiveContextObject()
	return step.IsWritable(scope)
}

// String wraps a unary first step, or a negative literal one, since a
// leading prefix operator would take the rest of the path as its operand.
func (c *CompoundExpression) String() string {
	var b strings.Builder
	for i, step := range c.steps {
		s := step.String()
		_, unary := step.(*UnaryOp)
		switch {
		case i == 0 && (unary || strings.HasPrefix(s, "-")):
			s = "(" + s + ")"
		case i > 0:
			if _, ok := step.(*Indexer); !ok {
				b.WriteByte('.')
			}
		}
		b.WriteString(s)
	}
	return b.String()
}
