package ast

import (
	"math"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/sandrolain/gospel/pkg/types"
)

// Operator identifies a binary operator.
type Operator uint8

const (
	OpAdd Operator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulus
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAnd
	OpOr
)

var operatorText = [...]string{
	OpAdd:          "+",
	OpSubtract:     "-",
	OpMultiply:     "*",
	OpDivide:       "/",
	OpModulus:      "%",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpAnd:          "and",
	OpOr:           "or",
}

func (op Operator) String() string {
	return operatorText[op]
}

// BinaryOp applies an Operator to two operands. and/or short-circuit.
type BinaryOp struct {
	pos
	readOnly
	op       Operator
	lhs, rhs Node
}

func NewBinaryOp(op Operator, lhs, rhs Node, position int) *BinaryOp {
	return &BinaryOp{pos: pos(position), op: op, lhs: lhs, rhs: rhs}
}

func (b *BinaryOp) Evaluate(scope Scope) (types.TypedValue, error) {
	left, err := b.lhs.Evaluate(scope)
	if err != nil {
		return types.TypedValue{}, err
	}
	if b.op == OpAnd || b.op == OpOr {
		l, err := toBoolean(left, b.lhs.Position())
		if err != nil {
			return types.TypedValue{}, err
		}
		if l == (b.op == OpOr) {
			return types.TypedValueOf(l), nil
		}
		right, err := b.rhs.Evaluate(scope)
		if err != nil {
			return types.TypedValue{}, err
		}
		r, err := toBoolean(right, b.rhs.Position())
		if err != nil {
			return types.TypedValue{}, err
		}
		return types.TypedValueOf(r), nil
	}
	right, err := b.rhs.Evaluate(scope)
	if err != nil {
		return types.TypedValue{}, err
	}
	switch b.op {
	case OpEqual:
		return types.TypedValueOf(equal(left, right)), nil
	case OpNotEqual:
		return types.TypedValueOf(!equal(left, right)), nil
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return b.compare(left, right)
	case OpAdd:
		if left.Type.Kind == types.KindString || right.Type.Kind == types.KindString {
			return b.concat(left, right)
		}
	}
	return b.arithmetic(left, right)
}

// concat joins the operands as text. null reads as "null", the way a null
// literal renders.
func (b *BinaryOp) concat(left, right types.TypedValue) (types.TypedValue, error) {
	l, err := cast.ToStringE(textOf(left))
	if err != nil {
		return types.TypedValue{}, types.NewError(types.ErrCannotConvertString, "cannot convert left operand to string", b.Position()).WithCause(err)
	}
	r, err := cast.ToStringE(textOf(right))
	if err != nil {
		return types.TypedValue{}, types.NewError(types.ErrCannotConvertString, "cannot convert right operand to string", b.Position()).WithCause(err)
	}
	return types.TypedValueOf(l + r), nil
}

func textOf(tv types.TypedValue) interface{} {
	if tv.IsNull() {
		return "null"
	}
	return tv.Value
}

func (b *BinaryOp) arithmetic(left, right types.TypedValue) (types.TypedValue, error) {
	l, err := toNumber(left, b.lhs.Position())
	if err != nil {
		return types.TypedValue{}, err
	}
	r, err := toNumber(right, b.rhs.Position())
	if err != nil {
		return types.TypedValue{}, err
	}
	var v float64
	switch b.op {
	case OpAdd:
		v = l + r
	case OpSubtract:
		v = l - r
	case OpMultiply:
		v = l * r
	case OpDivide, OpModulus:
		if r == 0 {
			return types.TypedValue{}, types.NewError(types.ErrInvalidTypeOperation, "division by zero", b.Position())
		}
		if b.op == OpDivide {
			v = l / r
		} else {
			v = math.Mod(l, r)
		}
	}
	return types.TypedValueOf(v), nil
}

func (b *BinaryOp) compare(left, right types.TypedValue) (types.TypedValue, error) {
	var c int
	switch {
	case left.Type.Kind == types.KindNumber && right.Type.Kind == types.KindNumber:
		l, _ := toNumber(left, b.lhs.Position())
		r, _ := toNumber(right, b.rhs.Position())
		c = cmpFloat(l, r)
	case left.Type.Kind == types.KindString && right.Type.Kind == types.KindString:
		l, r := left.Value.(string), right.Value.(string)
		switch {
		case l < r:
			c = -1
		case l > r:
			c = 1
		}
	default:
		return types.TypedValue{}, types.Errorf(types.ErrInvalidTypeOperation, b.Position(),
			"cannot compare %s with %s", left.Type.Kind, right.Type.Kind)
	}
	var v bool
	switch b.op {
	case OpLess:
		v = c < 0
	case OpLessEqual:
		v = c <= 0
	case OpGreater:
		v = c > 0
	case OpGreaterEqual:
		v = c >= 0
	}
	return types.TypedValueOf(v), nil
}

func (b *BinaryOp) Assign(Scope, types.TypedValue) error {
	return notWritable(b)
}

func (b *BinaryOp) String() string {
	return "(" + b.lhs.String() + " " + b.op.String() + " " + b.rhs.String() + ")"
}

func cmpFloat(l, r float64) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func equal(left, right types.TypedValue) bool {
	if left.Type.Kind == types.KindNumber && right.Type.Kind == types.KindNumber {
		l, _ := cast.ToFloat64E(left.Value)
		r, _ := cast.ToFloat64E(right.Value)
		return l == r
	}
	return reflect.DeepEqual(left.Interface(), right.Interface())
}

// toNumber coerces a number, or a string holding one, to float64.
func toNumber(tv types.TypedValue, position int) (float64, error) {
	switch tv.Type.Kind {
	case types.KindNumber:
		f, err := cast.ToFloat64E(tv.Value)
		if err != nil {
			return 0, types.NewError(types.ErrCannotConvertNumber, "cannot convert to number", position).WithCause(err)
		}
		return f, nil
	case types.KindString:
		f, err := cast.ToFloat64E(tv.Value)
		if err != nil {
			return 0, types.Errorf(types.ErrCannotConvertString, position, "cannot convert %q to number", tv.Value).WithCause(err)
		}
		return f, nil
	}
	return 0, types.Errorf(types.ErrInvalidTypeOperation, position, "expected a number, got %s", tv.Type.Kind)
}

// toBoolean accepts booleans and the strings "true" and "false".
func toBoolean(tv types.TypedValue, position int) (bool, error) {
	switch tv.Type.Kind {
	case types.KindBoolean:
		return tv.Value.(bool), nil
	case types.KindString:
		b, err := cast.ToBoolE(tv.Value)
		if err != nil {
			return false, types.Errorf(types.ErrCannotConvertBoolean, position, "cannot convert %q to boolean", tv.Value).WithCause(err)
		}
		return b, nil
	}
	return false, types.Errorf(types.ErrCannotConvertBoolean, position, "expected a boolean, got %s", tv.Type.Kind)
}

// UnaryOp is !expr or -expr.
type UnaryOp struct {
	pos
	readOnly
	negate  bool
	operand Node
}

// NewNot builds a logical negation.
func NewNot(operand Node, position int) *UnaryOp {
	return &UnaryOp{pos: pos(position), operand: operand}
}

// NewNegate builds an arithmetic negation.
func NewNegate(operand Node, position int) *UnaryOp {
	return &UnaryOp{pos: pos(position), negate: true, operand: operand}
}

func (u *UnaryOp) Evaluate(scope Scope) (types.TypedValue, error) {
	tv, err := u.operand.Evaluate(scope)
	if err != nil {
		return types.TypedValue{}, err
	}
	if u.negate {
		f, err := toNumber(tv, u.operand.Position())
		if err != nil {
			return types.TypedValue{}, err
		}
		return types.TypedValueOf(-f), nil
	}
	b, err := toBoolean(tv, u.operand.Position())
	if err != nil {
		return types.TypedValue{}, err
	}
	return types.TypedValueOf(!b), nil
}

func (u *UnaryOp) Assign(Scope, types.TypedValue) error {
	return notWritable(u)
}

// String wraps an operand that opens with '[': "![" lexes as a projection.
func (u *UnaryOp) String() string {
	s := u.operand.String()
	if strings.HasPrefix(s, "[") {
		s = "(" + s + ")"
	}
	if u.negate {
		return "-" + s
	}
	return "!" + s
}

// Ternary is cond ? then : otherwise.
type Ternary struct {
	pos
	readOnly
	cond, then, otherwise Node
}

func NewTernary(cond, then, otherwise Node, position int) *Ternary {
	return &Ternary{pos: pos(position), cond: cond, then: then, otherwise: otherwise}
}

func (t *Ternary) Evaluate(scope Scope) (types.TypedValue, error) {
	cv, err := t.cond.Evaluate(scope)
	if err != nil {
		return types.TypedValue{}, err
	}
	c, err := toBoolean(cv, t.cond.Position())
	if err != nil {
		return types.TypedValue{}, err
	}
	if c {
		return t.then.Evaluate(scope)
	}
	return t.otherwise.Evaluate(scope)
}

func (t *Ternary) Assign(Scope, types.TypedValue) error {
	return notWritable(t)
}

func (t *Ternary) String() string {
	return "(" + t.cond.String() + " ? " + t.then.String() + " : " + t.otherwise.String() + ")"
}
