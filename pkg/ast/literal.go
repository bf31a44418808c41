package ast

import (
	"strconv"
	"strings"

	"github.com/sandrolain/gospel/pkg/types"
)

// Literal is a constant string, number, boolean or null.
type Literal struct {
	pos
	readOnly
	value types.TypedValue
}

// NewLiteral builds a literal. v must be a string, float64, bool or nil.
func NewLiteral(v interface{}, position int) *Literal {
	return &Literal{pos: pos(position), value: types.TypedValueOf(v)}
}

// Value returns the constant.
func (l *Literal) Value() types.TypedValue {
	return l.value
}

func (l *Literal) Evaluate(Scope) (types.TypedValue, error) {
	return l.value, nil
}

func (l *Literal) Assign(Scope, types.TypedValue) error {
	return notWritable(l)
}

func (l *Literal) String() string {
	switch v := l.value.Value.(type) {
	case string:
		return QuoteString(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case types.Null:
		return "null"
	}
	return "?"
}

// QuoteString renders s as a single-quoted literal, doubling embedded quotes.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// InlineList is a {a, b, ...} list constructor.
type InlineList struct {
	pos
	readOnly
	elements []Node
}

func NewInlineList(elements []Node, position int) *InlineList {
	return &InlineList{pos: pos(position), elements: elements}
}

func (l *InlineList) Evaluate(scope Scope) (types.TypedValue, error) {
	out := make([]interface{}, 0, len(l.elements))
	for _, e := range l.elements {
		tv, err := e.Evaluate(scope)
		if err != nil {
			return types.TypedValue{}, err
		}
		out = append(out, tv.Value)
	}
	return types.TypedValueOf(out), nil
}

func (l *InlineList) Assign(Scope, types.TypedValue) error {
	return notWritable(l)
}

func (l *InlineList) String() string {
	parts := make([]string, len(l.elements))
	for i, e := range l.elements {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
