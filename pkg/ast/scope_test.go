package ast_test

import (
	"github.com/sandrolain/gospel/pkg/ast"
	"github.com/sandrolain/gospel/pkg/types"
)

// stackScope is a minimal Scope used to exercise nodes in isolation.
type stackScope struct {
	root   types.TypedValue
	active []types.TypedValue
	vars   map[string]types.TypedValue
	err    error
	pushes int
}

var _ ast.Scope = (*stackScope)(nil)

func newScope(root interface{}) *stackScope {
	tv := types.TypedValueOf(root)
	return &stackScope{
		root:   tv,
		active: []types.TypedValue{tv},
		vars:   make(map[string]types.TypedValue),
	}
}

func (s *stackScope) ActiveContextObject() types.TypedValue {
	return s.active[len(s.active)-1]
}

func (s *stackScope) RootContextObject() types.TypedValue {
	return s.root
}

func (s *stackScope) LookupVariable(name string) (types.TypedValue, bool) {
	tv, ok := s.vars[name]
	return tv, ok
}

func (s *stackScope) SetVariable(name string, value types.TypedValue) error {
	if !ast.IsValidName(name) {
		return types.NewError(types.ErrInvalidVariableName, "invalid variable name", -1)
	}
	s.vars[name] = value
	return nil
}

func (s *stackScope) PushActiveContextObject(value types.TypedValue) {
	s.pushes++
	s.active = append(s.active, value)
}

func (s *stackScope) PopActiveContextObject() {
	s.active = s.active[:len(s.active)-1]
}

func (s *stackScope) Canceled() error {
	return s.err
}

func (s *stackScope) depth() int {
	return len(s.active) - 1
}
