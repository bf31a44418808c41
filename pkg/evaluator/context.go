package evaluator

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/sandrolain/gospel/pkg/ast"
	"github.com/sandrolain/gospel/pkg/types"
)

// EvalContext maintains evaluation state: the root object (#root), the stack
// of active objects (#this) and the variable namespace (#name).
//
// An EvalContext is usually built once per evaluation by the Evaluator. A
// host that wants variables to survive from one expression to the next may
// build one with NewContext and pass it to Evaluator.EvalIn repeatedly.
// EvalContext is not safe for concurrent use.
type EvalContext struct {
	root   types.TypedValue
	active []types.TypedValue

	// bindings stores variable assignments. Names are case-sensitive.
	bindings map[string]types.TypedValue

	ctx context.Context
}

var _ ast.Scope = (*EvalContext)(nil)

// NewContext creates a new evaluation context whose root, and initial active
// object, is root.
func NewContext(root interface{}) *EvalContext {
	tv := types.TypedValueOf(root)
	return &EvalContext{
		root:     tv,
		active:   []types.TypedValue{tv},
		bindings: make(map[string]types.TypedValue),
		ctx:      context.Background(),
	}
}

// ActiveContextObject returns the current top of the active-object stack.
func (c *EvalContext) ActiveContextObject() types.TypedValue {
	return c.active[len(c.active)-1]
}

// RootContextObject returns the root object.
func (c *EvalContext) RootContextObject() types.TypedValue {
	return c.root
}

// PushActiveContextObject makes value the active object.
func (c *EvalContext) PushActiveContextObject(value types.TypedValue) {
	c.active = append(c.active, value)
}

// PopActiveContextObject restores the previous active object. Popping the
// root is a bug in the calling node and panics.
func (c *EvalContext) PopActiveContextObject() {
	if len(c.active) == 1 {
		panic("evaluator: pop of the root active context object")
	}
	c.active[len(c.active)-1] = types.TypedValue{}
	c.active = c.active[:len(c.active)-1]
}

// Depth returns the number of active objects pushed above the root.
func (c *EvalContext) Depth() int {
	return len(c.active) - 1
}

// LookupVariable retrieves a variable binding.
func (c *EvalContext) LookupVariable(name string) (types.TypedValue, bool) {
	tv, ok := c.bindings[name]
	return tv, ok
}

// SetVariable binds name to value. Names must be valid identifiers and may
// not be one of the reserved context names.
func (c *EvalContext) SetVariable(name string, value types.TypedValue) error {
	if !ast.IsValidName(name) {
		return types.Errorf(types.ErrInvalidVariableName, -1, "invalid variable name %q", name).WithToken(name)
	}
	if ast.IsReserved(name) {
		return types.Errorf(types.ErrInvalidVariableName, -1, "variable name %q is reserved", name).WithToken(name)
	}
	if value.Value == nil {
		value = types.NullTypedValue
	}
	c.bindings[name] = value
	return nil
}

// SetVariables binds plain Go values, reporting every rejected name.
func (c *EvalContext) SetVariables(bindings map[string]interface{}) error {
	var err error
	for name, value := range bindings {
		err = multierr.Append(err, c.SetVariable(name, types.TypedValueOf(value)))
	}
	return err
}

// DeleteVariable removes a binding. It reports whether one existed.
func (c *EvalContext) DeleteVariable(name string) bool {
	_, ok := c.bindings[name]
	delete(c.bindings, name)
	return ok
}

// VariableNames returns the bound names in sorted order.
func (c *EvalContext) VariableNames() []string {
	names := make([]string, 0, len(c.bindings))
	for name := range c.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Canceled reports the error of the context bound for the running
// evaluation, if it is done.
func (c *EvalContext) Canceled() error {
	return c.ctx.Err()
}

// bind attaches ctx for one evaluation and returns a function restoring the
// previous one.
func (c *EvalContext) bind(ctx context.Context) func() {
	prev := c.ctx
	c.ctx = ctx
	return func() { c.ctx = prev }
}

// String returns a string representation of the context.
func (c *EvalContext) String() string {
	return fmt.Sprintf("Context{depth=%d, bindings=%d}", c.Depth(), len(c.bindings))
}
