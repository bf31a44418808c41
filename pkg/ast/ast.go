// Package ast defines the expression tree and the contract every node
// implements.
//
// A Node never stores the Scope it is evaluated in: the scope is passed to
// every Evaluate, Assign and IsWritable call, so one parsed tree can be
// evaluated against many independent scopes, including from several
// goroutines at once as long as each goroutine owns its scope.
//
// The reference nodes (see VariableReference) read the three pieces of
// state a Scope exposes: the active context object (#this), the root
// context object (#root) and the variable namespace (#name).
package ast

import (
	"github.com/sandrolain/gospel/pkg/types"
)

// Scope is the evaluation state a node reads and writes.
//
// The active-object stack is never empty while a node is evaluating: the
// root object is pushed as the first active object. Implementations are not
// required to be safe for concurrent use.
type Scope interface {
	// ActiveContextObject returns the top of the active-object stack.
	ActiveContextObject() types.TypedValue
	// RootContextObject returns the root object, fixed for the whole evaluation.
	RootContextObject() types.TypedValue
	// LookupVariable returns the value bound to name. The boolean is false
	// when name is unbound; a bound null is reported as found.
	LookupVariable(name string) (types.TypedValue, bool)
	// SetVariable binds name to value, creating the binding if needed.
	// It fails only when name is not a valid variable name.
	SetVariable(name string, value types.TypedValue) error
	// PushActiveContextObject makes value the active object until the
	// matching PopActiveContextObject.
	PushActiveContextObject(value types.TypedValue)
	// PopActiveContextObject undoes the latest push.
	PopActiveContextObject()
	// Canceled returns a non-nil error once the evaluation deadline has
	// passed or the caller canceled it.
	Canceled() error
}

// Node is implemented by every kind of expression tree node.
type Node interface {
	// Evaluate computes the node's value in scope.
	Evaluate(scope Scope) (types.TypedValue, error)
	// Assign writes value through the node. Callers must check IsWritable
	// first.
	Assign(scope Scope, value types.TypedValue) error
	// IsWritable reports whether Assign may be called in scope.
	IsWritable(scope Scope) bool
	// Position is the 0-based byte offset of the node in the source, or -1.
	Position() int
	// String renders the node back to canonical source text.
	String() string
}

// pos carries a node's source position.
type pos int

func (p pos) Position() int {
	return int(p)
}

// readOnly supplies the Assign and IsWritable methods of nodes that can
// never be assigned to.
type readOnly struct{}

func (readOnly) IsWritable(Scope) bool {
	return false
}

// notWritable builds the error returned when a read-only node is assigned.
func notWritable(n Node) error {
	return types.Errorf(types.ErrNotWritable, n.Position(), "%s is not assignable", n.String()).
		WithToken(n.String())
}

// evaluateWith evaluates n with active pushed as the active context object
// and restores the stack before returning, also when n fails.
func evaluateWith(scope Scope, active types.TypedValue, n Node) (types.TypedValue, error) {
	scope.PushActiveContextObject(active)
	defer scope.PopActiveContextObject()
	return n.Evaluate(scope)
}
