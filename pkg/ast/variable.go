package ast

import (
	"errors"

	"github.com/sandrolain/gospel/pkg/types"
)

// VariableReference is a #name reference. It reads the active object for
// #this, the root object for #root, and the variable namespace otherwise.
type VariableReference struct {
	pos
	ref Reference
}

// NewVariableReference builds a reference to name (given without the
// sigil) located at position.
func NewVariableReference(name string, position int) *VariableReference {
	return &VariableReference{pos: pos(position), ref: Resolve(name)}
}

// Name returns the referenced name without the sigil.
func (v *VariableReference) Name() string {
	return v.ref.name
}

// Reference returns the classification of the name.
func (v *VariableReference) Reference() Reference {
	return v.ref
}

// Evaluate resolves the reference anew on every call, since the active
// object may differ between calls.
func (v *VariableReference) Evaluate(scope Scope) (types.TypedValue, error) {
	switch v.ref.kind {
	case RefActiveObject:
		return scope.ActiveContextObject(), nil
	case RefRootObject:
		return scope.RootContextObject(), nil
	}
	if tv, ok := scope.LookupVariable(v.ref.name); ok {
		return tv, nil
	}
	return types.TypedValue{}, types.NewUnresolvedVariableError(v.ref.name, v.Position())
}

// Assign binds value to the variable. #this and #root are refused with
// ErrNotWritable.
func (v *VariableReference) Assign(scope Scope, value types.TypedValue) error {
	if v.ref.Reserved() {
		return notWritable(v)
	}
	err := scope.SetVariable(v.ref.name, value)
	var e *types.Error
	if errors.As(err, &e) && e.Position < 0 {
		e.Position = v.Position()
	}
	return err
}

// IsWritable is true for every named variable, bound or not.
func (v *VariableReference) IsWritable(Scope) bool {
	return !v.ref.Reserved()
}

func (v *VariableReference) String() string {
	return v.ref.String()
}
