package ast_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/ast"
	"github.com/sandrolain/gospel/pkg/types"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		kind     ast.ReferenceKind
		reserved bool
	}{
		{"this", ast.RefActiveObject, true},
		{"root", ast.RefRootObject, true},
		{"count", ast.RefNamedVariable, false},
		{"This", ast.RefNamedVariable, false},
		{"ROOT", ast.RefNamedVariable, false},
		{"thisx", ast.RefNamedVariable, false},
		{"_root", ast.RefNamedVariable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ast.Resolve(tt.name)
			assert.Equal(t, tt.kind, ref.Kind())
			assert.Equal(t, tt.reserved, ref.Reserved())
			assert.Equal(t, tt.reserved, ast.IsReserved(tt.name))
			assert.Equal(t, tt.name, ref.Name())
			assert.Equal(t, "#"+tt.name, ref.String())
		})
	}
}

func TestIsValidName(t *testing.T) {
	for _, name := range []string{"x", "count", "_tmp", "a1", "città"} {
		assert.True(t, ast.IsValidName(name), name)
	}
	for _, name := range []string{"", "1a", "a-b", "a b", "#a", "a.b"} {
		assert.False(t, ast.IsValidName(name), name)
	}
}

func TestVariableReferenceScenario(t *testing.T) {
	root := map[string]interface{}{"id": 1.0}
	scope := newScope(root)

	this := ast.NewVariableReference("this", 0)
	rootRef := ast.NewVariableReference("root", 0)
	count := ast.NewVariableReference("count", 0)

	tv, err := rootRef.Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, root, tv.Value)

	tv, err = this.Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, root, tv.Value)

	_, err = count.Evaluate(scope)
	var unresolved *types.UnresolvedVariableError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "count", unresolved.Name)
	assert.Equal(t, 0, unresolved.Position)

	require.True(t, count.IsWritable(scope))
	require.NoError(t, count.Assign(scope, types.TypedValueOf(5.0)))
	tv, err = count.Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, 5.0, tv.Value)

	assert.False(t, rootRef.IsWritable(scope))
	assert.False(t, this.IsWritable(scope))
}

func TestThisFollowsActiveStack(t *testing.T) {
	scope := newScope("root")
	this := ast.NewVariableReference("this", 0)
	rootRef := ast.NewVariableReference("root", 6)

	scope.PushActiveContextObject(types.TypedValueOf("inner"))
	tv, err := this.Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "inner", tv.Value)

	tv, err = rootRef.Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "root", tv.Value)

	scope.PopActiveContextObject()
	tv, err = this.Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "root", tv.Value)
}

func TestReservedNamesShadowBindings(t *testing.T) {
	scope := newScope("root")
	scope.vars["this"] = types.TypedValueOf("shadow")
	scope.vars["root"] = types.TypedValueOf("shadow")

	tv, err := ast.NewVariableReference("this", 0).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "root", tv.Value)

	tv, err = ast.NewVariableReference("root", 0).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "root", tv.Value)
}

func TestStoredNullIsNotUnresolved(t *testing.T) {
	scope := newScope(nil)
	scope.vars["x"] = types.NullTypedValue

	tv, err := ast.NewVariableReference("x", 0).Evaluate(scope)
	require.NoError(t, err)
	assert.True(t, tv.IsNull())

	_, err = ast.NewVariableReference("y", 3).Evaluate(scope)
	assert.True(t, errors.Is(err, &types.UnresolvedVariableError{}))
	assert.Equal(t, types.ErrVariableNotFound, types.KindOf(err))
	assert.EqualError(t, err, "E1001 at position 3: variable '#y' not found")
}

func TestUnresolvedLeavesStateUntouched(t *testing.T) {
	scope := newScope("root")
	_, err := ast.NewVariableReference("missing", 0).Evaluate(scope)
	require.Error(t, err)
	assert.Empty(t, scope.vars)
	assert.Equal(t, 0, scope.depth())
}

func TestAssignReservedIsRejected(t *testing.T) {
	scope := newScope("root")
	for _, name := range []string{"this", "root"} {
		ref := ast.NewVariableReference(name, 2)
		err := ref.Assign(scope, types.TypedValueOf(1.0))
		require.Error(t, err)
		assert.Equal(t, types.ErrNotWritable, types.KindOf(err))
		assert.Contains(t, err.Error(), "#"+name)
	}
	assert.Empty(t, scope.vars)
	tv, _ := ast.NewVariableReference("root", 0).Evaluate(scope)
	assert.Equal(t, "root", tv.Value)
}

func TestAssignOverwritesAndNamesAreCaseSensitive(t *testing.T) {
	scope := newScope(nil)
	x := ast.NewVariableReference("x", 0)
	require.NoError(t, x.Assign(scope, types.TypedValueOf(1.0)))
	require.NoError(t, x.Assign(scope, types.TypedValueOf("two")))

	tv, err := x.Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "two", tv.Value)

	_, err = ast.NewVariableReference("X", 0).Evaluate(scope)
	assert.Error(t, err)
}

func TestAssignInvalidNameCarriesPosition(t *testing.T) {
	scope := newScope(nil)
	err := ast.NewVariableReference("1x", 4).Assign(scope, types.TypedValueOf(1.0))
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.ErrInvalidVariableName, e.Code)
	assert.Equal(t, 4, e.Position)
}

func TestVariableReferenceString(t *testing.T) {
	assert.Equal(t, "#this", ast.NewVariableReference("this", 0).String())
	assert.Equal(t, "#root", ast.NewVariableReference("root", 0).String())
	assert.Equal(t, "#count", ast.NewVariableReference("count", 0).String())
	assert.Equal(t, 7, ast.NewVariableReference("count", 7).Position())
	assert.Equal(t, "count", ast.NewVariableReference("count", 7).Name())
}
