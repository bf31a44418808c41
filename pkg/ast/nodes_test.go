package ast_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/ast"
	"github.com/sandrolain/gospel/pkg/types"
)

func lit(v interface{}) ast.Node {
	return ast.NewLiteral(v, 0)
}

func prop(name string) ast.Node {
	return ast.NewPropertyReference(name, 0)
}

func path(steps ...ast.Node) ast.Node {
	return ast.NewCompoundExpression(steps, 0)
}

func catalog() map[string]interface{} {
	return map[string]interface{}{
		"name": "shop",
		"items": []interface{}{
			map[string]interface{}{"name": "foo", "price": 10.0},
			map[string]interface{}{"name": "bar", "price": 200.0},
		},
	}
}

func TestPropertyReference(t *testing.T) {
	type product struct {
		Name  string  `json:"name"`
		Price float64 `json:"price,omitempty"`
		Stock int
	}

	tests := []struct {
		name   string
		active interface{}
		prop   string
		want   interface{}
		code   types.ErrorCode
	}{
		{"map key", map[string]interface{}{"a": 1.0}, "a", 1.0, ""},
		{"missing map key", map[string]interface{}{"a": 1.0}, "b", types.NullValue, ""},
		{"typed map", map[string]int{"a": 2}, "a", 2, ""},
		{"struct json tag", product{Name: "foo"}, "name", "foo", ""},
		{"struct tag with options", product{Price: 3}, "price", 3.0, ""},
		{"struct field name", &product{Stock: 4}, "Stock", 4, ""},
		{"unknown struct field", product{}, "nope", nil, types.ErrPropertyNotFound},
		{"null", nil, "a", nil, types.ErrPropertyNotFound},
		{"number", 1.0, "a", nil, types.ErrPropertyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv, err := ast.NewPropertyReference(tt.prop, 5).Evaluate(newScope(tt.active))
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, types.KindOf(err))
				var e *types.Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 5, e.Position)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tv.Value)
		})
	}
}

func TestPropertyAssign(t *testing.T) {
	m := map[string]interface{}{}
	scope := newScope(m)
	p := ast.NewPropertyReference("a", 0)
	require.True(t, p.IsWritable(scope))
	require.NoError(t, p.Assign(scope, types.TypedValueOf("x")))
	assert.Equal(t, "x", m["a"])

	scope = newScope(1.0)
	assert.False(t, p.IsWritable(scope))
	assert.Equal(t, types.ErrNotWritable, types.KindOf(p.Assign(scope, types.TypedValueOf("x"))))
}

func TestIndexer(t *testing.T) {
	tests := []struct {
		name   string
		active interface{}
		index  interface{}
		want   interface{}
		code   types.ErrorCode
	}{
		{"list", []interface{}{"a", "b"}, 1.0, "b", ""},
		{"typed slice", []int{4, 5}, 0.0, 4, ""},
		{"string", "abc", 1.0, "b", ""},
		{"multibyte string", "città", 4.0, "à", ""},
		{"multibyte string end", "città", 5.0, nil, types.ErrIndexOutOfBounds},
		{"int index", []interface{}{"a", "b"}, 1, "b", ""},
		{"fractional index", []interface{}{"a", "b"}, 1.9, nil, types.ErrCannotConvertNumber},
		{"map", map[string]interface{}{"k": 1.0}, "k", 1.0, ""},
		{"missing map key", map[string]interface{}{}, "k", types.NullValue, ""},
		{"out of bounds", []interface{}{"a"}, 1.0, nil, types.ErrIndexOutOfBounds},
		{"negative", []interface{}{"a"}, -1.0, nil, types.ErrIndexOutOfBounds},
		{"string index on list", []interface{}{"a"}, "0", nil, types.ErrCannotConvertNumber},
		{"not indexable", true, 0.0, nil, types.ErrInvalidTypeOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv, err := ast.NewIndexer(lit(tt.index), 0).Evaluate(newScope(tt.active))
			if tt.code != "" {
				assert.Equal(t, tt.code, types.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tv.Value)
		})
	}
}

func TestIndexerAssign(t *testing.T) {
	list := []interface{}{"a", "b"}
	scope := newScope(list)
	ix := ast.NewIndexer(lit(1.0), 0)
	require.True(t, ix.IsWritable(scope))
	require.NoError(t, ix.Assign(scope, types.TypedValueOf("z")))
	assert.Equal(t, []interface{}{"a", "z"}, list)

	scope = newScope("abc")
	assert.False(t, ix.IsWritable(scope))
}

func TestCompoundExpression(t *testing.T) {
	scope := newScope(catalog())

	tv, err := path(prop("items"), ast.NewIndexer(lit(1.0), 0), prop("name")).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "bar", tv.Value)
	assert.Equal(t, 0, scope.depth())

	tv, err = path(ast.NewVariableReference("root", 0), prop("name")).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "shop", tv.Value)
}

func TestCompoundAssign(t *testing.T) {
	data := catalog()
	scope := newScope(data)
	target := path(ast.NewVariableReference("root", 0), prop("items"), ast.NewIndexer(lit(0.0), 0), prop("price"))

	require.True(t, target.IsWritable(scope))
	require.NoError(t, target.Assign(scope, types.TypedValueOf(11.0)))
	assert.Equal(t, 11.0, data["items"].([]interface{})[0].(map[string]interface{})["price"])
	assert.Equal(t, 0, scope.depth())

	readOnly := path(prop("name"), prop("length"))
	assert.False(t, readOnly.IsWritable(scope))
	assert.Equal(t, 0, scope.depth())
}

func TestProjection(t *testing.T) {
	scope := newScope(catalog())

	tv, err := path(prop("items"), ast.NewProjection(prop("price"), 0)).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{10.0, 200.0}, tv.Value)

	// #this is the element, #root stays the document.
	both := ast.NewInlineList([]ast.Node{
		path(ast.NewVariableReference("this", 0), prop("name")),
		path(ast.NewVariableReference("root", 0), prop("name")),
	}, 0)
	tv, err = path(prop("items"), ast.NewProjection(both, 0)).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		[]interface{}{"foo", "shop"},
		[]interface{}{"bar", "shop"},
	}, tv.Value)
	assert.Equal(t, 0, scope.depth())
}

func TestProjectionRestoresStackOnError(t *testing.T) {
	scope := newScope(catalog())
	_, err := path(prop("items"), ast.NewProjection(ast.NewVariableReference("missing", 12), 0)).Evaluate(scope)
	var unresolved *types.UnresolvedVariableError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, 12, unresolved.Position)
	assert.Equal(t, 0, scope.depth())
}

func TestProjectionNotACollection(t *testing.T) {
	_, err := ast.NewProjection(prop("x"), 3).Evaluate(newScope(1.0))
	assert.Equal(t, types.ErrNotACollection, types.KindOf(err))
}

func TestSelection(t *testing.T) {
	gt := func(limit float64) ast.Node {
		return ast.NewBinaryOp(ast.OpGreater, prop("price"), lit(limit), 0)
	}
	items := catalog()["items"].([]interface{})

	tests := []struct {
		name string
		mode ast.SelectionMode
		pred ast.Node
		want interface{}
	}{
		{"all", ast.SelectAll, gt(100), []interface{}{items[1]}},
		{"all none", ast.SelectAll, gt(1000), []interface{}{}},
		{"first", ast.SelectFirst, gt(0), items[0]},
		{"last", ast.SelectLast, gt(0), items[1]},
		{"first none", ast.SelectFirst, gt(1000), types.NullValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := newScope(items)
			tv, err := ast.NewSelection(tt.mode, tt.pred, 0).Evaluate(scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tv.Value)
			assert.Equal(t, 0, scope.depth())
		})
	}
}

func TestSelectionOnMap(t *testing.T) {
	m := map[string]interface{}{"a": 1.0, "b": 2.0, "c": 3.0}
	pred := ast.NewBinaryOp(ast.OpGreater, prop("value"), lit(1.0), 0)

	tv, err := ast.NewSelection(ast.SelectAll, pred, 0).Evaluate(newScope(m))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"b": 2.0, "c": 3.0}, tv.Value)

	tv, err = ast.NewSelection(ast.SelectFirst, pred, 0).Evaluate(newScope(m))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"b": 2.0}, tv.Value)
}

func TestSelectionRequiresBoolean(t *testing.T) {
	_, err := ast.NewSelection(ast.SelectAll, prop("price"), 0).Evaluate(newScope(catalog()["items"]))
	assert.Equal(t, types.ErrInvalidTypeOperation, types.KindOf(err))
}

func TestCollectionStepsStopWhenCanceled(t *testing.T) {
	scope := newScope(catalog())
	scope.err = context.Canceled

	_, err := path(prop("items"), ast.NewProjection(prop("price"), 0)).Evaluate(scope)
	assert.Equal(t, types.ErrEvaluationCanceled, types.KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, scope.depth())
}

func TestAssignNode(t *testing.T) {
	scope := newScope(map[string]interface{}{"name": "a"})

	tv, err := ast.NewAssign(ast.NewVariableReference("x", 0), lit(5.0), 3).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, 5.0, tv.Value)
	assert.Equal(t, 5.0, scope.vars["x"].Value)

	tv, err = ast.NewAssign(path(ast.NewVariableReference("root", 0), prop("name")), lit("b"), 0).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "b", tv.Value)
	assert.Equal(t, "b", scope.root.Value.(map[string]interface{})["name"])
}

// countingNode counts the evaluations of the node it wraps.
type countingNode struct {
	ast.Node
	evaluated int
}

func (n *countingNode) Evaluate(scope ast.Scope) (types.TypedValue, error) {
	n.evaluated++
	return n.Node.Evaluate(scope)
}

func TestAssignNodeEvaluatesPathPrefixOnce(t *testing.T) {
	data := catalog()
	scope := newScope(data)
	items := &countingNode{Node: prop("items")}

	tv, err := ast.NewAssign(path(items, ast.NewIndexer(lit(0.0), 0)), lit("x"), 0).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "x", tv.Value)
	assert.Equal(t, "x", data["items"].([]interface{})[0])
	assert.Equal(t, 1, items.evaluated)
	assert.Equal(t, 0, scope.depth())

	name := &countingNode{Node: prop("name")}
	_, err = ast.NewAssign(path(name, prop("length")), ast.NewVariableReference("missing", 0), 0).Evaluate(scope)
	assert.Equal(t, types.ErrNotWritable, types.KindOf(err))
	assert.Equal(t, 1, name.evaluated)
	assert.Equal(t, 0, scope.depth())
}

func TestAssignNodeRejectsBeforeEvaluatingValue(t *testing.T) {
	scope := newScope(nil)
	// The value would fail with E1001 if it were evaluated.
	node := ast.NewAssign(ast.NewVariableReference("root", 0), ast.NewVariableReference("missing", 8), 6)
	_, err := node.Evaluate(scope)
	assert.Equal(t, types.ErrNotWritable, types.KindOf(err))
	assert.Empty(t, scope.vars)
}

func TestBinaryOp(t *testing.T) {
	tests := []struct {
		op   ast.Operator
		l, r interface{}
		want interface{}
		code types.ErrorCode
	}{
		{ast.OpAdd, 1.0, 2.0, 3.0, ""},
		{ast.OpAdd, "a", 1.0, "a1", ""},
		{ast.OpAdd, 1, 2.5, 3.5, ""},
		{ast.OpAdd, "a", nil, "anull", ""},
		{ast.OpAdd, nil, "b", "nullb", ""},
		{ast.OpSubtract, 5.0, 7.0, -2.0, ""},
		{ast.OpMultiply, "3", 2.0, 6.0, ""},
		{ast.OpDivide, 7.0, 2.0, 3.5, ""},
		{ast.OpDivide, 1.0, 0.0, nil, types.ErrInvalidTypeOperation},
		{ast.OpModulus, 7.0, 4.0, 3.0, ""},
		{ast.OpSubtract, "x", 1.0, nil, types.ErrCannotConvertString},
		{ast.OpMultiply, true, 1.0, nil, types.ErrInvalidTypeOperation},
		{ast.OpEqual, 1.0, 1, true, ""},
		{ast.OpEqual, nil, nil, true, ""},
		{ast.OpNotEqual, "a", "b", true, ""},
		{ast.OpLess, 1.0, 2.0, true, ""},
		{ast.OpLessEqual, 2.0, 2.0, true, ""},
		{ast.OpGreater, "b", "a", true, ""},
		{ast.OpGreaterEqual, 1.0, 2.0, false, ""},
		{ast.OpLess, 1.0, "a", nil, types.ErrInvalidTypeOperation},
		{ast.OpAnd, true, false, false, ""},
		{ast.OpOr, false, "true", true, ""},
		{ast.OpAnd, 1.0, true, nil, types.ErrCannotConvertBoolean},
	}
	for _, tt := range tests {
		node := ast.NewBinaryOp(tt.op, lit(tt.l), lit(tt.r), 0)
		t.Run(node.String(), func(t *testing.T) {
			tv, err := node.Evaluate(newScope(nil))
			if tt.code != "" {
				assert.Equal(t, tt.code, types.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tv.Value)
		})
	}
}

func TestLogicalOperatorsShortCircuit(t *testing.T) {
	missing := ast.NewVariableReference("missing", 0)

	tv, err := ast.NewBinaryOp(ast.OpAnd, lit(false), missing, 0).Evaluate(newScope(nil))
	require.NoError(t, err)
	assert.Equal(t, false, tv.Value)

	tv, err = ast.NewBinaryOp(ast.OpOr, lit(true), missing, 0).Evaluate(newScope(nil))
	require.NoError(t, err)
	assert.Equal(t, true, tv.Value)

	_, err = ast.NewBinaryOp(ast.OpOr, lit(false), missing, 0).Evaluate(newScope(nil))
	assert.Equal(t, types.ErrVariableNotFound, types.KindOf(err))
}

func TestUnaryAndTernary(t *testing.T) {
	scope := newScope(nil)

	tv, err := ast.NewNot(lit(true), 0).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, false, tv.Value)

	tv, err = ast.NewNegate(lit(5.0), 0).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, -5.0, tv.Value)

	tv, err = ast.NewTernary(lit(false), lit("a"), lit("b"), 0).Evaluate(scope)
	require.NoError(t, err)
	assert.Equal(t, "b", tv.Value)

	_, err = ast.NewTernary(lit(1.0), lit("a"), lit("b"), 0).Evaluate(scope)
	assert.Equal(t, types.ErrCannotConvertBoolean, types.KindOf(err))
}

func TestReadOnlyNodes(t *testing.T) {
	scope := newScope(catalog())
	for _, n := range []ast.Node{
		lit(1.0),
		ast.NewInlineList(nil, 0),
		ast.NewBinaryOp(ast.OpAdd, lit(1.0), lit(2.0), 0),
		ast.NewNot(lit(true), 0),
		ast.NewTernary(lit(true), lit(1.0), lit(2.0), 0),
		ast.NewProjection(prop("price"), 0),
		ast.NewSelection(ast.SelectAll, lit(true), 0),
		ast.NewAssign(ast.NewVariableReference("x", 0), lit(1.0), 0),
	} {
		assert.False(t, n.IsWritable(scope), n.String())
		assert.Equal(t, types.ErrNotWritable, types.KindOf(n.Assign(scope, types.NullTypedValue)), n.String())
	}
}

func TestNodeString(t *testing.T) {
	tests := []struct {
		node ast.Node
		want string
	}{
		{lit("it's"), "'it''s'"},
		{lit(1.5), "1.5"},
		{lit(true), "true"},
		{lit(nil), "null"},
		{ast.NewInlineList([]ast.Node{lit(1.0), lit("a")}, 0), "{1,'a'}"},
		{path(prop("a"), ast.NewIndexer(lit(0.0), 0), prop("b")), "a[0].b"},
		{path(prop("items"), ast.NewProjection(prop("price"), 0)), "items.![price]"},
		{ast.NewSelection(ast.SelectFirst, lit(true), 0), "^[true]"},
		{ast.NewSelection(ast.SelectLast, lit(true), 0), "$[true]"},
		{ast.NewAssign(ast.NewVariableReference("x", 0), lit(1.0), 0), "(#x = 1)"},
		{path(ast.NewAssign(ast.NewVariableReference("x", 0), lit(1.0), 0), prop("y")), "(#x = 1).y"},
		{ast.NewBinaryOp(ast.OpAnd, lit(true), lit(false), 0), "(true and false)"},
		{ast.NewNegate(prop("x"), 0), "-x"},
		{ast.NewNegate(path(prop("a"), prop("b")), 0), "-a.b"},
		{path(ast.NewNegate(prop("a"), 0), prop("b")), "(-a).b"},
		{path(lit(-1.0), prop("b")), "(-1).b"},
		{ast.NewNot(ast.NewIndexer(lit(0.0), 0), 0), "!([0])"},
		{ast.NewNot(ast.NewProjection(prop("x"), 0), 0), "!![x]"},
		{ast.NewTernary(prop("c"), lit(1.0), lit(2.0), 0), "(c ? 1 : 2)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.node.String())
	}
}

func TestExpression(t *testing.T) {
	root := ast.NewVariableReference("root", 0)
	expr := ast.NewExpression(root, "#root")
	assert.Same(t, root, expr.AST())
	assert.Equal(t, "#root", expr.Source())
	assert.Equal(t, "#root", expr.String())
}
