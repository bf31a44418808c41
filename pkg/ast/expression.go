package ast

// Expression is a compiled expression.
//
// An Expression can be evaluated any number of times against different
// scopes. It is safe for concurrent use by multiple goroutines, each with
// its own scope.
type Expression struct {
	root   Node
	source string
}

// NewExpression creates a new Expression from a parsed tree.
func NewExpression(root Node, source string) *Expression {
	return &Expression{
		root:   root,
		source: source,
	}
}

// AST returns the root node of the expression.
func (e *Expression) AST() Node {
	return e.root
}

// Source returns the original source code of the expression.
func (e *Expression) Source() string {
	return e.source
}

// String returns the original source code of the expression.
func (e *Expression) String() string {
	return e.source
}
