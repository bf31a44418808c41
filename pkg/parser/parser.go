// Package parser turns expression source text into an ast.Expression.
//
// The parser uses a hand-written recursive descent approach with Pratt
// operator precedence, and reports errors with the byte offset of the
// offending token.
//
// # Architecture
//
// The parser consists of two components:
//   - Lexer: Tokenizes the input expression into a stream of tokens
//   - Parser: Builds the node tree from tokens
//
// # Example
//
//	expr, err := parser.Parse("#root.items.?[price > 100]")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	node := expr.AST()
//
// # Grammar
//
//	#name #this #root          variable references
//	name  a.b  a[0]            property access, paths, indexing
//	a.![expr]                  projection
//	a.?[pred] a.^[pred] a.$[pred]  selection (all, first, last)
//	{1, 'two', #x}             inline list
//	x = expr                   assignment
//	+ - * / %  == != < <= > >=  and or not !  c ? a : b
package parser

import (
	"github.com/sandrolain/gospel/pkg/ast"
)

// Parse parses an expression and returns the compiled Expression.
//
// The function tokenizes the input, builds the tree, and validates the
// syntax. If parsing fails, it returns a *types.Error with the position of
// the offending token.
func Parse(query string) (*ast.Expression, error) {
	p := NewParser(query)
	return p.Parse()
}

// Compile is Parse with options.
func Compile(query string, opts ...CompileOption) (*ast.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits expression nesting to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
