// Package gospel provides an embeddable expression language for Go.
//
// Expressions navigate and transform Go values (maps, slices, structs)
// and work with three kinds of references:
//   - #this: the current object, rebound inside projections and selections
//   - #root: the object the evaluation was started against
//   - #name: a variable of the evaluation's namespace, created on first assignment
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := gospel.Eval("#root.name", data)
//
//	// Compile once, evaluate many times
//	expr, err := gospel.Compile("items.?[price > 100]")
//	ev := evaluator.New()
//	result1, _ := ev.Eval(ctx, expr, data1)
//	result2, _ := ev.Eval(ctx, expr, data2)
//
//	// With options
//	result, err := gospel.Eval("#total = items.![price]", data,
//	    gospel.WithTimeout(5*time.Second),
//	)
//
// # Variables across expressions
//
// An evaluator.EvalContext can be kept and reused so that variables
// assigned by one expression are visible to the next:
//
//	evalCtx := evaluator.NewContext(data)
//	ev.EvalIn(ctx, gospel.MustCompile("#count = 5"), evalCtx)
//	ev.EvalIn(ctx, gospel.MustCompile("#count * 2"), evalCtx) // 10
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/gospel/pkg/parser
//   - Nodes and reference resolution: github.com/sandrolain/gospel/pkg/ast
//   - Evaluator: github.com/sandrolain/gospel/pkg/evaluator
//   - Types and errors: github.com/sandrolain/gospel/pkg/types
package gospel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandrolain/gospel/pkg/ast"
	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/metrics"
	"github.com/sandrolain/gospel/pkg/parser"
)

// Version returns the current version of gospel.
func Version() string {
	return "v0.1.0-dev"
}

// EvalOption configures evaluation behavior.
type EvalOption = evaluator.EvalOption

// WithTimeout sets the evaluation timeout.
func WithTimeout(timeout time.Duration) EvalOption {
	return evaluator.WithTimeout(timeout)
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return evaluator.WithDebug(enabled)
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return evaluator.WithLogger(logger)
}

// WithMetrics records evaluations in m.
func WithMetrics(m *metrics.Metrics) EvalOption {
	return evaluator.WithMetrics(m)
}

// Compile compiles an expression for repeated evaluation.
//
// The compiled expression can be evaluated multiple times against different
// data. It is safe for concurrent use.
func Compile(query string, opts ...parser.CompileOption) (*ast.Expression, error) {
	return parser.Compile(query, opts...)
}

// Eval is a convenience function that compiles and evaluates an expression
// in a single call.
//
// For repeated evaluations of the same expression, use Compile instead.
func Eval(query string, data interface{}, opts ...EvalOption) (interface{}, error) {
	return EvalWithContext(context.Background(), query, data, opts...)
}

// EvalWithContext evaluates an expression with a custom context.
func EvalWithContext(ctx context.Context, query string, data interface{}, opts ...EvalOption) (interface{}, error) {
	expr, err := Compile(query)
	if err != nil {
		return nil, err
	}

	eval := evaluator.New(opts...)
	return eval.Eval(ctx, expr, data)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(query string) *ast.Expression {
	expr, err := Compile(query)
	if err != nil {
		panic(fmt.Sprintf("gospel: Compile(%q): %v", query, err))
	}
	return expr
}
