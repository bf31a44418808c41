// Package evaluator runs compiled expressions against data.
//
// The evaluator owns everything around a single evaluation: it builds the
// EvalContext (root object, active-object stack, variable namespace),
// applies the deadline, walks the tree and presents failures. It supports:
//   - One-shot evaluation against a root object
//   - Evaluation with caller-supplied variable bindings
//   - Evaluation inside a caller-owned, reusable EvalContext
//   - Writing a value through an assignable expression
//   - Expression caching, Prometheus metrics and debug tracing
//
// # Example
//
//	ev := evaluator.New()
//	result, err := ev.Eval(ctx, expr, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// An Evaluator is safe for concurrent use: each call builds its own
// EvalContext. An EvalContext passed to EvalIn or SetValue must not be
// shared between goroutines.
package evaluator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sandrolain/gospel/pkg/ast"
	"github.com/sandrolain/gospel/pkg/cache"
	"github.com/sandrolain/gospel/pkg/diag"
	"github.com/sandrolain/gospel/pkg/metrics"
	"github.com/sandrolain/gospel/pkg/parser"
	"github.com/sandrolain/gospel/pkg/types"
)

// Evaluator evaluates expressions against data.
type Evaluator struct {
	opts    EvalOptions
	logger  *slog.Logger
	cache   *cache.Cache // non-nil when Caching is enabled
	metrics *metrics.Metrics
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables expression compilation caching.
	// When true, compiled expressions are cached by query string.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached expressions.
	// Only used when Caching is true and no explicit Cache is provided.
	// Defaults to 256.
	CacheSize int
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// Timeout sets evaluation timeout.
	Timeout time.Duration
	// Debug enables tracing of variable and active-object accesses.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Metrics receives evaluation and cache counters. Nil disables them.
	Metrics *metrics.Metrics
	// Suggestions adds a "did you mean" hint to unresolved-variable errors.
	Suggestions bool
	// CompileOptions are passed to the parser by Compile and EvalQuery.
	CompileOptions []parser.CompileOption
}

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Caching:     false, // Disabled by default
		Timeout:     30 * time.Second,
		Suggestions: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	// Initialise expression cache when caching is enabled.
	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		c = cache.New(options.CacheSize)
	}

	return &Evaluator{
		opts:    options,
		logger:  options.Logger,
		cache:   c,
		metrics: options.Metrics,
	}
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Compile parses query, going through the cache when one is configured.
func (e *Evaluator) Compile(query string) (*ast.Expression, error) {
	compile := func() (*ast.Expression, error) {
		return parser.Compile(query, e.opts.CompileOptions...)
	}
	if e.cache == nil {
		return compile()
	}
	expr, hit, err := e.cache.GetOrCompile(query, compile)
	if err == nil {
		e.metrics.CacheLookup(hit)
	}
	return expr, err
}

// EvalQuery compiles query (see Compile) and evaluates it against data.
func (e *Evaluator) EvalQuery(ctx context.Context, query string, data interface{}) (interface{}, error) {
	expr, err := e.Compile(query)
	if err != nil {
		return nil, err
	}
	return e.Eval(ctx, expr, data)
}

// Eval evaluates an expression with data as both the root and the initial
// active object.
func (e *Evaluator) Eval(ctx context.Context, expr *ast.Expression, data interface{}) (interface{}, error) {
	return e.EvalWithBindings(ctx, expr, data, nil)
}

// EvalWithBindings evaluates an expression with custom variable bindings.
func (e *Evaluator) EvalWithBindings(ctx context.Context, expr *ast.Expression, data interface{}, bindings map[string]interface{}) (interface{}, error) {
	evalCtx := NewContext(data)
	if err := evalCtx.SetVariables(bindings); err != nil {
		return nil, err
	}
	tv, err := e.EvalIn(ctx, expr, evalCtx)
	if err != nil {
		return nil, err
	}
	return convertNullToNil(tv.Value), nil
}

// EvalIn evaluates an expression inside a caller-owned context. Variables
// assigned by the expression stay in evalCtx for later evaluations.
func (e *Evaluator) EvalIn(ctx context.Context, expr *ast.Expression, evalCtx *EvalContext) (types.TypedValue, error) {
	return e.run(ctx, expr, evalCtx, func(scope ast.Scope) (types.TypedValue, error) {
		return expr.AST().Evaluate(scope)
	})
}

// SetValue writes value through expr, which must be writable in evalCtx
// (a variable other than #this and #root, a map property, an index).
func (e *Evaluator) SetValue(ctx context.Context, expr *ast.Expression, evalCtx *EvalContext, value interface{}) error {
	_, err := e.run(ctx, expr, evalCtx, func(scope ast.Scope) (types.TypedValue, error) {
		root := expr.AST()
		if !root.IsWritable(scope) {
			return types.TypedValue{}, types.Errorf(types.ErrNotWritable, root.Position(),
				"%s is not assignable", root).WithToken(root.String())
		}
		return types.TypedValue{}, root.Assign(scope, types.TypedValueOf(value))
	})
	return err
}

// IsWritable reports whether SetValue may write through expr in evalCtx.
func (e *Evaluator) IsWritable(expr *ast.Expression, evalCtx *EvalContext) bool {
	if expr == nil || expr.AST() == nil {
		return false
	}
	return expr.AST().IsWritable(evalCtx)
}

// run wraps one top-level evaluation: deadline, tracing, error
// presentation and metrics.
func (e *Evaluator) run(ctx context.Context, expr *ast.Expression, evalCtx *EvalContext, fn func(ast.Scope) (types.TypedValue, error)) (types.TypedValue, error) {
	if expr == nil || expr.AST() == nil {
		return types.TypedValue{}, types.NewError(types.ErrInvalidExpression, "invalid expression", -1)
	}

	// Apply timeout if configured
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	defer evalCtx.bind(ctx)()

	var scope ast.Scope = evalCtx
	if e.opts.Debug {
		scope = &tracingScope{EvalContext: evalCtx, logger: e.logger}
		e.logger.Debug("evaluating expression", "expression", expr.Source(), "context", evalCtx.String())
	}

	start := time.Now()
	var tv types.TypedValue
	err := ctx.Err()
	if err != nil {
		err = types.NewError(types.ErrEvaluationCanceled, "evaluation canceled", -1).WithCause(err)
	} else {
		tv, err = fn(scope)
	}
	if err != nil {
		err = e.present(err, evalCtx)
	}
	e.metrics.ObserveEvaluation(time.Since(start), string(types.KindOf(err)), err != nil)
	return tv, err
}

// present decorates an evaluation error before it reaches the caller.
func (e *Evaluator) present(err error, evalCtx *EvalContext) error {
	var unresolved *types.UnresolvedVariableError
	if e.opts.Suggestions && errors.As(err, &unresolved) && unresolved.Suggestion == "" {
		unresolved.Suggestion = diag.Suggest(unresolved.Name, evalCtx.VariableNames())
	}
	if e.opts.Debug {
		e.logger.Debug("evaluation failed", "kind", types.KindOf(err), "error", err)
	}
	return err
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables expression compilation caching.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithTimeout sets the evaluation timeout. Zero disables it.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMetrics records evaluations in m.
func WithMetrics(m *metrics.Metrics) EvalOption {
	return func(opts *EvalOptions) {
		opts.Metrics = m
	}
}

// WithSuggestions enables or disables "did you mean" hints on
// unresolved-variable errors. Enabled by default.
func WithSuggestions(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Suggestions = enabled
	}
}

// WithCompileOptions sets the parser options used by Compile and EvalQuery.
func WithCompileOptions(copts ...parser.CompileOption) EvalOption {
	return func(opts *EvalOptions) {
		opts.CompileOptions = append(opts.CompileOptions, copts...)
	}
}

// convertNullToNil recursively converts types.Null to nil in result values.
// types.Null is kept during evaluation to tell a bound null from an absent
// value and is only converted for the external API.
func convertNullToNil(value interface{}) interface{} {
	switch v := value.(type) {
	case types.Null:
		return nil
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = convertNullToNil(item)
		}
		return result
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, item := range v {
			result[key] = convertNullToNil(item)
		}
		return result
	default:
		return value
	}
}
