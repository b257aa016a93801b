// Package jsexpr evaluates a safe subset of JavaScript expressions.
//
// Host applications hand it an expression source string together with a
// variable context and a registry of host-provided functions; it returns a
// dynamically typed JSON-compatible value or a structured error. Only
// side-effect-free expressions producing a value are evaluated: no
// statements, assignments, loops, or declarations.
//
//	eval := jsexpr.NewEvaluator(map[string]jsexpr.Value{
//	    "user_age":    jsexpr.Number(30),
//	    "user_status": jsexpr.String("active"),
//	}, nil)
//	result, err := eval.Evaluate("user_age >= 18 && user_status === 'active'")
//
// Arithmetic, comparison, and coercion never error: they follow the
// JavaScript coercion tables and produce NaN or ±Infinity where JavaScript
// would, which keeps evaluation predictable for rule engines.
package jsexpr

import "sync"

// ExprCache is a thread-safe cache for parsed expression trees. Trees are
// immutable once constructed, so cached entries may be shared freely across
// goroutines and evaluated many times.
type ExprCache struct {
	cache map[string]*Expr
	mu    sync.RWMutex
}

// NewExprCache creates a new expression cache.
func NewExprCache() *ExprCache {
	return &ExprCache{
		cache: make(map[string]*Expr),
	}
}

// Get retrieves the parsed tree for a source string from the cache.
func (c *ExprCache) Get(source string) (*Expr, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	expr, ok := c.cache[source]
	return expr, ok
}

// Set stores a parsed tree for a source string in the cache.
func (c *ExprCache) Set(source string, expr *Expr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[source] = expr
}

// Global expression cache backing CachedParse.
var defaultExprCache = NewExprCache()

// CachedParse parses the source, consulting the shared cache first. Parse
// errors are not cached; a failing source re-parses on every call.
func CachedParse(source string) (*Expr, error) {
	if expr, found := defaultExprCache.Get(source); found {
		return expr, nil
	}
	expr, err := Parse(source)
	if err != nil {
		return nil, err
	}
	defaultExprCache.Set(source, expr)
	return expr, nil
}

// Evaluate is a convenience for one-shot evaluations: it builds an evaluator
// over the given context and registry and evaluates the source. Hosts that
// evaluate many expressions should construct an Evaluator once instead.
func Evaluate(source string, variables map[string]Value, functions map[string]Function) (Value, error) {
	return NewEvaluator(variables, functions).Evaluate(source)
}
