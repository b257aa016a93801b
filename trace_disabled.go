//go:build !jsexprtrace

package jsexpr

// traceNode is a no-op in default builds so the evaluation hot path carries
// no logging overhead. Build with -tags jsexprtrace to enable emission.
func (e *Evaluator) traceNode(expr *Expr) {}
