//go:build jsexprtrace

package jsexpr

// traceNode emits one event per visited node to the configured sink.
func (e *Evaluator) traceNode(expr *Expr) {
	if e.sink == nil {
		return
	}
	detail := expr.Operator
	if detail == "" {
		detail = expr.Name
	}
	e.sink.Event(TraceEvent{
		Node:    expr.Type.String(),
		Detail:  detail,
		Summary: expr.String(),
	})
}
