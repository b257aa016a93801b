package jsexpr

// TraceEvent describes one visited node during an evaluation: its kind and a
// short rendering of its inputs. There is no mandated wire format; the sink
// decides what to do with the fields.
type TraceEvent struct {
	Node    string // node kind, e.g. "binary"
	Detail  string // operator, identifier, or property name where applicable
	Summary string // printed form of the subexpression being entered
}

// TraceSink receives evaluation trace events. The evaluator treats the sink
// as opaque: any implementation works, from a logger to a ring buffer.
// Events are emitted only in builds compiled with the jsexprtrace tag; see
// SetTraceSink.
type TraceSink interface {
	Event(ev TraceEvent)
}
