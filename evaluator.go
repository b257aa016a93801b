package jsexpr

import (
	"fmt"
	"math"
)

// Evaluator interprets expression trees against a fixed variable context and
// function registry. Both mappings are borrowed read-only: nothing in an
// evaluation mutates them, so a single Evaluator admits concurrent
// evaluations from multiple goroutines.
type Evaluator struct {
	variables map[string]Value
	functions map[string]Function
	sink      TraceSink
}

// NewEvaluator creates an evaluator over the given variable context and
// function registry. Either map may be nil.
func NewEvaluator(variables map[string]Value, functions map[string]Function) *Evaluator {
	return &Evaluator{variables: variables, functions: functions}
}

// SetTraceSink installs the sink receiving per-node trace events. Events are
// only emitted in builds with the jsexprtrace tag; in default builds the
// sink is never called and the evaluation hot path carries no logging work.
func (e *Evaluator) SetTraceSink(sink TraceSink) {
	e.sink = sink
}

// Evaluate parses the source (through the shared expression cache) and
// evaluates the resulting tree. The result is one owned Value; no other
// value created during the evaluation outlives the call.
func (e *Evaluator) Evaluate(source string) (Value, error) {
	expr, err := CachedParse(source)
	if err != nil {
		return Null(), err
	}
	return e.EvaluateTree(expr)
}

// EvaluateTree evaluates a pre-parsed expression tree. Evaluation is
// synchronous and guaranteed to terminate: trees are finite and no construct
// introduces iteration.
func (e *Evaluator) EvaluateTree(expr *Expr) (Value, error) {
	if expr == nil {
		return Null(), &TypeError{Msg: "cannot evaluate nil expression"}
	}

	e.traceNode(expr)

	switch expr.Type {
	case NodeLiteral:
		return expr.Value, nil

	case NodeIdentifier:
		return e.evalIdentifier(expr.Name)

	case NodeGroup:
		return e.EvaluateTree(expr.Children[0])

	case NodeUnary:
		return e.evalUnary(expr)

	case NodeBinary:
		return e.evalBinary(expr)

	case NodeLogical:
		return e.evalLogical(expr)

	case NodeConditional:
		test, err := e.EvaluateTree(expr.Children[0])
		if err != nil {
			return Null(), err
		}
		// The unchosen branch is not evaluated.
		if test.ToBool() {
			return e.EvaluateTree(expr.Children[1])
		}
		return e.EvaluateTree(expr.Children[2])

	case NodeMember:
		object, err := e.EvaluateTree(expr.Children[0])
		if err != nil {
			return Null(), err
		}
		return e.evalMember(object, expr.Name)

	case NodeCall:
		return e.evalCall(expr)

	case NodeArray:
		elems := make([]Value, 0, len(expr.Children))
		for _, child := range expr.Children {
			elem, err := e.EvaluateTree(child)
			if err != nil {
				return Null(), err
			}
			elems = append(elems, elem)
		}
		return Array(elems...), nil

	case NodeEmptyObject:
		return Object(nil), nil

	default:
		return Null(), &TypeError{Msg: fmt.Sprintf("unknown node type: %v", expr.Type)}
	}
}

// evalIdentifier resolves a bare name: the special literal names (true,
// false, null, undefined, NaN, Infinity) first, then the variable context.
func (e *Evaluator) evalIdentifier(name string) (Value, error) {
	// The parser lowers these to literals, but trees built by hand get the
	// same resolution order: specials before user variables.
	if mk, ok := specialLiterals[name]; ok {
		return mk(), nil
	}
	value, exists := e.variables[name]
	if !exists {
		return Null(), &UnknownIdentifierError{Name: name}
	}
	return value, nil
}

// evalUnary applies !, -, or + to its evaluated operand.
func (e *Evaluator) evalUnary(expr *Expr) (Value, error) {
	operand, err := e.EvaluateTree(expr.Children[0])
	if err != nil {
		return Null(), err
	}
	switch expr.Operator {
	case "!":
		return Bool(!operand.ToBool()), nil
	case "-":
		// Float negation preserves the sign of zero and propagates NaN.
		return Number(-operand.ToNumber()), nil
	case "+":
		return Number(operand.ToNumber()), nil
	default:
		return Null(), &TypeError{Msg: fmt.Sprintf("unknown unary operator: %s", expr.Operator)}
	}
}

// evalBinary handles arithmetic, equality, and relational operators. None of
// them error on operand values: arithmetic is total over NaN and infinities,
// comparisons involving NaN are false.
func (e *Evaluator) evalBinary(expr *Expr) (Value, error) {
	left, err := e.EvaluateTree(expr.Children[0])
	if err != nil {
		return Null(), err
	}
	right, err := e.EvaluateTree(expr.Children[1])
	if err != nil {
		return Null(), err
	}

	switch expr.Operator {
	case "+":
		// String concatenation wins when either side is a string.
		if left.Kind() == KindString || right.Kind() == KindString {
			return String(left.ToString() + right.ToString()), nil
		}
		return Number(left.ToNumber() + right.ToNumber()), nil
	case "-":
		return Number(left.ToNumber() - right.ToNumber()), nil
	case "*":
		return Number(left.ToNumber() * right.ToNumber()), nil
	case "/":
		// IEEE division: x/0 is ±Inf by the dividend's sign, 0/0 is NaN.
		return Number(left.ToNumber() / right.ToNumber()), nil
	case "%":
		// JavaScript % is a remainder, not a floor modulo; x % 0 is NaN.
		return Number(math.Mod(left.ToNumber(), right.ToNumber())), nil

	case "==":
		return Bool(left.LooseEquals(right)), nil
	case "!=":
		return Bool(!left.LooseEquals(right)), nil
	case "===":
		return Bool(left.StrictEquals(right)), nil
	case "!==":
		return Bool(!left.StrictEquals(right)), nil

	case "<":
		return compareValues(left, right, func(a, b float64) bool { return a < b },
			func(a, b string) bool { return a < b }), nil
	case "<=":
		return compareValues(left, right, func(a, b float64) bool { return a <= b },
			func(a, b string) bool { return a <= b }), nil
	case ">":
		return compareValues(left, right, func(a, b float64) bool { return a > b },
			func(a, b string) bool { return a > b }), nil
	case ">=":
		return compareValues(left, right, func(a, b float64) bool { return a >= b },
			func(a, b string) bool { return a >= b }), nil

	default:
		return Null(), &TypeError{Msg: fmt.Sprintf("unknown binary operator: %s", expr.Operator)}
	}
}

// compareValues implements the relational operators: two strings compare
// lexicographically, anything else compares numerically after ToNumber.
// A comparison involving NaN is false, which the numeric comparators give us
// for free.
func compareValues(left, right Value, numCmp func(a, b float64) bool, strCmp func(a, b string) bool) Value {
	if left.Kind() == KindString && right.Kind() == KindString {
		return Bool(strCmp(left.StringValue(), right.StringValue()))
	}
	return Bool(numCmp(left.ToNumber(), right.ToNumber()))
}

// evalLogical handles the short-circuiting && and ||. The returned value is
// the original operand, not a coerced boolean.
func (e *Evaluator) evalLogical(expr *Expr) (Value, error) {
	left, err := e.EvaluateTree(expr.Children[0])
	if err != nil {
		return Null(), err
	}

	switch expr.Operator {
	case "&&":
		if !left.ToBool() {
			return left, nil
		}
	case "||":
		if left.ToBool() {
			return left, nil
		}
	default:
		return Null(), &TypeError{Msg: fmt.Sprintf("unknown logical operator: %s", expr.Operator)}
	}

	return e.EvaluateTree(expr.Children[1])
}

// evalMember resolves object.property for a static property name.
func (e *Evaluator) evalMember(object Value, name string) (Value, error) {
	switch object.Kind() {
	case KindArray:
		if name == "length" {
			return Number(float64(len(object.Elems()))), nil
		}
	case KindString:
		if name == "length" {
			return Number(float64(stringLength(object.StringValue()))), nil
		}
	case KindObject:
		// Verbatim key lookup; a missing key is null, matching the
		// undefined-to-null collapse of the value model.
		if value, ok := object.Fields()[name]; ok {
			return value, nil
		}
		return Null(), nil
	}
	return Null(), &UnknownPropertyError{Receiver: object.Kind(), Name: name}
}

// evalCall dispatches a call node: a host function when the callee is an
// identifier, a built-in method when the callee is a member access.
func (e *Evaluator) evalCall(expr *Expr) (Value, error) {
	callee := unwrapGroup(expr.Children[0])
	argNodes := expr.Children[1:]

	switch callee.Type {
	case NodeIdentifier:
		return e.callHostFunction(callee.Name, argNodes)
	case NodeMember:
		return e.callMethod(callee, argNodes)
	default:
		return Null(), &TypeError{Msg: fmt.Sprintf("%s expression is not callable", callee.Type)}
	}
}

// callHostFunction invokes a registered host function with its arguments
// evaluated left to right.
func (e *Evaluator) callHostFunction(name string, argNodes []*Expr) (Value, error) {
	fn, exists := e.functions[name]
	if !exists {
		return Null(), &UnknownFunctionError{Name: name}
	}

	args := make([]Value, 0, len(argNodes))
	for _, argNode := range argNodes {
		arg, err := e.EvaluateTree(argNode)
		if err != nil {
			return Null(), err
		}
		args = append(args, arg)
	}

	result, err := fn.Call(args)
	if err != nil {
		return Null(), &CustomFunctionError{Name: name, Err: err}
	}
	return result, nil
}

// callMethod dispatches the built-in methods: array.includes and
// object.hasOwnProperty. Any other method name fails.
func (e *Evaluator) callMethod(callee *Expr, argNodes []*Expr) (Value, error) {
	receiver, err := e.EvaluateTree(callee.Children[0])
	if err != nil {
		return Null(), err
	}

	switch {
	case receiver.Kind() == KindArray && callee.Name == "includes":
		needle, err := e.evalMethodArg(argNodes)
		if err != nil {
			return Null(), err
		}
		for _, elem := range receiver.Elems() {
			if sameValueZero(elem, needle) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil

	case receiver.Kind() == KindObject && callee.Name == "hasOwnProperty":
		keyValue, err := e.evalMethodArg(argNodes)
		if err != nil {
			return Null(), err
		}
		_, ok := receiver.Fields()[keyValue.ToString()]
		return Bool(ok), nil
	}

	return Null(), &UnknownMethodError{Receiver: receiver.Kind(), Name: callee.Name}
}

// evalMethodArg evaluates the arguments of a built-in method call and
// returns the first one. A missing argument is null; extras are still
// evaluated left to right but ignored, as JavaScript would.
func (e *Evaluator) evalMethodArg(argNodes []*Expr) (Value, error) {
	first := Null()
	for i, argNode := range argNodes {
		arg, err := e.EvaluateTree(argNode)
		if err != nil {
			return Null(), err
		}
		if i == 0 {
			first = arg
		}
	}
	return first, nil
}
