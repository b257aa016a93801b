package jsexpr

// NodeType defines the kind of an expression tree node.
type NodeType int

// Enumerates the node kinds produced by the parser.
const (
	NodeLiteral     NodeType = iota // A concrete value resolved at parse time.
	NodeIdentifier                  // A bare name resolved against the variable context.
	NodeUnary                       // !x, -x, +x
	NodeBinary                      // Arithmetic, equality, and relational operators.
	NodeLogical                     // && and ||; short-circuiting, returns an operand.
	NodeConditional                 // test ? consequent : alternate
	NodeMember                      // object.property with a static property name.
	NodeCall                        // Host function call or built-in method call.
	NodeGroup                       // A parenthesized expression; transparent to evaluation.
	NodeArray                       // An array literal; Children are the elements.
	NodeEmptyObject                 // {}
)

// Expr represents a node in the expression tree. Which fields are populated
// depends on Type:
//
//	NodeLiteral:     Value
//	NodeIdentifier:  Name
//	NodeUnary:       Operator, Children[0]
//	NodeBinary:      Operator, Children[0], Children[1]
//	NodeLogical:     Operator, Children[0], Children[1]
//	NodeConditional: Children[0..2] (test, consequent, alternate)
//	NodeMember:      Children[0] (object), Name (property)
//	NodeCall:        Children[0] (callee), Children[1:] (arguments)
//	NodeGroup:       Children[0]
//	NodeArray:       Children (the elements, possibly none)
//
// A tree is immutable once constructed and may be shared across goroutines
// and evaluated many times.
type Expr struct {
	Type     NodeType
	Value    Value
	Name     string
	Operator string
	Children []*Expr
}

// Equal reports structural equality of two trees. Group nodes are
// transparent: (a) equals a, mirroring their transparency to evaluation.
func (e *Expr) Equal(other *Expr) bool {
	e, other = unwrapGroup(e), unwrapGroup(other)
	if e == nil || other == nil {
		return e == other
	}
	if e.Type != other.Type || e.Name != other.Name || e.Operator != other.Operator {
		return false
	}
	// sameValueZero so that NaN literals compare equal structurally.
	if e.Type == NodeLiteral && !sameValueZero(e.Value, other.Value) {
		return false
	}
	if len(e.Children) != len(other.Children) {
		return false
	}
	for i := range e.Children {
		if !e.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// unwrapGroup strips any Group wrappers around a node.
func unwrapGroup(e *Expr) *Expr {
	for e != nil && e.Type == NodeGroup {
		e = e.Children[0]
	}
	return e
}

// String returns a short description of the node kind for diagnostics.
func (t NodeType) String() string {
	switch t {
	case NodeLiteral:
		return "literal"
	case NodeIdentifier:
		return "identifier"
	case NodeUnary:
		return "unary"
	case NodeBinary:
		return "binary"
	case NodeLogical:
		return "logical"
	case NodeConditional:
		return "conditional"
	case NodeMember:
		return "member"
	case NodeCall:
		return "call"
	case NodeGroup:
		return "group"
	case NodeArray:
		return "array literal"
	case NodeEmptyObject:
		return "object literal"
	default:
		return "unknown"
	}
}
