package jsexpr

import "math"

// Binary operator precedence - higher number means higher precedence.
// Logical operators are kept out of this table because they produce
// distinct short-circuiting nodes.
var binaryPrecedence = map[string]int{
	"==": 40, "!=": 40, "===": 40, "!==": 40,
	"<": 50, ">": 50, "<=": 50, ">=": 50,
	"+": 60, "-": 60,
	"*": 70, "/": 70, "%": 70,
}

// Names the parser resolves to fixed literal values before any variable
// lookup can happen.
var specialLiterals = map[string]func() Value{
	"true":      func() Value { return Bool(true) },
	"false":     func() Value { return Bool(false) },
	"null":      func() Value { return Null() },
	"undefined": func() Value { return Null() },
	"NaN":       func() Value { return Number(math.NaN()) },
	"Infinity":  func() Value { return Number(math.Inf(1)) },
}

// Parse converts an expression source string into an expression tree.
// It is pure and deterministic: the same source always yields the same tree
// or the same *ParseError. The tree may be cached and evaluated many times.
//
// A `{}` anywhere in the source, including at the top level, is treated as
// the empty object literal; there is no statement context in which it could
// be read as a block. `({})` parses identically.
func Parse(source string) (*Expr, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 { // just EOF
		return nil, &ParseError{Kind: ParseEmpty, Pos: -1, Msg: "empty expression"}
	}

	p := &exprParser{tokens: tokens}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, syntaxError(tok.Position, "unexpected token '%s' after expression", tok.Value)
	}
	return expr, nil
}

// exprParser holds the state of the parsing process.
type exprParser struct {
	tokens []Token
	pos    int
}

func (p *exprParser) peek() Token {
	return p.tokens[p.pos]
}

func (p *exprParser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

// parseExpr parses a full expression: a conditional.
func (p *exprParser) parseExpr() (*Expr, error) {
	return p.parseConditional()
}

// parseConditional parses `LogicalOr ('?' Expr ':' Expr)?`. The conditional
// operator is right-associative: the alternate of `a ? b : c ? d : e` is the
// whole of `c ? d : e`.
func (p *exprParser) parseConditional() (*Expr, error) {
	test, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}

	if p.peek().Type != TokenQuestion {
		return test, nil
	}
	p.next() // consume '?'

	consequent, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenColon {
		return nil, syntaxError(tok.Position, "expected ':' in conditional expression, found '%s'", tokenText(tok))
	}
	p.next() // consume ':'

	alternate, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &Expr{
		Type:     NodeConditional,
		Children: []*Expr{test, consequent, alternate},
	}, nil
}

// parseLogicalOr parses a left-associative chain of '||'.
func (p *exprParser) parseLogicalOr() (*Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenOperator && p.peek().Value == "||" {
		p.next()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{Type: NodeLogical, Operator: "||", Children: []*Expr{left, right}}
	}
	return left, nil
}

// parseLogicalAnd parses a left-associative chain of '&&'.
func (p *exprParser) parseLogicalAnd() (*Expr, error) {
	left, err := p.parseBinary(40) // equality and everything tighter
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenOperator && p.peek().Value == "&&" {
		p.next()
		right, err := p.parseBinary(40)
		if err != nil {
			return nil, err
		}
		left = &Expr{Type: NodeLogical, Operator: "&&", Children: []*Expr{left, right}}
	}
	return left, nil
}

// parseBinary parses left-associative binary operator chains at or above the
// given precedence using precedence climbing.
func (p *exprParser) parseBinary(minPrecedence int) (*Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenOperator {
			break
		}
		prec, ok := binaryPrecedence[tok.Value]
		if !ok || prec < minPrecedence {
			break
		}
		p.next() // consume the operator

		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Expr{
			Type:     NodeBinary,
			Operator: tok.Value,
			Children: []*Expr{left, right},
		}
	}
	return left, nil
}

// parseUnary parses an optional chain of prefix operators.
func (p *exprParser) parseUnary() (*Expr, error) {
	tok := p.peek()
	if tok.Type == TokenOperator && (tok.Value == "!" || tok.Value == "-" || tok.Value == "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expr{Type: NodeUnary, Operator: tok.Value, Children: []*Expr{operand}}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by any number of member accesses
// and calls. Subscript access with '[' is outside the subset.
func (p *exprParser) parsePostfix() (*Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch tok.Type {
		case TokenDot:
			p.next()
			nameTok := p.peek()
			if nameTok.Type != TokenIdentifier {
				return nil, syntaxError(nameTok.Position, "expected property name after '.'")
			}
			p.next()
			left = &Expr{Type: NodeMember, Name: nameTok.Value, Children: []*Expr{left}}
		case TokenLeftParen:
			p.next()
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			left = &Expr{Type: NodeCall, Children: append([]*Expr{left}, args...)}
		case TokenLeftBracket:
			return nil, unsupportedError(tok.Position, "computed member access with '[' is not supported")
		default:
			return left, nil
		}
	}
}

// parseArguments parses a comma-separated argument list; the opening
// parenthesis has already been consumed.
func (p *exprParser) parseArguments() ([]*Expr, error) {
	if p.peek().Type == TokenRightParen {
		p.next()
		return nil, nil
	}

	var args []*Expr
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.peek()
		if tok.Type == TokenRightParen {
			p.next()
			return args, nil
		}
		if tok.Type != TokenComma {
			return nil, syntaxError(tok.Position, "expected ',' or ')' in argument list, found '%s'", tokenText(tok))
		}
		p.next() // consume the comma
	}
}

// parsePrimary parses a literal, identifier, parenthesized expression, array
// literal, or the empty object literal.
func (p *exprParser) parsePrimary() (*Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNumber:
		p.next()
		// The lexer guarantees a well-formed decimal literal.
		return &Expr{Type: NodeLiteral, Value: Number(stringToNumber(tok.Value))}, nil

	case TokenString:
		p.next()
		return &Expr{Type: NodeLiteral, Value: String(tok.Value)}, nil

	case TokenIdentifier:
		p.next()
		if mk, ok := specialLiterals[tok.Value]; ok {
			return &Expr{Type: NodeLiteral, Value: mk()}, nil
		}
		return &Expr{Type: NodeIdentifier, Name: tok.Value}, nil

	case TokenLeftParen:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.Type != TokenRightParen {
			return nil, syntaxError(closing.Position, "expected ')', found '%s'", tokenText(closing))
		}
		p.next()
		return &Expr{Type: NodeGroup, Children: []*Expr{inner}}, nil

	case TokenLeftBracket:
		p.next()
		return p.parseArrayLiteral()

	case TokenLeftBrace:
		p.next()
		if closing := p.peek(); closing.Type != TokenRightBrace {
			return nil, unsupportedError(closing.Position, "non-empty object literals are not supported")
		}
		p.next()
		return &Expr{Type: NodeEmptyObject}, nil

	case TokenOperator:
		return nil, syntaxError(tok.Position, "unexpected operator '%s'", tok.Value)

	default:
		return nil, syntaxError(tok.Position, "unexpected token '%s'", tokenText(tok))
	}
}

// parseArrayLiteral parses the elements of an array literal; the opening
// bracket has already been consumed.
func (p *exprParser) parseArrayLiteral() (*Expr, error) {
	if p.peek().Type == TokenRightBracket {
		p.next()
		return &Expr{Type: NodeArray}, nil
	}

	var elems []*Expr
	for {
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)

		tok := p.peek()
		if tok.Type == TokenRightBracket {
			p.next()
			return &Expr{Type: NodeArray, Children: elems}, nil
		}
		if tok.Type != TokenComma {
			return nil, syntaxError(tok.Position, "expected ',' or ']' in array literal, found '%s'", tokenText(tok))
		}
		p.next() // consume the comma
	}
}

// tokenText renders a token for error messages.
func tokenText(tok Token) string {
	if tok.Type == TokenEOF {
		return "end of expression"
	}
	return tok.Value
}
