package parser

import (
	"fmt"
	"strconv"

	"github.com/sandrolain/gospel/pkg/ast"
	"github.com/sandrolain/gospel/pkg/types"
)

// Parser implements a recursive descent parser for expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	depth   int
	opts    CompileOptions
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns it.
func (p *Parser) Parse() (*ast.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrSyntaxError, "Empty expression")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.unexpected()
	}

	return ast.NewExpression(node, p.lexer.input), nil
}

// Operator precedence table (binding power)
// Higher values bind more tightly
var precedence = map[TokenType]int{
	TokenAssign:       10, // = (right associative)
	TokenCondition:    15, // ? :
	TokenOr:           20, // or ||
	TokenAnd:          25, // and &&
	TokenEqual:        30, // ==
	TokenNotEqual:     30, // !=
	TokenLess:         35, // <
	TokenLessEqual:    35, // <=
	TokenGreater:      35, // >
	TokenGreaterEqual: 35, // >=
	TokenPlus:         40, // +
	TokenMinus:        40, // -
	TokenMult:         50, // *
	TokenDiv:          50, // /
	TokenMod:          50, // %
	TokenDot:          80, // .
	TokenBracketOpen:  80, // [
}

// prefixPrecedence is the binding power of unary - and !.
const prefixPrecedence = 60

var binaryOperators = map[TokenType]ast.Operator{
	TokenOr:           ast.OpOr,
	TokenAnd:          ast.OpAnd,
	TokenEqual:        ast.OpEqual,
	TokenNotEqual:     ast.OpNotEqual,
	TokenLess:         ast.OpLess,
	TokenLessEqual:    ast.OpLessEqual,
	TokenGreater:      ast.OpGreater,
	TokenGreaterEqual: ast.OpGreaterEqual,
	TokenPlus:         ast.OpAdd,
	TokenMinus:        ast.OpSubtract,
	TokenMult:         ast.OpMultiply,
	TokenDiv:          ast.OpDivide,
	TokenMod:          ast.OpModulus,
}

var selectionModes = map[TokenType]ast.SelectionMode{
	TokenSelect:      ast.SelectAll,
	TokenSelectFirst: ast.SelectFirst,
	TokenSelectLast:  ast.SelectLast,
}

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type == TokenError {
		return p.lexer.Error()
	}
	if p.current.Type != tt {
		return p.error(types.ErrExpectedToken, fmt.Sprintf("Expected %s but got %s", tt.String(), p.describe()))
	}
	p.advance()
	return nil
}

// error creates a parser error at the current token.
func (p *Parser) error(code types.ErrorCode, message string) error {
	return types.NewError(code, message, p.current.Position).WithToken(p.current.Value)
}

// unexpected reports the current token as out of place.
func (p *Parser) unexpected() error {
	switch p.current.Type {
	case TokenError:
		return p.lexer.Error()
	case TokenEOF:
		return p.error(types.ErrUnexpectedEnd, "Unexpected end of expression")
	}
	return p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", p.describe()))
}

func (p *Parser) describe() string {
	if p.current.Value != "" {
		return strconv.Quote(p.current.Value)
	}
	return p.current.Type.String()
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (ast.Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrNestingTooDeep, "Expression nested too deeply")
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses an expression that doesn't require a left-hand side.
func (p *Parser) parsePrefix() (ast.Node, error) {
	token := p.current

	switch token.Type {
	case TokenString:
		p.advance()
		return ast.NewLiteral(token.Value, token.Position), nil
	case TokenNumber:
		return p.parseNumber()
	case TokenBoolean:
		p.advance()
		return ast.NewLiteral(token.Value == "true", token.Position), nil
	case TokenNull:
		p.advance()
		return ast.NewLiteral(nil, token.Position), nil
	case TokenName:
		p.advance()
		return ast.NewPropertyReference(token.Value, token.Position), nil
	case TokenVariable:
		p.advance()
		return ast.NewVariableReference(token.Value, token.Position), nil
	case TokenMinus, TokenNot:
		p.advance()
		operand, err := p.parseExpression(prefixPrecedence)
		if err != nil {
			return nil, err
		}
		if token.Type == TokenMinus {
			return ast.NewNegate(operand, token.Position), nil
		}
		return ast.NewNot(operand, token.Position), nil
	case TokenParenOpen:
		p.advance()
		node, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		return node, p.expect(TokenParenClose)
	case TokenBraceOpen:
		return p.parseInlineList()
	case TokenBracketOpen, TokenProject, TokenSelect, TokenSelectFirst, TokenSelectLast:
		// A step applied directly to the active object.
		return p.parseStep()
	}
	return nil, p.unexpected()
}

// parseInfix parses an expression with a left-hand side.
func (p *Parser) parseInfix(left ast.Node) (ast.Node, error) {
	token := p.current

	switch token.Type {
	case TokenDot:
		p.advance()
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		return appendStep(left, step), nil
	case TokenBracketOpen:
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		return appendStep(left, step), nil
	case TokenAssign:
		p.advance()
		value, err := p.parseExpression(p.getPrecedence(TokenAssign) - 1)
		if err != nil {
			return nil, err
		}
		return ast.NewAssign(left, value, token.Position), nil
	case TokenCondition:
		return p.parseConditional(left)
	}

	op, ok := binaryOperators[token.Type]
	if !ok {
		return nil, p.unexpected()
	}
	p.advance()
	right, err := p.parseExpression(p.getPrecedence(token.Type))
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryOp(op, left, right, token.Position), nil
}

// parseStep parses what may follow a dot: a property name, an index, a
// projection or a selection.
func (p *Parser) parseStep() (ast.Node, error) {
	token := p.current

	switch token.Type {
	case TokenName:
		p.advance()
		return ast.NewPropertyReference(token.Value, token.Position), nil
	case TokenBracketOpen:
		p.advance()
		index, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		return ast.NewIndexer(index, token.Position), p.expect(TokenBracketClose)
	case TokenProject:
		p.advance()
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		return ast.NewProjection(expr, token.Position), p.expect(TokenBracketClose)
	case TokenSelect, TokenSelectFirst, TokenSelectLast:
		p.advance()
		pred, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		return ast.NewSelection(selectionModes[token.Type], pred, token.Position), p.expect(TokenBracketClose)
	}
	if token.Type == TokenError {
		return nil, p.lexer.Error()
	}
	return nil, p.error(types.ErrExpectedToken, fmt.Sprintf("Expected a property, index, projection or selection but got %s", p.describe()))
}

// appendStep extends a path with step, turning a single node into a path.
func appendStep(left, step ast.Node) ast.Node {
	if c, ok := left.(*ast.CompoundExpression); ok {
		steps := make([]ast.Node, 0, len(c.Steps())+1)
		steps = append(steps, c.Steps()...)
		return ast.NewCompoundExpression(append(steps, step), c.Position())
	}
	return ast.NewCompoundExpression([]ast.Node{left, step}, left.Position())
}

// parseNumber parses a number literal.
func (p *Parser) parseNumber() (ast.Node, error) {
	token := p.current
	value, err := strconv.ParseFloat(token.Value, 64)
	if err != nil {
		return nil, p.error(types.ErrNumberOutOfRange, fmt.Sprintf("Invalid number: %s", token.Value))
	}
	p.advance()
	return ast.NewLiteral(value, token.Position), nil
}

// parseInlineList parses {expr, expr, ...}.
func (p *Parser) parseInlineList() (ast.Node, error) {
	position := p.current.Position
	p.advance() // consume {

	var elements []ast.Node
	if p.current.Type != TokenBraceClose {
		for {
			elem, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			elements = append(elements, elem)
			if p.current.Type != TokenComma {
				break
			}
			p.advance()
		}
	}
	if err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}
	return ast.NewInlineList(elements, position), nil
}

// parseConditional parses cond ? then : otherwise.
func (p *Parser) parseConditional(cond ast.Node) (ast.Node, error) {
	position := p.current.Position
	p.advance() // consume ?

	then, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	otherwise, err := p.parseExpression(p.getPrecedence(TokenCondition) - 1)
	if err != nil {
		return nil, err
	}
	return ast.NewTernary(cond, then, otherwise, position), nil
}
