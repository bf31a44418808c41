package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/gospel/pkg/ast"
	"github.com/sandrolain/gospel/pkg/types"
)

const eof = -1

// Lexer converts an expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls. After an error it returns TokenError and Error reports
// the cause.
func (l *Lexer) Next() Token {
	if l.err != nil {
		return Token{Type: TokenError, Position: l.start}
	}

	l.acceptAll(isWhitespace)
	l.ignore()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Check for two-character symbols first (e.g., !=, ?[, ==)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	switch {
	case ch == '"' || ch == '\'':
		l.ignore()
		return l.scanString(ch)
	case isDigit(ch):
		l.backup()
		return l.scanNumber()
	case ch == ast.Sigil:
		return l.scanVariable()
	case ast.IsNameStart(ch):
		l.backup()
		return l.scanName()
	}
	return l.error(types.ErrInvalidCharacter, fmt.Sprintf("Unexpected character %q", ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. A doubled quote stands for
// one quote character.
func (l *Lexer) scanString(quote rune) Token {
	escaped := false
Loop:
	for {
		switch l.nextRune() {
		case quote:
			if l.acceptRune(quote) {
				escaped = true
				continue
			}
			break Loop
		case eof:
			l.start-- // the opening quote
			return l.error(types.ErrStringNotClosed, "Unterminated string literal")
		}
	}

	// The token starts at the opening quote; its value stops before the
	// closing one.
	t := Token{
		Type:     TokenString,
		Value:    l.input[l.start : l.current-1],
		Position: l.start - 1,
	}
	if escaped {
		q := string(quote)
		t.Value = strings.ReplaceAll(t.Value, q+q, q)
	}
	l.width = 0
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Supports integers, decimals, and scientific notation.
// Format: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			// If there are no digits after the decimal point,
			// don't treat the dot as part of the number.
			// It could be a property access on the number.
			l.current--
			return l.newToken(TokenNumber)
		}
	}

	// Exponent part
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrNumberOutOfRange, "Malformed exponent")
		}
	}

	return l.newToken(TokenNumber)
}

// scanVariable reads the name following a sigil. The sigil has already
// been consumed and is part of the token position but not of its value.
func (l *Lexer) scanVariable() Token {
	position := l.start
	l.ignore()
	if !l.accept(ast.IsNameStart) {
		l.start = position
		return l.error(types.ErrMissingName, "Expected a variable name after '#'")
	}
	l.acceptAll(ast.IsNamePart)
	t := l.newToken(TokenVariable)
	t.Position = position
	return t
}

// scanName reads a name or keyword from the current position.
// Keywords are: and, or, not, true, false, null
func (l *Lexer) scanName() Token {
	l.acceptAll(ast.IsNamePart)
	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
