package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gospel/pkg/types"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return tokens
		}
	}
}

func TestLexerPath(t *testing.T) {
	tokens := lexAll(t, "#root.items.?[price > 100]")
	want := []Token{
		{TokenVariable, "root", 0},
		{TokenDot, ".", 5},
		{TokenName, "items", 6},
		{TokenDot, ".", 11},
		{TokenSelect, "?[", 12},
		{TokenName, "price", 14},
		{TokenGreater, ">", 20},
		{TokenNumber, "100", 22},
		{TokenBracketClose, "]", 25},
		{TokenEOF, "", 26},
	}
	assert.Equal(t, want, tokens)
}

func TestLexerTokenTypes(t *testing.T) {
	tests := []struct {
		input string
		types []TokenType
	}{
		{"![ ?[ ^[ $[", []TokenType{TokenProject, TokenSelect, TokenSelectFirst, TokenSelectLast}},
		{"== != < <= > >= =", []TokenType{TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual, TokenAssign}},
		{"and && or || not !", []TokenType{TokenAnd, TokenAnd, TokenOr, TokenOr, TokenNot, TokenNot}},
		{"true false null", []TokenType{TokenBoolean, TokenBoolean, TokenNull}},
		{"+ - * / %", []TokenType{TokenPlus, TokenMinus, TokenMult, TokenDiv, TokenMod}},
		{"{ } ( ) [ ] , : ?", []TokenType{TokenBraceOpen, TokenBraceClose, TokenParenOpen, TokenParenClose, TokenBracketOpen, TokenBracketClose, TokenComma, TokenColon, TokenCondition}},
		{"#this #x1 _name", []TokenType{TokenVariable, TokenVariable, TokenName}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			require.Equal(t, TokenEOF, tokens[len(tokens)-1].Type)
			got := make([]TokenType, 0, len(tokens)-1)
			for _, tok := range tokens[:len(tokens)-1] {
				got = append(got, tok.Type)
			}
			assert.Equal(t, tt.types, got)
		})
	}
}

func TestLexerLiterals(t *testing.T) {
	tests := []struct {
		input string
		tt    TokenType
		value string
	}{
		{"'hello'", TokenString, "hello"},
		{`"hello"`, TokenString, "hello"},
		{"'it''s'", TokenString, "it's"},
		{`"say ""hi"""`, TokenString, `say "hi"`},
		{"''", TokenString, ""},
		{"42", TokenNumber, "42"},
		{"3.14", TokenNumber, "3.14"},
		{"1e-10", TokenNumber, "1e-10"},
		{"2E+3", TokenNumber, "2E+3"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := lexAll(t, tt.input)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.tt, tokens[0].Type)
			assert.Equal(t, tt.value, tokens[0].Value)
			assert.Equal(t, 0, tokens[0].Position)
		})
	}
}

func TestLexerNumberFollowedByDot(t *testing.T) {
	tokens := lexAll(t, "3.x")
	require.Len(t, tokens, 4)
	assert.Equal(t, Token{TokenNumber, "3", 0}, tokens[0])
	assert.Equal(t, Token{TokenDot, ".", 1}, tokens[1])
	assert.Equal(t, Token{TokenName, "x", 2}, tokens[2])

	tokens = lexAll(t, "3.")
	require.Len(t, tokens, 3)
	assert.Equal(t, Token{TokenNumber, "3", 0}, tokens[0])
	assert.Equal(t, TokenDot, tokens[1].Type)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input    string
		code     types.ErrorCode
		position int
	}{
		{"'open", types.ErrStringNotClosed, 0},
		{"a + 'open", types.ErrStringNotClosed, 4},
		{"1e", types.ErrNumberOutOfRange, 0},
		{"#", types.ErrMissingName, 0},
		{"a + #1", types.ErrMissingName, 4},
		{"@", types.ErrInvalidCharacter, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := NewLexer(tt.input)
			var tok Token
			for tok = l.Next(); tok.Type != TokenError && tok.Type != TokenEOF; tok = l.Next() {
			}
			require.Equal(t, TokenError, tok.Type)
			var e *types.Error
			require.ErrorAs(t, l.Error(), &e)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.position, e.Position)

			// The lexer stays in the error state.
			assert.Equal(t, TokenError, l.Next().Type)
		})
	}
}
