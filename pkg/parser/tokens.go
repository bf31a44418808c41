package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString   // 'hello' or "hello"
	TokenNumber   // 123, 3.14, 1e-10
	TokenBoolean  // true, false
	TokenNull     // null
	TokenName     // fieldName
	TokenVariable // #var, #this, #root

	// Grouping symbols
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenBraceOpen    // {
	TokenBraceClose   // }
	TokenParenOpen    // (
	TokenParenClose   // )

	// Basic symbols
	TokenDot       // .
	TokenComma     // ,
	TokenColon     // :
	TokenCondition // ?

	// Collection operators
	TokenProject     // ![
	TokenSelect      // ?[
	TokenSelectFirst // ^[
	TokenSelectLast  // $[

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /
	TokenMod   // %

	// Comparison operators
	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Other operators
	TokenAssign // =
	TokenNot    // !, not
	TokenAnd    // and, &&
	TokenOr     // or, ||
)

var tokenText = [...]string{
	TokenEOF:          "(eof)",
	TokenError:        "(error)",
	TokenString:       "(string)",
	TokenNumber:       "(number)",
	TokenBoolean:      "(boolean)",
	TokenNull:         "(null)",
	TokenName:         "(name)",
	TokenVariable:     "(variable)",
	TokenBracketOpen:  "[",
	TokenBracketClose: "]",
	TokenBraceOpen:    "{",
	TokenBraceClose:   "}",
	TokenParenOpen:    "(",
	TokenParenClose:   ")",
	TokenDot:          ".",
	TokenComma:        ",",
	TokenColon:        ":",
	TokenCondition:    "?",
	TokenProject:      "![",
	TokenSelect:       "?[",
	TokenSelectFirst:  "^[",
	TokenSelectLast:   "$[",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenMult:         "*",
	TokenDiv:          "/",
	TokenMod:          "%",
	TokenEqual:        "==",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenAssign:       "=",
	TokenNot:          "!",
	TokenAnd:          "and",
	TokenOr:           "or",
}

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	if int(tt) < len(tokenText) {
		return tokenText[tt]
	}
	return "(unknown)"
}

// Token represents a lexical token in an expression.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting byte offset in the input string
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'{': TokenBraceOpen,
	'}': TokenBraceClose,
	'(': TokenParenOpen,
	')': TokenParenClose,
	'.': TokenDot,
	',': TokenComma,
	':': TokenColon,
	'?': TokenCondition,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'%': TokenMod,
	'=': TokenAssign,
	'<': TokenLess,
	'>': TokenGreater,
	'!': TokenNot,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'!': {{'[', TokenProject}, {'=', TokenNotEqual}},
	'?': {{'[', TokenSelect}},
	'^': {{'[', TokenSelectFirst}},
	'$': {{'[', TokenSelectLast}},
	'=': {{'=', TokenEqual}},
	'<': {{'=', TokenLessEqual}},
	'>': {{'=', TokenGreaterEqual}},
	'&': {{'&', TokenAnd}},
	'|': {{'|', TokenOr}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// lookupKeyword returns the token type for a keyword.
// Returns 0 if the string is not a recognized keyword.
func lookupKeyword(s string) TokenType {
	switch s {
	case "and":
		return TokenAnd
	case "or":
		return TokenOr
	case "not":
		return TokenNot
	case "true", "false":
		return TokenBoolean
	case "null":
		return TokenNull
	default:
		return 0
	}
}
