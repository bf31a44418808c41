package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable, machine-readable error kind.
type ErrorCode string

// Error codes. The leading letter groups them: S for syntax, T for type
// and coercion, E for evaluation.
const (
	// S0xxx: Parser/Syntax errors
	ErrStringNotClosed   ErrorCode = "S0101"
	ErrNumberOutOfRange  ErrorCode = "S0102"
	ErrUnsupportedEscape ErrorCode = "S0103"
	ErrUnexpectedEnd     ErrorCode = "S0104"
	ErrInvalidCharacter  ErrorCode = "S0105"
	ErrSyntaxError       ErrorCode = "S0201"
	ErrExpectedToken     ErrorCode = "S0202"
	ErrMissingName       ErrorCode = "S0203"
	ErrNestingTooDeep    ErrorCode = "S0205"

	// T0xxx: Type errors
	ErrCannotConvertNumber  ErrorCode = "T1001"
	ErrCannotConvertString  ErrorCode = "T1002"
	ErrInvalidTypeOperation ErrorCode = "T1003"
	ErrNotACollection       ErrorCode = "T1004"
	ErrCannotConvertBoolean ErrorCode = "T1005"

	// E1xxx: Evaluation errors
	ErrVariableNotFound    ErrorCode = "E1001"
	ErrNotWritable         ErrorCode = "E1002"
	ErrInvalidVariableName ErrorCode = "E1003"
	ErrIndexOutOfBounds    ErrorCode = "E1004"
	ErrPropertyNotFound    ErrorCode = "E1005"
	ErrEvaluationCanceled  ErrorCode = "E1006"
	ErrInvalidExpression   ErrorCode = "E1007"
)

// Coded is implemented by every error this module originates.
type Coded interface {
	error
	Kind() ErrorCode
}

// KindOf returns the code of the first Coded error in err's chain, or ""
// when there is none.
func KindOf(err error) ErrorCode {
	var c Coded
	if errors.As(err, &c) {
		return c.Kind()
	}
	return ""
}

// Error represents a structured expression error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new expression error.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf is NewError with a formatted message.
func Errorf(code ErrorCode, position int, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...), position)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Kind implements Coded.
func (e *Error) Kind() ErrorCode {
	return e.Code
}

// Pos returns the 0-based source offset of the error, or -1.
func (e *Error) Pos() int {
	return e.Position
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error carrying the same code, so callers can test
// errors.Is(err, types.NewError(types.ErrNotWritable, "", -1)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// UnresolvedVariableError reports a reference to a variable that is neither
// reserved nor bound in the namespace.
//
// Position is the 0-based byte offset of the reference sigil in the
// expression source, or -1 when the node carries no position.
type UnresolvedVariableError struct {
	Name       string
	Position   int
	Suggestion string
}

// NewUnresolvedVariableError creates an UnresolvedVariableError.
func NewUnresolvedVariableError(name string, position int) *UnresolvedVariableError {
	return &UnresolvedVariableError{Name: name, Position: position}
}

func (e *UnresolvedVariableError) Error() string {
	msg := fmt.Sprintf("variable '#%s' not found", e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean '#%s'?)", e.Suggestion)
	}
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", ErrVariableNotFound, e.Position, msg)
	}
	return fmt.Sprintf("%s: %s", ErrVariableNotFound, msg)
}

// Kind implements Coded.
func (e *UnresolvedVariableError) Kind() ErrorCode {
	return ErrVariableNotFound
}

// Pos returns the 0-based source offset of the reference, or -1.
func (e *UnresolvedVariableError) Pos() int {
	return e.Position
}

// Is matches an *Error with code ErrVariableNotFound as well as any other
// *UnresolvedVariableError.
func (e *UnresolvedVariableError) Is(target error) bool {
	switch t := target.(type) {
	case *UnresolvedVariableError:
		return true
	case *Error:
		return t.Code == ErrVariableNotFound
	}
	return false
}
