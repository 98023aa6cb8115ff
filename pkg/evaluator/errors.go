package evaluator

import (
	"fmt"

	"github.com/thomasrohde/scheval/pkg/ast"
	"github.com/thomasrohde/scheval/pkg/diagnostics"
)

// RuntimeError represents an error raised during evaluation.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
	// Err is the underlying cause, if any.
	Err error
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func newError(code string, span *ast.Span, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

// ArityError reports a wrong argument count for a named procedure.
func ArityError(name string, format string, args ...any) error {
	return &RuntimeError{
		Code:    diagnostics.EArity,
		Message: fmt.Sprintf("%s: %s", name, fmt.Sprintf(format, args...)),
	}
}

// TypeError reports an operand of the wrong kind.
func TypeError(name, want string, got Value) error {
	return &RuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf("%s: expected %s, got %s", name, want, TypeName(got)),
	}
}

// withSpan attaches span to err when it is a RuntimeError without one.
func withSpan(err error, span ast.Span) error {
	if re, ok := err.(*RuntimeError); ok && re.Span == nil {
		s := span
		re.Span = &s
	}
	return err
}
