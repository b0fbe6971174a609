package expr

import "fmt"

// SyntaxError reports an expression that could not be parsed.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expr: syntax error at offset %d in %q: %s", e.Pos, e.Expr, e.Msg)
}

// ErrorKind classifies runtime failures.
type ErrorKind string

const (
	KindReference ErrorKind = "reference" // name not bound in the context
	KindType      ErrorKind = "type"      // operation on a value of the wrong shape
	KindCall      ErrorKind = "call"      // callee returned an error or panicked
)

// RuntimeError reports a failure while running a compiled program.
type RuntimeError struct {
	Expr string
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("expr: %s error in %q: %s: %v", e.Kind, e.Expr, e.Msg, e.Err)
	}
	return fmt.Sprintf("expr: %s error in %q: %s", e.Kind, e.Expr, e.Msg)
}

// Unwrap returns the underlying error, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func referenceError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: KindReference, Msg: fmt.Sprintf(format, args...)}
}

func typeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: KindType, Msg: fmt.Sprintf(format, args...)}
}

func callError(err error, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: KindCall, Msg: fmt.Sprintf(format, args...), Err: err}
}
