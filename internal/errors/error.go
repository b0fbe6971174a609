package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryDirective Category = "directive"
	CategoryTemplate  Category = "template"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// WeaveError is a structured error with the offending template element and
// a suggestion.
type WeaveError struct {
	// Code is a unique error identifier (e.g., "W101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Template names the template the error was found in.
	Template string

	// Element is a short rendering of the offending element.
	Element string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is markup showing the correct form.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WeaveError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Element != "" {
		msg += " in " + e.Element
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WeaveError) Unwrap() error {
	return e.Wrapped
}

// Is matches another *WeaveError with the same code.
func (e *WeaveError) Is(target error) bool {
	t, ok := target.(*WeaveError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithTemplate records the template name.
func (e *WeaveError) WithTemplate(name string) *WeaveError {
	e.Template = name
	return e
}

// WithElement records the offending element.
func (e *WeaveError) WithElement(el string) *WeaveError {
	e.Element = el
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WeaveError) WithSuggestion(s string) *WeaveError {
	e.Suggestion = s
	return e
}

// WithExample adds a markup example to the error.
func (e *WeaveError) WithExample(ex string) *WeaveError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *WeaveError) WithDetail(d string) *WeaveError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *WeaveError) Wrap(err error) *WeaveError {
	e.Wrapped = err
	return e
}

// New creates a WeaveError from a registered error code.
func New(code string) *WeaveError {
	template, ok := registry[code]
	if !ok {
		return &WeaveError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WeaveError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new WeaveError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *WeaveError {
	return &WeaveError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a WeaveError.
func FromError(err error, code string) *WeaveError {
	if err == nil {
		return nil
	}
	var we *WeaveError
	if stderrors.As(err, &we) {
		return we
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is or wraps a WeaveError with code.
func HasCode(err error, code string) bool {
	var we *WeaveError
	for err != nil {
		if !stderrors.As(err, &we) {
			return false
		}
		if we.Code == code {
			return true
		}
		err = we.Wrapped
	}
	return false
}
