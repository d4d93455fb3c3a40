package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/moqwire/pkg/capture"
	"github.com/vango-dev/moqwire/pkg/inspect"
	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryProtocol Category = "protocol"
	CategoryCapture  Category = "capture"
	CategoryCLI      Category = "cli"
)

// Error is a structured error with a code, an explanation and an optional
// input offset.
type Error struct {
	// Code is a unique error identifier (e.g., "E200").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Offset is the input byte offset where decoding stopped, or -1.
	Offset int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithOffset records where in the input the error occurred.
func (e *Error) WithOffset(offset int) *Error {
	e.Offset = offset
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
			Offset:  -1,
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		Offset:     -1,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Offset:   -1,
	}
}

// FromDecode classifies an error returned while decoding or encoding
// protocol data. offset is the input position of the failed item, or -1.
// Errors that are already *Error are returned unchanged.
func FromDecode(err error, offset int) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return err
	}

	var code string
	switch {
	case protocol.IsMalformed(err):
		code = "E200"
	case stderrors.Is(err, protocol.ErrIncomplete):
		code = "E201"
	case stderrors.Is(err, transport.ErrMessageTooLarge), stderrors.Is(err, transport.ErrPayloadTooLarge):
		code = "E202"
	case stderrors.Is(err, protocol.ErrInvalidValue):
		code = "E203"
	case stderrors.Is(err, inspect.ErrEmptyEnvelope), stderrors.Is(err, inspect.ErrUnknownType):
		code = "E210"
	case stderrors.Is(err, transport.ErrUnexpectedFrame):
		code = "E211"
	case stderrors.Is(err, capture.ErrNotFound):
		code = "E300"
	case stderrors.Is(err, capture.ErrInvalidID):
		code = "E301"
	case stderrors.Is(err, capture.ErrTooLarge):
		code = "E302"
	default:
		return err
	}

	e = New(code).Wrap(err).WithOffset(offset)
	if n := protocol.Needed(err); n > 0 {
		e.WithDetail(fmt.Sprintf("The input ends inside an item; at least %d more bytes are needed.", n))
	}
	return e
}
