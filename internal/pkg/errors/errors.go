// Package errors provides the coded error type used across certify.
// An Error carries a Code for categorization, the failing Op, optional
// context fields and the stack at creation.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code categorizes an error.
type Code string

const (
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeBadRequest    Code = "BAD_REQUEST"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeFailedPrecond Code = "FAILED_PRECONDITION"
	CodeTimeout       Code = "TIMEOUT"
	CodeUnavailable   Code = "UNAVAILABLE"
)

// Error is a coded error with operation context.
type Error struct {
	Code    Code
	Message string
	// Op is the operation that failed, e.g. "config.load" or "render.field".
	Op     string
	Err    error
	Fields map[string]any
	Stack  []Frame
}

// Frame is a single stack frame.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

// Error renders "op: [CODE] message: cause".
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Code != "" {
		b.WriteString("[")
		b.WriteString(string(e.Code))
		b.WriteString("] ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithField adds a field to the error.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// WithFields adds multiple fields to the error.
func (e *Error) WithFields(fields map[string]any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

// WithOp sets the failing operation.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// HTTPStatus maps the code to an HTTP status for the API.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeBadRequest:
		return 400
	case CodeNotFound:
		return 404
	case CodeConflict, CodeAlreadyExists:
		return 409
	case CodeFailedPrecond:
		return 412
	case CodeUnavailable:
		return 503
	case CodeTimeout:
		return 504
	default:
		return 500
	}
}

// StackTrace returns the captured stack, one frame per line.
func (e *Error) StackTrace() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	for _, f := range e.Stack {
		fmt.Fprintf(&b, "  %s:%d %s\n", f.File, f.Line, f.Function)
	}
	return b.String()
}

// New creates a new error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack(2)}
}

// Newf creates a new error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack(2)}
}

// Wrap wraps err with an operation and message. The code of an inner *Error
// is preserved; anything else becomes CodeInternal.
func Wrap(err error, op string, message string) *Error {
	if err == nil {
		return nil
	}

	code := CodeInternal
	var fields map[string]any
	var e *Error
	if errors.As(err, &e) {
		code = e.Code
		fields = e.Fields
	}

	return &Error{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
		Fields:  fields,
		Stack:   captureStack(2),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, op string, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	w := Wrap(err, op, fmt.Sprintf(format, args...))
	w.Stack = captureStack(2)
	return w
}

// WrapWithCode wraps an error and forces code.
func WrapWithCode(err error, code Code, op string, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Op: op, Err: err, Stack: captureStack(2)}
}

// Internal creates an internal error.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// NotFound creates a not found error for a resource.
func NotFound(resource string, id string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id)).
		WithField("resource", resource).
		WithField("id", id)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// ValidationField creates a validation error for a specific field.
func ValidationField(field string, message string) *Error {
	return New(CodeValidation, message).WithField("field", field)
}

// FailedPrecondition reports a state that must hold before work starts.
func FailedPrecondition(message string) *Error {
	return New(CodeFailedPrecond, message)
}

// AlreadyExists creates an already exists error.
func AlreadyExists(resource string, id string) *Error {
	return New(CodeAlreadyExists, fmt.Sprintf("%s already exists: %s", resource, id)).
		WithField("resource", resource).
		WithField("id", id)
}

// Unavailable creates an unavailable error.
func Unavailable(service string) *Error {
	return New(CodeUnavailable, fmt.Sprintf("service unavailable: %s", service)).
		WithField("service", service)
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// GetHTTPStatus extracts the HTTP status from an error.
func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return 500
}

// GetFields extracts fields from an error.
func GetFields(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) && e.Fields != nil {
		return e.Fields
	}
	return nil
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

func IsValidation(err error) bool {
	return IsCode(err, CodeValidation)
}

func IsFailedPrecondition(err error) bool {
	return IsCode(err, CodeFailedPrecond)
}

func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+1, pcs[:])

	frames := make([]Frame, 0, n)
	callersFrames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := callersFrames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			frames = append(frames, Frame{
				File:     frame.File,
				Line:     frame.Line,
				Function: frame.Function,
			})
		}
		if !more || len(frames) >= 10 {
			break
		}
	}

	return frames
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
