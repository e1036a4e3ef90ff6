package errors

import (
	"errors"
	"fmt"
)

// Error represents a PostgreSQL-compatible error with SQLSTATE code.
type Error struct {
	Code    string // SQLSTATE code
	Message string // Primary error message
	Detail  string // Optional detailed error message
	Hint    string // Optional hint message
	Table   string // Table name if applicable
	Column  string // Column name if applicable
	Routine string // Source routine name
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (SQLSTATE %s) DETAIL: %s", e.Message, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s (SQLSTATE %s)", e.Message, e.Code)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// New creates a new Error with the given code and message.
func New(code string, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code string, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to the error.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

// WithDetail adds detail to the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf adds formatted detail to the error.
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint adds a hint to the error.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithTable sets the table name.
func (e *Error) WithTable(table string) *Error {
	e.Table = table
	return e
}

// WithColumn sets the column name.
func (e *Error) WithColumn(column string) *Error {
	e.Column = column
	return e
}

// WithRoutine sets the source routine name.
func (e *Error) WithRoutine(routine string) *Error {
	e.Routine = routine
	return e
}

// CodeOf extracts the SQLSTATE code from err, or "" if err is not an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
