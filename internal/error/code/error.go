package code

import (
	"errors"
	"fmt"
)

// Error is a business outcome carrying its numeric code and reason key
type Error struct {
	Code    int
	Key     string
	Message string
	cause   error
}

// New builds the error for a code with its default message
func New(code int) *Error {
	return &Error{Code: code, Key: GetKey(code), Message: GetMessage(code)}
}

// Newf overrides the default message
func Newf(code int, format string, args ...interface{}) *Error {
	e := New(code)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// Wrap keeps the underlying error for logs; clients only see the code
func Wrap(code int, err error) *Error {
	e := New(code)
	e.cause = err
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%d): %v", e.Key, e.Code, e.cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Key, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Is reports whether err carries the given code anywhere in its chain
func Is(err error, code int) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// From extracts the *Error from err, or wraps err as ErrUnknown
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(ErrUnknown, err)
}
