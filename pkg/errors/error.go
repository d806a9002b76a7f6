package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the coded error every boundary converts to. Details, when set,
// are returned to HTTP clients as the response data.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.Message()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(code ErrorCode) *Error {
	return &Error{Code: code, Message: code.Message()}
}

func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with code unless the chain already holds an *Error, whose
// code wins.
func Wrap(err error, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	if e, ok := as(err); ok {
		return e
	}
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// Wrapf is Wrap with a new message; the cause stays reachable via Unwrap.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// GetCode maps nil to Success and foreign errors to InternalServerError.
func GetCode(err error) ErrorCode {
	if err == nil {
		return Success
	}
	if e, ok := as(err); ok {
		return e.Code
	}
	return InternalServerError
}

func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, InternalServerError)
}

func Is(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

func as(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

func ValidationError(field, reason string) *Error {
	e := Newf(ValidationFailed, "%s: %s", field, reason)
	e.Details = map[string]interface{}{"field": field, "reason": reason}
	return e
}

func NotFoundError(resource string) *Error {
	return Newf(NotFound, "%s not found", resource)
}

// PersistenceError wraps a failed store write of what.
func PersistenceError(err error, what string) *Error {
	return Wrapf(err, DatabaseError, "failed to persist %s", what)
}
