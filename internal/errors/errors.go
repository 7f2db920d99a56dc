// Package errors defines the domain errors services return. Each carries a
// machine-readable Code that the API layer turns into an HTTP status and the
// "code" field of the error envelope.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// As is errors.As, so callers importing this package under its own name
// don't also need the standard one.
var As = errors.As

// Code is a machine-readable error code.
type Code string

// Codes used across the server.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeRateLimited        Code = "RATE_LIMITED"
)

var codeStatus = map[Code]int{
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeConflict:           http.StatusConflict,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeTokenExpired:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeValidation:         http.StatusBadRequest,
	CodeRateLimited:        http.StatusTooManyRequests,
}

// HTTPStatus returns the response status for c. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := codeStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a domain error.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code, so errors.Is(err, &Error{Code: CodeNotFound})
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == e.Code
}

// HTTPStatus returns the HTTP status for the error's code.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// New creates an error with the given code.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// NotFound creates a NOT_FOUND error.
func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

// Unauthorized creates an UNAUTHORIZED error.
func Unauthorized(msg string) *Error { return New(CodeUnauthorized, msg) }

// InvalidCredentials creates an INVALID_CREDENTIALS error.
func InvalidCredentials(msg string) *Error { return New(CodeInvalidCredentials, msg) }

// TokenExpired creates a TOKEN_EXPIRED error.
func TokenExpired(msg string) *Error { return New(CodeTokenExpired, msg) }

// FieldErrors maps a request field ("title", "tags[1].name") to what is wrong with it.
type FieldErrors map[string]string

// Err returns a VALIDATION error carrying f, or nil when f is empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Code: CodeValidation, Message: "validation failed", Details: f}
}

// FieldInvalid creates a VALIDATION error for a single field.
func FieldInvalid(field, problem string) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Details: FieldErrors{field: problem}}
}
