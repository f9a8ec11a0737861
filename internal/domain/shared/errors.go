package shared

import "errors"

// Error codes shared by every bounded context
const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInvalidState    = "INVALID_STATE"
	CodeConflict        = "CONFLICT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches any DomainError with the same code, so callers can write
// errors.Is(err, shared.ErrNotFound).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the original cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// NotFound builds a NOT_FOUND error. Missing and not-owned resources share it.
func NotFound(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// InvalidArgument builds an INVALID_ARGUMENT error
func InvalidArgument(message string) *DomainError {
	return NewDomainError(CodeInvalidArgument, message)
}

// InvalidState builds an INVALID_STATE error
func InvalidState(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// Conflict builds a CONFLICT error
func Conflict(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// Common domain errors
var (
	ErrNotFound        = NotFound("Resource not found")
	ErrInvalidArgument = InvalidArgument("Invalid argument provided")
	ErrInvalidState    = InvalidState("Operation not allowed in current state")
	ErrConflict        = Conflict("Resource conflicts with an existing one")
	ErrUnauthorized    = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden       = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// CodeOf returns the domain error code of err, or "" when err is not a DomainError
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
