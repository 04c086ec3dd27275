package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a DomainError independently of its message.
type Kind string

const (
	KindUnknownAction        Kind = "UnknownAction"
	KindMissingRequiredField Kind = "MissingRequiredField"
	KindNamespaceSyntax      Kind = "NamespaceSyntaxError"
	KindInternal             Kind = "Internal"
	KindMalformed            Kind = "Malformed"
	KindRateLimited          Kind = "RateLimited"
)

// DomainError is an error with a stable code, e.g. "RM-ACT-4000".
type DomainError struct {
	Code    string
	Kind    Kind
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another *DomainError by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError.
func NewDomainError(code string, kind Kind, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// HTTPStatus maps the error kind onto the numeric code carried by the
// JSON line protocol.
func (e *DomainError) HTTPStatus() int {
	switch e.Kind {
	case KindInternal:
		return 500
	case KindRateLimited:
		return 429
	default:
		return 400
	}
}

// AsDomainError converts any error into a DomainError, wrapping foreign
// errors as ErrInternal.
func AsDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return ErrInternal.WithCause(err).WithDetails(err.Error())
}

// Command errors.
var (
	// ErrUnknownAction is returned for an action the dispatcher does not know.
	ErrUnknownAction = NewDomainError("RM-ACT-4000", KindUnknownAction, "unknown action")

	// ErrMissingField is returned when an action's required field is absent.
	ErrMissingField = NewDomainError("RM-ARG-4001", KindMissingRequiredField, "missing required field")

	// ErrNamespaceSyntax is returned when a namespace or key contains the
	// reserved separator.
	ErrNamespaceSyntax = NewDomainError("RM-NS-4002", KindNamespaceSyntax, "illegal namespace separator")
)

// System errors.
var (
	ErrInternal    = NewDomainError("RM-SYS-5000", KindInternal, "internal error")
	ErrMalformed   = NewDomainError("RM-SYS-4000", KindMalformed, "malformed input")
	ErrRateLimited = NewDomainError("RM-SYS-4290", KindRateLimited, "rate limit exceeded")
)
