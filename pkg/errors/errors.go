package errors

import stderrors "errors"

// Code is a machine-readable error classification.
type Code string

const (
	// CodeConfiguration marks a missing mode, factory or prefab mapping.
	// The affected unit of work is skipped and the session continues degraded.
	CodeConfiguration Code = "CONFIGURATION"
	// CodeAuthorityViolation marks a write attempted by a non-owner or
	// a host-only action requested by a non-host.
	CodeAuthorityViolation Code = "AUTHORITY_VIOLATION"
	// CodeCapacityExceeded denies a connection when the roster is full.
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	// CodeAlreadyStarted denies a connection once the session started.
	CodeAlreadyStarted Code = "ALREADY_STARTED"
	// CodeStaleReference marks an operation against a participant that is gone.
	CodeStaleReference Code = "STALE_REFERENCE"
	// CodeProviderFailure marks a failed relay or auth call.
	CodeProviderFailure Code = "PROVIDER_FAILURE"
	// CodeInvalidArgument marks malformed input such as an empty display name.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeUnknown is returned by CodeOf for errors without a code.
	CodeUnknown Code = "UNKNOWN"
)

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Reason safe to surface to clients
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Reason returns the client-safe message of err. Raw causes are never included.
func Reason(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
