package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Manifest and resolution errors. These are fatal to a whole run,
	// except ErrDependencyUnresolved which is recorded per entry.
	ErrManifestNotFound     ErrorCode = "MANIFEST_NOT_FOUND"
	ErrManifestInvalid      ErrorCode = "MANIFEST_INVALID"
	ErrDependencyUnresolved ErrorCode = "DEPENDENCY_UNRESOLVED"

	// Materialization errors
	ErrInvalidDestination    ErrorCode = "INVALID_DESTINATION"
	ErrDestinationUnwritable ErrorCode = "DESTINATION_UNWRITABLE"
	ErrSourceUnavailable     ErrorCode = "SOURCE_UNAVAILABLE"
	ErrRemovalFailed         ErrorCode = "REMOVAL_FAILED"
	ErrLinkUnsupported       ErrorCode = "LINK_UNSUPPORTED"
	ErrTimeout               ErrorCode = "TIMEOUT"
)

// DeplinkError represents a structured error with code and details
type DeplinkError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DeplinkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DeplinkError) Unwrap() error {
	return e.Wrapped
}

// Is matches any *DeplinkError carrying the same code.
func (e *DeplinkError) Is(target error) bool {
	var targetErr *DeplinkError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DeplinkError with the given code and message
func New(code ErrorCode, message string) *DeplinkError {
	return &DeplinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DeplinkError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DeplinkError {
	return &DeplinkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DeplinkError
func Wrap(err error, code ErrorCode, message string) *DeplinkError {
	if err == nil {
		return nil
	}
	return &DeplinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DeplinkError {
	if err == nil {
		return nil
	}
	return &DeplinkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DeplinkError) WithDetail(key string, value interface{}) *DeplinkError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var deplinkErr *DeplinkError
	if errors.As(err, &deplinkErr) {
		return deplinkErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DeplinkError
func GetErrorCode(err error) ErrorCode {
	var deplinkErr *DeplinkError
	if errors.As(err, &deplinkErr) {
		return deplinkErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DeplinkError
func GetErrorDetails(err error) map[string]interface{} {
	var deplinkErr *DeplinkError
	if errors.As(err, &deplinkErr) {
		return deplinkErr.Details
	}
	return nil
}

// IsFatal reports whether an error code aborts a whole run rather than a
// single entry.
func IsFatal(code ErrorCode) bool {
	switch code {
	case ErrInvalidDestination, ErrManifestNotFound, ErrManifestInvalid,
		ErrInvalidInput, ErrConfigLoad, ErrConfigParse:
		return true
	}
	return false
}
