// Package errors defines the error taxonomy of instance lifecycle
// operations. It is a leaf package so that backends, the admin API and the
// CLI can classify failures without importing the instance package.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the kind of failure of a lifecycle operation.
type ErrorCode int

const (
	// ErrCodeInvalidConfiguration indicates the instance configuration is
	// unusable, for example a connection string without a chroot.
	ErrCodeInvalidConfiguration ErrorCode = iota + 1

	// ErrCodeAlreadyInitialized indicates the coordination state of the
	// instance already exists and clearing was not requested.
	ErrCodeAlreadyInitialized

	// ErrCodeTableExists indicates the backing table already exists and
	// clearing was not requested.
	ErrCodeTableExists

	// ErrCodeActiveInstance indicates a live leader-elected service is
	// attached to the instance.
	ErrCodeActiveInstance

	// ErrCodeUnavailable indicates a backing service could not be reached
	// or failed while serving the request.
	ErrCodeUnavailable
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidConfiguration:
		return "InvalidConfiguration"
	case ErrCodeAlreadyInitialized:
		return "AlreadyInitialized"
	case ErrCodeTableExists:
		return "TableExists"
	case ErrCodeActiveInstance:
		return "ActiveInstance"
	case ErrCodeUnavailable:
		return "Unavailable"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// Operational reports whether the code belongs to the operational kind:
// the request was valid but the environment did not allow it to proceed.
func (c ErrorCode) Operational() bool {
	return c == ErrCodeActiveInstance || c == ErrCodeUnavailable
}

// Error is a classified lifecycle error.
type Error struct {
	Code     ErrorCode
	Message  string
	Resource string // root path, table name or config key
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Resource != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Resource)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, which lets callers test against
// the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrInvalidConfiguration = &Error{Code: ErrCodeInvalidConfiguration, Message: "invalid configuration"}
	ErrAlreadyInitialized   = &Error{Code: ErrCodeAlreadyInitialized, Message: "instance already initialized"}
	ErrTableExists          = &Error{Code: ErrCodeTableExists, Message: "table already exists"}
	ErrActiveInstance       = &Error{Code: ErrCodeActiveInstance, Message: "instance is active"}
	ErrUnavailable          = &Error{Code: ErrCodeUnavailable, Message: "backend unavailable"}
)

// ============================================================================
// Factory Functions
// ============================================================================

// NewInvalidConfigurationError creates an InvalidConfiguration error.
func NewInvalidConfigurationError(key, message string) *Error {
	return &Error{
		Code:     ErrCodeInvalidConfiguration,
		Message:  message,
		Resource: key,
	}
}

// NewAlreadyInitializedError creates an AlreadyInitialized error.
func NewAlreadyInitializedError(root string) *Error {
	return &Error{
		Code:     ErrCodeAlreadyInitialized,
		Message:  "instance already initialized; use clear coordination state to reinitialize",
		Resource: root,
	}
}

// NewTableExistsError creates a TableExists error.
func NewTableExistsError(table string) *Error {
	return &Error{
		Code:     ErrCodeTableExists,
		Message:  "table already exists; use clear table to drop it",
		Resource: table,
	}
}

// NewActiveInstanceError creates an ActiveInstance error.
func NewActiveInstanceError(root string) *Error {
	return &Error{
		Code:     ErrCodeActiveInstance,
		Message:  "cannot remove an active instance; stop the oracle first",
		Resource: root,
	}
}

// NewUnavailableError wraps a backend failure observed during op.
func NewUnavailableError(op string, err error) *Error {
	return &Error{
		Code:    ErrCodeUnavailable,
		Message: op + " failed",
		Err:     err,
	}
}

// ============================================================================
// Error Type Checking Helpers
// ============================================================================

// CodeOf returns the code of the first *Error in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsInvalidConfiguration returns true if err is an InvalidConfiguration error.
func IsInvalidConfiguration(err error) bool {
	return CodeOf(err) == ErrCodeInvalidConfiguration
}

// IsAlreadyInitialized returns true if err is an AlreadyInitialized error.
func IsAlreadyInitialized(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyInitialized
}

// IsTableExists returns true if err is a TableExists error.
func IsTableExists(err error) bool {
	return CodeOf(err) == ErrCodeTableExists
}

// IsActiveInstance returns true if err is an ActiveInstance error.
func IsActiveInstance(err error) bool {
	return CodeOf(err) == ErrCodeActiveInstance
}

// IsOperational returns true for ActiveInstance and Unavailable errors.
func IsOperational(err error) bool {
	return CodeOf(err).Operational()
}
