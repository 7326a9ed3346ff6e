package netstate

import (
	"errors"
	"fmt"
)

// Error types for network state operations

// ErrorKind represents the category of error that occurred
type ErrorKind int

const (
	// KindQuery indicates a read of live network state failed (transient or
	// permanent). Reconciliation cannot trust its snapshot and must abort.
	KindQuery ErrorKind = iota
	// KindProfileCreate indicates a connection profile could not be created.
	// Fatal for the pass: reconciliation requires both profiles to exist.
	KindProfileCreate
	// KindActivationTimeout indicates a profile did not come up within the
	// bounded wait. Expected and handled by the fallback state machine.
	KindActivationTimeout
	// KindActivationFailed indicates the network backend reported activation
	// failure before the wait expired.
	KindActivationFailed
	// KindRegulatoryDomain indicates the wireless regulatory domain could not
	// be read or set. Non-fatal: the pass continues.
	KindRegulatoryDomain
	// KindValidation indicates a malformed attribute name or value.
	KindValidation
	// KindUnknown indicates an unexpected error.
	KindUnknown
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindQuery:
		return "Query Error"
	case KindProfileCreate:
		return "Profile Create Error"
	case KindActivationTimeout:
		return "Activation Timeout"
	case KindActivationFailed:
		return "Activation Failed"
	case KindRegulatoryDomain:
		return "Regulatory Domain Error"
	case KindValidation:
		return "Validation Error"
	case KindUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// AdapterError represents an error from the network state backend
type AdapterError struct {
	Kind    ErrorKind // Category of error
	Op      string    // Operation that failed (e.g., "activate", "get-attribute")
	Profile string    // Profile name involved (if any)
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *AdapterError) Error() string {
	msg := e.Message
	if e.Profile != "" {
		msg = fmt.Sprintf("%s (profile %q)", msg, e.Profile)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", e.Kind, e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewQueryError creates an error for a failed read of live state
func NewQueryError(op string, message string, err error) *AdapterError {
	return &AdapterError{Kind: KindQuery, Op: op, Message: message, Err: err}
}

// NewProfileCreateError creates an error for a failed profile creation
func NewProfileCreateError(profile string, err error) *AdapterError {
	return &AdapterError{
		Kind:    KindProfileCreate,
		Op:      "create-profile",
		Profile: profile,
		Message: "failed to create connection profile",
		Err:     err,
	}
}

// NewActivationTimeout creates an error for an activation that exceeded its
// bounded wait
func NewActivationTimeout(profile string, seconds int) *AdapterError {
	return &AdapterError{
		Kind:    KindActivationTimeout,
		Op:      "activate",
		Profile: profile,
		Message: fmt.Sprintf("profile did not activate within %ds", seconds),
	}
}

// NewActivationError creates an error for a backend-reported activation failure
func NewActivationError(profile string, err error) *AdapterError {
	return &AdapterError{
		Kind:    KindActivationFailed,
		Op:      "activate",
		Profile: profile,
		Message: "activation failed",
		Err:     err,
	}
}

// NewRegulatoryDomainError creates an error for a failed regulatory domain
// read or write
func NewRegulatoryDomainError(op string, err error) *AdapterError {
	return &AdapterError{
		Kind:    KindRegulatoryDomain,
		Op:      op,
		Message: "regulatory domain operation failed",
		Err:     err,
	}
}

// NewValidationError creates an error for a malformed attribute or value
func NewValidationError(op string, message string) *AdapterError {
	return &AdapterError{Kind: KindValidation, Op: op, Message: message}
}

// IsQueryError checks if an error is a live-state read failure
func IsQueryError(err error) bool {
	return hasKind(err, KindQuery)
}

// IsProfileCreateError checks if an error is a profile creation failure
func IsProfileCreateError(err error) bool {
	return hasKind(err, KindProfileCreate)
}

// IsActivationTimeout checks if an error is a bounded-wait expiry
func IsActivationTimeout(err error) bool {
	return hasKind(err, KindActivationTimeout)
}

// IsActivationFailure checks if an error is any activation failure, whether a
// timeout or a backend-reported error
func IsActivationFailure(err error) bool {
	return hasKind(err, KindActivationTimeout) || hasKind(err, KindActivationFailed)
}

// IsRegulatoryDomainError checks if an error is a regulatory domain failure
func IsRegulatoryDomainError(err error) bool {
	return hasKind(err, KindRegulatoryDomain)
}

func hasKind(err error, kind ErrorKind) bool {
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return adapterErr.Kind == kind
	}
	return false
}
