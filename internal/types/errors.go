package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Railguard errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	PIPELINE_CONFIG_INVALID  ErrorCode = "PIPELINE_CONFIG_INVALID"
)

// Guardrail error codes
const (
	GUARDRAIL_BLOCKED   ErrorCode = "GUARDRAIL_BLOCKED"
	GUARDRAIL_NOT_FOUND ErrorCode = "GUARDRAIL_NOT_FOUND"
	GUARDRAIL_EXECUTION ErrorCode = "GUARDRAIL_EXECUTION"
)

// Realtime session error codes
const (
	REALTIME_PROTOCOL       ErrorCode = "REALTIME_PROTOCOL"
	REALTIME_SESSION_CLOSED ErrorCode = "REALTIME_SESSION_CLOSED"
	REALTIME_SETUP_FAILED   ErrorCode = "REALTIME_SETUP_FAILED"
)

// RailguardError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints.
type RailguardError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *RailguardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *RailguardError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *RailguardError) Is(target error) bool {
	var rgErr *RailguardError
	if errors.As(target, &rgErr) {
		return e.Code == rgErr.Code
	}
	return false
}

// NewError creates a new non-retryable RailguardError with the given code and message.
func NewError(code ErrorCode, message string) *RailguardError {
	return &RailguardError{
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// NewRetryableError creates a new retryable RailguardError with the given code
// and message. Use this for transient errors that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *RailguardError {
	return &RailguardError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// IsErrorCode reports whether any error in err's chain is a RailguardError
// with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	var rgErr *RailguardError
	if errors.As(err, &rgErr) {
		return rgErr.Code == code
	}
	return false
}

// WrapError creates a new non-retryable RailguardError that wraps an existing
// error. The wrapped error is accessible via Unwrap() for chain inspection.
func WrapError(code ErrorCode, message string, cause error) *RailguardError {
	return &RailguardError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}
