package guardrail

import (
	"fmt"

	"github.com/railguard-ai/railguard/internal/types"
)

// BlockedError represents a guardrail's deliberate decision to stop a
// request, carried as an error where a CheckResult cannot flow (the realtime
// session's client-facing surface, CLI exit paths).
type BlockedError struct {
	GuardrailName string
	Reason        string
	Details       []ViolationDetail
}

// Error implements the error interface.
func (e *BlockedError) Error() string {
	return fmt.Sprintf("guardrail '%s' blocked operation: %s", e.GuardrailName, e.Reason)
}

// Unwrap returns nil as this is a terminal error.
func (e *BlockedError) Unwrap() error {
	return nil
}

// NewBlockedError creates a BlockedError from a blocked check result.
func NewBlockedError(name string, result CheckResult) *BlockedError {
	return &BlockedError{
		GuardrailName: name,
		Reason:        result.Reason,
		Details:       result.Details,
	}
}

// NewNotFoundError reports a step naming an unregistered guardrail.
func NewNotFoundError(name string) *types.RailguardError {
	return types.NewError(types.GUARDRAIL_NOT_FOUND, fmt.Sprintf("Guardrail '%s' not found", name))
}
