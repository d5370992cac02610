// Package errors defines the stable error taxonomy of the analysis engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseFailure indicates the submitted source could not be parsed
	ParseFailure ErrorCode = "PARSE_FAILURE"
	// SecurityViolation indicates a disallowed construct or call was found before execution
	SecurityViolation ErrorCode = "SECURITY_VIOLATION"
	// TimeoutExceeded indicates the sandboxed run exceeded its wall-clock budget
	TimeoutExceeded ErrorCode = "TIMEOUT_EXCEEDED"
	// RecursionOverflow indicates the program exceeded the call depth limit
	RecursionOverflow ErrorCode = "RECURSION_OVERFLOW"
	// ExecutionError indicates the program raised a runtime error
	ExecutionError ErrorCode = "EXECUTION_ERROR"
	// TracingUnavailable indicates the tracer could not be installed for this run
	TracingUnavailable ErrorCode = "TRACING_UNAVAILABLE"
	// ClassifierUnavailable indicates the statistical classifier gave no verdict
	ClassifierUnavailable ErrorCode = "CLASSIFIER_UNAVAILABLE"
	// ExplainerUnavailable indicates the explanation backend failed or is not configured
	ExplainerUnavailable ErrorCode = "EXPLAINER_UNAVAILABLE"
	// ConfigInvalid indicates a configuration value is out of range
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// EditCode suggests changing the submitted program
	EditCode FixActionType = "edit-code"
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// Error is an engine error with a stable code, a message and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Line           int         `json:"line,omitempty"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error with the default fixes for its code
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates a new Error with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// AtLine records the source line the error refers to
func (e *Error) AtLine(line int) *Error {
	e.Line = line
	return e
}

// Code returns the code of the first *Error in err's chain, or InternalError
// when err carries none. A nil error has no code.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// From returns the first *Error in err's chain, or nil.
func From(err error) *Error {
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return nil
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && Code(err) == code
}

// IsUserVisible reports whether err must be surfaced to the submitter rather than
// absorbed by a fallback.
func IsUserVisible(err error) bool {
	switch Code(err) {
	case SecurityViolation, TimeoutExceeded, RecursionOverflow:
		return true
	default:
		return false
	}
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SecurityViolation: {
		{
			Type:        EditCode,
			Description: "Remove imports and calls to eval, exec, open, getattr and similar builtins",
		},
	},
	TimeoutExceeded: {
		{
			Type:        EditCode,
			Description: "Check loop conditions; the program must terminate on the given input",
		},
		{
			Type:        RunCommand,
			Command:     "algoscope analyze --timeout ${seconds}",
			Description: "Retry with a larger time budget",
		},
	},
	RecursionOverflow: {
		{
			Type:        EditCode,
			Description: "Add or fix the base case of the recursive function",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "algoscope config show",
			Description: "Inspect the effective configuration",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
