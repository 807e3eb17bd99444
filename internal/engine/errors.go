package engine

import (
	"errors"
	"fmt"
)

// ProcessingError represents a fatal condition detected during a render.
//
// Processing errors include:
//   - Structural inconsistency: execution-level, gathering or scope depth
//     not back to its start value at template end
//   - Outcome conflict: a directive set two structural results
//   - Unknown directive kind: an element entry with no recognized kind
//   - Body already modified: a whole-subtree directive invoked after an
//     earlier directive on the same tag rewrote the body
//
// A render either completes fully or aborts with one of these (or with a
// directive-thrown error, which is wrapped with location and propagated
// unchanged). Nothing is retried or silently swallowed.
type ProcessingError struct {
	// Code identifies the error category.
	Code ProcessingErrorCode

	// Message is a human-readable description.
	Message string

	// Template, Line and Col locate the event being handled when the
	// error was raised.
	Template string
	Line     int
	Col      int
}

// ProcessingErrorCode categorizes processing errors.
type ProcessingErrorCode string

const (
	// ErrCodeStructure indicates depths did not return to their start
	// values at template end, or the event sequence itself is malformed.
	ErrCodeStructure ProcessingErrorCode = "STRUCTURE_INCONSISTENT"

	// ErrCodeOutcomeConflict indicates a directive set more than one
	// structural outcome in a single invocation.
	ErrCodeOutcomeConflict ProcessingErrorCode = "OUTCOME_CONFLICT"

	// ErrCodeUnknownDirective indicates an element carried a directive
	// entry of no recognized kind.
	ErrCodeUnknownDirective ProcessingErrorCode = "UNKNOWN_DIRECTIVE_KIND"

	// ErrCodeBodyModified indicates a whole-subtree directive ran on a
	// tag whose body an earlier directive had already rewritten.
	ErrCodeBodyModified ProcessingErrorCode = "BODY_ALREADY_MODIFIED"

	// ErrCodeDepthExceeded indicates the configured nesting-depth limit
	// was exceeded.
	ErrCodeDepthExceeded ProcessingErrorCode = "NESTING_DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("%s: %s (template=%s, line=%d, col=%d)", e.Code, e.Message, e.Template, e.Line, e.Col)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsStructureError reports whether err is a structural consistency error.
// Uses errors.As to handle wrapped errors.
func IsStructureError(err error) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeStructure
	}
	return false
}

// IsOutcomeConflict reports whether err is an outcome conflict error.
func IsOutcomeConflict(err error) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeOutcomeConflict
	}
	return false
}

// IsBodyModified reports whether err is a body-already-modified error.
func IsBodyModified(err error) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeBodyModified
	}
	return false
}

func newProcessingError(code ProcessingErrorCode, template string, line, col int, format string, args ...any) *ProcessingError {
	return &ProcessingError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Template: template,
		Line:     line,
		Col:      col,
	}
}

// locateDirectiveError wraps an error thrown by a directive with the
// location of the event it was processing. The underlying error is
// preserved for errors.Is/As.
func locateDirectiveError(err error, template string, line, col int) error {
	return fmt.Errorf("directive failed (template=%s, line=%d, col=%d): %w", template, line, col, err)
}
