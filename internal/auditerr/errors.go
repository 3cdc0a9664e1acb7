// Package auditerr defines the coded errors that cross component boundaries
// in the audit pipeline.
package auditerr

import (
	"errors"
	"fmt"
	"time"
)

// Code identifies a failure class.
type Code string

const (
	// Input
	CodeMissingFields Code = "MISSING_FIELDS"

	// Admission and scheduling
	CodeQueueFull       Code = "QUEUE_FULL"
	CodeQueueCleared    Code = "QUEUE_CLEARED"
	CodeSchedulerClosed Code = "SCHEDULER_CLOSED"
	CodeTaskTimeout     Code = "TASK_TIMEOUT"

	// Extraction
	CodeSubjectNotFound   Code = "SUBJECT_NOT_FOUND"
	CodeExtractionTimeout Code = "EXTRACTION_TIMEOUT"
	CodeExtractionFailed  Code = "EXTRACTION_FAILED"

	CodeInternal Code = "INTERNAL_ERROR"
)

// DefaultRetryAfter is the back-off hint attached to load related failures.
const DefaultRetryAfter = 120 * time.Second

// Error is a coded error. Attempts is set by the retry orchestrator;
// RetryAfter is non-zero when the caller should wait before trying again.
type Error struct {
	Code       Code
	Message    string
	Attempts   int
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, &Error{Code: CodeQueueFull}) works through wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Terminal reports whether retrying the same request cannot succeed.
func (e *Error) Terminal() bool {
	switch e.Code {
	case CodeSubjectNotFound, CodeMissingFields:
		return true
	}
	return false
}

// New creates a coded error.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error that wraps err.
func Wrap(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost *Error in err's chain,
// or CodeInternal when err carries no code. CodeOf(nil) is "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}

// IsTerminal reports whether err is a non-retryable failure.
func IsTerminal(err error) bool {
	e, ok := As(err)
	return ok && e.Terminal()
}

// RetryAfterOf returns the retry hint of the outermost *Error, or zero.
func RetryAfterOf(err error) time.Duration {
	if e, ok := As(err); ok {
		return e.RetryAfter
	}
	return 0
}
