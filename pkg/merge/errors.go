package merge

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a merge failure for reporting and recovery logic.
type ErrorClass string

const (
	// ErrorClassValidation indicates a caller-contract violation
	// (empty new content, unknown merge mode). Never coerced silently.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassParse indicates malformed custom-block markers in one of
	// the two texts. Always carries a 1-indexed line number.
	ErrorClassParse ErrorClass = "parse"

	// ErrorClassConflict indicates the target already exists and the
	// selected mode forbids touching it.
	ErrorClassConflict ErrorClass = "conflict"

	// ErrorClassInternal indicates an invariant violation inside the
	// engine itself, e.g. an unreachable merge-mode branch. Surfaced
	// distinctly so it is never mistaken for a content problem.
	ErrorClassInternal ErrorClass = "internal"
)

// MergeError is a classified error produced by the merge engine.
type MergeError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Target is the merge target the error applies to, if known.
	Target string `json:"target,omitempty"`

	// Line is the 1-indexed line number for parse-class errors.
	Line int `json:"line,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target=%s)%s", e.Class, e.Message, e.Target, e.unwrapSuffix())
	}
	return fmt.Sprintf("[%s] %s%s", e.Class, e.Message, e.unwrapSuffix())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *MergeError) Unwrap() error {
	return e.Err
}

func (e *MergeError) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *MergeError) Is(target error) bool {
	t, ok := target.(*MergeError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewValidationError creates a caller-contract violation error.
func NewValidationError(message string, err error) *MergeError {
	return &MergeError{
		Class:   ErrorClassValidation,
		Message: message,
		Code:    ErrCodeValidation,
		Err:     err,
	}
}

// NewParseError creates a malformed-text error.
func NewParseError(message string, err error) *MergeError {
	return &MergeError{
		Class:   ErrorClassParse,
		Message: message,
		Code:    ErrCodeParse,
		Err:     err,
	}
}

// NewConflictError creates an existing-target conflict error.
func NewConflictError(message string, err error) *MergeError {
	return &MergeError{
		Class:   ErrorClassConflict,
		Message: message,
		Code:    ErrCodeAlreadyExists,
		Err:     err,
	}
}

// NewInternalError creates an internal invariant-violation error.
func NewInternalError(message string, err error) *MergeError {
	return &MergeError{
		Class:   ErrorClassInternal,
		Message: message,
		Code:    ErrCodeInternal,
		Err:     err,
	}
}

// WithTarget adds target context to an error.
func (e *MergeError) WithTarget(target string) *MergeError {
	e.Target = target
	return e
}

// WithLine adds a 1-indexed line number to an error.
func (e *MergeError) WithLine(line int) *MergeError {
	e.Line = line
	return e
}

// WithCode overrides the error code.
func (e *MergeError) WithCode(code string) *MergeError {
	e.Code = code
	return e
}

// IsValidation returns true if the error is a caller-contract violation.
func IsValidation(err error) bool {
	return hasClass(err, ErrorClassValidation)
}

// IsParse returns true if the error is a malformed-text error.
func IsParse(err error) bool {
	return hasClass(err, ErrorClassParse)
}

// IsConflict returns true if the error is an existing-target conflict.
func IsConflict(err error) bool {
	return hasClass(err, ErrorClassConflict)
}

// IsInternal returns true if the error is an internal invariant violation.
func IsInternal(err error) bool {
	return hasClass(err, ErrorClassInternal)
}

func hasClass(err error, class ErrorClass) bool {
	var e *MergeError
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// Common error codes.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeParse         = "PARSE_ERROR"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeInternal      = "INTERNAL_ERROR"
)
