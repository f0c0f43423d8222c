package detector

import (
	"errors"
	"fmt"
)

// Error is returned by Mark and Measure.
//
// Only two conditions are raised by the detector:
//   - Invalid argument: Mark called with an empty name
//   - Missing mark: Measure references a mark that was never recorded
//
// Every other operation is total. Removing an unknown listener, clearing an
// unknown mark or measure, or tearing down twice are silent no-ops.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the mark or measure name involved, if any.
	Name string
}

// ErrorCode categorizes detector errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a mark name was empty.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeMissingMark indicates a measure referenced an unknown mark.
	ErrCodeMissingMark ErrorCode = "MISSING_MARK"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidArgument returns true if err is an invalid argument error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == ErrCodeInvalidArgument
	}
	return false
}

// IsMissingMark returns true if err is a missing mark error.
// Uses errors.As to handle wrapped errors.
func IsMissingMark(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == ErrCodeMissingMark
	}
	return false
}

func newInvalidArgument(message string) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: message}
}

// newMissingMark reports which side of the measure is missing. which is
// "start" or "end".
func newMissingMark(measure, which, mark string) *Error {
	return &Error{
		Code:    ErrCodeMissingMark,
		Message: fmt.Sprintf("%s %s mark %q not recorded", measure, which, mark),
		Name:    mark,
	}
}
