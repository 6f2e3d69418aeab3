package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateSubmission = errors.New("ratings already submitted for this round")
	ErrMissingAssignment   = errors.New("no group assignment for reviewer group")
	ErrRoundClosed         = errors.New("round is not open")
	ErrStudentNotFound     = errors.New("student not found")
)

// InvalidGradeError is returned for a letter outside A-E.
type InvalidGradeError struct {
	Grade string
}

func (e *InvalidGradeError) Error() string {
	return fmt.Sprintf("invalid grade %q: must be one of A-E", e.Grade)
}

// Unwrap lets callers treat a bad letter as a validation failure.
func (e *InvalidGradeError) Unwrap() error {
	return ErrValidation
}
