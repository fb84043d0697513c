package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Parse-core errors. The batch loop distinguishes "skip this statement"
// (unrecognized, already cached) from "this statement is broken" (missing
// required field) by matching these.
var (
	ErrUnrecognizedBillType = errors.New("unrecognized bill type")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// MissingFieldError reports a named field that could not be resolved on a
// statement.
func MissingFieldError(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingRequiredField, field)
}
