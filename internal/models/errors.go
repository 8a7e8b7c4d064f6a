package models

import (
	"errors"
)

var (
	// ErrInvalidInput marks an out-of-domain raw field such as an hour outside 0-23
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRange marks a date range whose start is after its end
	ErrInvalidRange = errors.New("invalid range")
)

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
	// Kind is the sentinel the error unwraps to; nil means ErrInvalidInput
	Kind error
}

// NewInputError builds a ValidationError of kind ErrInvalidInput
func NewInputError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message, Kind: ErrInvalidInput}
}

// NewRangeError builds a ValidationError of kind ErrInvalidRange
func NewRangeError(value, message string) *ValidationError {
	return &ValidationError{Field: "range", Value: value, Message: message, Kind: ErrInvalidRange}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is match the sentinel kind
func (e *ValidationError) Unwrap() error {
	if e.Kind == nil {
		return ErrInvalidInput
	}
	return e.Kind
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
