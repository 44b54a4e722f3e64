package dispatch

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrVehicleInactive   = errors.New("vehicle inactive")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrCapacityExceeded  = errors.New("vehicle cannot accept appointment")
	ErrStaleMove         = errors.New("move source is stale")
	ErrVehicleInUse      = errors.New("vehicle still has appointments")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in a request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a problem with the named field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field problems were recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
