package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation   ErrorCategory = "validation"    // Invalid numeric input or position
	ErrCatNotFound     ErrorCategory = "not_found"     // Workout id lookup miss
	ErrCatDuplicate    ErrorCategory = "duplicate"     // Identity collision
	ErrCatTypeMismatch ErrorCategory = "type_mismatch" // Field not applicable to the variant
	ErrCatCorruptData  ErrorCategory = "corrupt_data"  // Persisted snapshot failed validation
	ErrCatState        ErrorCategory = "state"         // Controller misuse (no pending interaction)
	ErrCatStorage      ErrorCategory = "storage"       // Key-value store failure
	ErrCatInternal     ErrorCategory = "internal"      // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeWorkoutNotFound,
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
		Details:   map[string]interface{}{"id": id},
	}
}

// ErrDuplicateID creates an identity collision error.
func ErrDuplicateID(id string) *DomainError {
	return &DomainError{
		Category:  ErrCatDuplicate,
		Code:      CodeDuplicateID,
		Message:   fmt.Sprintf("workout id already present: %s", id),
		Retryable: false,
		Details:   map[string]interface{}{"id": id},
	}
}

// ErrTypeMismatch creates an error for a field that does not apply to a variant.
func ErrTypeMismatch(field string, variant Variant) *DomainError {
	return &DomainError{
		Category:  ErrCatTypeMismatch,
		Code:      CodeTypeMismatch,
		Message:   fmt.Sprintf("field %s does not apply to %s workouts", field, variant),
		Retryable: false,
		Details: map[string]interface{}{
			"field":   field,
			"variant": string(variant),
		},
	}
}

// ErrCorruptData creates an error for a persisted snapshot that failed validation.
func ErrCorruptData(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCorruptData,
		Code:      CodeSnapshotCorrupted,
		Message:   message,
		Retryable: false,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrStorage creates a key-value store error. Storage errors are retryable.
func ErrStorage(op string, cause error) *DomainError {
	return &DomainError{
		Category:  ErrCatStorage,
		Code:      CodeStorageFailed,
		Message:   op,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

func IsValidation(err error) bool   { return IsCategory(err, ErrCatValidation) }
func IsNotFound(err error) bool     { return IsCategory(err, ErrCatNotFound) }
func IsDuplicate(err error) bool    { return IsCategory(err, ErrCatDuplicate) }
func IsTypeMismatch(err error) bool { return IsCategory(err, ErrCatTypeMismatch) }
func IsCorruptData(err error) bool  { return IsCategory(err, ErrCatCorruptData) }

// Predefined error codes
const (
	CodeWorkoutNotFound   = "WORKOUT_NOT_FOUND"
	CodeDuplicateID       = "DUPLICATE_ID"
	CodeTypeMismatch      = "TYPE_MISMATCH"
	CodeSnapshotCorrupted = "SNAPSHOT_CORRUPTED"
	CodeStorageFailed     = "STORAGE_FAILED"
	CodeNoPending         = "NO_PENDING_INTERACTION"

	// Validation error codes
	CodeInvalidDistance  = "INVALID_DISTANCE"
	CodeInvalidDuration  = "INVALID_DURATION"
	CodeInvalidCadence   = "INVALID_CADENCE"
	CodeInvalidElevation = "INVALID_ELEVATION"
	CodeInvalidPosition  = "INVALID_POSITION"
	CodeInvalidVariant   = "INVALID_VARIANT"
	CodeInvalidID        = "INVALID_ID"
	CodeInvalidKey       = "INVALID_KEY"
)
