package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates the caller supplied an invalid patient case
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeReference indicates the protocol reference table could not be
	// loaded or parsed; recoverable, degrades the pipeline to the sentinel
	ErrorTypeReference ErrorType = "REFERENCE"

	// ErrorTypeDraft indicates the draft-generation collaborator failed
	ErrorTypeDraft ErrorType = "DRAFT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from an external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewReferenceError creates a new protocol reference error
func NewReferenceError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeReference,
		Message: message,
		Err:     err,
	}
}

// NewDraftError creates a new draft-generation error
func NewDraftError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeDraft,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsReference reports whether err is a protocol reference error
func IsReference(err error) bool {
	return IsType(err, ErrorTypeReference)
}

// IsDraft reports whether err is a draft-generation error
func IsDraft(err error) bool {
	return IsType(err, ErrorTypeDraft)
}
