package errors

import (
	"errors"
	"fmt"
	"strings"
)

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    "VALIDATION_FAILED",
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInvalidTimeFormatError creates an error for an unparseable time range
func NewInvalidTimeFormatError(value string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf("invalid time range format: %q", value),
		Code:    "INVALID_TIME_FORMAT",
		Context: map[string]interface{}{
			"value": value,
		},
	}
}

// NewInvalidDateFormatError creates an error for an unparseable date
func NewInvalidDateFormatError(value string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf("invalid date format: %q, expected YYYY-MM-DD", value),
		Code:    "INVALID_DATE_FORMAT",
		Context: map[string]interface{}{
			"value": value,
		},
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string, identifier string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
		Code:    "NOT_FOUND",
		Context: map[string]interface{}{
			"resource":   resource,
			"identifier": identifier,
		},
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(operation string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeDatabase,
		Message: fmt.Sprintf("storage operation failed: %s", operation),
		Code:    "STORAGE_FAILURE",
		Cause:   cause,
		Context: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(field string, value interface{}, reason string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: fmt.Sprintf("invalid input for %s: %s", field, reason),
		Code:    "INVALID_INPUT",
		Context: map[string]interface{}{
			"field":  field,
			"value":  value,
			"reason": reason,
		},
	}
}

// NewTimeConflictError creates an error describing a time overlap between a
// candidate event and one or more existing events
func NewTimeConflictError(title string, conflicting []string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: fmt.Sprintf("time conflict for %q with events: %s", title, strings.Join(conflicting, ", ")),
		Code:    "TIME_CONFLICT",
		Context: map[string]interface{}{
			"title":     title,
			"conflicts": conflicting,
		},
	}
}

// NewDuplicateEventError creates an error for an exact duplicate event
func NewDuplicateEventError(title, date, timeRange string) *AppError {
	return &AppError{
		Type:    ErrorTypeDuplicate,
		Message: fmt.Sprintf("duplicate event: %q already exists with identical details (%s %s)", title, date, timeRange),
		Code:    "DUPLICATE_EVENT",
		Context: map[string]interface{}{
			"title":      title,
			"date":       date,
			"time_range": timeRange,
		},
	}
}

// NewUnsupportedRecurrenceRuleError creates an error for an unknown recurrence rule
func NewUnsupportedRecurrenceRuleError(rule string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: fmt.Sprintf("unsupported recurrence rule: %q", rule),
		Code:    "UNSUPPORTED_RECURRENCE_RULE",
		Context: map[string]interface{}{
			"rule": rule,
		},
	}
}

// NewUnknownActionError creates an error for an operation whose action tag is
// not one of the recognized actions
func NewUnknownActionError(action string, title string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: fmt.Sprintf("unknown action %q for event %q", action, title),
		Code:    "UNKNOWN_ACTION",
		Context: map[string]interface{}{
			"action": action,
			"title":  title,
		},
	}
}

// NewNoValidOperationsError creates an error for assistant text that produced
// no extractable operations
func NewNoValidOperationsError() *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: "no valid operations found in input text",
		Code:    "NO_VALID_OPERATIONS",
		Context: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with additional context
func WrapError(err error, errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Code:    errorType.String(),
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType checks if the error is of the specified type
func IsErrorType(err error, errorType ErrorType) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.IsType(errorType)
	}
	return false
}

// GetUserMessage returns a user-friendly error message
func GetUserMessage(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
