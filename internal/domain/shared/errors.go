// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "catalog", "progress", "learner"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Catalog domain errors
var (
	ErrItemNotFound       = NewDomainError("catalog", "Find", ErrNotFound, "catalog item not found")
	ErrInvalidItemID      = NewDomainError("catalog", "Validate", ErrInvalidID, "invalid item ID")
	ErrInvalidSeason      = NewDomainError("catalog", "Validate", ErrValueOutOfRange, "season out of range")
	ErrInvalidModule      = NewDomainError("catalog", "Validate", ErrValueOutOfRange, "module out of range")
	ErrInvalidAgeRating   = NewDomainError("catalog", "Validate", ErrInvalidInput, "invalid age rating")
	ErrInvalidContentType = NewDomainError("catalog", "Validate", ErrInvalidInput, "invalid content type")
)

// Progress domain errors
var (
	ErrProgressNotFound = NewDomainError("progress", "Find", ErrNotFound, "progress record not found")
	ErrNegativeProgress = NewDomainError("progress", "Validate", ErrNegativeValue, "progress cannot be negative")
)

// Learner domain errors
var (
	ErrLearnerNotFound    = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrBadgeNotFound      = NewDomainError("learner", "FindBadge", ErrNotFound, "badge not found")
	ErrBadgeAlreadyOwned  = NewDomainError("learner", "UnlockBadge", ErrAlreadyExists, "badge already unlocked")
	ErrInvalidXPAmount    = NewDomainError("learner", "Validate", ErrNegativeValue, "XP amount cannot be negative")
	ErrParentPINMismatch  = NewDomainError("learner", "VerifyParent", ErrUnauthorized, "parent PIN does not match")
	ErrParentPINNotSet    = NewDomainError("learner", "VerifyParent", ErrInvalidState, "parent PIN has not been set")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
	ErrNotificationExpired  = NewDomainError("notification", "Dismiss", ErrExpired, "notification already expired")
	ErrInvalidKind          = NewDomainError("notification", "Validate", ErrInvalidInput, "invalid notification kind")
	ErrTooManyNotifications = NewDomainError("notification", "Push", ErrRateLimited, "too many notifications")
)

// Trailer task errors
var (
	ErrTaskNotFound       = NewDomainError("task", "Find", ErrNotFound, "task not found")
	ErrTaskAlreadyDone    = NewDomainError("task", "Cancel", ErrInvalidState, "task already finished")
	ErrTaskCancelled      = NewDomainError("task", "Await", ErrInvalidState, "task was cancelled")
)

// External service errors
var (
	ErrGeminiUnavailable     = NewDomainError("gemini", "Request", ErrServiceUnavailable, "Gemini API is unavailable")
	ErrGeminiRateLimited     = NewDomainError("gemini", "Request", ErrRateLimited, "Gemini API rate limit exceeded")
	ErrGeminiTimeout         = NewDomainError("gemini", "Request", ErrTimeout, "Gemini API request timeout")
	ErrGeminiInvalidResponse = NewDomainError("gemini", "Parse", ErrInvalidFormat, "invalid response from Gemini API")
	ErrVideoGenerationFailed = NewDomainError("gemini", "GenerateVideo", ErrExternalService, "video generation failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
