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
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")

	// Data sufficiency: not a failure, callers route this to fallback values.
	ErrInsufficientData = errors.New("insufficient data")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// Infrastructure errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCacheUnavailable   = errors.New("cache unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "gamification", "prediction", "activity"
	Op      string // Operation that failed, e.g., "AwardPoints", "Predict"
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

// Activity domain errors
var (
	ErrActivityNotFound   = NewDomainError("activity", "Find", ErrNotFound, "activity record not found")
	ErrInvalidScore       = NewDomainError("activity", "Validate", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrInvalidSubject     = NewDomainError("activity", "Validate", ErrInvalidInput, "invalid subject")
	ErrNoActivity         = NewDomainError("activity", "Aggregate", ErrInsufficientData, "no activity recorded for user")
	ErrFutureActivityTime = NewDomainError("activity", "Validate", ErrInvalidInput, "activity timestamp cannot be in the future")
)

// Prediction domain errors
var (
	ErrPredictionNotFound = NewDomainError("prediction", "Find", ErrNotFound, "prediction not found")
	ErrNoScores           = NewDomainError("prediction", "Predict", ErrInsufficientData, "not enough scores for regression")
	ErrUnknownTrend       = NewDomainError("prediction", "Validate", ErrInvalidInput, "unknown trend value")
	ErrUnknownRiskLevel   = NewDomainError("prediction", "Validate", ErrInvalidInput, "unknown risk level")
)

// Gamification domain errors
var (
	ErrStatsNotFound        = NewDomainError("gamification", "Find", ErrNotFound, "user stats not found")
	ErrBadgeNotFound        = NewDomainError("gamification", "FindBadge", ErrNotFound, "badge not found")
	ErrBadgeAlreadyEarned   = NewDomainError("gamification", "AwardBadge", ErrAlreadyExists, "badge already earned")
	ErrUnknownCriteriaType  = NewDomainError("gamification", "Evaluate", ErrInvalidInput, "unknown badge criteria type")
	ErrNegativePointAmount  = NewDomainError("gamification", "AwardPoints", ErrNegativeValue, "point amount cannot be negative")
	ErrStatsVersionConflict = NewDomainError("gamification", "Save", ErrOptimisticLock, "stats modified concurrently")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound   = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrInvalidRankingType    = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid ranking type")
	ErrInvalidRank           = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid rank")
	ErrUserNotInLeaderboard  = NewDomainError("leaderboard", "FindRank", ErrNotFound, "user not present in leaderboard")
	ErrLeaderboardCacheMiss  = NewDomainError("leaderboard", "Cache", ErrNotFound, "leaderboard cache miss")
	ErrLeaderboardCacheStale = NewDomainError("leaderboard", "Cache", ErrCacheUnavailable, "leaderboard cache unavailable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInsufficientData checks if the error signals missing input data.
// Such errors are routed to fallback values rather than surfaced to callers.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
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

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrOptimisticLock) ||
		errors.Is(err, ErrConcurrentModification)
}
