package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesKind(t *testing.T) {
	assert.ErrorIs(t, ErrStatsNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrStatsVersionConflict, ErrOptimisticLock)
	assert.ErrorIs(t, ErrInvalidScore, ErrValueOutOfRange)
	assert.NotErrorIs(t, ErrStatsNotFound, ErrAlreadyExists)
}

func TestDomainError_IsMatchesWrapped(t *testing.T) {
	inner := errors.New("connection reset")
	wrapped := WrapError("gamification", "Save", ErrStorageUnavailable, "pg write failed", inner)

	assert.ErrorIs(t, wrapped, ErrStorageUnavailable)
	assert.ErrorIs(t, wrapped, inner)
}

func TestDomainError_SurvivesFmtWrapping(t *testing.T) {
	err := fmt.Errorf("award_points: %w", ErrNegativePointAmount)

	assert.ErrorIs(t, err, ErrNegativeValue)
	assert.True(t, IsValidation(err))
}

func TestDomainError_ErrorMessage(t *testing.T) {
	plain := NewDomainError("prediction", "Predict", ErrInsufficientData, "not enough scores")
	assert.Equal(t, "prediction.Predict: not enough scores", plain.Error())

	wrapped := WrapError("leaderboard", "Top", ErrCacheUnavailable, "redis read", errors.New("timeout"))
	assert.Equal(t, "leaderboard.Top: redis read: timeout", wrapped.Error())
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFound(ErrPredictionNotFound))
	assert.False(t, IsNotFound(ErrInvalidScore))

	assert.True(t, IsAlreadyExists(ErrBadgeAlreadyEarned))
	assert.True(t, IsInsufficientData(ErrNoScores))
	assert.True(t, IsValidation(ErrUnknownCriteriaType))
	assert.False(t, IsValidation(ErrStatsNotFound))

	assert.True(t, IsRetryable(ErrStatsVersionConflict))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.False(t, IsRetryable(ErrBadgeNotFound))
}
