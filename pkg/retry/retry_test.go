package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient failure")

func fastRetrier(maxAttempts int) *Retrier {
	return New(
		WithMaxAttempts(maxAttempts),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
	)
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errTransient)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_UnwrappedErrorNotRetried(t *testing.T) {
	attempts := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, attempts)
}

func TestDo_PermanentAbortsImmediately(t *testing.T) {
	attempts := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(errTransient)
	})

	// The permanent wrapper is stripped before returning.
	assert.Equal(t, errTransient, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExhaustedAttemptsReturnUnwrapped(t *testing.T) {
	attempts := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(errTransient)
	})

	assert.Equal(t, errTransient, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_RetryIfOverridesWrapping(t *testing.T) {
	attempts := 0
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
	)

	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errTransient // not wrapped, retried via predicate
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var seen []int
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			seen = append(seen, attempt)
		}),
	)

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return Retryable(errTransient)
	})

	// Callback fires before each retry, not after the final attempt.
	assert.Equal(t, []int{1, 2}, seen)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := fastRetrier(5).Do(ctx, func(ctx context.Context) error {
		attempts++
		return Retryable(errTransient)
	})

	assert.Error(t, err)
	assert.Zero(t, attempts)
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	value, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, Retryable(errTransient)
		}
		return 42, nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 2, attempts)
}

func TestWrappers(t *testing.T) {
	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))

	assert.True(t, IsRetryable(Retryable(errTransient)))
	assert.False(t, IsRetryable(errTransient))
	assert.True(t, IsPermanent(Permanent(errTransient)))
	assert.False(t, IsPermanent(Retryable(errTransient)))

	// Wrapped errors stay reachable through errors.Is.
	assert.ErrorIs(t, Retryable(errTransient), errTransient)
}

func TestCalculateDelay_Backoff(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithMaxDelay(300*time.Millisecond),
		WithJitter(0),
	)

	assert.Equal(t, 100*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, r.calculateDelay(2))
	// Capped by MaxDelay.
	assert.Equal(t, 300*time.Millisecond, r.calculateDelay(3))
}

func TestPresetRetriers(t *testing.T) {
	assert.Equal(t, 5, OptimisticLockRetrier().config.MaxAttempts)
	assert.Equal(t, 3, DatabaseRetrier().config.MaxAttempts)
	assert.Equal(t, 2, CacheRetrier().config.MaxAttempts)
}
