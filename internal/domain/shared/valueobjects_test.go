package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserID(t *testing.T) {
	id, err := NewUserID("4F8C3C1E-9B0A-4F6D-8D2E-1A2B3C4D5E6F")
	require.NoError(t, err)
	// Нормализация к нижнему регистру.
	assert.Equal(t, UserID("4f8c3c1e-9b0a-4f6d-8d2e-1a2b3c4d5e6f"), id)

	_, err = NewUserID("  4f8c3c1e-9b0a-4f6d-8d2e-1a2b3c4d5e6f  ")
	assert.NoError(t, err)

	for _, bad := range []string{"", "42", "not-a-uuid", "4f8c3c1e-9b0a-4f6d-8d2e"} {
		_, err := NewUserID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, "input %q", bad)
	}
}

func TestUserID_IsEmpty(t *testing.T) {
	assert.True(t, UserID("").IsEmpty())
	assert.False(t, UserID("x").IsEmpty())
}

func TestSubject_OrDefault(t *testing.T) {
	assert.Equal(t, DefaultSubject, Subject("").OrDefault())
	assert.Equal(t, DefaultSubject, Subject("   ").OrDefault())
	assert.Equal(t, Subject("Math"), Subject("Math").OrDefault())
}

func TestSubject_IsValid(t *testing.T) {
	assert.False(t, Subject("").IsValid())
	assert.True(t, Subject("Math").IsValid())

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, Subject(long).IsValid())
}

func TestScore(t *testing.T) {
	s, err := NewScore(87.5)
	require.NoError(t, err)
	assert.Equal(t, 87.5, s.Float64())

	_, err = NewScore(-1)
	assert.ErrorIs(t, err, ErrInvalidScore)
	_, err = NewScore(100.5)
	assert.ErrorIs(t, err, ErrInvalidScore)

	assert.Equal(t, MinScore, Score(-10).Clamp())
	assert.Equal(t, MaxScore, Score(146).Clamp())
	assert.Equal(t, Score(55), Score(55).Clamp())
}

func TestPercentage(t *testing.T) {
	assert.True(t, Percentage(75).IsValid())
	assert.False(t, Percentage(101).IsValid())
	assert.Equal(t, 0.75, Percentage(75).Fraction())
}

func TestPoints(t *testing.T) {
	assert.True(t, Points(0).IsValid())
	assert.False(t, Points(-5).IsValid())
	assert.Equal(t, Points(30), Points(10).Add(20))
}
