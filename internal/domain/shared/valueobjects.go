// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique learner identifier (UUID format).
type UserID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// BadgeID represents a unique badge identifier (UUID format).
type BadgeID string

// IsValid checks if the badge ID is a valid UUID.
func (b BadgeID) IsValid() bool {
	return uuidRegex.MatchString(string(b))
}

// String returns the string representation.
func (b BadgeID) String() string {
	return string(b)
}

// ═══════════════════════════════════════════════════════════════════════════
// Subject
// ═══════════════════════════════════════════════════════════════════════════

// Subject identifies the course subject an activity belongs to.
type Subject string

// DefaultSubject is used when an activity record carries no subject label.
const DefaultSubject Subject = "General"

// IsValid checks the subject label length.
func (s Subject) IsValid() bool {
	n := len(strings.TrimSpace(string(s)))
	return n >= 1 && n <= 100
}

// String returns the string representation.
func (s Subject) String() string {
	return string(s)
}

// OrDefault returns the subject, substituting DefaultSubject for a blank label.
func (s Subject) OrDefault() Subject {
	if strings.TrimSpace(string(s)) == "" {
		return DefaultSubject
	}
	return s
}

// ═══════════════════════════════════════════════════════════════════════════
// Score and Percentage
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a single graded result on the 0-100 scale.
type Score float64

const (
	// MinScore is the lowest possible score.
	MinScore Score = 0
	// MaxScore is the highest possible score.
	MaxScore Score = 100
)

// IsValid checks if the score is within the grading scale.
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Float64 returns the underlying float64 value.
func (s Score) Float64() float64 {
	return float64(s)
}

// Clamp confines the score to the grading scale.
func (s Score) Clamp() Score {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

// NewScore creates a new Score with validation.
func NewScore(value float64) (Score, error) {
	s := Score(value)
	if !s.IsValid() {
		return 0, ErrInvalidScore
	}
	return s, nil
}

// Percentage represents a 0-100 percentage value (attendance rate etc.).
type Percentage float64

// IsValid checks if the percentage is within [0, 100].
func (p Percentage) IsValid() bool {
	return p >= 0 && p <= 100
}

// Float64 returns the underlying float64 value.
func (p Percentage) Float64() float64 {
	return float64(p)
}

// Fraction returns the percentage as a 0-1 fraction.
func (p Percentage) Fraction() float64 {
	return float64(p) / 100
}

// ═══════════════════════════════════════════════════════════════════════════
// Points
// ═══════════════════════════════════════════════════════════════════════════

// Points represents gamification points.
type Points int

// IsValid checks that the amount is non-negative.
func (p Points) IsValid() bool {
	return p >= 0
}

// Int returns the underlying int value.
func (p Points) Int() int {
	return int(p)
}

// Add adds point amounts.
func (p Points) Add(delta Points) Points {
	return p + delta
}
