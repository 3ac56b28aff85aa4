// Package activity contains domain entities and business logic for learner
// activity records and their per-subject aggregation. The aggregation output
// is the sole input of the performance predictor.
// This is a pure domain layer with zero external dependencies.
package activity

import (
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// Record represents a single validated activity entry for a learner.
// Records are produced by the external data layer and are read-only here:
// the engine never mutates them.
type Record struct {
	// ID is the unique record identifier (UUID).
	ID string

	// UserID identifies the learner.
	UserID shared.UserID

	// Subject is the course subject. Blank means "General".
	Subject shared.Subject

	// ExamScore is an optional exam result (0-100).
	ExamScore *shared.Score

	// TestScore is an optional test/quiz result (0-100).
	TestScore *shared.Score

	// AssignmentScore is an optional assignment result (0-100).
	AssignmentScore *shared.Score

	// Attendance is an optional attendance sample (present / absent).
	Attendance *bool

	// RecordedAt is when the activity happened.
	RecordedAt time.Time
}

// Validate checks the record's invariants.
// Absent optional fields are valid; present ones must be in range.
func (r *Record) Validate() error {
	if r.UserID.IsEmpty() {
		return shared.NewDomainError("activity", "Validate", shared.ErrInvalidID, "user ID is required")
	}
	for _, s := range []*shared.Score{r.ExamScore, r.TestScore, r.AssignmentScore} {
		if s != nil && !s.IsValid() {
			return shared.ErrInvalidScore
		}
	}
	if r.RecordedAt.After(time.Now().UTC().Add(time.Minute)) {
		return shared.ErrFutureActivityTime
	}
	return nil
}

// SubjectOrDefault returns the record's subject, substituting "General"
// when the label is blank.
func (r *Record) SubjectOrDefault() shared.Subject {
	return r.Subject.OrDefault()
}

// HasScore reports whether the record carries at least one graded result.
func (r *Record) HasScore() bool {
	return r.ExamScore != nil || r.TestScore != nil || r.AssignmentScore != nil
}
