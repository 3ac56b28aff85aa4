// Package activity contains domain entities and business logic for learner
// activity records and their per-subject aggregation.
package activity

import (
	"context"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// Repository defines the interface for activity data persistence.
// This interface is implemented by the infrastructure layer.
// The domain layer has no knowledge of the actual storage mechanism.
type Repository interface {
	// Save persists a new activity record.
	Save(ctx context.Context, record *Record) error

	// FindByUser returns the full activity history for a user,
	// ordered by RecordedAt ascending.
	FindByUser(ctx context.Context, userID shared.UserID) ([]*Record, error)

	// FindByUserAndSubject returns a user's history for one subject,
	// ordered by RecordedAt ascending.
	FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) ([]*Record, error)

	// ActiveUserIDs returns IDs of users with any activity since the given time.
	// The prediction refresh job iterates over this set.
	ActiveUserIDs(ctx context.Context, since time.Time) ([]shared.UserID, error)
}
