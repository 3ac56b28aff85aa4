package prediction

import (
	"context"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// Repository defines the interface for prediction persistence.
// Predictions are derived state: every write is an upsert keyed by
// (user, subject), and a missing row is never an error condition for
// recomputation.
type Repository interface {
	// Upsert stores or replaces the prediction for (UserID, Subject).
	Upsert(ctx context.Context, record *Record) error

	// FindByUser returns all stored predictions for a user.
	FindByUser(ctx context.Context, userID shared.UserID) ([]*Record, error)

	// FindByUserAndSubject returns one prediction or shared.ErrNotFound.
	FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) (*Record, error)
}
