package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/activity"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ActivityRepository implements activity.Repository using PostgreSQL.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

// Save persists a new activity record.
func (r *ActivityRepository) Save(ctx context.Context, record *activity.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO activity_records
			(id, user_id, subject, exam_score, test_score, assignment_score, attendance, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID,
		record.UserID.String(),
		record.SubjectOrDefault().String(),
		scorePtr(record.ExamScore),
		scorePtr(record.TestScore),
		scorePtr(record.AssignmentScore),
		record.Attendance,
		record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save activity record: %w", err)
	}
	return nil
}

// FindByUser returns the full activity history for a user, oldest first.
func (r *ActivityRepository) FindByUser(ctx context.Context, userID shared.UserID) ([]*activity.Record, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, subject, exam_score, test_score, assignment_score, attendance, recorded_at
		FROM activity_records
		WHERE user_id = $1
		ORDER BY recorded_at ASC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: find activity by user: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindByUserAndSubject returns a user's history for one subject, oldest first.
func (r *ActivityRepository) FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) ([]*activity.Record, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, subject, exam_score, test_score, assignment_score, attendance, recorded_at
		FROM activity_records
		WHERE user_id = $1 AND subject = $2
		ORDER BY recorded_at ASC`,
		userID.String(),
		subject.OrDefault().String(),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: find activity by user and subject: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ActiveUserIDs returns IDs of users with any activity since the given time.
func (r *ActivityRepository) ActiveUserIDs(ctx context.Context, since time.Time) ([]shared.UserID, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT DISTINCT user_id
		FROM activity_records
		WHERE recorded_at >= $1`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active users: %w", err)
	}
	defer rows.Close()

	var ids []shared.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan active user: %w", err)
		}
		ids = append(ids, shared.UserID(id))
	}
	return ids, rows.Err()
}

// scanRecords reads activity rows into domain records.
func scanRecords(rows pgx.Rows) ([]*activity.Record, error) {
	var records []*activity.Record
	for rows.Next() {
		var (
			record    activity.Record
			userID    string
			subject   string
			exam      *float64
			test      *float64
			assign    *float64
			presence  *bool
			timestamp time.Time
		)
		if err := rows.Scan(&record.ID, &userID, &subject, &exam, &test, &assign, &presence, &timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan activity record: %w", err)
		}
		record.UserID = shared.UserID(userID)
		record.Subject = shared.Subject(subject)
		record.ExamScore = floatToScore(exam)
		record.TestScore = floatToScore(test)
		record.AssignmentScore = floatToScore(assign)
		record.Attendance = presence
		record.RecordedAt = timestamp
		records = append(records, &record)
	}
	return records, rows.Err()
}

// scorePtr converts an optional score for storage.
func scorePtr(s *shared.Score) *float64 {
	if s == nil {
		return nil
	}
	v := s.Float64()
	return &v
}

// floatToScore converts a stored value back to an optional score.
func floatToScore(v *float64) *shared.Score {
	if v == nil {
		return nil
	}
	s := shared.Score(*v)
	return &s
}
