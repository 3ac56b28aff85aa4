package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/prediction"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// PredictionRepository implements prediction.Repository using PostgreSQL.
// Rows are derived state keyed by (user_id, subject); every write replaces.
type PredictionRepository struct {
	conn *Connection
}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository(conn *Connection) *PredictionRepository {
	return &PredictionRepository{conn: conn}
}

// Upsert stores or replaces the prediction for (UserID, Subject).
func (r *PredictionRepository) Upsert(ctx context.Context, record *prediction.Record) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO predictions
			(user_id, subject, next_score, trend, risk_level, confidence,
			 historical_scores, recommendations, weak_areas, strengths,
			 motivation_level, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, subject) DO UPDATE SET
			next_score = EXCLUDED.next_score,
			trend = EXCLUDED.trend,
			risk_level = EXCLUDED.risk_level,
			confidence = EXCLUDED.confidence,
			historical_scores = EXCLUDED.historical_scores,
			recommendations = EXCLUDED.recommendations,
			weak_areas = EXCLUDED.weak_areas,
			strengths = EXCLUDED.strengths,
			motivation_level = EXCLUDED.motivation_level,
			updated_at = EXCLUDED.updated_at`,
		record.UserID.String(),
		record.Subject.OrDefault().String(),
		record.NextScore,
		string(record.Trend),
		string(record.RiskLevel),
		record.Confidence,
		record.HistoricalScores,
		record.Recommendations,
		record.WeakAreas,
		record.Strengths,
		record.MotivationLevel,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert prediction: %w", err)
	}
	return nil
}

// FindByUser returns all stored predictions for a user, by subject.
func (r *PredictionRepository) FindByUser(ctx context.Context, userID shared.UserID) ([]*prediction.Record, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id, subject, next_score, trend, risk_level, confidence,
		       historical_scores, recommendations, weak_areas, strengths,
		       motivation_level, updated_at
		FROM predictions
		WHERE user_id = $1
		ORDER BY subject ASC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: find predictions: %w", err)
	}
	defer rows.Close()

	var records []*prediction.Record
	for rows.Next() {
		record, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// FindByUserAndSubject returns one prediction or shared.ErrPredictionNotFound.
func (r *PredictionRepository) FindByUserAndSubject(ctx context.Context, userID shared.UserID, subject shared.Subject) (*prediction.Record, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT user_id, subject, next_score, trend, risk_level, confidence,
		       historical_scores, recommendations, weak_areas, strengths,
		       motivation_level, updated_at
		FROM predictions
		WHERE user_id = $1 AND subject = $2`,
		userID.String(),
		subject.OrDefault().String(),
	)
	record, err := scanPrediction(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPredictionNotFound
		}
		return nil, fmt.Errorf("postgres: find prediction: %w", err)
	}
	return record, nil
}

// scanPrediction reads one prediction row.
func scanPrediction(row pgx.Row) (*prediction.Record, error) {
	var (
		record  prediction.Record
		userID  string
		subject string
		trend   string
		risk    string
	)
	err := row.Scan(
		&userID,
		&subject,
		&record.NextScore,
		&trend,
		&risk,
		&record.Confidence,
		&record.HistoricalScores,
		&record.Recommendations,
		&record.WeakAreas,
		&record.Strengths,
		&record.MotivationLevel,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.UserID = shared.UserID(userID)
	record.Subject = shared.Subject(subject)
	record.Trend = prediction.Trend(trend)
	record.RiskLevel = prediction.RiskLevel(risk)
	return &record, nil
}
