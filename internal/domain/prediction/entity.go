// Package prediction contains the performance forecasting core: the
// regression-based predictor, the risk classifier, and the recommendation
// generator. This is a pure domain layer with zero external dependencies.
package prediction

import (
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// Trend and Risk Level
// ═══════════════════════════════════════════════════════════════════════════

// Trend is the qualitative slope classification of a recent score sequence.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// IsValid checks if the trend value is known.
func (t Trend) IsValid() bool {
	switch t {
	case TrendImproving, TrendStable, TrendDeclining:
		return true
	default:
		return false
	}
}

// RiskLevel is the tiered risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid checks if the risk level value is known.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Prediction Record
// ═══════════════════════════════════════════════════════════════════════════

// Record is the persisted per-subject prediction for a user.
// Purely derived state: recomputed and upserted on every request and by the
// background refresh job, never authoritative on its own.
type Record struct {
	// UserID identifies the learner.
	UserID shared.UserID

	// Subject is the subject the prediction covers.
	Subject shared.Subject

	// NextScore is the expected next exam score (0-100).
	NextScore float64

	// Trend is the slope classification.
	Trend Trend

	// RiskLevel is the risk tier.
	RiskLevel RiskLevel

	// Confidence is the prediction confidence (0.3-0.95).
	Confidence float64

	// HistoricalScores is the windowed score sequence the forecast used.
	HistoricalScores []float64

	// Recommendations is the ordered advisory text list.
	Recommendations []string

	// WeakAreas lists subjects flagged as weak for the user.
	WeakAreas []string

	// Strengths lists subjects flagged as strong for the user.
	Strengths []string

	// MotivationLevel is the achievement-score classification (low/medium/high).
	MotivationLevel string

	// UpdatedAt is when this prediction was last recomputed.
	UpdatedAt time.Time
}
