package prediction

// ═══════════════════════════════════════════════════════════════════════════
// Risk Classifier
// Accumulates an integer risk score from independent factors, each factor
// contributing at most one tier (else-if chains). Deterministic pure
// function of its inputs.
// ═══════════════════════════════════════════════════════════════════════════

// Risk tier boundaries.
const (
	highRiskThreshold   = 5
	mediumRiskThreshold = 3
)

// RiskInputs carries the signals the classifier weighs.
type RiskInputs struct {
	// NextScore is the predicted next score.
	NextScore float64

	// Trend is the slope classification.
	Trend Trend

	// OverallAverage is the subject's mean over all graded results.
	OverallAverage float64

	// AttendanceRate is the attendance percentage.
	AttendanceRate float64

	// StudyDays counts distinct study days.
	StudyDays int

	// ResourcesAccessed counts resources used.
	ResourcesAccessed int

	// AchievementScore is the gamification composite.
	AchievementScore float64

	// TotalBadges is the number of earned badges.
	TotalBadges int
}

// ClassifyRisk maps the inputs to a risk tier.
func ClassifyRisk(in RiskInputs) RiskLevel {
	return riskFromScore(RiskScore(in))
}

// RiskScore computes the raw integer risk score. Exposed separately so the
// classifier can be inspected in reports and tests.
func RiskScore(in RiskInputs) int {
	score := 0

	switch {
	case in.NextScore < 40:
		score += 3
	case in.NextScore < 60:
		score += 2
	case in.NextScore < 75:
		score += 1
	}

	switch {
	case in.Trend == TrendDeclining:
		score += 2
	case in.Trend == TrendStable && in.OverallAverage < 70:
		score += 1
	}

	switch {
	case in.AttendanceRate < 60:
		score += 2
	case in.AttendanceRate < 80:
		score += 1
	}

	if in.StudyDays < 5 {
		score++
	}
	if in.ResourcesAccessed < 3 {
		score++
	}
	if in.AchievementScore < 10 {
		score++
	}
	if in.TotalBadges == 0 {
		score++
	}

	return score
}

func riskFromScore(score int) RiskLevel {
	switch {
	case score >= highRiskThreshold:
		return RiskHigh
	case score >= mediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}
