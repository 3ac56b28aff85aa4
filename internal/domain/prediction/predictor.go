package prediction

import (
	"math"
)

// ═══════════════════════════════════════════════════════════════════════════
// Tunable constants
// Named here rather than inlined so tests can reference the exact defaults.
// ═══════════════════════════════════════════════════════════════════════════

const (
	// ScoreWindow is the maximum number of recent scores the regression uses.
	ScoreWindow = 8

	// MinScoresForRegression is the minimum sequence length for a fit;
	// anything shorter takes the fallback path.
	MinScoresForRegression = 2

	// DefaultAttendanceRate substitutes for a missing attendance signal.
	DefaultAttendanceRate = 85.0

	// FallbackScore is the neutral mid-range estimate when no averages exist.
	FallbackScore = 75.0

	// FallbackConfidence is the confidence reported on the fallback path.
	FallbackConfidence = 0.4

	// MinConfidence and MaxConfidence bound the reported confidence.
	MinConfidence = 0.3
	MaxConfidence = 0.95

	// Trend thresholds.
	improvingSlope      = 2.0
	decliningSlope      = -2.0
	improvingAttendance = 80.0
	decliningAttendance = 60.0
)

// Inputs carries every per-subject signal the predictor consumes.
type Inputs struct {
	// Scores is the chronological score sequence (oldest first).
	Scores []float64

	// ExamAverage is the subject's mean exam/test score (0 when unknown).
	ExamAverage float64

	// AssignmentAverage is the subject's mean assignment score (0 when unknown).
	AssignmentAverage float64

	// AttendanceRate is the attendance percentage; <=0 means unknown and
	// DefaultAttendanceRate is substituted.
	AttendanceRate float64

	// StudyTime is the study-time counter (login-day proxy).
	StudyTime int

	// ResourcesUsed is the resources counter (completed-assignment proxy).
	ResourcesUsed int

	// AchievementScore is the bounded gamification composite (0-100).
	AchievementScore float64

	// BadgeCount is the number of earned badges.
	BadgeCount int
}

// Result is the predictor output for one subject.
type Result struct {
	NextScore  float64
	Trend      Trend
	Confidence float64
	// WindowedScores is the score slice the regression actually used.
	WindowedScores []float64
}

// Predict produces the next-score estimate, trend, and confidence for one
// subject. With fewer than two scores it returns the documented fallback:
// a regression needs at least two points, and a neutral mid-range default
// avoids a misleading zero for new learners.
func Predict(in Inputs) Result {
	attendance := in.AttendanceRate
	attendanceKnown := attendance > 0
	if !attendanceKnown {
		attendance = DefaultAttendanceRate
	}

	window := lastN(in.Scores, ScoreWindow)

	if len(window) < MinScoresForRegression {
		return Result{
			NextScore:      fallbackScore(in),
			Trend:          TrendStable,
			Confidence:     FallbackConfidence,
			WindowedScores: window,
		}
	}

	slope, intercept := fitLine(window)
	n := float64(len(window))

	raw := clamp(slope*(n+1)+intercept, 0, 100)

	// Attendance dampening: poor attendance discounts the projection.
	raw *= 0.7 + 0.3*(attendance/100)

	// Engagement multiplier, capped so engagement cannot inflate without bound.
	raw *= math.Min(1.3, 1+0.01*float64(in.StudyTime)+0.005*float64(in.ResourcesUsed)+0.002*in.AchievementScore)

	// Achievement-motivation multiplier.
	raw *= math.Min(1.15, 1+0.02*float64(in.BadgeCount)+0.001*in.AchievementScore)

	return Result{
		NextScore:      clamp(raw, 0, 100),
		Trend:          classifyTrend(slope, attendance),
		Confidence:     confidence(window, in, attendanceKnown),
		WindowedScores: window,
	}
}

// fallbackScore picks the first positive average, else the neutral default.
func fallbackScore(in Inputs) float64 {
	if in.ExamAverage > 0 {
		return in.ExamAverage
	}
	if in.AssignmentAverage > 0 {
		return in.AssignmentAverage
	}
	return FallbackScore
}

// classifyTrend maps the regression slope and attendance to a trend.
// Improving is tested first; the order is part of the contract.
func classifyTrend(slope, attendance float64) Trend {
	if slope > improvingSlope && attendance > improvingAttendance {
		return TrendImproving
	}
	if slope < decliningSlope || attendance < decliningAttendance {
		return TrendDeclining
	}
	return TrendStable
}

// confidence derives the reported confidence from score variance plus
// bonuses for corroborating signals, capped at MaxConfidence.
func confidence(window []float64, in Inputs, attendanceKnown bool) float64 {
	c := clamp(1-variance(window)/1000, MinConfidence, 0.9)

	if in.ExamAverage > 0 && in.AssignmentAverage > 0 {
		c += 0.1
	}
	if attendanceKnown {
		c += 0.1
	}
	if in.AchievementScore > 20 {
		c += 0.05
	}
	if in.BadgeCount > 3 {
		c += 0.05
	}

	if c > MaxConfidence {
		c = MaxConfidence
	}
	return c
}

// fitLine runs ordinary least squares of score against 1-based index,
// using the closed-form sums.
func fitLine(scores []float64) (slope, intercept float64) {
	n := float64(len(scores))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range scores {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// variance is the mean squared deviation from the sample mean.
// Callers guarantee a non-empty slice; the regression path never reaches
// here with fewer than two points.
func variance(scores []float64) float64 {
	n := float64(len(scores))
	var sum float64
	for _, s := range scores {
		sum += s
	}
	m := sum / n

	var sq float64
	for _, s := range scores {
		d := s - m
		sq += d * d
	}
	return sq / n
}

// lastN returns the trailing n elements (the whole slice when shorter).
func lastN(s []float64, n int) []float64 {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
