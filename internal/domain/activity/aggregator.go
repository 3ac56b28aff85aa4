// Package activity contains domain entities and business logic for learner
// activity records and their per-subject aggregation.
package activity

import (
	"sort"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// SubjectMetrics is the per-subject bundle the aggregator produces.
// Score lists preserve chronological order; the predictor depends on it.
type SubjectMetrics struct {
	// Subject is the subject label ("General" when records carried none).
	Subject shared.Subject

	// ExamScores lists exam and test results in chronological order.
	ExamScores []float64

	// AssignmentScores lists assignment results in chronological order.
	AssignmentScores []float64

	// Scores lists every graded result (exam, test, assignment) in
	// chronological record order. Exam and assignment records interleave
	// in time, so the regression sequence cannot be rebuilt from the two
	// typed lists above.
	Scores []float64

	// AttendanceSamples lists raw attendance samples (true = present).
	AttendanceSamples []bool

	// StudyTime counts distinct activity days for the subject.
	// Login days act as the study-time proxy.
	StudyTime int

	// ResourcesUsed counts completed assignments for the subject.
	// Completed assignments act as the resources proxy.
	ResourcesUsed int
}

// ExamAverage returns the mean exam/test score, or 0 when there are none.
func (m *SubjectMetrics) ExamAverage() float64 {
	return mean(m.ExamScores)
}

// AssignmentAverage returns the mean assignment score, or 0 when there are none.
func (m *SubjectMetrics) AssignmentAverage() float64 {
	return mean(m.AssignmentScores)
}

// AttendanceRate returns the attendance percentage.
// ok is false when no samples exist; callers substitute the configured default.
func (m *SubjectMetrics) AttendanceRate() (rate float64, ok bool) {
	if len(m.AttendanceSamples) == 0 {
		return 0, false
	}
	present := 0
	for _, sample := range m.AttendanceSamples {
		if sample {
			present++
		}
	}
	return float64(present) / float64(len(m.AttendanceSamples)) * 100, true
}

// AllScores returns every graded result in chronological order of its
// source record. This is the sequence the predictor regresses over.
func (m *SubjectMetrics) AllScores() []float64 {
	return m.Scores
}

// OverallAverage returns the mean of all graded results for the subject.
func (m *SubjectMetrics) OverallAverage() float64 {
	return mean(m.Scores)
}

// Aggregate groups a user's full activity history into per-subject metrics.
// Pure function: the input slice is not mutated. An empty history yields an
// empty map, which callers must treat as "insufficient data", not an error.
func Aggregate(records []*Record) map[shared.Subject]*SubjectMetrics {
	result := make(map[shared.Subject]*SubjectMetrics)
	if len(records) == 0 {
		return result
	}

	ordered := make([]*Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	// Distinct activity days per subject feed the study-time proxy.
	seenDays := make(map[shared.Subject]map[string]bool)

	for _, rec := range ordered {
		subject := rec.SubjectOrDefault()
		metrics, exists := result[subject]
		if !exists {
			metrics = &SubjectMetrics{Subject: subject}
			result[subject] = metrics
			seenDays[subject] = make(map[string]bool)
		}

		if rec.ExamScore != nil {
			metrics.ExamScores = append(metrics.ExamScores, rec.ExamScore.Float64())
			metrics.Scores = append(metrics.Scores, rec.ExamScore.Float64())
		}
		if rec.TestScore != nil {
			metrics.ExamScores = append(metrics.ExamScores, rec.TestScore.Float64())
			metrics.Scores = append(metrics.Scores, rec.TestScore.Float64())
		}
		if rec.AssignmentScore != nil {
			metrics.AssignmentScores = append(metrics.AssignmentScores, rec.AssignmentScore.Float64())
			metrics.Scores = append(metrics.Scores, rec.AssignmentScore.Float64())
			metrics.ResourcesUsed++
		}
		if rec.Attendance != nil {
			metrics.AttendanceSamples = append(metrics.AttendanceSamples, *rec.Attendance)
		}

		day := rec.RecordedAt.UTC().Format("2006-01-02")
		if !seenDays[subject][day] {
			seenDays[subject][day] = true
			metrics.StudyTime++
		}
	}

	return result
}

// mean returns the arithmetic mean, or 0 for an empty slice.
// The zero-length short-circuit keeps division out of the empty case.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
