package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommend_DecliningStudentGetsFullAdvice(t *testing.T) {
	recs := Recommend(RecommendInputs{
		Trend:             TrendDeclining,
		AttendanceRate:    55,
		OverallAverage:    45,
		ExamAverage:       45,
		AssignmentAverage: 45,
		StudyDays:         3,
		ResourcesAccessed: 1,
		TotalBadges:       0,
		AchievementScore:  5,
	})

	assert.Len(t, recs, 7)
	assert.Contains(t, recs[0], "trending downward")
	assert.Contains(t, recs[1], "Attendance is at 55%")
	assert.Contains(t, recs[2], "critically low")
}

func TestRecommend_StrongStudent(t *testing.T) {
	recs := Recommend(RecommendInputs{
		Trend:             TrendImproving,
		AttendanceRate:    95,
		OverallAverage:    90,
		ExamAverage:       90,
		AssignmentAverage: 88,
		StudyDays:         20,
		ResourcesAccessed: 10,
		TotalBadges:       6,
		AchievementScore:  70,
	})

	assert.Len(t, recs, 4)
	assert.Contains(t, recs[0], "improving steadily")
	assert.Contains(t, recs[1], "Excellent attendance")
	assert.Contains(t, recs[2], "Outstanding overall average")
	assert.Contains(t, recs[3], "Great engagement")
}

func TestRecommend_ScoreGapBothDirections(t *testing.T) {
	base := RecommendInputs{
		Trend:             TrendStable,
		AttendanceRate:    85,
		OverallAverage:    75,
		StudyDays:         15,
		ResourcesAccessed: 8,
		TotalBadges:       5,
		AchievementScore:  30,
	}

	examHeavy := base
	examHeavy.ExamAverage = 85
	examHeavy.AssignmentAverage = 65
	recs := Recommend(examHeavy)
	assert.Len(t, recs, 1)
	assert.Contains(t, recs[0], "exam results are well ahead")

	assignmentHeavy := base
	assignmentHeavy.ExamAverage = 65
	assignmentHeavy.AssignmentAverage = 85
	recs = Recommend(assignmentHeavy)
	assert.Len(t, recs, 1)
	assert.Contains(t, recs[0], "timed, exam-like conditions")

	// A gap of exactly the threshold does not trigger either rule.
	narrow := base
	narrow.ExamAverage = 80
	narrow.AssignmentAverage = 70
	assert.Empty(t, Recommend(narrow))
}

func TestRecommend_Deterministic(t *testing.T) {
	in := RecommendInputs{
		Trend:             TrendDeclining,
		AttendanceRate:    65,
		OverallAverage:    62,
		StudyDays:         4,
		ResourcesAccessed: 2,
		TotalBadges:       1,
		AchievementScore:  10,
	}

	first := Recommend(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Recommend(in))
	}
}

func TestWeakAreas(t *testing.T) {
	signals := []SubjectSignal{
		{Subject: "Math", Average: 55, Trend: TrendStable},
		{Subject: "Physics", Average: 85, Trend: TrendDeclining},
		{Subject: "History", Average: 75, Trend: TrendStable},
	}

	assert.Equal(t, []string{"Math", "Physics"}, WeakAreas(signals))
	assert.Empty(t, WeakAreas(nil))
}

func TestStrengths(t *testing.T) {
	signals := []SubjectSignal{
		{Subject: "Math", Average: 88, Trend: TrendImproving},
		{Subject: "Physics", Average: 85, Trend: TrendDeclining},
		{Subject: "History", Average: 79, Trend: TrendStable},
		{Subject: "Biology", Average: 80, Trend: TrendStable},
	}

	assert.Equal(t, []string{"Math", "Biology"}, Strengths(signals))
}
