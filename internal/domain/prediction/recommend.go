package prediction

import (
	"fmt"
	"math"
)

// ═══════════════════════════════════════════════════════════════════════════
// Recommendation Generator
// Fixed-order rule list over the same signals the classifier sees.
// The output order follows the evaluation order below; identical inputs
// always yield the identical list. No randomness anywhere.
// ═══════════════════════════════════════════════════════════════════════════

// Advisory thresholds.
const (
	lowAttendance        = 70.0
	highAttendance       = 90.0
	failingAverage       = 50.0
	weakAverage          = 70.0
	strongAverage        = 85.0
	scoreGapThreshold    = 10.0
	lowStudyDays         = 10
	lowResources         = 5
	fewBadges            = 3
	lowAchievement       = 20.0
	strongAchievement    = 50.0
	weakSubjectAverage   = 60.0
	strongSubjectAverage = 80.0
)

// RecommendInputs carries the advisory signals.
type RecommendInputs struct {
	Trend             Trend
	AttendanceRate    float64
	OverallAverage    float64
	ExamAverage       float64
	AssignmentAverage float64
	StudyDays         int
	ResourcesAccessed int
	TotalBadges       int
	AchievementScore  float64
}

// Recommend produces the ordered advisory list.
func Recommend(in RecommendInputs) []string {
	var recs []string

	if in.Trend == TrendDeclining {
		recs = append(recs, "Your recent scores are trending downward. Review your study plan and consider asking your instructor for extra support.")
	}
	if in.Trend == TrendImproving {
		recs = append(recs, "Your scores are improving steadily. Keep up your current study routine.")
	}

	if in.AttendanceRate < lowAttendance {
		recs = append(recs, fmt.Sprintf("Attendance is at %.0f%%. Attending classes more regularly has a direct effect on results.", in.AttendanceRate))
	} else if in.AttendanceRate > highAttendance {
		recs = append(recs, "Excellent attendance. Consistent presence in class is one of your strengths.")
	}

	switch {
	case in.OverallAverage < failingAverage:
		recs = append(recs, "Your overall average is critically low. Schedule a session with a tutor to rebuild fundamentals.")
	case in.OverallAverage < weakAverage:
		recs = append(recs, "Your overall average leaves room to grow. Focus on the topics where you lost the most points.")
	case in.OverallAverage > strongAverage:
		recs = append(recs, "Outstanding overall average. Consider helping classmates or taking on advanced material.")
	}

	if gap := in.ExamAverage - in.AssignmentAverage; math.Abs(gap) > scoreGapThreshold {
		if gap > 0 {
			recs = append(recs, "Your exam results are well ahead of your assignment scores. Give assignments the same attention as exam preparation.")
		} else {
			recs = append(recs, "Your assignments outscore your exams. Practice under timed, exam-like conditions.")
		}
	}

	if in.StudyDays < lowStudyDays {
		recs = append(recs, "Study activity is sparse. Short daily sessions beat occasional long ones.")
	}
	if in.ResourcesAccessed < lowResources {
		recs = append(recs, "You have used few of the available learning resources. Explore the practice material for your subjects.")
	}
	if in.TotalBadges < fewBadges {
		recs = append(recs, "Earn badges by completing assignments and keeping your streak alive - they track habits that raise scores.")
	}

	if in.AchievementScore < lowAchievement {
		recs = append(recs, "Your engagement score is low. Regular logins and completed assignments will raise it quickly.")
	} else if in.AchievementScore > strongAchievement {
		recs = append(recs, "Great engagement. Your consistency is a strong predictor of future results.")
	}

	return recs
}

// SubjectSignal is one subject's summary used for strengths/weaknesses.
type SubjectSignal struct {
	Subject string
	Average float64
	Trend   Trend
}

// WeakAreas returns subjects whose average is below the weak threshold or
// whose trend declines, preserving input order.
func WeakAreas(signals []SubjectSignal) []string {
	var weak []string
	for _, s := range signals {
		if s.Average < weakSubjectAverage || s.Trend == TrendDeclining {
			weak = append(weak, s.Subject)
		}
	}
	return weak
}

// Strengths returns subjects with a strong average and a non-declining
// trend, preserving input order.
func Strengths(signals []SubjectSignal) []string {
	var strong []string
	for _, s := range signals {
		if s.Average >= strongSubjectAverage && s.Trend != TrendDeclining {
			strong = append(strong, s.Subject)
		}
	}
	return strong
}
