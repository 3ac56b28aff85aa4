// Package query contains read operations following CQRS pattern.
// Queries never modify authoritative state; the prediction query refreshes
// derived rows (upserts) but owns no data of its own.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/activity"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/gamification"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/prediction"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PREDICTION QUERY
// Собирает прогноз по каждому предмету: агрегация активности → балл
// достижений → регрессия → риск → рекомендации, и сохраняет результат
// как производное состояние (upsert на пару пользователь+предмет).
// ══════════════════════════════════════════════════════════════════════════════

// GetPredictionQuery contains the prediction request parameters.
type GetPredictionQuery struct {
	// UserID is the learner to predict for.
	UserID string

	// Subject optionally narrows the response to one subject.
	// Empty returns every subject with activity.
	Subject string
}

// Validate validates the query.
func (q *GetPredictionQuery) Validate() error {
	if _, err := shared.NewUserID(q.UserID); err != nil {
		return fmt.Errorf("get_prediction: %w", err)
	}
	return nil
}

// SubjectPredictionDTO is the per-subject prediction payload.
type SubjectPredictionDTO struct {
	// NextExamScore is the forecast next score (0-100).
	NextExamScore float64 `json:"next_exam_score"`

	// Trend is "improving", "stable" or "declining".
	Trend string `json:"trend"`

	// RiskLevel is "low", "medium" or "high".
	RiskLevel string `json:"risk_level"`

	// Confidence is the forecast confidence (0.3-0.95).
	Confidence float64 `json:"confidence"`

	// HistoricalData is the score window the regression used.
	HistoricalData []float64 `json:"historical_data"`

	// Recommendations is the ordered advisory list.
	Recommendations []string `json:"recommendations"`

	// WeakAreas lists the user's weak subjects.
	WeakAreas []string `json:"weak_areas"`

	// Strengths lists the user's strong subjects.
	Strengths []string `json:"strengths"`

	// MotivationLevel is the achievement-score classification.
	MotivationLevel string `json:"motivation_level"`
}

// GetPredictionResult contains the assembled prediction set.
type GetPredictionResult struct {
	// UserID is the learner.
	UserID string `json:"user_id"`

	// HasData is false when the user has no activity at all; the
	// Predictions map is then empty and this is not an error.
	HasData bool `json:"has_data"`

	// Predictions maps subject name to its prediction.
	Predictions map[string]SubjectPredictionDTO `json:"predictions"`

	// GeneratedAt is when this result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetPredictionHandler handles the GetPredictionQuery.
type GetPredictionHandler struct {
	activityRepo   activity.Repository
	statsRepo      gamification.StatsRepository
	badgeRepo      gamification.BadgeRepository
	predictionRepo prediction.Repository
	publisher      shared.EventPublisher
	log            *logger.Logger
}

// NewGetPredictionHandler creates a new GetPredictionHandler.
func NewGetPredictionHandler(
	activityRepo activity.Repository,
	statsRepo gamification.StatsRepository,
	badgeRepo gamification.BadgeRepository,
	predictionRepo prediction.Repository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *GetPredictionHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetPredictionHandler{
		activityRepo:   activityRepo,
		statsRepo:      statsRepo,
		badgeRepo:      badgeRepo,
		predictionRepo: predictionRepo,
		publisher:      publisher,
		log:            log.With(logger.String("component", "get_prediction")),
	}
}

// Handle executes the prediction query.
func (h *GetPredictionHandler) Handle(ctx context.Context, q GetPredictionQuery) (*GetPredictionResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	userID := shared.UserID(q.UserID)
	now := time.Now().UTC()

	records, err := h.activityRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_prediction: load activity: %w", err)
	}

	metrics := activity.Aggregate(records)
	if len(metrics) == 0 {
		// No activity at all. Explicit no-data payload, not an error.
		return &GetPredictionResult{
			UserID:      q.UserID,
			HasData:     false,
			Predictions: map[string]SubjectPredictionDTO{},
			GeneratedAt: now,
		}, nil
	}

	achievementScore, badgeCount := h.achievementSignal(ctx, userID)

	// Subjects in deterministic order so weak areas, strengths and the
	// stored rows come out identical for identical inputs.
	subjects := make([]shared.Subject, 0, len(metrics))
	for subj := range metrics {
		subjects = append(subjects, subj)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

	type subjectOutcome struct {
		metrics *activity.SubjectMetrics
		result  prediction.Result
		risk    prediction.RiskLevel
	}
	outcomes := make(map[shared.Subject]subjectOutcome, len(subjects))
	signals := make([]prediction.SubjectSignal, 0, len(subjects))

	for _, subj := range subjects {
		m := metrics[subj]
		attendance, attendanceKnown := m.AttendanceRate()
		if !attendanceKnown {
			attendance = prediction.DefaultAttendanceRate
		}

		res := prediction.Predict(prediction.Inputs{
			Scores:            m.AllScores(),
			ExamAverage:       m.ExamAverage(),
			AssignmentAverage: m.AssignmentAverage(),
			AttendanceRate:    attendanceRateOrZero(m),
			StudyTime:         m.StudyTime,
			ResourcesUsed:     m.ResourcesUsed,
			AchievementScore:  achievementScore,
			BadgeCount:        badgeCount,
		})

		risk := prediction.ClassifyRisk(prediction.RiskInputs{
			NextScore:         res.NextScore,
			Trend:             res.Trend,
			OverallAverage:    m.OverallAverage(),
			AttendanceRate:    attendance,
			StudyDays:         m.StudyTime,
			ResourcesAccessed: m.ResourcesUsed,
			AchievementScore:  achievementScore,
			TotalBadges:       badgeCount,
		})

		outcomes[subj] = subjectOutcome{metrics: m, result: res, risk: risk}
		signals = append(signals, prediction.SubjectSignal{
			Subject: subj.String(),
			Average: m.OverallAverage(),
			Trend:   res.Trend,
		})
	}

	weakAreas := prediction.WeakAreas(signals)
	strengths := prediction.Strengths(signals)
	motivation := gamification.MotivationLevel(achievementScore)

	result := &GetPredictionResult{
		UserID:      q.UserID,
		HasData:     true,
		Predictions: make(map[string]SubjectPredictionDTO, len(subjects)),
		GeneratedAt: now,
	}

	requested := shared.Subject(q.Subject).OrDefault()

	for _, subj := range subjects {
		o := outcomes[subj]
		attendance, known := o.metrics.AttendanceRate()
		if !known {
			attendance = prediction.DefaultAttendanceRate
		}

		recs := prediction.Recommend(prediction.RecommendInputs{
			Trend:             o.result.Trend,
			AttendanceRate:    attendance,
			OverallAverage:    o.metrics.OverallAverage(),
			ExamAverage:       o.metrics.ExamAverage(),
			AssignmentAverage: o.metrics.AssignmentAverage(),
			StudyDays:         o.metrics.StudyTime,
			ResourcesAccessed: o.metrics.ResourcesUsed,
			TotalBadges:       badgeCount,
			AchievementScore:  achievementScore,
		})

		record := &prediction.Record{
			UserID:           userID,
			Subject:          subj,
			NextScore:        o.result.NextScore,
			Trend:            o.result.Trend,
			RiskLevel:        o.risk,
			Confidence:       o.result.Confidence,
			HistoricalScores: o.result.WindowedScores,
			Recommendations:  recs,
			WeakAreas:        weakAreas,
			Strengths:        strengths,
			MotivationLevel:  motivation,
			UpdatedAt:        now,
		}

		h.persist(ctx, record)

		if q.Subject != "" && subj != requested {
			continue
		}
		result.Predictions[subj.String()] = SubjectPredictionDTO{
			NextExamScore:   o.result.NextScore,
			Trend:           string(o.result.Trend),
			RiskLevel:       string(o.risk),
			Confidence:      o.result.Confidence,
			HistoricalData:  o.result.WindowedScores,
			Recommendations: recs,
			WeakAreas:       weakAreas,
			Strengths:       strengths,
			MotivationLevel: motivation,
		}
	}

	return result, nil
}

// achievementSignal loads the gamification inputs of the predictor.
// A user without stats predicts with a zero achievement signal.
func (h *GetPredictionHandler) achievementSignal(ctx context.Context, userID shared.UserID) (score float64, badgeCount int) {
	stats, err := h.statsRepo.FindByUser(ctx, userID)
	if err != nil {
		if !shared.IsNotFound(err) {
			h.log.Warn("stats unavailable for prediction, using zero signal",
				logger.UserID(userID.String()), logger.Err(err))
		}
		return 0, 0
	}

	earned, err := h.badgeRepo.EarnedByUser(ctx, userID)
	if err != nil {
		h.log.Warn("earned badges unavailable for prediction",
			logger.UserID(userID.String()), logger.Err(err))
		return gamification.AchievementScore(stats, nil), 0
	}

	badges := h.resolveBadges(ctx, earned)
	return gamification.AchievementScore(stats, badges), len(earned)
}

// resolveBadges maps earned badge rows to their catalog entries.
func (h *GetPredictionHandler) resolveBadges(ctx context.Context, earned []*gamification.UserBadge) []gamification.Badge {
	if len(earned) == 0 {
		return nil
	}

	catalog, err := h.badgeRepo.Catalog(ctx)
	if err != nil {
		h.log.Warn("badge catalog unavailable for prediction", logger.Err(err))
		return nil
	}

	byID := make(map[shared.BadgeID]gamification.Badge, len(catalog))
	for i := range catalog {
		byID[catalog[i].ID] = catalog[i]
	}

	badges := make([]gamification.Badge, 0, len(earned))
	for _, ub := range earned {
		if b, ok := byID[ub.BadgeID]; ok {
			badges = append(badges, b)
		}
	}
	return badges
}

// persist upserts the derived row and publishes the change events.
// Persistence failure degrades to a log line; the computed response is
// still served.
func (h *GetPredictionHandler) persist(ctx context.Context, record *prediction.Record) {
	previous, err := h.predictionRepo.FindByUserAndSubject(ctx, record.UserID, record.Subject)
	if err != nil && !shared.IsNotFound(err) {
		h.log.Warn("previous prediction unavailable",
			logger.UserID(record.UserID.String()),
			logger.Subject(record.Subject.String()),
			logger.Err(err))
	}

	if err := h.predictionRepo.Upsert(ctx, record); err != nil {
		h.log.Error("prediction upsert failed",
			logger.UserID(record.UserID.String()),
			logger.Subject(record.Subject.String()),
			logger.Err(err))
		return
	}

	if h.publisher == nil {
		return
	}
	_ = h.publisher.Publish(shared.NewPredictionUpdatedEvent(
		record.UserID.String(), record.Subject.String(),
		record.NextScore, string(record.Trend), string(record.RiskLevel)))

	if previous != nil && previous.RiskLevel != record.RiskLevel {
		_ = h.publisher.Publish(shared.NewRiskLevelChangedEvent(
			record.UserID.String(), record.Subject.String(),
			string(previous.RiskLevel), string(record.RiskLevel)))
	}
}

// attendanceRateOrZero feeds the predictor's "unknown attendance" contract:
// the predictor substitutes its own default when the rate is not positive.
func attendanceRateOrZero(m *activity.SubjectMetrics) float64 {
	rate, ok := m.AttendanceRate()
	if !ok {
		return 0
	}
	return rate
}
