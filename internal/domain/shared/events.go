// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Gamification events
	EventPointsAwarded EventType = "gamification.points_awarded"
	EventLevelUp       EventType = "gamification.level_up"
	EventStreakUpdated EventType = "gamification.streak_updated"
	EventStreakBroken  EventType = "gamification.streak_broken"
	EventBadgeEarned   EventType = "gamification.badge_earned"

	// Activity events
	EventActivityRecorded EventType = "activity.recorded"
	EventLoginRecorded    EventType = "activity.login_recorded"

	// Prediction events
	EventPredictionUpdated EventType = "prediction.updated"
	EventRiskLevelChanged  EventType = "prediction.risk_level_changed"

	// Leaderboard events
	EventLeaderboardRebuilt EventType = "leaderboard.rebuilt"
	EventRankChanged        EventType = "leaderboard.rank_changed"

	// System events
	EventBadgeCatalogSeeded EventType = "system.badge_catalog_seeded"
	EventPointWindowsReset  EventType = "system.point_windows_reset"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Gamification Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsAwardedEvent is emitted when a user is credited points.
type PointsAwardedEvent struct {
	BaseEvent
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // submission, badge, manual
}

// Payload implements Event interface.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.AggregateId,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewPointsAwardedEvent creates a new points awarded event.
func NewPointsAwardedEvent(userID string, amount, newTotal int, source string) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent: NewBaseEvent(EventPointsAwarded, userID),
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when accumulated XP pushes a user past a level threshold.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
	XP       int `json:"xp"`
	XPToNext int `json:"xp_to_next"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.AggregateId,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"xp":         e.XP,
		"xp_to_next": e.XPToNext,
	}
}

// NewLevelUpEvent creates a new level up event.
func NewLevelUpEvent(userID string, oldLevel, newLevel, xp, xpToNext int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		XP:        xp,
		XPToNext:  xpToNext,
	}
}

// StreakUpdatedEvent is emitted after every streak recalculation.
type StreakUpdatedEvent struct {
	BaseEvent
	Current   int  `json:"current"`
	Longest   int  `json:"longest"`
	Extended  bool `json:"extended"`
	LoginDays int  `json:"login_days"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.AggregateId,
		"current":    e.Current,
		"longest":    e.Longest,
		"extended":   e.Extended,
		"login_days": e.LoginDays,
	}
}

// NewStreakUpdatedEvent creates a new streak updated event.
func NewStreakUpdatedEvent(userID string, current, longest int, extended bool, loginDays int) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent: NewBaseEvent(EventStreakUpdated, userID),
		Current:   current,
		Longest:   longest,
		Extended:  extended,
		LoginDays: loginDays,
	}
}

// StreakBrokenEvent is emitted when a gap of more than one day resets a streak.
type StreakBrokenEvent struct {
	BaseEvent
	PreviousStreak int `json:"previous_streak"`
	DaysMissed     int `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.AggregateId,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new streak broken event.
func NewStreakBrokenEvent(userID string, previousStreak, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID),
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// BadgeEarnedEvent is emitted when a badge transitions to earned for a user.
type BadgeEarnedEvent struct {
	BaseEvent
	BadgeID    string `json:"badge_id"`
	BadgeName  string `json:"badge_name"`
	Rarity     string `json:"rarity"`
	PointValue int    `json:"point_value"`
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.AggregateId,
		"badge_id":    e.BadgeID,
		"badge_name":  e.BadgeName,
		"rarity":      e.Rarity,
		"point_value": e.PointValue,
	}
}

// NewBadgeEarnedEvent creates a new badge earned event.
func NewBadgeEarnedEvent(userID, badgeID, badgeName, rarity string, pointValue int) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent:  NewBaseEvent(EventBadgeEarned, userID),
		BadgeID:    badgeID,
		BadgeName:  badgeName,
		Rarity:     rarity,
		PointValue: pointValue,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Activity Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityRecordedEvent is emitted when a new activity record is accepted.
type ActivityRecordedEvent struct {
	BaseEvent
	Subject  string `json:"subject"`
	RecordID string `json:"record_id"`
}

// Payload implements Event interface.
func (e ActivityRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.AggregateId,
		"subject":   e.Subject,
		"record_id": e.RecordID,
	}
}

// NewActivityRecordedEvent creates a new activity recorded event.
func NewActivityRecordedEvent(userID, subject, recordID string) ActivityRecordedEvent {
	return ActivityRecordedEvent{
		BaseEvent: NewBaseEvent(EventActivityRecorded, userID),
		Subject:   subject,
		RecordID:  recordID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Prediction Events
// ═══════════════════════════════════════════════════════════════════════════

// PredictionUpdatedEvent is emitted after a prediction upsert.
type PredictionUpdatedEvent struct {
	BaseEvent
	Subject   string  `json:"subject"`
	NextScore float64 `json:"next_score"`
	Trend     string  `json:"trend"`
	RiskLevel string  `json:"risk_level"`
}

// Payload implements Event interface.
func (e PredictionUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.AggregateId,
		"subject":    e.Subject,
		"next_score": e.NextScore,
		"trend":      e.Trend,
		"risk_level": e.RiskLevel,
	}
}

// NewPredictionUpdatedEvent creates a new prediction updated event.
func NewPredictionUpdatedEvent(userID, subject string, nextScore float64, trend, riskLevel string) PredictionUpdatedEvent {
	return PredictionUpdatedEvent{
		BaseEvent: NewBaseEvent(EventPredictionUpdated, userID),
		Subject:   subject,
		NextScore: nextScore,
		Trend:     trend,
		RiskLevel: riskLevel,
	}
}

// RiskLevelChangedEvent is emitted when a recomputed prediction moves a
// user/subject pair to a different risk tier.
type RiskLevelChangedEvent struct {
	BaseEvent
	Subject  string `json:"subject"`
	OldLevel string `json:"old_level"`
	NewLevel string `json:"new_level"`
}

// Payload implements Event interface.
func (e RiskLevelChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.AggregateId,
		"subject":   e.Subject,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewRiskLevelChangedEvent creates a new risk level changed event.
func NewRiskLevelChangedEvent(userID, subject, oldLevel, newLevel string) RiskLevelChangedEvent {
	return RiskLevelChangedEvent{
		BaseEvent: NewBaseEvent(EventRiskLevelChanged, userID),
		Subject:   subject,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber subscribes handlers to event types.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	Unsubscribe(eventType EventType, handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
