package gamification

import (
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE CRITERIA (тегированный тип вместо строкового сравнения)
// ══════════════════════════════════════════════════════════════════════════════

// CriteriaType - закрытое множество типов условий получения бейджа.
type CriteriaType string

const (
	// CriteriaAssignmentCount - выполнено N заданий.
	CriteriaAssignmentCount CriteriaType = "assignment_count"
	// CriteriaPerformanceAvg - средний балл не ниже N.
	CriteriaPerformanceAvg CriteriaType = "performance_avg"
	// CriteriaStreakDays - текущая серия не короче N дней.
	CriteriaStreakDays CriteriaType = "streak_days"
	// CriteriaLoginDays - N дней с активностью.
	CriteriaLoginDays CriteriaType = "login_days"
)

// IsValid проверяет, что тип условия известен.
func (t CriteriaType) IsValid() bool {
	_, ok := criteriaExtractors[t]
	return ok
}

// Criteria - условие получения бейджа.
type Criteria struct {
	// Type - тип условия.
	Type CriteriaType

	// Value - пороговое значение.
	Value float64
}

// criteriaExtractors - таблица диспетчеризации: каждому типу условия
// соответствует извлечение текущего значения из статистики. Добавление
// нового CriteriaType без строки здесь делает тип невалидным, а не
// молча пропущенным.
var criteriaExtractors = map[CriteriaType]func(*UserStats) float64{
	CriteriaAssignmentCount: func(s *UserStats) float64 { return float64(s.Achievements.AssignmentsCompleted) },
	CriteriaPerformanceAvg:  func(s *UserStats) float64 { return s.Achievements.AverageScore },
	CriteriaStreakDays:      func(s *UserStats) float64 { return float64(s.Streaks.Current) },
	CriteriaLoginDays:       func(s *UserStats) float64 { return float64(s.Achievements.LoginDays) },
}

// Progress - прогресс пользователя к условию бейджа.
type Progress struct {
	// Current - текущее значение метрики.
	Current float64

	// Target - пороговое значение.
	Target float64
}

// Evaluate возвращает прогресс и признак выполнения условия.
// Неизвестный тип условия - ошибка валидации, никогда не тихий пропуск.
func (c Criteria) Evaluate(stats *UserStats) (Progress, bool, error) {
	extract, ok := criteriaExtractors[c.Type]
	if !ok {
		return Progress{}, false, shared.ErrUnknownCriteriaType
	}
	current := extract(stats)
	return Progress{Current: current, Target: c.Value}, current >= c.Value, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RARITY
// ══════════════════════════════════════════════════════════════════════════════

// Rarity - редкость бейджа.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// rarityWeights - вес редкости при расчёте achievement score.
var rarityWeights = map[Rarity]float64{
	RarityCommon:    1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 5,
}

// IsValid проверяет, что редкость известна.
func (r Rarity) IsValid() bool {
	_, ok := rarityWeights[r]
	return ok
}

// Weight возвращает вес редкости; неизвестная редкость весит как common.
func (r Rarity) Weight() float64 {
	if w, ok := rarityWeights[r]; ok {
		return w
	}
	return rarityWeights[RarityCommon]
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE (запись каталога)
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBadgePoints - очки за бейдж, если в каталоге не задано значение.
const DefaultBadgePoints = 10

// Badge - запись каталога бейджей. Ключ уникальности - Name.
// Каталог заполняется идемпотентным upsert и далее неизменяем.
type Badge struct {
	// ID - идентификатор бейджа (UUID).
	ID shared.BadgeID

	// Name - уникальное имя-ключ бейджа.
	Name string

	// Description - описание за что выдаётся.
	Description string

	// Icon - эмодзи-иконка.
	Icon string

	// Criteria - условие получения.
	Criteria Criteria

	// Points - очки за получение (0 означает "не задано").
	Points int

	// Rarity - редкость.
	Rarity Rarity
}

// PointValue возвращает очки за бейдж с подстановкой значения по умолчанию.
func (b *Badge) PointValue() int {
	if b.Points <= 0 {
		return DefaultBadgePoints
	}
	return b.Points
}

// Validate проверяет запись каталога.
func (b *Badge) Validate() error {
	if b.Name == "" {
		return shared.NewDomainError("gamification", "Validate", shared.ErrEmptyValue, "badge name is required")
	}
	if !b.Criteria.Type.IsValid() {
		return shared.ErrUnknownCriteriaType
	}
	if b.Criteria.Value <= 0 {
		return shared.NewDomainError("gamification", "Validate", shared.ErrValueOutOfRange, "criteria value must be positive")
	}
	if !b.Rarity.IsValid() {
		return shared.NewDomainError("gamification", "Validate", shared.ErrInvalidInput, "unknown badge rarity")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USER BADGE (полученный бейдж)
// ══════════════════════════════════════════════════════════════════════════════

// UserBadge - факт получения бейджа пользователем.
// Инвариант: не более одной записи на пару (UserID, BadgeID); получение -
// одностороннее терминальное состояние, отзыв не предусмотрен.
type UserBadge struct {
	// UserID - кто получил.
	UserID shared.UserID

	// BadgeID - какой бейдж.
	BadgeID shared.BadgeID

	// EarnedAt - когда получен.
	EarnedAt time.Time

	// Progress - значение метрики на момент получения.
	Progress Progress
}

// NewUserBadge создаёт запись о получении бейджа.
func NewUserBadge(userID shared.UserID, badgeID shared.BadgeID, progress Progress) *UserBadge {
	return &UserBadge{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: time.Now().UTC(),
		Progress: progress,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE CATALOG (фиксированный набор для сидинга)
// ══════════════════════════════════════════════════════════════════════════════

// CatalogBadges возвращает фиксированный каталог бейджей.
// Сидинг идемпотентен: upsert по Name, повторные вызовы безопасны.
func CatalogBadges() []Badge {
	return []Badge{
		{Name: "First Steps", Description: "Complete your first assignment", Icon: "🎯",
			Criteria: Criteria{Type: CriteriaAssignmentCount, Value: 1}, Points: 10, Rarity: RarityCommon},
		{Name: "Dedicated Learner", Description: "Complete 10 assignments", Icon: "📚",
			Criteria: Criteria{Type: CriteriaAssignmentCount, Value: 10}, Points: 25, Rarity: RarityCommon},
		{Name: "Assignment Master", Description: "Complete 50 assignments", Icon: "🏆",
			Criteria: Criteria{Type: CriteriaAssignmentCount, Value: 50}, Points: 100, Rarity: RarityEpic},
		{Name: "High Achiever", Description: "Maintain an 85+ average score", Icon: "⭐",
			Criteria: Criteria{Type: CriteriaPerformanceAvg, Value: 85}, Points: 50, Rarity: RarityRare},
		{Name: "Perfectionist", Description: "Maintain a 95+ average score", Icon: "💎",
			Criteria: Criteria{Type: CriteriaPerformanceAvg, Value: 95}, Points: 150, Rarity: RarityLegendary},
		{Name: "Week Warrior", Description: "Stay active 7 days in a row", Icon: "🔥",
			Criteria: Criteria{Type: CriteriaStreakDays, Value: 7}, Points: 30, Rarity: RarityRare},
		{Name: "Unstoppable", Description: "Stay active 30 days in a row", Icon: "💪",
			Criteria: Criteria{Type: CriteriaStreakDays, Value: 30}, Points: 200, Rarity: RarityEpic},
		{Name: "Regular", Description: "Log activity on 30 days", Icon: "📅",
			Criteria: Criteria{Type: CriteriaLoginDays, Value: 30}, Points: 50, Rarity: RarityRare},
		{Name: "Veteran", Description: "Log activity on 100 days", Icon: "🎖️",
			Criteria: Criteria{Type: CriteriaLoginDays, Value: 100}, Points: 150, Rarity: RarityEpic},
	}
}
