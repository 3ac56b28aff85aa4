// Package gamification содержит доменную модель геймификации EduPulse Insights:
// очки, уровни, серии активных дней и бейджи. Это ядро бизнес-логики -
// здесь нет внешних зависимостей.
package gamification

import (
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// InitialLevel - стартовый уровень нового пользователя.
	InitialLevel = 1

	// XPPerLevelStep - множитель порога XP: порог уровня N равен N*100.
	XPPerLevelStep = 100
)

// ══════════════════════════════════════════════════════════════════════════════
// USER STATS (Агрегат геймификации)
// ══════════════════════════════════════════════════════════════════════════════

// PointTotals - счётчики очков по окнам.
type PointTotals struct {
	// Total - очки за всё время.
	Total int

	// Weekly - очки за текущую ISO-неделю.
	Weekly int

	// Monthly - очки за текущий календарный месяц.
	Monthly int
}

// StreakState - состояние серии активных дней.
type StreakState struct {
	// Current - текущая серия дней подряд.
	Current int

	// Longest - лучшая серия за всё время.
	Longest int

	// LastActivity - время последней активности.
	LastActivity time.Time
}

// AchievementCounters - накопительные счётчики достижений.
type AchievementCounters struct {
	// BadgesEarned - количество полученных бейджей.
	BadgesEarned int

	// AssignmentsCompleted - количество выполненных заданий,
	// включая сдачи без оценки.
	AssignmentsCompleted int

	// GradedSubmissions - количество сдач с оценкой; знаменатель
	// бегущего среднего.
	GradedSubmissions int

	// AverageScore - средний балл по оценённым работам.
	AverageScore float64

	// LoginDays - количество дней с активностью.
	LoginDays int
}

// LevelState - уровень и прогресс XP.
type LevelState struct {
	// Current - текущий уровень (от 1).
	Current int

	// XP - накопленный XP внутри уровня.
	XP int

	// XPToNext - порог XP для перехода на следующий уровень.
	XPToNext int
}

// UserStats - агрегат геймификации одного пользователя.
// Создаётся лениво при первом событии; никогда не удаляется;
// мутируется только движком геймификации.
// Инварианты: XP < XPToNext после любого обновления; Current <= Longest.
type UserStats struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// Points - счётчики очков.
	Points PointTotals

	// Streaks - серия активных дней.
	Streaks StreakState

	// Achievements - накопительные счётчики.
	Achievements AchievementCounters

	// Level - уровень и XP.
	Level LevelState

	// Version - версия записи для оптимистичной блокировки.
	Version int64

	// CreatedAt - когда запись создана.
	CreatedAt time.Time

	// UpdatedAt - когда запись обновлялась последний раз.
	UpdatedAt time.Time
}

// NewUserStats создаёт пустую запись статистики для пользователя.
func NewUserStats(userID shared.UserID) *UserStats {
	now := time.Now().UTC()
	return &UserStats{
		UserID: userID,
		Level: LevelState{
			Current:  InitialLevel,
			XP:       0,
			XPToNext: InitialLevel * XPPerLevelStep,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// POINTS & LEVELS
// ══════════════════════════════════════════════════════════════════════════════

// AwardOutcome - результат начисления очков.
type AwardOutcome struct {
	// Amount - сколько очков начислено.
	Amount int

	// NewTotal - итоговые очки после начисления.
	NewTotal int

	// OldLevel - уровень до начисления.
	OldLevel int

	// NewLevel - уровень после начисления.
	NewLevel int
}

// LeveledUp возвращает true, если начисление подняло уровень.
func (o AwardOutcome) LeveledUp() bool {
	return o.NewLevel > o.OldLevel
}

// AwardPoints начисляет очки во все окна и в XP, затем нормализует уровень:
// пока XP >= XPToNext, излишек переносится на следующий уровень и порог
// пересчитывается как level*100. Постусловие: XP < XPToNext.
func (s *UserStats) AwardPoints(amount int) (AwardOutcome, error) {
	if amount < 0 {
		return AwardOutcome{}, shared.ErrNegativePointAmount
	}

	outcome := AwardOutcome{Amount: amount, OldLevel: s.Level.Current}

	s.Points.Total += amount
	s.Points.Weekly += amount
	s.Points.Monthly += amount
	s.Level.XP += amount

	for s.Level.XP >= s.Level.XPToNext {
		s.Level.XP -= s.Level.XPToNext
		s.Level.Current++
		s.Level.XPToNext = s.Level.Current * XPPerLevelStep
	}

	s.UpdatedAt = time.Now().UTC()

	outcome.NewTotal = s.Points.Total
	outcome.NewLevel = s.Level.Current
	return outcome, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAKS
// ══════════════════════════════════════════════════════════════════════════════

// StreakOutcome - результат обновления серии.
type StreakOutcome struct {
	// Current - серия после обновления.
	Current int

	// Longest - лучшая серия после обновления.
	Longest int

	// Extended - серия продолжена (+1 день).
	Extended bool

	// Broken - серия была сброшена из-за пропуска.
	Broken bool

	// Previous - серия до сброса (заполняется при Broken).
	Previous int

	// DaysMissed - сколько дней пропущено (при сбросе).
	DaysMissed int
}

// RecordLogin обновляет серию по числу целых календарных дней с последней
// активности: ровно один день - серия продолжается; больше одного - серия
// начинается заново с 1; тот же день - счётчики серии не меняются.
// Всегда: LastActivity = now, LoginDays++. Повторные входы в один день
// намеренно увеличивают LoginDays - это документированное текущее поведение.
func (s *UserStats) RecordLogin(now time.Time) StreakOutcome {
	outcome := StreakOutcome{}

	if s.Streaks.LastActivity.IsZero() {
		// Первая активность пользователя.
		s.Streaks.Current = 1
		s.Streaks.Longest = 1
		outcome.Extended = true
	} else {
		daysDiff := timeutil.DaysBetween(s.Streaks.LastActivity, now)
		switch {
		case daysDiff == 1:
			s.Streaks.Current++
			if s.Streaks.Current > s.Streaks.Longest {
				s.Streaks.Longest = s.Streaks.Current
			}
			outcome.Extended = true
		case daysDiff > 1:
			outcome.Broken = true
			outcome.Previous = s.Streaks.Current
			outcome.DaysMissed = daysDiff - 1
			s.Streaks.Current = 1
			if s.Streaks.Longest < 1 {
				s.Streaks.Longest = 1
			}
		}
		// daysDiff == 0: тот же день, серия не меняется.
	}

	s.Streaks.LastActivity = now
	s.Achievements.LoginDays++
	s.UpdatedAt = time.Now().UTC()

	outcome.Current = s.Streaks.Current
	outcome.Longest = s.Streaks.Longest
	return outcome
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

// RecordSubmission учитывает сданное задание: увеличивает счётчик выполненных
// и пересчитывает средний балл как бегущее среднее по оценённым сдачам.
// score == nil увеличивает только счётчик выполненных, средний балл
// не затрагивается.
func (s *UserStats) RecordSubmission(score *float64) {
	s.Achievements.AssignmentsCompleted++
	if score != nil {
		s.Achievements.GradedSubmissions++
		n := float64(s.Achievements.GradedSubmissions)
		s.Achievements.AverageScore += (*score - s.Achievements.AverageScore) / n
	}
	s.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// INVARIANTS
// ══════════════════════════════════════════════════════════════════════════════

// CheckInvariants проверяет инварианты агрегата.
func (s *UserStats) CheckInvariants() error {
	if s.Level.XP >= s.Level.XPToNext {
		return shared.NewDomainError("gamification", "CheckInvariants",
			shared.ErrInvalidState, "XP must stay below XPToNext")
	}
	if s.Streaks.Current > s.Streaks.Longest {
		return shared.NewDomainError("gamification", "CheckInvariants",
			shared.ErrInvalidState, "current streak cannot exceed longest")
	}
	if s.Points.Total < 0 || s.Points.Weekly < 0 || s.Points.Monthly < 0 {
		return shared.NewDomainError("gamification", "CheckInvariants",
			shared.ErrNegativeValue, "point counters cannot be negative")
	}
	return nil
}

// ResetWeekly обнуляет недельный счётчик очков (граница ISO-недели).
func (s *UserStats) ResetWeekly() {
	s.Points.Weekly = 0
	s.UpdatedAt = time.Now().UTC()
}

// ResetMonthly обнуляет месячный счётчик очков (граница месяца).
func (s *UserStats) ResetMonthly() {
	s.Points.Monthly = 0
	s.UpdatedAt = time.Now().UTC()
}
