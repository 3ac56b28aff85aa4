// Package leaderboard содержит доменную модель рейтингов EduPulse Insights.
// Рейтинги строятся по очкам (за всё время, за неделю, за месяц) и по
// текущей серии активных дней.
package leaderboard

import (
	"fmt"
	"time"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию пользователя в рейтинге.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsTop10 возвращает true, если пользователь в топ-10.
func (r Rank) IsTop10() bool {
	return r >= 1 && r <= 10
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// RankingType определяет, по какому счётчику строится рейтинг.
type RankingType string

const (
	// RankingTotal - по очкам за всё время.
	RankingTotal RankingType = "total"
	// RankingWeekly - по очкам за текущую неделю.
	RankingWeekly RankingType = "weekly"
	// RankingMonthly - по очкам за текущий месяц.
	RankingMonthly RankingType = "monthly"
	// RankingStreak - по текущей серии активных дней.
	RankingStreak RankingType = "streak"
)

// IsValid проверяет, что тип рейтинга известен.
func (t RankingType) IsValid() bool {
	switch t {
	case RankingTotal, RankingWeekly, RankingMonthly, RankingStreak:
		return true
	default:
		return false
	}
}

// ParseRankingType разбирает строку запроса в тип рейтинга.
// Пустая строка означает рейтинг по общим очкам.
func ParseRankingType(s string) (RankingType, error) {
	if s == "" {
		return RankingTotal, nil
	}
	t := RankingType(s)
	if !t.IsValid() {
		return "", shared.ErrInvalidRankingType
	}
	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry представляет одну запись рейтинга.
type Entry struct {
	// Rank - позиция в рейтинге.
	Rank Rank

	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// Score - значение счётчика, по которому построен рейтинг
	// (очки выбранного окна или длина серии).
	Score int64

	// TotalPoints - очки за всё время.
	TotalPoints int

	// CurrentStreak - текущая серия активных дней.
	CurrentStreak int

	// Level - текущий уровень.
	Level int

	// BadgesCount - количество полученных бейджей.
	BadgesCount int

	// UpdatedAt - когда запись обновлялась.
	UpdatedAt time.Time
}

// Board - срез рейтинга фиксированного типа.
type Board struct {
	// Type - тип рейтинга.
	Type RankingType

	// Entries - записи в порядке убывания счёта.
	Entries []*Entry

	// GeneratedAt - когда срез построен.
	GeneratedAt time.Time
}

// AssignRanks проставляет ранги записям в их текущем порядке.
func (b *Board) AssignRanks() {
	for i, e := range b.Entries {
		e.Rank = Rank(i + 1)
	}
}
