package gamification

import (
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE ELIGIBILITY
// Чистая проверка: какие бейджи каталога пользователь заслужил, но ещё
// не получил. Оркестрация записи (вставка UserBadge, начисление очков)
// живёт в application-слое; здесь только решение.
// ══════════════════════════════════════════════════════════════════════════════

// EligibleBadge - бейдж, условие которого выполнено.
type EligibleBadge struct {
	// Badge - запись каталога.
	Badge Badge

	// Progress - значение метрики на момент проверки.
	Progress Progress
}

// EvaluateEligibility возвращает бейджи, заслуженные но не полученные.
// Уже полученные пропускаются, поэтому повторный вызов безопасен:
// состояние (user, badge) меняется только в одну сторону.
func EvaluateEligibility(stats *UserStats, catalog []Badge, earned map[shared.BadgeID]bool) ([]EligibleBadge, error) {
	if stats == nil {
		return nil, shared.ErrStatsNotFound
	}

	var eligible []EligibleBadge
	for i := range catalog {
		badge := catalog[i]
		if earned[badge.ID] {
			continue
		}

		progress, met, err := badge.Criteria.Evaluate(stats)
		if err != nil {
			return nil, shared.WrapError("gamification", "EvaluateEligibility",
				shared.ErrInvalidInput, "badge "+badge.Name, err)
		}
		if met {
			eligible = append(eligible, EligibleBadge{Badge: badge, Progress: progress})
		}
	}
	return eligible, nil
}
