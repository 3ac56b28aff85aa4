package gamification

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT SCORER
// Сводит статистику и бейджи пользователя к одному ограниченному баллу.
// Формула детерминирована, без побочных эффектов и монотонно не убывает
// по каждому слагаемому. Используется и предиктором (как вход), и движком
// геймификации - общая формула, но не общее состояние.
// ══════════════════════════════════════════════════════════════════════════════

// MaxAchievementScore - верхняя граница achievement score.
const MaxAchievementScore = 100

// Весовые коэффициенты формулы.
const (
	pointsWeight      = 0.1
	loginDaysWeight   = 2.0
	assignmentsWeight = 5.0
)

// AchievementScore вычисляет балл достижений:
// min(100, 0.1*totalPoints + 2*loginDays + 5*assignmentsCompleted +
// сумма(очки бейджа * вес редкости)).
func AchievementScore(stats *UserStats, badges []Badge) float64 {
	if stats == nil {
		return 0
	}

	score := pointsWeight*float64(stats.Points.Total) +
		loginDaysWeight*float64(stats.Achievements.LoginDays) +
		assignmentsWeight*float64(stats.Achievements.AssignmentsCompleted)

	for i := range badges {
		score += float64(badges[i].PointValue()) * badges[i].Rarity.Weight()
	}

	if score > MaxAchievementScore {
		return MaxAchievementScore
	}
	return score
}

// MotivationLevel классифицирует балл достижений для отчёта предсказания.
func MotivationLevel(achievementScore float64) string {
	switch {
	case achievementScore > 50:
		return "high"
	case achievementScore > 20:
		return "medium"
	default:
		return "low"
	}
}
