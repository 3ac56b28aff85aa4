package gamification

import (
	"context"

	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY CONTRACTS
// Интерфейсы хранения; реализуются инфраструктурным слоем.
// ══════════════════════════════════════════════════════════════════════════════

// StatsRepository - хранилище UserStats.
//
// Save использует оптимистичную блокировку: запись сохраняется только если
// Version в хранилище совпадает с Version в памяти; при несовпадении
// возвращается shared.ErrOptimisticLock и вызывающий перечитывает и
// повторяет. Все начисления очков идут через агрегат и Save, чтобы
// состояние уровня никогда не расходилось с очками.
type StatsRepository interface {
	// FindByUser возвращает статистику пользователя или shared.ErrNotFound.
	FindByUser(ctx context.Context, userID shared.UserID) (*UserStats, error)

	// FindOrCreate возвращает статистику, лениво создавая пустую запись.
	FindOrCreate(ctx context.Context, userID shared.UserID) (*UserStats, error)

	// Save сохраняет запись с проверкой версии (оптимистичная блокировка).
	Save(ctx context.Context, stats *UserStats) error

	// TopByPoints возвращает лучшие записи по выбранному счётчику очков.
	TopByPoints(ctx context.Context, window string, limit int) ([]*UserStats, error)

	// TopByStreak возвращает лучшие записи по текущей серии.
	TopByStreak(ctx context.Context, limit int) ([]*UserStats, error)

	// ResetWindow обнуляет weekly или monthly счётчики у всех пользователей.
	ResetWindow(ctx context.Context, window string) (int64, error)
}

// BadgeRepository - каталог бейджей и полученные бейджи.
type BadgeRepository interface {
	// UpsertCatalog идемпотентно сохраняет каталог (upsert по Name).
	UpsertCatalog(ctx context.Context, badges []Badge) error

	// Catalog возвращает весь каталог бейджей.
	Catalog(ctx context.Context) ([]Badge, error)

	// FindByName возвращает бейдж по имени или shared.ErrNotFound.
	FindByName(ctx context.Context, name string) (*Badge, error)

	// EarnedByUser возвращает полученные пользователем бейджи.
	EarnedByUser(ctx context.Context, userID shared.UserID) ([]*UserBadge, error)

	// InsertUserBadge вставляет запись о получении. Возвращает created=false,
	// когда пара (user, badge) уже существует - гонка на уникальном
	// ограничении трактуется как "уже получен", а не как ошибка.
	InsertUserBadge(ctx context.Context, ub *UserBadge) (created bool, err error)
}
