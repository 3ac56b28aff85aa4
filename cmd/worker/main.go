// Package main - точка входа для фоновых процессов (Worker) EduPulse Insights.
//
// Worker отвечает за периодические задачи:
// - Пересчёт прогнозов для недавно активных пользователей
// - Перестройка кешей лидерборда в Redis
// - Посев каталога бейджей
// - Сброс недельных и месячных окон очков
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/edupulse-hub/edupulse-insights/config"

	// Application layer
	"github.com/edupulse-hub/edupulse-insights/internal/application/command"
	"github.com/edupulse-hub/edupulse-insights/internal/application/query"

	// Infrastructure layer
	"github.com/edupulse-hub/edupulse-insights/internal/infrastructure/messaging"
	"github.com/edupulse-hub/edupulse-insights/internal/infrastructure/persistence/postgres"
	"github.com/edupulse-hub/edupulse-insights/internal/infrastructure/persistence/redis"
	"github.com/edupulse-hub/edupulse-insights/internal/infrastructure/scheduler"
	"github.com/edupulse-hub/edupulse-insights/internal/infrastructure/scheduler/jobs"

	// Domain layer
	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"

	// Packages
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting EduPulse Insights Worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("timezone", cfg.App.Timezone),
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, worker has nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// Проверяем соединение
	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ (Worker также должен иметь актуальную схему)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisClient *redis.Client
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisClient, err = connectRedis(cfg)
		if err != nil {
			log.Warn("failed to connect to Redis, cache jobs disabled", logger.Err(err))
		} else {
			defer redisClient.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisClient)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	activityRepo := postgres.NewActivityRepository(dbConn)
	statsRepo := postgres.NewStatsRepository(dbConn)
	badgeRepo := postgres.NewBadgeRepository(dbConn)
	predictionRepo := postgres.NewPredictionRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	// Worker публикует prediction.updated и risk_level_changed при пересчёте.
	// Подписчиков здесь нет, события остаются для логов и метрик шины.
	eventBusConfig := messaging.DefaultConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	predictionQuery := query.NewGetPredictionHandler(activityRepo, statsRepo, badgeRepo, predictionRepo, eventBus, log)
	badgeSeeder := command.NewSeedBadgesHandler(badgeRepo, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ПОСЕВ КАТАЛОГА БЕЙДЖЕЙ
	// ─────────────────────────────────────────────────────────────────────────
	// Идемпотентно: существующие определения обновляются, заработанные
	// бейджи не затрагиваются.
	log.Info("seeding badge catalog...")
	if _, err := badgeSeeder.Handle(ctx); err != nil {
		return fmt.Errorf("failed to seed badge catalog: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. РЕГИСТРАЦИЯ ЗАДАЧ ПЛАНИРОВЩИКА
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering scheduled jobs...")

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	refreshConfig := jobs.RefreshPredictionsConfig{
		ActivityWindow: cfg.Prediction.ActivityWindow,
		MaxUsersPerRun: cfg.Prediction.MaxUsersPerRun,
	}
	refreshJob := jobs.NewRefreshPredictionsJob(activityRepo, predictionQuery, refreshConfig, log)
	if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RefreshPredictionsInterval)); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	if leaderboardCache != nil {
		rebuildJob := jobs.NewRebuildLeaderboardJob(leaderboardRepo, leaderboardCache, cfg.Scheduler.LeaderboardCacheDepth, log)
		if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}
	}

	weeklyCron, err := scheduler.ParseCronExpression(cfg.Scheduler.WeeklyResetCron)
	if err != nil {
		return fmt.Errorf("invalid weekly reset cron %q: %w", cfg.Scheduler.WeeklyResetCron, err)
	}
	weeklyJob := jobs.NewWeeklyResetJob(statsRepo, cacheOrNil(leaderboardCache), log)
	if err := sched.Register(weeklyJob, weeklyCron); err != nil {
		return fmt.Errorf("failed to register weekly reset job: %w", err)
	}

	monthlyCron, err := scheduler.ParseCronExpression(cfg.Scheduler.MonthlyResetCron)
	if err != nil {
		return fmt.Errorf("invalid monthly reset cron %q: %w", cfg.Scheduler.MonthlyResetCron, err)
	}
	monthlyJob := jobs.NewMonthlyResetJob(statsRepo, cacheOrNil(leaderboardCache), log)
	if err := sched.Register(monthlyJob, monthlyCron); err != nil {
		return fmt.Errorf("failed to register monthly reset job: %w", err)
	}

	// Ежедневный повторный посев подхватывает новые версии каталога
	// без перезапуска процесса.
	seedJob := jobs.NewSeedBadgesJob(badgeSeeder, log)
	if err := sched.Register(seedJob, scheduler.MustParseCronExpression(scheduler.EveryDayMidnight)); err != nil {
		return fmt.Errorf("failed to register seed job: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ЗАПУСК ПЛАНИРОВЩИКА
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("EduPulse Insights Worker is running",
		logger.Int("jobs", len(sched.ListJobs())),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", logger.String("signal", sig.String()))

	log.Info("starting graceful shutdown...", logger.String("timeout", cfg.App.ShutdownTimeout.String()))

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", logger.Err(err))
	}

	// Event bus и база данных закроются через defer

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное JSON логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// connectRedis подключается к Redis из конфигурации.
// REDIS_URL имеет приоритет над отдельными host/port настройками.
func connectRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.URL != "" {
		addr := strings.TrimPrefix(cfg.Redis.URL, "redis://")
		return redis.NewClientFromAddr(addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
	return redis.NewClient(redisCfg)
}

// cacheOrNil разворачивает типизированный nil в нетипизированный,
// чтобы проверка cache != nil внутри задач работала как ожидается.
func cacheOrNil(cache *redis.LeaderboardCache) leaderboard.Cache {
	if cache == nil {
		return nil
	}
	return cache
}
