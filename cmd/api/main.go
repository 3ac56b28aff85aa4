// Package main - точка входа для HTTP API сервиса EduPulse Insights.
//
// Сервис обслуживает прогнозы успеваемости, статистику геймификации,
// лидерборды и каталог бейджей, а также принимает события обучения
// (сабмиты и логины) от платформы.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Sagas)
// - Infrastructure: PostgreSQL, Redis, event bus
// - Interface: HTTP handlers
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/edupulse-hub/edupulse-insights/config"

	// Application layer
	"github.com/edupulse-hub/edupulse-insights/internal/application/command"
	"github.com/edupulse-hub/edupulse-insights/internal/application/eventhandler"
	"github.com/edupulse-hub/edupulse-insights/internal/application/query"
	"github.com/edupulse-hub/edupulse-insights/internal/application/saga"

	// Infrastructure layer
	"github.com/edupulse-hub/edupulse-insights/internal/infrastructure/messaging"
	"github.com/edupulse-hub/edupulse-insights/internal/infrastructure/persistence/postgres"
	"github.com/edupulse-hub/edupulse-insights/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/edupulse-hub/edupulse-insights/internal/interface/http"
	"github.com/edupulse-hub/edupulse-insights/internal/interface/http/handlers"

	// Domain layer
	"github.com/edupulse-hub/edupulse-insights/internal/domain/leaderboard"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"

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
	log.Info("starting EduPulse Insights API",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("version", cfg.App.Version),
	)

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
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
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
			// Кеш ускоряет чтение лидерборда, но не является источником
			// истины. Без Redis читаем напрямую из PostgreSQL.
			log.Warn("failed to connect to Redis, leaderboard cache disabled", logger.Err(err))
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
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	badgeFlow := saga.NewBadgeFlowSaga(statsRepo, badgeRepo, eventBus, log)

	recordSubmissionCmd := command.NewRecordSubmissionHandler(activityRepo, statsRepo, badgeFlow, eventBus, log)
	recordLoginCmd := command.NewRecordLoginHandler(statsRepo, badgeFlow, eventBus, log)

	predictionQuery := query.NewGetPredictionHandler(activityRepo, statsRepo, badgeRepo, predictionRepo, eventBus, log)
	userStatsQuery := query.NewGetUserStatsHandler(statsRepo, badgeRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardRepo, cacheOrNil(leaderboardCache), log)
	listBadgesQuery := query.NewListBadgesHandler(badgeRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	riskHandler := eventhandler.NewOnRiskLevelChangedHandler(log)
	if err := eventBus.Subscribe(shared.EventRiskLevelChanged, riskHandler.Handle); err != nil {
		return fmt.Errorf("failed to subscribe risk handler: %w", err)
	}

	// Инкрементальные обновления кеша имеют смысл только при живом Redis.
	if leaderboardCache != nil {
		pointsHandler := eventhandler.NewOnPointsAwardedHandler(leaderboardCache, log)
		if err := eventBus.Subscribe(shared.EventPointsAwarded, pointsHandler.Handle); err != nil {
			return fmt.Errorf("failed to subscribe points handler: %w", err)
		}

		streakHandler := eventhandler.NewOnStreakUpdatedHandler(leaderboardCache, log)
		if err := eventBus.Subscribe(shared.EventStreakUpdated, streakHandler.Handle); err != nil {
			return fmt.Errorf("failed to subscribe streak handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	if redisClient != nil {
		healthChecker.AddCheck("redis", handlers.NewPingCheck(redisClient))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpConfig.APIKeyHashes = cfg.HTTP.APIKeyHashes

	httpDeps := httpserver.Dependencies{
		GetPredictionHandler:    predictionQuery,
		GetUserStatsHandler:     userStatsQuery,
		GetLeaderboardHandler:   leaderboardQuery,
		ListBadgesHandler:       listBadgesQuery,
		RecordSubmissionHandler: recordSubmissionCmd,
		RecordLoginHandler:      recordLoginCmd,
		Logger:                  log,
		HealthChecker:           healthChecker,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ЗАПУСК СЕРВИСА
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		log.Info("starting HTTP server", logger.String("address", httpServer.Address()))
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("EduPulse Insights API is running",
		logger.String("http_address", httpServer.Address()),
	)

	// Ожидаем сигнал завершения или ошибку
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	// Начинаем graceful shutdown
	log.Info("starting graceful shutdown...", logger.String("timeout", cfg.App.ShutdownTimeout.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
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

// cacheOrNil разворачивает типизированный nil в нетипизированный.
// Интерфейс с nil-указателем внутри не равен nil, и обработчик
// лидерборда принял бы мёртвый кеш за живой.
func cacheOrNil(cache *redis.LeaderboardCache) leaderboard.Cache {
	if cache == nil {
		return nil
	}
	return cache
}
