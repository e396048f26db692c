// Package main - точка входа HTTP сервера Topic Allocation Hub.
//
// Сервер отвечает за распределение тем курсовых и дипломных работ:
// - Просмотр каталога тем с фильтрами
// - Резервирование темы представителем группы (30 минут на решение)
// - Закрепление темы за студентом
// - Случайное распределение свободных тем по группе
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, планировщик
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/temahub/topic-allocation-hub/config"
	"github.com/temahub/topic-allocation-hub/internal/application/command"
	"github.com/temahub/topic-allocation-hub/internal/application/query"
	"github.com/temahub/topic-allocation-hub/internal/domain/group"
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/importer"
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/persistence/postgres"
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/persistence/redis"
	httpiface "github.com/temahub/topic-allocation-hub/internal/interface/http"
	"github.com/temahub/topic-allocation-hub/internal/interface/http/handlers"
	"github.com/temahub/topic-allocation-hub/pkg/logger"
	"github.com/temahub/topic-allocation-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Topic Allocation Hub server",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := connectDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
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
	var topicCache *redis.TopicCache
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Кеш - ускорение, а не требование: без Redis читаем из базы.
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			topicCache = redis.NewTopicCache(redisCache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И UNIT OF WORK
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	topicRepo := postgres.NewTopicRepository(dbConn)
	reservationRepo := postgres.NewReservationRepository(dbConn)
	groupRepo := postgres.NewGroupRepository(dbConn)
	studentRepo := postgres.NewStudentRepository(dbConn)
	userRepo := postgres.NewUserRepository(dbConn)
	supervisorRepo := postgres.NewSupervisorRepository(dbConn)
	workTypeRepo := postgres.NewWorkTypeRepository(dbConn)
	uowFactory := postgres.NewUnitOfWorkFactory(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИМПОРТЕР И SEED АККАУНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	imp := importer.New(groupRepo, studentRepo, userRepo, supervisorRepo, workTypeRepo, topicRepo, log)

	if cfg.Seed.AdminPassword != "" {
		err := imp.SeedAccounts(ctx, []importer.DefaultAccount{
			{
				Username: cfg.Seed.AdminUsername,
				Password: cfg.Seed.AdminPassword,
				Role:     group.RoleAdmin,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to seed accounts: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ USE CASES
	// ─────────────────────────────────────────────────────────────────────────
	var invalidator command.TopicCacheInvalidator
	var listCache query.TopicListCache
	if topicCache != nil {
		invalidator = topicCache
		listCache = topicCache
	}

	reserveHandler := command.NewReserveTopicHandler(uowFactory, invalidator, cfg.Reservation.TTL)
	cancelHandler := command.NewCancelReservationHandler(uowFactory, invalidator)
	assignHandler := command.NewAssignTopicHandler(uowFactory, invalidator)
	distributeHandler := command.NewDistributeTopicsHandler(uowFactory, invalidator)
	listTopicsHandler := query.NewListTopicsHandler(topicRepo, listCache)
	reservationsHandler := query.NewGetActiveReservationsHandler(reservationRepo, topicRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("postgres", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("redis", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК HTTP СЕРВЕРА
	// ─────────────────────────────────────────────────────────────────────────
	httpLogger := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	serverCfg := httpiface.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout

	server := httpiface.NewServer(serverCfg, httpiface.Dependencies{
		ReserveTopicHandler:          reserveHandler,
		CancelReservationHandler:     cancelHandler,
		AssignTopicHandler:           assignHandler,
		DistributeTopicsHandler:      distributeHandler,
		ListTopicsHandler:            listTopicsHandler,
		GetActiveReservationsHandler: reservationsHandler,
		Importer:                     imp,
		Logger:                       httpLogger,
		HealthChecker:                healthChecker,
	})

	log.Info("starting HTTP server", "address", server.Address())
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// connectDatabase открывает пул соединений с PostgreSQL.
// База может подниматься дольше сервиса, поэтому подключаемся с повторами.
func connectDatabase(ctx context.Context, url string) (*postgres.Connection, error) {
	var conn *postgres.Connection
	err := retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
		c, err := postgres.NewConnectionFromURL(ctx, url)
		if err != nil {
			return retry.Retryable(err)
		}
		if err := c.Ping(ctx); err != nil {
			c.Close()
			return retry.Retryable(err)
		}
		conn = c
		return nil
	})
	return conn, err
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slogLevel(cfg.Observability.LogLevel),
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
