// Package main - точка входа фонового процесса (Worker) Topic Allocation Hub.
//
// Worker отвечает за периодические задачи:
// - Снятие просроченных резервов и возврат тем в свободный пул
//
// Резерв живёт 30 минут. Если представитель группы не закрепил тему
// за это время, worker возвращает её в каталог, чтобы другие группы
// не ждали впустую.
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
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/persistence/postgres"
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/persistence/redis"
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/scheduler"
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/scheduler/jobs"
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
	log.Info("starting Topic Allocation Hub worker",
		"env", string(cfg.App.Environment),
		"sweep_interval", cfg.Sweeper.Interval.String(),
	)

	if !cfg.Sweeper.Enabled {
		return fmt.Errorf("worker started with SWEEPER_ENABLED=false, nothing to do")
	}

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
	var topicCache *redis.TopicCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err := redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, cache invalidation disabled", "error", err)
		} else {
			defer redisCache.Close()
			topicCache = redis.NewTopicCache(redisCache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. РЕГИСТРАЦИЯ ЗАДАЧ И ЗАПУСК ПЛАНИРОВЩИКА
	// ─────────────────────────────────────────────────────────────────────────
	uowFactory := postgres.NewUnitOfWorkFactory(dbConn)

	var invalidator jobs.CacheInvalidator
	if topicCache != nil {
		invalidator = topicCache
	}
	reclaimJob := jobs.NewReclaimExpiredJob(uowFactory, invalidator, log)

	sched := scheduler.New(scheduler.Config{Logger: log})
	if err := sched.Register(reclaimJob, scheduler.NewIntervalSchedule(cfg.Sweeper.Interval)); err != nil {
		return fmt.Errorf("failed to register job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("Topic Allocation Hub worker is running")

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// connectDatabase открывает пул соединений с PostgreSQL с повторами.
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
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
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
