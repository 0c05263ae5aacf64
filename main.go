package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/router"
	"task-tracker/backend/internal/services"
	"task-tracker/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type application struct {
	cfg    *config.Config
	log    *slog.Logger
	pool   *database.DatabasePool
	redis  *redis.Client
	worker *worker.Worker
	engine *gin.Engine
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.Server.Environment, cfg.Server.LogLevel)
	slog.SetDefault(log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise application", "error", err)
		os.Exit(1)
	}
	defer app.close()

	if err := app.run(ctx); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// newApplication opens the store, runs migrations and wires every component.
// With Redis disabled or unreachable at boot the task cache is a no-op and no
// worker runs.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        database.ParseLogLevel(cfg.Database.LogLevel),
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	app := &application{cfg: cfg, log: log, pool: pool}

	monitor := monitoring.NewMonitor(cfg.Server.Environment, log)
	monitor.RegisterHealthCheck("database", true, pool.HealthContext)
	monitor.RegisterStats("database", pool.Stats)

	var (
		taskCache cache.TaskCache = cache.NoopTaskCache{}
		warmer    handlers.CacheWarmer
		jobs      *worker.JobQueue
	)
	if cfg.Redis.Enabled {
		client := cache.NewRedisClient(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("redis unreachable, task lists are served from the database only", "addr", cfg.GetRedisAddr(), "error", err)
			client.Close()
		} else {
			app.redis = client
		}
	} else {
		log.Warn("redis disabled, task lists are served from the database only")
	}

	if app.redis != nil {
		guarded := cache.NewGuardedTaskCache(
			cache.NewRedisTaskCache(app.redis, cfg.Cache.KeyPrefix),
			&cache.CircuitBreakerConfig{
				MaxFailures:      cfg.Cache.MaxFailures,
				Timeout:          cfg.Cache.BreakerTimeout,
				HalfOpenMaxCalls: cfg.Cache.HalfOpenMaxCalls,
			},
			nil,
		)
		taskCache = guarded
		monitor.RegisterHealthCheck("cache", false, guarded.Health)
		monitor.RegisterStats("cache", guarded.Stats)
	}

	taskService := services.NewCachedTaskService(
		repositories.NewTaskRepository(pool.DB), taskCache, cfg.Cache.TaskListTTL, log)
	authService := services.NewAuthService(
		repositories.NewUserRepository(pool.DB), cfg.Auth.BCryptCost, log)
	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	if app.redis != nil && cfg.Worker.Enabled {
		jobs = worker.NewJobQueue(app.redis, cfg.Worker.Queue)
		warmer = jobs
		monitor.RegisterStats("jobs", jobs.Stats)

		app.worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  app.redis,
			Queue:        cfg.Worker.Queue,
			PollInterval: cfg.Worker.PollInterval,
			Logger:       log,
		})
		app.worker.RegisterHandler(worker.JobTypeWarmTaskCache, worker.WarmTaskCacheHandler(taskService))
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
	}

	app.engine = router.New(router.Deps{
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
		Tokens:         tokens,
		RateLimiter:    limiter,
		Monitor:        monitor,
		Auth:           handlers.NewAuthHandler(authService, tokens, warmer, log),
		Users:          handlers.NewUserHandler(authService, log),
		Tasks:          handlers.NewTaskHandler(taskService, log),
	})

	return app, nil
}

// run serves until ctx is cancelled, then drains in-flight requests within
// the shutdown timeout and stops the worker.
func (a *application) run(ctx context.Context) error {
	if a.worker != nil {
		a.worker.Start(ctx, a.cfg.Worker.Concurrency)
		defer a.worker.Stop()
	}

	server := &http.Server{
		Addr:         a.cfg.GetServerAddr(),
		Handler:      a.engine,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", "addr", server.Addr, "environment", a.cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *application) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("failed to close redis client", "error", err)
		}
	}
	if err := a.pool.Close(); err != nil {
		a.log.Warn("failed to close database", "error", err)
	}
}
