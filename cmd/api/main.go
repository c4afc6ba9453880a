// Package main is the entrypoint for the userdesk users API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/userdesk/userdesk/internal/cache"
	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/handler"
	"github.com/userdesk/userdesk/internal/logging"
	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/repository"
	"github.com/userdesk/userdesk/internal/server"
	"github.com/userdesk/userdesk/internal/service"
)

// store is what the API needs from a storage backend.
type store interface {
	service.Store
	handler.HealthChecker
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		st      store
		closers []func()
	)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		st = repository.NewMemoryStore()
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolOptions{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return err
		}
		closers = append(closers, repo.Close)
		st = repo
		logger.Info("connected to database")
	}

	// Interface values stay nil when Redis is off so the service and the
	// readiness probe see "no cache" rather than a nil *cache.Cache.
	var (
		listCache   service.ListCache
		cacheHealth handler.HealthChecker
		redisClient *cache.Cache
	)
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL,
			cache.WithUsersTTL(cfg.UsersCacheTTL),
			cache.WithKeyPrefix(cfg.CacheKeyPrefix),
		)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			for _, closeFn := range closers {
				closeFn()
			}
			return err
		}
		redisClient = c
		listCache = c
		cacheHealth = c
		logger.Info("connected to Redis")
	}

	recorder := metrics.NewPrometheus()
	users := service.NewUserService(st, listCache, recorder, logger)

	router := server.NewRouter(server.RouterConfig{
		Users:              handler.NewUserHandler(users, logger),
		Health:             handler.NewHealthHandler(st, cacheHealth),
		Metrics:            recorder.Handler(),
		Logger:             logger,
		AllowedOrigins:     cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		IsDevelopment:      cfg.IsDevelopment(),
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("store", func(context.Context) error {
		for _, closeFn := range closers {
			closeFn()
		}
		return nil
	})
	if redisClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"storage", cfg.StorageDriver,
		"cache", redisClient != nil,
	)

	return srv.Run(ctx)
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, redactURL(secret))
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
