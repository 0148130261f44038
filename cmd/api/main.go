// Package main is the entrypoint for the UCSB API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/cache"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/config"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/frontend"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/metrics"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/server"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server_error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database_connect_failed",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("connect to database")
	}
	logger.Info("database_connected", slog.String("store_driver", cfg.StoreDriver))

	if cfg.AutoMigrate {
		applied, err := repository.Migrate(ctx, repo.Pool(), migrations.FS)
		if err != nil {
			repo.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations_applied", slog.Any("versions", applied))
	}

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error("redis_connect_failed",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errors.New("connect to redis")
	}
	logger.Info("redis_connected")

	var google *auth.GoogleLogin
	if cfg.OAuthEnabled() {
		google, err = auth.NewGoogleLogin(ctx, auth.GoogleConfig{
			IssuerURL:    cfg.OIDCIssuerURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/login/oauth2/code/google",
		})
		if err != nil {
			repo.Close()
			_ = cacheClient.Close()
			return fmt.Errorf("google login: %w", err)
		}
	} else {
		logger.Warn("google_login_disabled", slog.String("reason", "GOOGLE_CLIENT_ID is empty"))
	}

	origin, err := frontend.New(ctx, frontend.Config{
		Mode:        cfg.FrontendMode,
		ProxyURL:    cfg.FrontendProxyURL,
		S3Endpoint:  cfg.FrontendS3Endpoint,
		S3AccessKey: cfg.FrontendS3AccessKey,
		S3SecretKey: cfg.FrontendS3SecretKey,
		S3Bucket:    cfg.FrontendS3Bucket,
		S3UseSSL:    cfg.FrontendS3UseSSL,
	}, logger)
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		return fmt.Errorf("frontend: %w", err)
	}

	router, err := newRouter(deps{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		cache:    cacheClient,
		recorder: metrics.NewInMemory(),
		sessions: auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL),
		google:   google,
		frontend: origin,
	})
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		return err
	}

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("server_configured",
		slog.Int("port", cfg.AppPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("env", cfg.AppEnv),
		slog.String("frontend_mode", cfg.FrontendMode),
	)
	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
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
