// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command identityd runs the sandbox identity service.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL and run migrations (when DATABASE_URL is set).
//  4. Connect to Redis (when REDIS_URL is set).
//  5. Load or generate the JWT signing keys.
//  6. Wire the service and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// Without DATABASE_URL and REDIS_URL every repository lives in memory.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/gigly/internal/api"
	"github.com/taibuivan/gigly/internal/platform/config"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/migration"
	pgstore "github.com/taibuivan/gigly/internal/platform/postgres"
	redisstore "github.com/taibuivan/gigly/internal/platform/redis"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/internal/sandbox"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.LoadSandbox()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("postgres", cfg.DatabaseURL != ""),
		slog.Bool("redis", cfg.RedisURL != ""),
		slog.Bool("fixed_otp", cfg.FixedOTP != ""),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	var (
		accounts sandbox.AccountRepository = sandbox.NewMemoryAccountRepository()
		sessions sandbox.SessionRepository = sandbox.NewMemorySessionRepository()
		codes    sandbox.CodeRepository    = sandbox.NewMemoryCodeRepository()
		health   api.HealthDependencies
	)

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	if cfg.DatabaseURL != "" {
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		accounts = sandbox.NewPostgresAccountRepository(pool)
		sessions = sandbox.NewPostgresSessionRepository(pool)
		health.CheckDatabase = func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }
	}

	// ── 4. Redis ──────────────────────────────────────────────────────────
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()

		codes = sandbox.NewRedisCodeRepository(rdb)
		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}

	// ── 5. Signing Keys ───────────────────────────────────────────────────
	var tokenService *sec.TokenService
	if cfg.JWTPrivKeyPath != "" {
		tokenService, err = sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	} else {
		log.Warn("jwt_ephemeral_keys", slog.String("reason", "JWT key paths not set; tokens will not survive a restart"))
		tokenService, err = sec.NewEphemeralTokenService(constants.AuthIssuer)
	}
	must(log, err, "initialize jwt service")

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	policy := sandbox.DefaultPolicy()
	policy.AccessTokenTTL = cfg.AccessTokenTTL
	policy.CodeTTL = cfg.OTPCodeTTL
	policy.ResendInterval = cfg.ResendInterval
	policy.FixedOTP = cfg.FixedOTP
	policy.EmailSuffixes = cfg.EmailSuffixes

	service := sandbox.NewService(accounts, sessions, codes, tokenService, sandbox.NewLogNotifier(log), policy, log)

	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Roles: []*sandbox.Handler{
			sandbox.NewHandler(service, tokenService, sec.RoleClient),
			sandbox.NewHandler(service, tokenService, sec.RoleHelper),
		},
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", "identityd"))
	slog.SetDefault(log)
	return log
}

// must logs a structured fatal error and exits if err is non-nil.
// It is limited to startup wiring.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
