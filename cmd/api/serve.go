// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/taibuivan/secretbox/internal/api"
	"github.com/taibuivan/secretbox/internal/platform/constants"
	"github.com/taibuivan/secretbox/internal/platform/mailer"
	"github.com/taibuivan/secretbox/internal/platform/metrics"
	"github.com/taibuivan/secretbox/internal/platform/migration"
	"github.com/taibuivan/secretbox/internal/platform/objectstore"
	pgstore "github.com/taibuivan/secretbox/internal/platform/postgres"
	redisstore "github.com/taibuivan/secretbox/internal/platform/redis"
	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/users/account"
	"github.com/taibuivan/secretbox/internal/users/auth"
)

var serveSkipMigrations bool

// serveCmd runs the HTTP API and the revocation reaper.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveSkipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

// serve runs the startup sequence:
//
//  1. Load configuration, connect to PostgreSQL and Redis.
//  2. Run database migrations (idempotent).
//  3. Build security primitives, mail and media adapters.
//  4. Wire the auth and account domains.
//  5. Start the reaper and the HTTP server, then shut down gracefully.
func serve() error {
	log := slog.Default()
	log.Info("service_initializing")

	// Root context for startup. A deadline surfaces misconfiguration quickly
	// instead of hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 1. Infrastructure ─────────────────────────────────────────────────
	infra, err := connect(startupCtx)
	if err != nil {
		return err
	}
	defer infra.Close()

	cfg, log := infra.cfg, infra.log

	// ── 2. Migrations ─────────────────────────────────────────────────────
	if !serveSkipMigrations {
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// ── 3. Security, mail, media ──────────────────────────────────────────
	tokens, err := sec.NewTokenService(sec.Keyring{
		BearerAccess:  []byte(cfg.AccessUserSignature),
		BearerRefresh: []byte(cfg.RefreshUserSignature),
		SystemAccess:  []byte(cfg.AccessSystemSignature),
		SystemRefresh: []byte(cfg.RefreshSystemSignature),
	}, constants.AuthIssuer)
	if err != nil {
		return fmt.Errorf("initialize token service: %w", err)
	}

	cipher, err := sec.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("initialize cipher: %w", err)
	}

	var dispatcher mailer.Dispatcher = mailer.NewLogDispatcher(log)
	if cfg.MailQueueEnabled() {
		queue, err := mailer.DialQueue(cfg.AMQPURL, cfg.MailQueue, cfg.MailSender)
		if err != nil {
			return fmt.Errorf("connect to mail queue: %w", err)
		}
		defer func() {
			if err := queue.Close(); err != nil {
				log.Error("mail_queue_close_failed", slog.Any("error", err))
			}
		}()
		dispatcher = queue
	} else {
		log.Warn("mail_queue_disabled", slog.String("reason", "AMQP_URL is empty; emails are only logged"))
	}

	var media account.MediaStore = objectstore.Disabled{}
	if cfg.MediaStorageEnabled() {
		store, err := objectstore.NewMinioStore(objectstore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return fmt.Errorf("initialize object store: %w", err)
		}
		if err := store.EnsureBucket(startupCtx); err != nil {
			return fmt.Errorf("ensure media bucket: %w", err)
		}
		media = store
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(constants.AppName, registry)

	// ── 4. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(infra.pool)
	revocationRepository := infra.revocations()

	authService := auth.NewService(auth.Dependencies{
		Users:       userRepository,
		Revocations: revocationRepository,
		Tokens:      tokens,
		Hasher:      sec.NewHasher(cfg.BcryptCost),
		Cipher:      cipher,
		Mailer:      dispatcher,
		Google:      auth.NewIDTokenVerifier(cfg.WebClientIDs),
		Metrics:     appMetrics,
	})
	gate := auth.NewGate(tokens, revocationRepository, userRepository)

	accountService := account.NewService(account.NewAccountRepository(infra.pool), media, cipher, log)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, infra.pool) },
		CheckCache:    func(ctx context.Context) error { return redisstore.Ping(ctx, infra.redis) },
	}, log)

	// ── 5. Reaper ─────────────────────────────────────────────────────────
	reaper := auth.NewReaper(revocationRepository, appMetrics, log)
	if err := reaper.Start(cfg.ReaperSchedule); err != nil {
		return fmt.Errorf("start reaper: %w", err)
	}
	defer reaper.Stop()

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, appMetrics, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Auth:      auth.NewHandler(authService, gate),
		Account:   account.NewHandler(accountService, gate),
	})

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server startup: %w", err)
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server_stopped_cleanly")
	return nil
}
