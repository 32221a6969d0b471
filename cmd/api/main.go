package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rentlover/platform/internal/app"
	"github.com/rentlover/platform/internal/auth"
	"github.com/rentlover/platform/internal/catalog"
	"github.com/rentlover/platform/internal/directory"
	"github.com/rentlover/platform/internal/guard"
	"github.com/rentlover/platform/internal/handler"
	"github.com/rentlover/platform/internal/infra"
	"github.com/rentlover/platform/internal/projection"
	"github.com/rentlover/platform/internal/provider"
	"github.com/rentlover/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Connect to Postgres
	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	if cfg.MigrateOnStart {
		if err := infra.RunMigrations(cfg.DSN(), cfg.MigrationsDir, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Parse JWT expiry durations
	memberExpiry, err := time.ParseDuration(cfg.JWTMemberExpiry)
	if err != nil {
		return fmt.Errorf("parse member JWT expiry: %w", err)
	}
	adminExpiry, err := time.ParseDuration(cfg.JWTAdminExpiry)
	if err != nil {
		return fmt.Errorf("parse admin JWT expiry: %w", err)
	}
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, memberExpiry, adminExpiry)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", "offerings", len(cat.Offerings()), "path", cfg.CatalogPath)

	// Directory cache: Redis when configured, otherwise in process
	var store projection.Store = projection.NewInMemoryStore()
	var healthChecks []handler.DependencyCheck
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		store = projection.NewRedisStore(rdb, "rentlover:")
		healthChecks = append(healthChecks, handler.DependencyCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("connected to redis")
	}

	source := repository.NewPgIdentityStore(pool, repository.NewPgAccountRepository(),
		repository.NewPgProfileRepository(), repository.NewOutboxRepository())
	dir := directory.New(source, store, cfg.DirectoryCacheTTL, logger)

	hub := infra.NewWSHub(logger, originChecker(cfg.AllowedOrigins()))
	defer hub.Shutdown(context.Background())

	// Change signals drive the directory syncer
	var signals <-chan string
	switch cfg.ChangeSignalSource {
	case infra.SignalSourceKafka:
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaIdentityTopic, cfg.KafkaGroupID, cfg.KafkaEnabled, logger)
		defer consumer.Close()
		signals = consumer.Signals(ctx)
	default:
		signals = infra.NewChangeListener(pool, infra.IdentityChannel, logger).Start(ctx)
	}
	syncer := directory.NewSyncer(dir, hub, 0, logger)
	go syncer.Run(ctx, signals)

	messaging := provider.NewMessagingClient(cfg.MessagingBaseURL, cfg.MessagingAPIKey,
		guard.NewCircuitBreaker(5, 30*time.Second), logger)

	r := app.NewRouter(app.RouterDeps{
		Pool:              pool,
		JWTMgr:            jwtMgr,
		Logger:            logger,
		Catalog:           cat,
		Directory:         dir,
		Hub:               hub,
		Notifier:          messaging,
		MidtransServerKey: cfg.MidtransServerKey,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		HealthChecks:      healthChecks,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr, "signal_source", cfg.ChangeSignalSource)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// originChecker admits websocket upgrades from the configured CORS origins.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
