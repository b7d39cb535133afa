package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/audit"
	"github.com/passiotour/tourpricing/internal/catalog"
	"github.com/passiotour/tourpricing/internal/config"
	"github.com/passiotour/tourpricing/internal/logging"
	"github.com/passiotour/tourpricing/internal/replica"
	"github.com/passiotour/tourpricing/internal/store"
	"github.com/passiotour/tourpricing/internal/telemetry"
	"github.com/passiotour/tourpricing/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	// audit events always reach the log; postgres deployments also keep them
	sinks := audit.MultiSink{audit.NewLogSink(logger)}
	if pg, ok := st.(*store.PostgresStore); ok {
		sinks = append(sinks, audit.NewPostgresSink(pg.Pool()))
	}
	auditSvc := audit.NewService(sinks, audit.SystemClock{}, audit.UUIDGenerator{},
		audit.NewDefaultRedactor(), logger, cfg.AuditQueueSize)
	defer func() { _ = auditSvc.Close() }()

	telemetry.Init()

	cache := catalog.New(st, logger)
	opts := []api.Option{
		api.WithCatalog(cache),
		api.WithLogger(logger),
		api.WithAudit(auditSvc),
		api.WithRateLimits(cfg.RateLimitPerIP, cfg.RateLimitAdminPerKey),
		api.WithCORS(cfg.CORSAllowedOrigins),
		api.WithDefaultCurrency(cfg.DefaultCurrency),
	}
	if len(cfg.WebhookURLs) > 0 {
		endpoints := make([]webhook.Endpoint, len(cfg.WebhookURLs))
		for i, u := range cfg.WebhookURLs {
			endpoints[i] = webhook.Endpoint{URL: u, Secret: cfg.WebhookSecret}
		}
		hooks := webhook.NewDispatcher(endpoints,
			webhook.WithLogger(logger.Named("webhook")),
			webhook.WithMaxRetries(cfg.WebhookMaxRetries),
			webhook.WithTimeout(cfg.WebhookTimeout),
		)
		defer func() { _ = hooks.Close() }()
		opts = append(opts, api.WithWebhooks(hooks))
		logger.Info("webhooks enabled", zap.Int("endpoints", len(endpoints)))
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		catalogSync := replica.New(rdb, cache,
			replica.WithChannel(cfg.RedisChannel),
			replica.WithLogger(logger.Named("replica")))
		go func() {
			if err := catalogSync.Run(ctx); err != nil {
				logger.Error("catalog sync stopped", zap.Error(err))
			}
		}()
		opts = append(opts, api.WithAnnouncer(catalogSync))
	}

	srvAPI := api.NewServer(st, cfg.AdminAPIKey, opts...)

	// initial snapshot
	if err := srvAPI.RebuildCatalog(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	snap := srvAPI.Catalog().Load()
	logger.Info("catalog loaded",
		zap.Int("tours", len(snap.Tours)),
		zap.String("etag", snap.ETag),
		zap.String("store", cfg.StoreType))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // SSE streams stay open
		IdleTimeout:  60 * time.Second,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
	}

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	cancelRun()
	logger.Info("stopped")
	return runErr
}
