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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/autoatende/cmd/mainconfig"
	"github.com/wolfman30/autoatende/internal/api/router"
	"github.com/wolfman30/autoatende/internal/app/bootstrap"
	appconfig "github.com/wolfman30/autoatende/internal/config"
	"github.com/wolfman30/autoatende/internal/http/handlers"
	"github.com/wolfman30/autoatende/internal/observability/metrics"
	"github.com/wolfman30/autoatende/internal/whatsapp"
	"github.com/wolfman30/autoatende/pkg/logging"
)

func main() {
	// A missing .env is fine; the environment is authoritative.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting autoatende relay",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	metricsHandler, relayMetrics := setupRelayMetrics()

	llm, err := bootstrap.BuildLLMClient(ctx, cfg, mainconfig.Loader(cfg), logger)
	if err != nil {
		logger.Error("failed to configure llm backend", "error", err)
		os.Exit(1)
	}

	dir, err := bootstrap.BuildDirectory(ctx, cfg, pool, redisClient, logger)
	if err != nil {
		logger.Error("failed to build business directory", "error", err)
		os.Exit(1)
	}

	pipeline, err := bootstrap.BuildRelay(cfg, bootstrap.RelayDeps{
		LLM:       llm,
		Directory: dir,
		Redis:     redisClient,
		Pool:      pool,
		Metrics:   relayMetrics,
	}, logger)
	if err != nil {
		logger.Error("failed to build relay pipeline", "error", err)
		os.Exit(1)
	}

	webhook := whatsapp.NewWebhookHandler(cfg.WebhookVerifyToken, cfg.WhatsAppAppSecret, pipeline, relayMetrics, logger)
	if cfg.WhatsAppAppSecret == "" {
		logger.Warn("WHATSAPP_APP_SECRET not set; webhook signatures will not be verified")
	}

	r := router.New(&router.Config{
		Logger:             logger,
		WhatsAppWebhook:    webhook,
		Health:             handlers.NewHealthHandler(readinessChecks(pool, redisClient)),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Webhook deliveries run every message through the LLM before acknowledging.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupRelayMetrics() (http.Handler, *metrics.RelayMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewRelayMetrics(reg)
}

func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	pool := bootstrap.BuildPostgresPool(ctx, databaseURL, logger)
	if pool == nil && databaseURL != "" {
		logger.Warn("postgres unavailable; falling back to in-memory directory")
	}
	return pool
}

func readinessChecks(pool *pgxpool.Pool, redisClient *redis.Client) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if pool != nil {
		checks["postgres"] = pool
	}
	if redisClient != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	return checks
}
