package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/autoatende/internal/config"
	"github.com/wolfman30/autoatende/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL. It returns nil when the URL is
// empty or the database cannot be reached.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Error("invalid DATABASE_URL", "error", err)
		return nil
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Error("postgres not reachable", "error", err)
		pool.Close()
		return nil
	}
	return pool
}
