package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/autoatende/internal/config"
	"github.com/wolfman30/autoatende/internal/directory"
	"github.com/wolfman30/autoatende/pkg/logging"
)

// BuildDirectory picks the business directory backend and seeds it with the
// demo profile plus any profiles from BUSINESS_SEED_FILE.
func BuildDirectory(ctx context.Context, cfg *appconfig.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *logging.Logger) (directory.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var store directory.Store
	if pool != nil {
		store = directory.NewPostgresStore(pool)
		logger.Info("business directory backed by postgres")
		if redisClient != nil {
			store = directory.NewCachedStore(store, redisClient, 0, logger)
			logger.Info("business directory cache enabled")
		}
	} else {
		store = directory.NewMemoryStore()
		logger.Info("business directory held in memory")
	}

	profiles := []*directory.BusinessProfile{}
	if demoID := strings.TrimSpace(cfg.DemoPhoneID); demoID != "" {
		profiles = append(profiles, directory.DemoProfile(demoID))
	}
	if path := strings.TrimSpace(cfg.BusinessSeedFile); path != "" {
		loaded, err := directory.LoadProfiles(path)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load business seed file: %w", err)
		}
		profiles = append(profiles, loaded...)
	}

	registered, err := directory.Seed(ctx, store, profiles, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: seed directory: %w", err)
	}
	logger.Info("business directory seeded", "registered", registered, "candidates", len(profiles))
	return store, nil
}
