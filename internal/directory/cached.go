package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/autoatende/pkg/logging"
)

const defaultCacheTTL = 10 * time.Minute

// CachedStore fronts another Store with a Redis read-through cache.
// Misses are not cached so newly registered businesses show up immediately.
type CachedStore struct {
	next   Store
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedStore wraps next with a Redis cache. ttl <= 0 uses the default.
func NewCachedStore(next Store, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedStore {
	if next == nil {
		panic("directory: backing store required")
	}
	if redisClient == nil {
		panic("directory: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedStore{next: next, redis: redisClient, ttl: ttl, logger: logger}
}

var _ Store = (*CachedStore)(nil)

func cacheKey(channelID string) string {
	return fmt.Sprintf("directory:channel:%s", channelID)
}

// Lookup implements Lookup. Cache failures degrade to the backing store.
func (s *CachedStore) Lookup(ctx context.Context, channelID string) (*BusinessProfile, error) {
	data, err := s.redis.Get(ctx, cacheKey(channelID)).Bytes()
	switch {
	case err == nil:
		var p BusinessProfile
		if jsonErr := json.Unmarshal(data, &p); jsonErr == nil {
			return &p, nil
		}
		s.logger.Warn("directory: dropping corrupt cache entry", "channel_id", channelID)
		_ = s.redis.Del(ctx, cacheKey(channelID)).Err()
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("directory: cache read failed", "channel_id", channelID, "error", err)
	}

	p, err := s.next.Lookup(ctx, channelID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, p)
	return p, nil
}

// Register implements Store.
func (s *CachedStore) Register(ctx context.Context, p *BusinessProfile) error {
	if err := s.next.Register(ctx, p); err != nil {
		return err
	}
	s.store(ctx, p)
	return nil
}

func (s *CachedStore) store(ctx context.Context, p *BusinessProfile) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(p.ChannelID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("directory: cache write failed", "channel_id", p.ChannelID, "error", err)
	}
}
