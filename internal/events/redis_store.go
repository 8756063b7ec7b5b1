package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 24 * time.Hour

// RedisProcessedStore claims event ids with SET NX so claims expire after ttl.
type RedisProcessedStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProcessedStore creates a Redis-backed deduplicator. A non-positive ttl uses 24h.
func NewRedisProcessedStore(client *redis.Client, ttl time.Duration) *RedisProcessedStore {
	if client == nil {
		panic("events: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &RedisProcessedStore{client: client, ttl: ttl}
}

// MarkProcessed claims the id, returning false if a claim already exists.
func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, processedKey(provider, eventID), time.Now().UTC().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ok, nil
}

func processedKey(provider, eventID string) string {
	return fmt.Sprintf("processed:%s:%s", provider, eventID)
}
