package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	conversationTTL        = 24 * time.Hour
	defaultHistoryMaxTurns = 20
)

// HistoryStore keeps recent turns per conversation, oldest first.
type HistoryStore interface {
	Load(ctx context.Context, conversationID string) ([]ChatMessage, error)
	Append(ctx context.Context, conversationID string, turns ...ChatMessage) error
}

// ConversationID identifies the thread between one sender and one business channel.
func ConversationID(channelID, senderID string) string {
	return fmt.Sprintf("whatsapp:%s:%s", channelID, senderID)
}

// RedisHistoryStore stores turns in a capped Redis list.
type RedisHistoryStore struct {
	redis    *redis.Client
	tracer   trace.Tracer
	maxTurns int
	ttl      time.Duration
}

// NewRedisHistoryStore keeps at most maxTurns turns per conversation. Turns are
// stored in user/assistant pairs, so an odd maxTurns is rounded down (minimum 2).
func NewRedisHistoryStore(redisClient *redis.Client, maxTurns int, tracer trace.Tracer) *RedisHistoryStore {
	if redisClient == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("autoatende.internal.conversation.history")
	}
	if maxTurns <= 0 {
		maxTurns = defaultHistoryMaxTurns
	}
	maxTurns = max(maxTurns&^1, 2)
	return &RedisHistoryStore{
		redis:    redisClient,
		tracer:   tracer,
		maxTurns: maxTurns,
		ttl:      conversationTTL,
	}
}

var _ HistoryStore = (*RedisHistoryStore)(nil)

// Load returns the stored turns; an unknown conversation has no history.
// Leading assistant turns are dropped so the history always opens with the user.
// A corrupt entry fails the whole load.
func (s *RedisHistoryStore) Load(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_history")
	defer span.End()

	items, err := s.redis.LRange(ctx, conversationKey(conversationID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	history := make([]ChatMessage, 0, len(items))
	for _, item := range items {
		var msg ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
		}
		if len(history) == 0 && msg.Role != ChatRoleUser {
			continue
		}
		history = append(history, msg)
	}
	return history, nil
}

// Append adds turns and trims the list to the newest maxTurns.
func (s *RedisHistoryStore) Append(ctx context.Context, conversationID string, turns ...ChatMessage) error {
	if len(turns) == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "conversation.append_history")
	defer span.End()

	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("conversation: failed to marshal history: %w", err)
		}
		values = append(values, data)
	}

	key := conversationKey(conversationID)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist history: %w", err)
	}
	return nil
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}
