package conversation

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisHistoryStoreAppendAndLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisHistoryStore(client, 3, nil)
	ctx := context.Background()
	id := ConversationID("demo-phone-id", "5511900000000")

	empty, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Append(ctx, id,
		ChatMessage{Role: ChatRoleUser, Content: "Olá"},
		ChatMessage{Role: ChatRoleAssistant, Content: "Bom dia!"},
	))
	require.NoError(t, store.Append(ctx, id,
		ChatMessage{Role: ChatRoleUser, Content: "Quero reservar"},
		ChatMessage{Role: ChatRoleAssistant, Content: "Para quantas pessoas?"},
	))

	history, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2, "odd max turns rounds down to whole exchanges")
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: "Quero reservar"}, history[0])
	assert.Equal(t, "Para quantas pessoas?", history[1].Content)

	ttl := mr.TTL(conversationKey(id))
	assert.True(t, ttl > 23*time.Hour && ttl <= 24*time.Hour, "unexpected ttl %s", ttl)
}

func TestRedisHistoryStoreOddCapStartsWithUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisHistoryStore(client, 5, nil)
	ctx := context.Background()
	id := ConversationID("demo-phone-id", "5511900000000")

	for _, text := range []string{"Olá", "Mesa para 2", "Às 20h"} {
		require.NoError(t, store.Append(ctx, id,
			ChatMessage{Role: ChatRoleUser, Content: text},
			ChatMessage{Role: ChatRoleAssistant, Content: "ok: " + text},
		))
	}

	history, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, ChatRoleUser, history[0].Role)
	assert.Equal(t, "Mesa para 2", history[0].Content)
	assert.Equal(t, ChatRoleAssistant, history[3].Role)
}

func TestRedisHistoryStoreDropsLeadingAssistantTurns(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisHistoryStore(client, 10, nil)
	key := conversationKey("c1")

	_, err := mr.Push(key,
		`{"role":"assistant","content":"Bom dia!"}`,
		`{"role":"user","content":"Quero reservar"}`,
		`{"role":"assistant","content":"Para quantas pessoas?"}`,
	)
	require.NoError(t, err)

	history, err := store.Load(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ChatRoleUser, history[0].Role)
}

func TestRedisHistoryStoreAppendNothing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisHistoryStore(client, 0, nil)

	require.NoError(t, store.Append(context.Background(), "id"))
	assert.False(t, mr.Exists(conversationKey("id")))
}

func TestRedisHistoryStoreCorruptEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisHistoryStore(client, 5, nil)

	_, err := mr.Push(conversationKey("bad"), "{not json")
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestConversationID(t *testing.T) {
	assert.Equal(t, "whatsapp:chan:sender", ConversationID("chan", "sender"))
}
