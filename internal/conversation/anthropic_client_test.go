package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
)

func newAnthropicTestServer(t *testing.T, status int, body string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropicLLMClientComplete(t *testing.T) {
	var captured map[string]any
	srv := newAnthropicTestServer(t, http.StatusOK, `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-haiku-4-5",
		"content": [
			{"type": "text", "text": "Olá! Para quantas pessoas?"},
			{"type": "text", "text": "ignored second block"}
		],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 42, "output_tokens": 7}
	}`, &captured)

	client, err := NewAnthropicLLMClient("test-key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.Complete(context.Background(), LLMRequest{
		System: []string{"system prompt"},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: "Olá"},
			{Role: ChatRoleAssistant, Content: "Bom dia!"},
			{Role: ChatRoleUser, Content: "Quero reservar"},
		},
		MaxTokens:   500,
		Temperature: -1,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if resp.Text != "Olá! Para quantas pessoas?" {
		t.Fatalf("expected first text block, got %q", resp.Text)
	}
	if resp.Usage.InputTokens != 42 || resp.Usage.OutputTokens != 7 || resp.Usage.TotalTokens != 49 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	if resp.StopReason != "end_turn" {
		t.Fatalf("unexpected stop reason %q", resp.StopReason)
	}

	if captured["model"] != defaultAnthropicModel {
		t.Fatalf("expected default model, got %v", captured["model"])
	}
	if captured["max_tokens"] != float64(500) {
		t.Fatalf("expected max_tokens 500, got %v", captured["max_tokens"])
	}
	if _, ok := captured["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted")
	}
	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	last, _ := msgs[2].(map[string]any)
	if last["role"] != "user" {
		t.Fatalf("expected last message from user, got %v", last["role"])
	}
	system, _ := captured["system"].([]any)
	if len(system) != 1 {
		t.Fatalf("expected one system block, got %v", captured["system"])
	}
}

func TestAnthropicLLMClientErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		if _, err := NewAnthropicLLMClient("  ", "model"); err == nil {
			t.Fatalf("expected error for missing api key")
		}
	})

	t.Run("server error", func(t *testing.T) {
		srv := newAnthropicTestServer(t, http.StatusInternalServerError, `{"type":"error","error":{"type":"api_error","message":"boom"}}`, nil)
		client, _ := NewAnthropicLLMClient("test-key", "claude-haiku-4-5", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
		if _, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "oi"}}}); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("no text block", func(t *testing.T) {
		srv := newAnthropicTestServer(t, http.StatusOK, `{"id":"msg_02","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`, nil)
		client, _ := NewAnthropicLLMClient("test-key", "m", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
		if _, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "oi"}}}); err == nil {
			t.Fatalf("expected error for empty content")
		}
	})

	t.Run("unsupported role", func(t *testing.T) {
		client, _ := NewAnthropicLLMClient("test-key", "m")
		_, err := client.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: "tool", Content: "x"}}})
		if err == nil || !strings.Contains(err.Error(), "unsupported role") {
			t.Fatalf("expected unsupported role error, got %v", err)
		}
	})

	t.Run("no messages", func(t *testing.T) {
		client, _ := NewAnthropicLLMClient("test-key", "m")
		if _, err := client.Complete(context.Background(), LLMRequest{System: []string{"only system"}}); err == nil {
			t.Fatalf("expected error without messages")
		}
	})
}
