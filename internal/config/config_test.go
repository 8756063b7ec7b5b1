package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "LLM_PROVIDER", "LLM_TIMEOUT", "DEMO_PHONE_ID", "CORS_ALLOWED_ORIGINS", "ASSISTANT_LOCALE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("expected anthropic provider by default, got %s", cfg.LLMProvider)
	}
	if cfg.LLMTimeout != 20*time.Second {
		t.Fatalf("expected default llm timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.DemoPhoneID != "demo-phone-id" {
		t.Fatalf("expected default demo phone id, got %s", cfg.DemoPhoneID)
	}
	if cfg.AssistantLocale != "pt-PT" {
		t.Fatalf("expected pt-PT locale, got %s", cfg.AssistantLocale)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard cors default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.BookingIntentEnabled {
		t.Fatalf("expected booking intent extraction disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LLM_PROVIDER", " Bedrock ")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("REPLY_MAX_TOKENS", "300")
	t.Setenv("BOOKING_INTENT_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEDUP_TTL", "2h")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.LLMProvider != "bedrock" {
		t.Fatalf("expected normalized provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.LLMTimeout)
	}
	if cfg.ReplyMaxTokens != 300 {
		t.Fatalf("expected reply tokens override, got %d", cfg.ReplyMaxTokens)
	}
	if !cfg.BookingIntentEnabled {
		t.Fatalf("expected booking intent enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.DedupTTL != 2*time.Hour {
		t.Fatalf("expected dedup ttl override, got %s", cfg.DedupTTL)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("HISTORY_MAX_TURNS", "lots")
	t.Setenv("LLM_TIMEOUT", "soon")
	cfg := Load()
	if cfg.HistoryMaxTurns != 20 {
		t.Fatalf("expected default history turns, got %d", cfg.HistoryMaxTurns)
	}
	if cfg.LLMTimeout != 20*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.LLMTimeout)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{LLMProvider: "anthropic"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "WEBHOOK_VERIFY_TOKEN") {
		t.Fatalf("expected missing verify token error, got %v", err)
	}

	cfg = &Config{WebhookVerifyToken: "secret", LLMProvider: "openai"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "openai") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}

	cfg = &Config{WebhookVerifyToken: "secret", LLMProvider: "anthropic", WhatsAppTokensJSON: "{bad"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected tokens json error")
	}

	cfg = &Config{WebhookVerifyToken: "secret", LLMProvider: "gemini", LLMFallbackProvider: "bedrock"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestWhatsAppTokens(t *testing.T) {
	cfg := &Config{WhatsAppTokensJSON: `{"demo-001":"tok-demo"}`}
	tokens, err := cfg.WhatsAppTokens()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens["demo-001"] != "tok-demo" {
		t.Fatalf("expected token for demo-001, got %v", tokens)
	}
}
