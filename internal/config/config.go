package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string

	// WhatsApp Cloud API
	WebhookVerifyToken   string
	WhatsAppAppSecret    string
	WhatsAppToken        string
	WhatsAppTokensJSON   string
	WhatsAppGraphAPIBase string

	// Language-model backends
	LLMProvider         string
	LLMFallbackProvider string
	LLMTimeout          time.Duration
	AnthropicAPIKey     string
	AnthropicModel      string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModel         string
	ReplyMaxTokens      int
	IntentMaxTokens     int
	AssistantLocale     string

	BookingIntentEnabled bool

	// Storage
	DatabaseURL     string
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	HistoryMaxTurns int
	DedupTTL        time.Duration

	// Business directory seeding
	DemoPhoneID      string
	BusinessSeedFile string

	// AWS (Bedrock)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "3000"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		WebhookVerifyToken:   getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:    getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppToken:        getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppTokensJSON:   getEnv("WHATSAPP_TOKENS_JSON", ""),
		WhatsAppGraphAPIBase: getEnv("WHATSAPP_GRAPH_API_BASE", "https://graph.facebook.com/v18.0"),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "anthropic"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:      getEnv("ANTHROPIC_MODEL", "claude-haiku-4-5"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ReplyMaxTokens:      getEnvAsInt("REPLY_MAX_TOKENS", 500),
		IntentMaxTokens:     getEnvAsInt("INTENT_MAX_TOKENS", 200),
		AssistantLocale:     getEnv("ASSISTANT_LOCALE", "pt-PT"),

		BookingIntentEnabled: getEnvAsBool("BOOKING_INTENT_ENABLED", false),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		HistoryMaxTurns: getEnvAsInt("HISTORY_MAX_TURNS", 20),
		DedupTTL:        getEnvAsDuration("DEDUP_TTL", 24*time.Hour),

		DemoPhoneID:      getEnv("DEMO_PHONE_ID", "demo-phone-id"),
		BusinessSeedFile: getEnv("BUSINESS_SEED_FILE", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// Validate reports configuration that would leave the relay unable to serve.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.WebhookVerifyToken) == "" {
		errs = append(errs, errors.New("config: WEBHOOK_VERIFY_TOKEN is required"))
	}
	if _, err := c.WhatsAppTokens(); err != nil {
		errs = append(errs, err)
	}
	for _, provider := range []string{c.LLMProvider, c.LLMFallbackProvider} {
		switch provider {
		case "", "anthropic", "bedrock", "gemini":
		default:
			errs = append(errs, fmt.Errorf("config: unsupported llm provider %q", provider))
		}
	}
	return errors.Join(errs...)
}

// WhatsAppTokens decodes WHATSAPP_TOKENS_JSON, a map of credential ref to access token.
func (c *Config) WhatsAppTokens() (map[string]string, error) {
	raw := strings.TrimSpace(c.WhatsAppTokensJSON)
	if raw == "" {
		return map[string]string{}, nil
	}
	var tokens map[string]string
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, fmt.Errorf("config: invalid WHATSAPP_TOKENS_JSON: %w", err)
	}
	return tokens, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
