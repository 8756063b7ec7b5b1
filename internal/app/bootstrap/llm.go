package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/autoatende/internal/config"
	"github.com/wolfman30/autoatende/internal/conversation"
	"github.com/wolfman30/autoatende/pkg/logging"
)

// AWSConfigLoader resolves AWS SDK configuration on demand; only Bedrock needs it.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// BuildLLMClient returns the configured primary backend, wrapped with the
// fallback backend when LLM_FALLBACK_PROVIDER names a different provider.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (conversation.LLMClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	primaryName := cfg.LLMProvider
	if primaryName == "" {
		primaryName = "anthropic"
	}
	primary, err := buildProvider(ctx, primaryName, cfg, loadAWS)
	if err != nil {
		return nil, err
	}
	logger.Info("llm provider configured", "provider", primaryName)

	fallbackName := strings.TrimSpace(cfg.LLMFallbackProvider)
	if fallbackName == "" || fallbackName == primaryName {
		return primary, nil
	}
	fallback, err := buildProvider(ctx, fallbackName, cfg, loadAWS)
	if err != nil {
		logger.Warn("llm fallback provider unavailable; continuing without it", "provider", fallbackName, "error", err)
		return primary, nil
	}
	logger.Info("llm fallback provider configured", "provider", fallbackName)
	return conversation.NewFallbackLLMClient(primary, fallback, logger), nil
}

func buildProvider(ctx context.Context, name string, cfg *appconfig.Config, loadAWS AWSConfigLoader) (conversation.LLMClient, error) {
	switch name {
	case "anthropic":
		client, err := conversation.NewAnthropicLLMClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: anthropic client: %w", err)
		}
		return client, nil
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for the bedrock provider")
		}
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: aws config loader is required for the bedrock provider")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
	case "gemini":
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("bootstrap: unsupported llm provider %q", name)
	}
}
