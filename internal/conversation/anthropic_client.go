package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-haiku-4-5"
	defaultAnthropicMaxTokens = 500
)

type anthropicMessagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicLLMClient implements LLMClient using the Anthropic Messages API.
type AnthropicLLMClient struct {
	api   anthropicMessagesAPI
	model string
}

// NewAnthropicLLMClient creates a client for the given model. Extra request
// options (base URL, retries) are passed through to the SDK.
func NewAnthropicLLMClient(apiKey, model string, opts ...option.RequestOption) (*AnthropicLLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: anthropic api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultAnthropicModel
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicLLMClient{api: &client.Messages, model: model}, nil
}

// Complete sends a completion request to Anthropic.
func (c *AnthropicLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	var system []anthropic.TextBlockParam
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		system = append(system, anthropic.TextBlockParam{Text: block})
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: content})
		case ChatRoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		case ChatRoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(content)))
		default:
			return LLMResponse{}, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
	}
	if len(messages) == 0 {
		return LLMResponse{}, errors.New("conversation: anthropic requires at least one message")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}
	if req.Temperature >= 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}
	if req.TopP > 0 {
		params.TopP = anthropic.Float(float64(req.TopP))
	}

	out, err := c.api.New(ctx, params)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: anthropic completion failed: %w", err)
	}
	if out == nil {
		return LLMResponse{}, errors.New("conversation: anthropic response is nil")
	}

	text, ok := "", false
	for _, block := range out.Content {
		if block.Type == "text" {
			text, ok = block.Text, true
			break
		}
	}
	if !ok || strings.TrimSpace(text) == "" {
		return LLMResponse{}, errors.New("conversation: anthropic response contained no text content blocks")
	}

	return LLMResponse{
		Text:       strings.TrimSpace(text),
		StopReason: string(out.StopReason),
		Usage: TokenUsage{
			InputTokens:  int32(out.Usage.InputTokens),
			OutputTokens: int32(out.Usage.OutputTokens),
			TotalTokens:  int32(out.Usage.InputTokens + out.Usage.OutputTokens),
		},
	}, nil
}
