package conversation

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one conversation turn; history is ordered oldest-first.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model    string
	System   []string
	Messages []ChatMessage
	// MaxTokens is the output token budget.
	MaxTokens int32
	// Temperature < 0 leaves the provider default.
	Temperature float32
	TopP        float32
}

type LLMResponse struct {
	// Text is the first text content block of the response.
	Text       string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
