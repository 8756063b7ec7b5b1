package conversation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/autoatende/internal/directory"
	"github.com/wolfman30/autoatende/pkg/logging"
)

var generatorTracer = otel.Tracer("autoatende.internal.conversation.generator")

const (
	defaultReplyMaxTokens = 500
	defaultLLMTimeout     = 20 * time.Second

	purposeReply  = "reply"
	purposeIntent = "booking_intent"
)

// CallObserver records the outcome of language-model calls.
type CallObserver interface {
	ObserveLLMCall(purpose, outcome string, seconds float64)
}

// GeneratorOption configures a ReplyGenerator or IntentExtractor.
type GeneratorOption func(*generatorConfig)

type generatorConfig struct {
	locale    Locale
	maxTokens int32
	timeout   time.Duration
	observer  CallObserver
}

// WithLocale sets the default locale; a profile's own locale takes precedence.
func WithLocale(locale Locale) GeneratorOption {
	return func(c *generatorConfig) { c.locale = locale }
}

// WithMaxTokens sets the output token budget.
func WithMaxTokens(n int) GeneratorOption {
	return func(c *generatorConfig) {
		if n > 0 {
			c.maxTokens = int32(n)
		}
	}
}

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(c *generatorConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCallObserver reports call outcomes (e.g. to Prometheus).
func WithCallObserver(o CallObserver) GeneratorOption {
	return func(c *generatorConfig) { c.observer = o }
}

func newGeneratorConfig(maxTokens int32, opts []GeneratorOption) generatorConfig {
	cfg := generatorConfig{
		locale:    LocalePortuguese,
		maxTokens: maxTokens,
		timeout:   defaultLLMTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c generatorConfig) observe(purpose, outcome string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveLLMCall(purpose, outcome, time.Since(start).Seconds())
}

// ReplyGenerator produces the assistant's reply for one inbound message.
type ReplyGenerator struct {
	llm    LLMClient
	cfg    generatorConfig
	logger *logging.Logger
}

// NewReplyGenerator creates a generator backed by llm.
func NewReplyGenerator(llm LLMClient, logger *logging.Logger, opts ...GeneratorOption) *ReplyGenerator {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReplyGenerator{
		llm:    llm,
		cfg:    newGeneratorConfig(defaultReplyMaxTokens, opts),
		logger: logger,
	}
}

// Reply is a generated reply. Fallback is set when Text is the apology that
// replaced a failed or blocked completion.
type Reply struct {
	Text     string
	Fallback bool
}

// Generate returns the reply text for userMessage. It never fails: backend
// errors are logged and replaced by the locale's fallback apology.
func (g *ReplyGenerator) Generate(ctx context.Context, userMessage string, profile *directory.BusinessProfile, history []ChatMessage) string {
	return g.Reply(ctx, userMessage, profile, history).Text
}

// Reply is Generate that also reports whether the fallback apology was used.
func (g *ReplyGenerator) Reply(ctx context.Context, userMessage string, profile *directory.BusinessProfile, history []ChatMessage) Reply {
	locale := g.localeFor(profile)
	businessID := ""
	if profile != nil {
		businessID = profile.ID
	}

	ctx, span := generatorTracer.Start(ctx, "conversation.generate_reply")
	defer span.End()
	span.SetAttributes(
		attribute.String("autoatende.business_id", businessID),
		attribute.Int("autoatende.history_turns", len(history)),
	)

	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: userMessage})

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.llm.Complete(callCtx, LLMRequest{
		System:      []string{BuildSystemPrompt(profile, locale)},
		Messages:    messages,
		MaxTokens:   g.cfg.maxTokens,
		Temperature: -1,
	})
	if err == nil && resp.Text == "" {
		err = errEmptyCompletion
	}
	if err != nil {
		g.cfg.observe(purposeReply, "fallback", start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reply generation failed")
		g.logger.Error("conversation: reply generation failed", "business_id", businessID, "error", err)
		return Reply{Text: FallbackReply(locale), Fallback: true}
	}

	guarded := GuardReply(resp.Text)
	if guarded.Blocked {
		g.cfg.observe(purposeReply, "blocked", start)
		span.SetStatus(codes.Error, "reply blocked")
		g.logger.Warn("conversation: reply blocked by guard", "business_id", businessID, "reasons", guarded.Reasons)
		return Reply{Text: FallbackReply(locale), Fallback: true}
	}
	if guarded.Text == "" {
		g.cfg.observe(purposeReply, "fallback", start)
		g.logger.Error("conversation: reply generation failed", "business_id", businessID, "error", errEmptyCompletion)
		return Reply{Text: FallbackReply(locale), Fallback: true}
	}

	g.cfg.observe(purposeReply, "ok", start)
	g.logger.Info("conversation: reply generated",
		"business_id", businessID,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return Reply{Text: guarded.Text}
}

func (g *ReplyGenerator) localeFor(profile *directory.BusinessProfile) Locale {
	if profile != nil && profile.Locale != "" {
		return ParseLocale(profile.Locale)
	}
	return g.cfg.locale
}
