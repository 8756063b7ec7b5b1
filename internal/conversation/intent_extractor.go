package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/autoatende/pkg/logging"
)

const defaultIntentMaxTokens = 200

var errEmptyCompletion = errors.New("conversation: empty completion")

const intentSystemPrompt = "Extract booking information from the message. Return JSON only."

// BookingIntent is the structured reading of a reservation request.
// Optional fields are nil when absent; all are nil when IsBooking is false.
type BookingIntent struct {
	IsBooking bool    `json:"isBooking"`
	Date      *string `json:"date,omitempty"`
	Time      *string `json:"time,omitempty"`
	PartySize *int    `json:"partySize,omitempty"`
	Name      *string `json:"name,omitempty"`
}

// IntentExtractor asks the backend for a booking intent as strict JSON.
type IntentExtractor struct {
	llm    LLMClient
	cfg    generatorConfig
	logger *logging.Logger
}

// NewIntentExtractor creates an extractor backed by llm.
func NewIntentExtractor(llm LLMClient, logger *logging.Logger, opts ...GeneratorOption) *IntentExtractor {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntentExtractor{
		llm:    llm,
		cfg:    newGeneratorConfig(defaultIntentMaxTokens, opts),
		logger: logger,
	}
}

// ExtractBookingIntent never fails: any backend or parse error yields {IsBooking: false}.
func (e *IntentExtractor) ExtractBookingIntent(ctx context.Context, message string) BookingIntent {
	ctx, span := generatorTracer.Start(ctx, "conversation.extract_booking_intent")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.llm.Complete(callCtx, LLMRequest{
		System:      []string{intentSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: intentUserPrompt(message)}},
		MaxTokens:   e.cfg.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		e.cfg.observe(purposeIntent, "error", start)
		span.RecordError(err)
		e.logger.Warn("conversation: booking intent extraction failed", "error", err)
		return BookingIntent{}
	}

	intent, err := ParseBookingIntent(resp.Text)
	if err != nil {
		e.cfg.observe(purposeIntent, "unparseable", start)
		span.RecordError(err)
		e.logger.Warn("conversation: booking intent unparseable", "error", err)
		return BookingIntent{}
	}
	e.cfg.observe(purposeIntent, "ok", start)
	span.SetAttributes(attribute.Bool("autoatende.is_booking", intent.IsBooking))
	return intent
}

func intentUserPrompt(message string) string {
	return fmt.Sprintf("Extract from: %s\nReturn JSON: {\"isBooking\": bool, \"date\": \"string|null\", \"time\": \"string|null\", \"partySize\": number|null, \"name\": \"string|null\"}",
		strconv.Quote(message))
}

type rawIntent struct {
	IsBooking *bool           `json:"isBooking"`
	Date      *string         `json:"date"`
	Time      *string         `json:"time"`
	PartySize json.RawMessage `json:"partySize"`
	Name      *string         `json:"name"`
}

// ParseBookingIntent decodes a model reply into a BookingIntent. A surrounding
// markdown code fence is tolerated; anything else that is not a JSON object is an error.
func ParseBookingIntent(text string) (BookingIntent, error) {
	body := stripCodeFence(text)
	var raw rawIntent
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return BookingIntent{}, fmt.Errorf("conversation: decode booking intent: %w", err)
	}
	if raw.IsBooking == nil {
		return BookingIntent{}, errors.New("conversation: booking intent missing isBooking")
	}
	if !*raw.IsBooking {
		return BookingIntent{}, nil
	}
	return BookingIntent{
		IsBooking: true,
		Date:      nonEmpty(raw.Date),
		Time:      nonEmpty(raw.Time),
		PartySize: parsePartySize(raw.PartySize),
		Name:      nonEmpty(raw.Name),
	}, nil
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return &trimmed
}

func parsePartySize(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		n = parsed
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return nil
	}
	size := int(n)
	return &size
}
