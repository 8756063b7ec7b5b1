// Package relay runs each inbound WhatsApp message through directory lookup,
// reply generation and dispatch.
package relay

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/autoatende/internal/bookings"
	"github.com/wolfman30/autoatende/internal/conversation"
	"github.com/wolfman30/autoatende/internal/directory"
	"github.com/wolfman30/autoatende/internal/events"
	"github.com/wolfman30/autoatende/internal/whatsapp"
	"github.com/wolfman30/autoatende/pkg/logging"
)

var pipelineTracer = otel.Tracer("autoatende.internal.relay")

// Inbound outcomes reported to the InboundObserver.
const (
	OutcomeDroppedNonText = "dropped_non_text"
	OutcomeDroppedNoBiz   = "dropped_unknown_channel"
	OutcomeDroppedDup     = "dropped_duplicate"
	OutcomeReplied        = "replied"
	OutcomeDispatchFailed = "dispatch_failed"
)

// Generator produces the reply for one message. It always returns text.
type Generator interface {
	Generate(ctx context.Context, userMessage string, profile *directory.BusinessProfile, history []conversation.ChatMessage) string
}

// FallbackReporter is implemented by generators that can tell a real reply
// from the fallback apology. Fallback replies are not stored in history.
type FallbackReporter interface {
	Reply(ctx context.Context, userMessage string, profile *directory.BusinessProfile, history []conversation.ChatMessage) conversation.Reply
}

// IntentExtractor reads a booking intent from one message. It never fails.
type IntentExtractor interface {
	ExtractBookingIntent(ctx context.Context, message string) conversation.BookingIntent
}

// Dispatcher sends a reply on behalf of a business.
type Dispatcher interface {
	Send(ctx context.Context, profile *directory.BusinessProfile, to, text string) error
}

// InboundObserver counts processed messages by outcome.
type InboundObserver interface {
	ObserveInbound(outcome string)
}

// Pipeline processes webhook envelopes one message at a time.
type Pipeline struct {
	directory  directory.Lookup
	generator  Generator
	dispatcher Dispatcher
	intents    IntentExtractor
	recorder   bookings.Recorder
	dedup      events.Deduplicator
	history    conversation.HistoryStore
	observer   InboundObserver
	logger     *logging.Logger
}

// Option configures optional pipeline stages.
type Option func(*Pipeline)

// WithBookingCapture runs intent extraction alongside reply generation and
// hands positive intents to recorder.
func WithBookingCapture(extractor IntentExtractor, recorder bookings.Recorder) Option {
	return func(p *Pipeline) {
		p.intents = extractor
		p.recorder = recorder
	}
}

// WithDeduplicator drops messages whose id was already claimed.
func WithDeduplicator(d events.Deduplicator) Option {
	return func(p *Pipeline) { p.dedup = d }
}

// WithHistory loads and stores conversation turns per sender.
func WithHistory(h conversation.HistoryStore) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithInboundObserver reports the outcome of every message (e.g. to Prometheus).
func WithInboundObserver(o InboundObserver) Option {
	return func(p *Pipeline) { p.observer = o }
}

// NewPipeline wires the required stages. Optional stages are set with Options.
func NewPipeline(dir directory.Lookup, generator Generator, dispatcher Dispatcher, logger *logging.Logger, opts ...Option) *Pipeline {
	if dir == nil {
		panic("relay: directory cannot be nil")
	}
	if generator == nil {
		panic("relay: generator cannot be nil")
	}
	if dispatcher == nil {
		panic("relay: dispatcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	p := &Pipeline{
		directory:  dir,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.intents != nil && p.recorder == nil {
		p.recorder = bookings.NewLogRecorder(logger)
	}
	return p
}

// ProcessEnvelope handles every message of env sequentially, in envelope order.
// Dispatch failures are logged and do not stop later messages; an
// infrastructure error aborts the delivery and is returned.
func (p *Pipeline) ProcessEnvelope(ctx context.Context, env whatsapp.Envelope) error {
	for msg := range whatsapp.Normalize(env) {
		if err := p.ProcessMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// ProcessMessage runs one message through the pipeline.
func (p *Pipeline) ProcessMessage(ctx context.Context, msg whatsapp.InboundMessage) error {
	ctx, span := pipelineTracer.Start(ctx, "relay.process_message")
	defer span.End()
	span.SetAttributes(
		attribute.String("autoatende.message_id", msg.ID),
		attribute.String("autoatende.channel_id", msg.ChannelID),
	)

	logger := p.logger.With("message_id", msg.ID, "channel_id", msg.ChannelID)

	if msg.Kind != whatsapp.KindText {
		logger.Debug("relay: dropping non-text message", "type", msg.RawType)
		p.observe(OutcomeDroppedNonText)
		return nil
	}

	profile, err := p.directory.Lookup(ctx, msg.ChannelID)
	if errors.Is(err, directory.ErrNotFound) {
		logger.Warn("relay: no business registered for channel")
		p.observe(OutcomeDroppedNoBiz)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "directory lookup failed")
		return fmt.Errorf("relay: lookup channel %s: %w", msg.ChannelID, err)
	}

	if p.dedup != nil && msg.ID != "" {
		fresh, err := p.dedup.MarkProcessed(ctx, events.ProviderWhatsApp, msg.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dedup claim failed")
			return fmt.Errorf("relay: claim message %s: %w", msg.ID, err)
		}
		if !fresh {
			logger.Info("relay: duplicate message skipped")
			p.observe(OutcomeDroppedDup)
			return nil
		}
	}

	conversationID := conversation.ConversationID(msg.ChannelID, msg.SenderID)
	history := p.loadHistory(ctx, conversationID, logger)

	reply, intent := p.generate(ctx, msg, profile, history)

	if err := p.dispatcher.Send(ctx, profile, msg.SenderID, reply.Text); err != nil {
		span.RecordError(err)
		logger.Error("relay: reply dispatch failed", "business_id", profile.ID, "error", err)
		p.observe(OutcomeDispatchFailed)
	} else {
		logger.Info("relay: reply sent", "business_id", profile.ID)
		p.observe(OutcomeReplied)
		if !reply.Fallback {
			p.appendHistory(ctx, conversationID, msg.Text, reply.Text, logger)
		}
	}

	if intent.IsBooking {
		p.recordBooking(ctx, msg, profile, intent, logger)
	}
	return nil
}

// generate runs reply generation and, when enabled, intent extraction concurrently.
func (p *Pipeline) generate(ctx context.Context, msg whatsapp.InboundMessage, profile *directory.BusinessProfile, history []conversation.ChatMessage) (conversation.Reply, conversation.BookingIntent) {
	var (
		reply  conversation.Reply
		intent conversation.BookingIntent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if r, ok := p.generator.(FallbackReporter); ok {
			reply = r.Reply(gctx, msg.Text, profile, history)
			return nil
		}
		reply = conversation.Reply{Text: p.generator.Generate(gctx, msg.Text, profile, history)}
		return nil
	})
	if p.intents != nil {
		g.Go(func() error {
			intent = p.intents.ExtractBookingIntent(gctx, msg.Text)
			return nil
		})
	}
	_ = g.Wait()
	return reply, intent
}

func (p *Pipeline) loadHistory(ctx context.Context, conversationID string, logger *logging.Logger) []conversation.ChatMessage {
	if p.history == nil {
		return nil
	}
	turns, err := p.history.Load(ctx, conversationID)
	if err != nil {
		logger.Warn("relay: load history failed", "error", err)
		return nil
	}
	return turns
}

func (p *Pipeline) appendHistory(ctx context.Context, conversationID, userText, reply string, logger *logging.Logger) {
	if p.history == nil {
		return
	}
	err := p.history.Append(ctx, conversationID,
		conversation.ChatMessage{Role: conversation.ChatRoleUser, Content: userText},
		conversation.ChatMessage{Role: conversation.ChatRoleAssistant, Content: reply},
	)
	if err != nil {
		logger.Warn("relay: append history failed", "error", err)
	}
}

func (p *Pipeline) recordBooking(ctx context.Context, msg whatsapp.InboundMessage, profile *directory.BusinessProfile, intent conversation.BookingIntent, logger *logging.Logger) {
	if p.recorder == nil {
		return
	}
	req := &bookings.Request{
		BusinessID: profile.ID,
		ChannelID:  msg.ChannelID,
		SenderID:   msg.SenderID,
		MessageID:  msg.ID,
		Date:       intent.Date,
		Time:       intent.Time,
		PartySize:  intent.PartySize,
		Name:       intent.Name,
	}
	if err := p.recorder.Record(ctx, req); err != nil {
		logger.Error("relay: record booking request failed", "business_id", profile.ID, "error", err)
	}
}

func (p *Pipeline) observe(outcome string) {
	if p.observer != nil {
		p.observer.ObserveInbound(outcome)
	}
}
