package whatsapp

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/autoatende/internal/directory"
	"github.com/wolfman30/autoatende/pkg/logging"
)

// ErrDispatch wraps every outbound send failure.
var ErrDispatch = errors.New("whatsapp: dispatch failed")

var dispatchTracer = otel.Tracer("autoatende.internal.whatsapp")

type textSender interface {
	SendText(ctx context.Context, phoneNumberID, to, text, accessToken string) (*SendResponse, error)
}

// OutboundObserver records the result of each send.
type OutboundObserver interface {
	ObserveOutbound(status string)
}

// Dispatcher sends replies on behalf of a business profile.
type Dispatcher struct {
	client   textSender
	creds    CredentialResolver
	observer OutboundObserver
	logger   *logging.Logger
}

// NewDispatcher creates a dispatcher. observer may be nil.
func NewDispatcher(client textSender, creds CredentialResolver, observer OutboundObserver, logger *logging.Logger) *Dispatcher {
	if client == nil {
		panic("whatsapp: client cannot be nil")
	}
	if creds == nil {
		panic("whatsapp: credential resolver cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{client: client, creds: creds, observer: observer, logger: logger}
}

// Send delivers text to the recipient from the profile's channel. Failures wrap ErrDispatch.
func (d *Dispatcher) Send(ctx context.Context, profile *directory.BusinessProfile, to, text string) error {
	ctx, span := dispatchTracer.Start(ctx, "whatsapp.send_text")
	defer span.End()

	if profile == nil {
		return d.fail(span, fmt.Errorf("%w: nil profile", ErrDispatch))
	}
	span.SetAttributes(attribute.String("autoatende.channel_id", profile.ChannelID))

	token, err := d.creds.Resolve(profile.OutboundCredentialRef)
	if err != nil {
		return d.fail(span, fmt.Errorf("%w: %w", ErrDispatch, err))
	}

	resp, err := d.client.SendText(ctx, profile.ChannelID, to, text, token)
	if err != nil {
		return d.fail(span, fmt.Errorf("%w: %w", ErrDispatch, err))
	}

	d.record("sent")
	d.logger.Debug("whatsapp: reply sent", "channel_id", profile.ChannelID, "message_id", resp.MessageID())
	return nil
}

func (d *Dispatcher) fail(span trace.Span, err error) error {
	d.record("failed")
	span.RecordError(err)
	span.SetStatus(codes.Error, "dispatch failed")
	return err
}

func (d *Dispatcher) record(status string) {
	if d.observer != nil {
		d.observer.ObserveOutbound(status)
	}
}
