package whatsapp

import (
	"errors"
	"iter"
	"strconv"
	"strings"
	"time"
)

// ErrHandshakeRejected is returned when a verification request does not match.
var ErrHandshakeRejected = errors.New("whatsapp: webhook handshake rejected")

// VerifyHandshake answers Meta's subscription challenge. It succeeds only for
// mode "subscribe" with a token equal to the configured, non-empty secret.
func VerifyHandshake(mode, token, challenge, expectedToken string) (string, error) {
	if mode != "subscribe" || expectedToken == "" || token != expectedToken {
		return "", ErrHandshakeRejected
	}
	return challenge, nil
}

// Normalize yields every message in the envelope in array order (entries,
// then changes, then messages). Absent levels are empty. The channel id comes
// from each change's own metadata.
func Normalize(env Envelope) iter.Seq[InboundMessage] {
	return func(yield func(InboundMessage) bool) {
		for _, entry := range env.Entry {
			for _, change := range entry.Changes {
				if change.Value == nil {
					continue
				}
				channelID := change.Value.Metadata.PhoneNumberID
				for _, msg := range change.Value.Messages {
					if !yield(toInbound(msg, channelID)) {
						return
					}
				}
			}
		}
	}
}

// ExtractMessages yields only the text messages of the envelope, lazily and in order.
func ExtractMessages(env Envelope) iter.Seq[InboundMessage] {
	return func(yield func(InboundMessage) bool) {
		for msg := range Normalize(env) {
			if msg.Kind != KindText {
				continue
			}
			if !yield(msg) {
				return
			}
		}
	}
}

func toInbound(msg Message, channelID string) InboundMessage {
	in := InboundMessage{
		ID:        msg.ID,
		SenderID:  msg.From,
		ChannelID: channelID,
		Kind:      KindOther,
		RawType:   msg.Type,
		Timestamp: parseUnix(msg.Timestamp),
	}
	// A text message without a body cannot be answered.
	if msg.Type == string(KindText) && msg.Text != nil && strings.TrimSpace(msg.Text.Body) != "" {
		in.Kind = KindText
		in.Text = msg.Text.Body
	}
	return in
}

func parseUnix(raw string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
