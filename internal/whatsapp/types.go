// Package whatsapp adapts the WhatsApp Cloud API: webhook verification,
// inbound envelope normalization and outbound text sends.
package whatsapp

import (
	"fmt"
	"time"
)

// ObjectBusinessAccount is the envelope object carrying WhatsApp messages.
const ObjectBusinessAccount = "whatsapp_business_account"

// Envelope is the top-level body of one webhook delivery.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the changes for one business account.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is a single field update within an entry.
type Change struct {
	Field string       `json:"field"`
	Value *ChangeValue `json:"value"`
}

// ChangeValue holds the messages addressed to one phone number.
type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

// Metadata identifies the receiving business phone number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is the sender profile attached to a change.
type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Message is one raw inbound message.
type Message struct {
	From      string    `json:"from"`
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *TextBody `json:"text,omitempty"`
}

// TextBody is the payload of a text message.
type TextBody struct {
	Body string `json:"body"`
}

// MessageKind classifies an inbound message. Only KindText is answered.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindOther MessageKind = "other"
)

// InboundMessage is one normalized unit of work.
type InboundMessage struct {
	ID        string
	SenderID  string
	ChannelID string
	Kind      MessageKind
	// RawType is the provider's message type (e.g. "image").
	RawType   string
	Text      string
	Timestamp time.Time
}

// SendRequest is the Graph API payload for a text message.
type SendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             TextBody `json:"text"`
}

// SendResponse is the Graph API reply to a send.
type SendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error,omitempty"`
}

// APIError is an error object returned by the Graph API.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: API error %d: %s", e.Code, e.Message)
}
