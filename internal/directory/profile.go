// Package directory resolves the business served by an inbound WhatsApp channel.
package directory

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no business is registered for a channel id.
	ErrNotFound = errors.New("directory: business not found for channel")
	// ErrAlreadyRegistered is returned when a channel id is already taken.
	ErrAlreadyRegistered = errors.New("directory: channel already registered")
	// ErrInvalidProfile is returned when a profile lacks its identifiers.
	ErrInvalidProfile = errors.New("directory: profile requires id and channel id")
)

// BusinessProfile is the identity and prompt context for one served business.
type BusinessProfile struct {
	ID          string `json:"id"`
	ChannelID   string `json:"channel_id"` // WhatsApp phone_number_id
	DisplayName string `json:"display_name"`
	Address     string `json:"address"`
	Hours       string `json:"hours"`
	MenuSummary string `json:"menu_summary"`
	// Phone is the human contact line the assistant defers to.
	Phone string `json:"phone,omitempty"`
	// OutboundCredentialRef names the access token used to send on this channel.
	OutboundCredentialRef string `json:"outbound_credential_ref,omitempty"`
	// Locale overrides the assistant locale for this business (e.g. "pt-PT", "en").
	Locale string `json:"locale,omitempty"`
}

// Validate checks the fields a directory needs to index the profile.
func (p *BusinessProfile) Validate() error {
	if p == nil || strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.ChannelID) == "" {
		return ErrInvalidProfile
	}
	return nil
}

// Lookup resolves a business by channel id.
type Lookup interface {
	Lookup(ctx context.Context, channelID string) (*BusinessProfile, error)
}

// Store is a directory that also accepts registrations.
type Store interface {
	Lookup
	Register(ctx context.Context, profile *BusinessProfile) error
}
