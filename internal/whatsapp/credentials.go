package whatsapp

import (
	"errors"
	"strings"
)

// ErrCredentialNotFound is returned when no access token is configured for a profile.
var ErrCredentialNotFound = errors.New("whatsapp: outbound credential not found")

// CredentialResolver maps a profile's credential reference to an access token.
type CredentialResolver interface {
	Resolve(ref string) (string, error)
}

// StaticCredentials resolves tokens from configuration. Unknown or empty
// references use the default token.
type StaticCredentials struct {
	defaultToken string
	tokens       map[string]string
}

// NewStaticCredentials creates a resolver over a default token and a ref → token map.
func NewStaticCredentials(defaultToken string, tokens map[string]string) *StaticCredentials {
	copied := make(map[string]string, len(tokens))
	for ref, token := range tokens {
		if strings.TrimSpace(token) != "" {
			copied[ref] = token
		}
	}
	return &StaticCredentials{defaultToken: strings.TrimSpace(defaultToken), tokens: copied}
}

// Resolve implements CredentialResolver.
func (s *StaticCredentials) Resolve(ref string) (string, error) {
	if token, ok := s.tokens[ref]; ok && ref != "" {
		return token, nil
	}
	if s.defaultToken != "" {
		return s.defaultToken, nil
	}
	return "", ErrCredentialNotFound
}
