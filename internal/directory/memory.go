package directory

import (
	"context"
	"sync"
)

// MemoryStore keeps profiles in process memory, keyed by channel id.
type MemoryStore struct {
	mu        sync.RWMutex
	byChannel map[string]BusinessProfile
}

// NewMemoryStore creates an empty in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byChannel: make(map[string]BusinessProfile)}
}

var _ Store = (*MemoryStore)(nil)

// Lookup implements Lookup. The returned profile is a copy.
func (s *MemoryStore) Lookup(_ context.Context, channelID string) (*BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.byChannel[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

// Register adds a profile. Profiles are immutable once registered.
func (s *MemoryStore) Register(_ context.Context, profile *BusinessProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byChannel[profile.ChannelID]; exists {
		return ErrAlreadyRegistered
	}
	s.byChannel[profile.ChannelID] = *profile
	return nil
}

// Len reports how many profiles are registered.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byChannel)
}
