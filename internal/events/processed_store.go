// Package events tracks provider message ids that were already claimed so a
// redelivered webhook is not answered twice.
package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProviderWhatsApp namespaces WhatsApp message ids.
const ProviderWhatsApp = "whatsapp"

// Deduplicator claims an event id. MarkProcessed returns false when the id
// was claimed before.
type Deduplicator interface {
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

var (
	_ Deduplicator = (*ProcessedStore)(nil)
	_ Deduplicator = (*RedisProcessedStore)(nil)
)

type claimExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const claimEventSQL = `
	INSERT INTO processed_events (provider, event_id)
	VALUES ($1, $2)
	ON CONFLICT (provider, event_id) DO NOTHING
`

// ProcessedStore claims event ids in the processed_events table. Claims do not
// expire; the primary key on (provider, event_id) decides the winner.
type ProcessedStore struct {
	db claimExecer
}

// NewProcessedStore creates a Postgres-backed deduplicator.
func NewProcessedStore(pool *pgxpool.Pool) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &ProcessedStore{db: pool}
}

func newProcessedStoreWithExec(db claimExecer) *ProcessedStore {
	if db == nil {
		panic("events: exec required")
	}
	return &ProcessedStore{db: db}
}

// MarkProcessed inserts the claim, returning false when the row already existed.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	tag, err := s.db.Exec(ctx, claimEventSQL, provider, eventID)
	if err != nil {
		return false, fmt.Errorf("events: claim %s event %s: %w", provider, eventID, err)
	}
	return tag.RowsAffected() == 1, nil
}
