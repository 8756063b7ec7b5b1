package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads and writes profiles in the businesses table.
type PostgresStore struct {
	db rowQuerier
}

// NewPostgresStore creates a directory backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithExec(db rowQuerier) *PostgresStore {
	if db == nil {
		panic("directory: exec required")
	}
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

// Lookup implements Lookup.
func (s *PostgresStore) Lookup(ctx context.Context, channelID string) (*BusinessProfile, error) {
	query := `
		SELECT id, channel_id, display_name, address, hours, menu_summary, phone, outbound_credential_ref, locale
		FROM businesses
		WHERE channel_id = $1
	`
	var p BusinessProfile
	err := s.db.QueryRow(ctx, query, channelID).Scan(
		&p.ID, &p.ChannelID, &p.DisplayName, &p.Address, &p.Hours,
		&p.MenuSummary, &p.Phone, &p.OutboundCredentialRef, &p.Locale,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("directory: lookup %s: %w", channelID, err)
	}
	return &p, nil
}

// Register inserts a profile, returning ErrAlreadyRegistered if the channel id
// exists. Any other constraint violation, such as a reused id, is an error.
func (s *PostgresStore) Register(ctx context.Context, p *BusinessProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO businesses (id, channel_id, display_name, address, hours, menu_summary, phone, outbound_credential_ref, locale)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (channel_id) DO NOTHING
	`
	ct, err := s.db.Exec(ctx, query,
		p.ID, p.ChannelID, p.DisplayName, p.Address, p.Hours,
		p.MenuSummary, p.Phone, p.OutboundCredentialRef, p.Locale,
	)
	if err != nil {
		return fmt.Errorf("directory: register %s: %w", p.ChannelID, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAlreadyRegistered
	}
	return nil
}
