// Package bookings stores booking requests detected in customer messages.
package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Request is a booking intent captured from one inbound message.
type Request struct {
	ID         uuid.UUID
	BusinessID string
	ChannelID  string
	SenderID   string
	MessageID  string
	Date       *string
	Time       *string
	PartySize  *int
	Name       *string
	CreatedAt  time.Time
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence helpers for booking requests.
type Repository struct {
	db execer
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithExec(db execer) *Repository {
	if db == nil {
		panic("bookings: exec required")
	}
	return &Repository{db: db}
}

// Insert stores req, assigning an id and creation time when unset.
func (r *Repository) Insert(ctx context.Context, req *Request) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO booking_requests (id, business_id, channel_id, sender_id, message_id, requested_date, requested_time, party_size, customer_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		toPGUUID(req.ID),
		req.BusinessID,
		req.ChannelID,
		req.SenderID,
		req.MessageID,
		toPGText(req.Date),
		toPGText(req.Time),
		toPGInt(req.PartySize),
		toPGText(req.Name),
		toPGTime(req.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("bookings: insert request: %w", err)
	}
	return nil
}

func toPGUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{
		Bytes: [16]byte(id),
		Valid: true,
	}
}

func toPGTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t,
		Valid: true,
	}
}

func toPGText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toPGInt(n *int) pgtype.Int4 {
	if n == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*n), Valid: true}
}
