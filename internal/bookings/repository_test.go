package bookings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func strPtr(s string) *string { return &s }

func TestRepositoryInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newRepositoryWithExec(mock)
	size := 4
	req := &Request{
		BusinessID: "demo-001",
		ChannelID:  "demo-phone-id",
		SenderID:   "5511900000000",
		MessageID:  "wamid.1",
		Date:       strPtr("2025-06-01"),
		PartySize:  &size,
	}

	mock.ExpectExec("INSERT INTO booking_requests").
		WithArgs(pgxmock.AnyArg(), "demo-001", "demo-phone-id", "5511900000000", "wamid.1",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), req); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if req.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}
	if req.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositoryInsertError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	boom := errors.New("relation does not exist")
	mock.ExpectExec("INSERT INTO booking_requests").WillReturnError(boom)

	err = newRepositoryWithExec(mock).Insert(context.Background(), &Request{BusinessID: "b"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestPGConversions(t *testing.T) {
	if v := toPGText(nil); v.Valid {
		t.Fatal("nil text should be invalid")
	}
	if v := toPGText(strPtr("19:00")); !v.Valid || v.String != "19:00" {
		t.Fatalf("unexpected text %+v", v)
	}
	if v := toPGInt(nil); v.Valid {
		t.Fatal("nil int should be invalid")
	}
	n := 6
	if v := toPGInt(&n); !v.Valid || v.Int32 != 6 {
		t.Fatalf("unexpected int %+v", v)
	}
	if v := toPGUUID(uuid.Nil); v.Valid {
		t.Fatal("nil uuid should be invalid")
	}
}
