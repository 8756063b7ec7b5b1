package bookings

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/autoatende/pkg/logging"
)

var bookingsTracer = otel.Tracer("autoatende.internal.bookings")

// Recorder accepts captured booking requests.
type Recorder interface {
	Record(ctx context.Context, req *Request) error
}

type inserter interface {
	Insert(ctx context.Context, req *Request) error
}

// Service records booking requests in the repository.
type Service struct {
	repo   inserter
	logger *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo inserter, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Record persists req.
func (s *Service) Record(ctx context.Context, req *Request) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("autoatende.business_id", req.BusinessID),
		attribute.String("autoatende.channel_id", req.ChannelID),
	)

	if err := s.repo.Insert(ctx, req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}

	s.logger.Info("booking request recorded",
		"booking_request_id", req.ID.String(),
		"business_id", req.BusinessID,
		"channel_id", req.ChannelID,
	)
	return nil
}

// LogRecorder only logs booking requests. It is used when no database is configured.
type LogRecorder struct {
	logger *logging.Logger
}

func NewLogRecorder(logger *logging.Logger) *LogRecorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(_ context.Context, req *Request) error {
	args := []any{
		"business_id", req.BusinessID,
		"channel_id", req.ChannelID,
		"message_id", req.MessageID,
	}
	if req.Date != nil {
		args = append(args, "date", *req.Date)
	}
	if req.Time != nil {
		args = append(args, "time", *req.Time)
	}
	if req.PartySize != nil {
		args = append(args, "party_size", *req.PartySize)
	}
	r.logger.Info("booking request detected", args...)
	return nil
}
