package bootstrap

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/autoatende/internal/bookings"
	appconfig "github.com/wolfman30/autoatende/internal/config"
	"github.com/wolfman30/autoatende/internal/conversation"
	"github.com/wolfman30/autoatende/internal/directory"
	"github.com/wolfman30/autoatende/internal/events"
	"github.com/wolfman30/autoatende/internal/observability/metrics"
	"github.com/wolfman30/autoatende/internal/relay"
	"github.com/wolfman30/autoatende/internal/whatsapp"
	"github.com/wolfman30/autoatende/pkg/logging"
)

// RelayDeps carries the collaborators built earlier in startup. Redis, Pool
// and Metrics may be nil.
type RelayDeps struct {
	LLM       conversation.LLMClient
	Directory directory.Lookup
	Redis     *redis.Client
	Pool      *pgxpool.Pool
	Metrics   *metrics.RelayMetrics
}

// BuildRelay wires the message pipeline from config.
func BuildRelay(cfg *appconfig.Config, deps RelayDeps, logger *logging.Logger) (*relay.Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.LLM == nil {
		return nil, fmt.Errorf("bootstrap: llm client is required")
	}
	if deps.Directory == nil {
		return nil, fmt.Errorf("bootstrap: directory is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	tokens, err := cfg.WhatsAppTokens()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if cfg.WhatsAppToken == "" && len(tokens) == 0 {
		logger.Warn("no WhatsApp access token configured; replies will fail to dispatch")
	}

	genOpts := []conversation.GeneratorOption{
		conversation.WithLocale(conversation.ParseLocale(cfg.AssistantLocale)),
		conversation.WithTimeout(cfg.LLMTimeout),
		conversation.WithMaxTokens(cfg.ReplyMaxTokens),
	}
	if deps.Metrics != nil {
		genOpts = append(genOpts, conversation.WithCallObserver(deps.Metrics))
	}
	generator := conversation.NewReplyGenerator(deps.LLM, logger, genOpts...)

	var outboundObserver whatsapp.OutboundObserver
	var inboundObserver relay.InboundObserver
	if deps.Metrics != nil {
		outboundObserver = deps.Metrics
		inboundObserver = deps.Metrics
	}
	dispatcher := whatsapp.NewDispatcher(
		whatsapp.NewClient(cfg.WhatsAppGraphAPIBase),
		whatsapp.NewStaticCredentials(cfg.WhatsAppToken, tokens),
		outboundObserver,
		logger,
	)

	opts := []relay.Option{}
	if inboundObserver != nil {
		opts = append(opts, relay.WithInboundObserver(inboundObserver))
	}

	switch {
	case deps.Redis != nil:
		opts = append(opts, relay.WithDeduplicator(events.NewRedisProcessedStore(deps.Redis, cfg.DedupTTL)))
		logger.Info("message dedup enabled", "backend", "redis", "ttl", cfg.DedupTTL.String())
	case deps.Pool != nil:
		opts = append(opts, relay.WithDeduplicator(events.NewProcessedStore(deps.Pool)))
		logger.Info("message dedup enabled", "backend", "postgres")
	default:
		logger.Warn("no dedup store configured; redelivered webhooks will be answered again")
	}

	if deps.Redis != nil {
		history := conversation.NewRedisHistoryStore(deps.Redis, cfg.HistoryMaxTurns, nil)
		opts = append(opts, relay.WithHistory(history))
		logger.Info("conversation history enabled", "max_turns", cfg.HistoryMaxTurns)
	}

	if cfg.BookingIntentEnabled {
		intentOpts := []conversation.GeneratorOption{
			conversation.WithTimeout(cfg.LLMTimeout),
			conversation.WithMaxTokens(cfg.IntentMaxTokens),
		}
		if deps.Metrics != nil {
			intentOpts = append(intentOpts, conversation.WithCallObserver(deps.Metrics))
		}
		extractor := conversation.NewIntentExtractor(deps.LLM, logger, intentOpts...)

		var recorder bookings.Recorder
		if deps.Pool != nil {
			recorder = bookings.NewService(bookings.NewRepository(deps.Pool), logger)
			logger.Info("booking intent capture enabled", "sink", "postgres")
		} else {
			recorder = bookings.NewLogRecorder(logger)
			logger.Info("booking intent capture enabled", "sink", "log")
		}
		opts = append(opts, relay.WithBookingCapture(extractor, recorder))
	}

	return relay.NewPipeline(deps.Directory, generator, dispatcher, logger, opts...), nil
}
