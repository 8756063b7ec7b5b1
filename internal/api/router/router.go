package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/autoatende/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/autoatende/internal/http/middleware"
	"github.com/wolfman30/autoatende/internal/whatsapp"
	"github.com/wolfman30/autoatende/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	WhatsAppWebhook    *whatsapp.WebhookHandler
	Health             *handlers.HealthHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.WhatsAppWebhook == nil {
		panic("router: whatsapp webhook handler required")
	}
	health := cfg.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	r.Route("/webhook", func(wh chi.Router) {
		wh.Get("/", cfg.WhatsAppWebhook.HandleVerification)
		wh.Post("/", cfg.WhatsAppWebhook.HandleInbound)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
