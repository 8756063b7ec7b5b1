package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/autoatende/pkg/logging"
)

const maxWebhookBody = 1 << 20

// EnvelopeProcessor handles one decoded delivery. A non-nil error is
// reported to Meta as a server error so the delivery is retried.
type EnvelopeProcessor interface {
	ProcessEnvelope(ctx context.Context, env Envelope) error
}

// WebhookObserver records how each delivery was answered.
type WebhookObserver interface {
	ObserveWebhook(method string, status int, seconds float64)
}

// WebhookHandler serves the verification handshake and inbound deliveries.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	processor   EnvelopeProcessor
	observer    WebhookObserver
	logger      *logging.Logger
}

// NewWebhookHandler creates a handler. When appSecret is empty, signatures are not checked.
func NewWebhookHandler(verifyToken, appSecret string, processor EnvelopeProcessor, observer WebhookObserver, logger *logging.Logger) *WebhookHandler {
	if processor == nil {
		panic("whatsapp: envelope processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		processor:   processor,
		observer:    observer,
		logger:      logger,
	}
}

// HandleVerification answers the GET subscription challenge.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	challenge, err := VerifyHandshake(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"), h.verifyToken)
	if err != nil {
		h.logger.Warn("whatsapp: webhook verification rejected", "mode", q.Get("hub.mode"))
		w.WriteHeader(http.StatusForbidden)
		h.observe(r.Method, http.StatusForbidden, start)
		return
	}

	h.logger.Info("whatsapp: webhook verified")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
	h.observe(r.Method, http.StatusOK, start)
}

// HandleInbound processes a POST delivery and acknowledges it once every
// message has been handled.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := h.handleInbound(r)
	w.WriteHeader(status)
	h.observe(r.Method, status, start)
}

func (h *WebhookHandler) handleInbound(r *http.Request) (status int) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("whatsapp: webhook processing panicked", "panic", fmt.Sprint(rec))
			status = http.StatusInternalServerError
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("whatsapp: read webhook body failed", "error", err)
		return http.StatusBadRequest
	}

	if h.appSecret != "" && !VerifySignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.logger.Warn("whatsapp: webhook signature mismatch")
		return http.StatusUnauthorized
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.logger.Warn("whatsapp: decode webhook body failed", "error", err)
		return http.StatusBadRequest
	}

	if env.Object != ObjectBusinessAccount {
		h.logger.Debug("whatsapp: ignoring webhook object", "object", env.Object)
		return http.StatusOK
	}

	if err := h.processor.ProcessEnvelope(r.Context(), env); err != nil {
		h.logger.Error("whatsapp: webhook processing failed", "error", err)
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func (h *WebhookHandler) observe(method string, status int, start time.Time) {
	if h.observer == nil {
		return
	}
	h.observer.ObserveWebhook(method, status, time.Since(start).Seconds())
}

// VerifySignature checks the X-Hub-Signature-256 header ("sha256=<hex>")
// against an HMAC of the raw body.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	const prefix = "sha256="
	if appSecret == "" || !strings.HasPrefix(signature, prefix) {
		return false
	}
	sigHex := signature[len(prefix):]
	if sigHex == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sigHex)))
}
