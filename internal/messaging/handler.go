package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/internal/observability/metrics"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

var twilioTracer = otel.Tracer("aria.internal.messaging.twilio")

const pipeline = "whatsapp"

// MessageProcessor produces the reply for one inbound message.
type MessageProcessor interface {
	HandleMessage(ctx context.Context, msg conversation.CanonicalMessage) string
}

// Handler serves the Twilio WhatsApp webhook.
type Handler struct {
	webhookSecret string
	processor     MessageProcessor
	metrics       *metrics.BotMetrics
	logger        *logging.Logger
	now           func() time.Time
}

// NewHandler creates a webhook handler. Signatures are only checked when webhookSecret
// is set.
func NewHandler(webhookSecret string, processor MessageProcessor, m *metrics.BotMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if processor == nil {
		panic("messaging: processor cannot be nil")
	}
	return &Handler{
		webhookSecret: webhookSecret,
		processor:     processor,
		metrics:       m,
		logger:        logger.WithComponent("messaging"),
		now:           time.Now,
	}
}

// TwilioWebhook handles POST /webhook. The reply travels back in the TwiML response.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.webhook")
	defer span.End()

	started := h.now()
	defer func() { h.metrics.ObserveWebhookLatency(pipeline, h.now().Sub(started).Seconds()) }()

	if h.webhookSecret != "" {
		if !ValidateTwilioSignature(r, h.webhookSecret, buildAbsoluteURL(r)) {
			h.logger.Warn("invalid twilio signature")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			span.RecordError(errors.New("invalid twilio signature"))
			return
		}
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	if strings.TrimSpace(webhook.From) == "" {
		err := errors.New("missing From")
		h.logger.Error("invalid twilio payload", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	msg := Normalize(webhook, started)
	span.SetAttributes(
		attribute.String("aria.twilio.message_sid", webhook.MessageSid),
		attribute.String("aria.kind", string(msg.Kind)),
	)
	if msg.Kind == conversation.KindText && strings.TrimSpace(msg.Text) == "" {
		h.logger.Debug("ignoring empty message", "message_sid", webhook.MessageSid)
		WriteTwiML(w, "")
		return
	}

	reply := h.processor.HandleMessage(ctx, msg)
	h.logger.Info("twilio webhook handled", "message_sid", webhook.MessageSid, "kind", msg.Kind)
	WriteTwiML(w, reply)
}

// Root answers GET / with a liveness banner.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("WhatsApp AI Bot server is running!"))
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
