package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wolfman30/aria-bots/pkg/logging"
)

// HandoffEvent is the admin webhook document sent when a user asks for a human.
type HandoffEvent struct {
	Event     string `json:"event"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// Config selects the handoff channels. Empty fields disable that channel.
type Config struct {
	AdminWebhookURL string
	AdminEmail      string
	HTTPClient      *http.Client
}

// Service alerts operators about handoff requests by webhook and email.
type Service struct {
	webhook    *webhookPoster
	email      EmailSender
	adminEmail string
	logger     *logging.Logger
}

// NewService creates a notification service. email may be nil.
func NewService(cfg Config, email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{email: email, adminEmail: cfg.AdminEmail, logger: logger}
	if cfg.AdminWebhookURL != "" {
		s.webhook = newWebhookPoster(cfg.AdminWebhookURL, cfg.HTTPClient)
	}
	return s
}

// NotifyHandoff tells operators that senderID wants a human. Every configured channel
// is attempted; their failures are joined.
func (s *Service) NotifyHandoff(ctx context.Context, senderID string, at time.Time) error {
	var errs []error
	if s.webhook != nil {
		event := HandoffEvent{
			Event:     "handoff_requested",
			UserID:    senderID,
			Timestamp: at.UTC().Format(time.RFC3339Nano),
		}
		if err := s.webhook.post(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("admin webhook: %w", err))
		}
	}
	if s.email != nil && s.adminEmail != "" {
		msg := EmailMessage{
			To:      s.adminEmail,
			Subject: "Human handoff requested",
			Body: fmt.Sprintf("User %s asked to speak with a person at %s.\n\nTheir next messages will be forwarded to the agent inbox.",
				senderID, at.UTC().Format(time.RFC1123)),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("admin email: %w", err))
		}
	}
	if len(errs) == 0 {
		s.logger.Info("handoff notification sent", "sender", senderID)
	}
	return errors.Join(errs...)
}
