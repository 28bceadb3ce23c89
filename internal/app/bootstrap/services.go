package bootstrap

import (
	"errors"
	"net/http"
	"time"

	appconfig "github.com/wolfman30/aria-bots/internal/config"
	"github.com/wolfman30/aria-bots/internal/geo"
	"github.com/wolfman30/aria-bots/internal/llm"
	"github.com/wolfman30/aria-bots/internal/messaging"
	"github.com/wolfman30/aria-bots/internal/notify"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

// ErrMissingCompletionKey means OPENROUTER_API_KEY is not set.
var ErrMissingCompletionKey = errors.New("bootstrap: OPENROUTER_API_KEY is required")

// BuildCompleter creates the chat completion client for profile.
func BuildCompleter(cfg *appconfig.Config, profile llm.Profile, logger *logging.Logger) (*llm.Client, error) {
	if cfg == nil || cfg.OpenRouterAPIKey == "" {
		return nil, ErrMissingCompletionKey
	}
	if cfg.PublicBaseURL != "" {
		profile = profile.WithReferer(cfg.PublicBaseURL)
	}
	return llm.NewClient(llm.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.CompletionBaseURL,
		Timeout: cfg.CompletionTimeout,
	}, profile, logger), nil
}

// BuildTranscriber returns the Whisper client, or nil when OPENAI_API_KEY is unset.
func BuildTranscriber(cfg *appconfig.Config, logger *logging.Logger) *llm.Transcriber {
	if cfg == nil || cfg.OpenAIAPIKey == "" {
		return nil
	}
	return llm.NewTranscriber(cfg.OpenAIAPIKey, logger)
}

// BuildTwilioSender returns the REST sender, or nil without Twilio credentials.
func BuildTwilioSender(cfg *appconfig.Config, logger *logging.Logger) *messaging.TwilioSender {
	if cfg == nil || cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioPhoneNumber == "" {
		return nil
	}
	return messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, logger)
}

// BuildLocations returns the Google Maps backed location service, or nil without a key.
func BuildLocations(cfg *appconfig.Config, logger *logging.Logger) (*geo.Service, error) {
	if cfg == nil || cfg.GoogleMapsAPIKey == "" {
		return nil, nil
	}
	provider, err := geo.NewMapsProvider(cfg.GoogleMapsAPIKey, "")
	if err != nil {
		return nil, err
	}
	return geo.NewService(provider, logger), nil
}

// BuildNotifier wires handoff alerts to the admin webhook and, with SendGrid
// configured, the admin mailbox.
func BuildNotifier(cfg *appconfig.Config, logger *logging.Logger) *notify.Service {
	if cfg == nil {
		cfg = &appconfig.Config{}
	}
	var email notify.EmailSender
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		email = sender
	} else if cfg.AdminEmail != "" {
		email = notify.NewStubEmailSender(logger)
	}
	return notify.NewService(notify.Config{
		AdminWebhookURL: cfg.AdminWebhookURL,
		AdminEmail:      cfg.AdminEmail,
		HTTPClient:      &http.Client{Timeout: 10 * time.Second},
	}, email, logger)
}

// BuildAgentForwarder relays handed-off conversations to HUMAN_AGENT_WEBHOOK.
func BuildAgentForwarder(cfg *appconfig.Config) *notify.AgentForwarder {
	if cfg == nil {
		return notify.NewAgentForwarder("", nil)
	}
	return notify.NewAgentForwarder(cfg.HumanAgentWebhook, &http.Client{Timeout: 10 * time.Second})
}
