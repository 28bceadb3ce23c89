package notify

import (
	"context"
	"net/http"
	"time"
)

// AgentUser identifies the customer in a forwarded message.
type AgentUser struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

// AgentMessage is the forwarded message body.
type AgentMessage struct {
	Content   string `json:"content"`
	Type      string `json:"type"`
	Media     string `json:"media,omitempty"`
	Timestamp string `json:"timestamp"`
}

// AgentForward is the document POSTed to the human agent inbox.
type AgentForward struct {
	User    AgentUser    `json:"user"`
	Message AgentMessage `json:"message"`
}

// AgentForwarder relays messages from handed-off users to the human agent webhook.
// A forwarder without a URL accepts and drops messages.
type AgentForwarder struct {
	poster *webhookPoster
}

// NewAgentForwarder targets url.
func NewAgentForwarder(url string, client *http.Client) *AgentForwarder {
	if url == "" {
		return &AgentForwarder{}
	}
	return &AgentForwarder{poster: newWebhookPoster(url, client)}
}

// Enabled reports whether a webhook is configured.
func (f *AgentForwarder) Enabled() bool {
	return f != nil && f.poster != nil
}

// Forward posts msg to the agent inbox.
func (f *AgentForwarder) Forward(ctx context.Context, msg AgentForward) error {
	if !f.Enabled() {
		return nil
	}
	if msg.Message.Timestamp == "" {
		msg.Message.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return f.poster.post(ctx, msg)
}
