package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

type captureEmail struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (c *captureEmail) Send(_ context.Context, msg EmailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return c.err
}

func TestNotifyHandoffPostsWebhookAndEmail(t *testing.T) {
	var got HandoffEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	email := &captureEmail{}
	svc := NewService(Config{AdminWebhookURL: srv.URL, AdminEmail: "ops@example.com"}, email, logging.Discard())
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.NotifyHandoff(context.Background(), "whatsapp:+15550001", at))
	assert.Equal(t, "handoff_requested", got.Event)
	assert.Equal(t, "whatsapp:+15550001", got.UserID)
	assert.Equal(t, "2026-03-01T10:00:00Z", got.Timestamp)
	require.Len(t, email.sent, 1)
	assert.Equal(t, "ops@example.com", email.sent[0].To)
	assert.Contains(t, email.sent[0].Body, "whatsapp:+15550001")
}

func TestNotifyHandoffJoinsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	email := &captureEmail{err: errors.New("smtp down")}
	svc := NewService(Config{AdminWebhookURL: srv.URL, AdminEmail: "ops@example.com"}, email, logging.Discard())

	err := svc.NotifyHandoff(context.Background(), "u1", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin webhook")
	assert.Contains(t, err.Error(), "admin email")
}

func TestNotifyHandoffNothingConfigured(t *testing.T) {
	svc := NewService(Config{}, nil, nil)
	assert.NoError(t, svc.NotifyHandoff(context.Background(), "u1", time.Now()))
}

func TestAgentForwarder(t *testing.T) {
	var got AgentForward
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	fwd := NewAgentForwarder(srv.URL, nil)
	require.True(t, fwd.Enabled())
	err := fwd.Forward(context.Background(), AgentForward{
		User:    AgentUser{ID: "id-1", PhoneNumber: "whatsapp:+1"},
		Message: AgentMessage{Content: "still there?", Type: "text"},
	})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp:+1", got.User.PhoneNumber)
	assert.Equal(t, "still there?", got.Message.Content)
	assert.NotEmpty(t, got.Message.Timestamp)
}

func TestAgentForwarderDisabled(t *testing.T) {
	fwd := NewAgentForwarder("", nil)
	assert.False(t, fwd.Enabled())
	assert.NoError(t, fwd.Forward(context.Background(), AgentForward{}))
}
