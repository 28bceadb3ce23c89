package intent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
	err   error
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 10), err: err}
}

func (n *recordingNotifier) NotifyHandoff(_ context.Context, senderID string, _ time.Time) error {
	n.mu.Lock()
	n.calls = append(n.calls, senderID)
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (n *recordingNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
}

func msg(sender, text string) conversation.CanonicalMessage {
	return conversation.CanonicalMessage{SenderID: sender, Text: text, Kind: conversation.KindText}
}

func newTestRouter(t *testing.T, opts ...Option) (*Router, *conversation.MemoryHandoffSet) {
	t.Helper()
	set := conversation.NewMemoryHandoffSet()
	return NewRouter(set, logging.Discard(), opts...), set
}

func TestRouteOrder(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     Route
		location string
	}{
		{name: "plain question goes to model", text: "what is the capital of France?", want: RouteLLM},
		{name: "handoff phrase", text: "I want to talk to agent", want: RouteHandoff},
		{name: "handoff beats faq", text: "refund please, connect to support", want: RouteHandoff},
		{name: "faq keyword", text: "When will my delivery get here?", want: RouteFAQ},
		{name: "faq beats appointment", text: "book an appointment about my refund", want: RouteFAQ},
		{name: "appointment phrase", text: "Can I schedule an appointment 15/03/2026 at 14:00", want: RouteAppointment},
		{name: "appointment beats location", text: "make an appointment near me", want: RouteAppointment},
		{name: "location near me", text: "pizza near me", want: RouteLocation, location: "me"},
		{name: "find location in", text: "find location in Paris", want: RouteLocation, location: "Paris"},
		{name: "near without trigger goes to model", text: "I live near the station", want: RouteLLM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t)
			decision, err := router.Route(context.Background(), msg("+15550001", tt.text))
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision.Route)
			assert.Equal(t, tt.location, decision.Location)
		})
	}
}

func TestRouteFAQAnswerVerbatim(t *testing.T) {
	router, _ := newTestRouter(t)
	decision, err := router.Route(context.Background(), msg("+1", "How do I get my MONEY BACK?"))
	require.NoError(t, err)
	assert.Equal(t, RouteFAQ, decision.Route)
	assert.Equal(t, DefaultFAQRules[0].Answer, decision.Answer)
}

func TestRouteFirstFAQRuleWins(t *testing.T) {
	rules := []FAQRule{
		{Keywords: []string{"hours"}, Answer: "first"},
		{Keywords: []string{"hours", "open"}, Answer: "second"},
	}
	router, _ := newTestRouter(t, WithFAQRules(rules))
	decision, err := router.Route(context.Background(), msg("+1", "what are your opening hours"))
	require.NoError(t, err)
	assert.Equal(t, "first", decision.Answer)
}

func TestRouteHandoffAddsOnceAndNotifiesOnce(t *testing.T) {
	notifier := newRecordingNotifier(nil)
	router, set := newTestRouter(t, WithHandoffNotifier(notifier))
	ctx := context.Background()

	decision, err := router.Route(ctx, msg("+1", "Please let me speak to human"))
	require.NoError(t, err)
	assert.Equal(t, RouteHandoff, decision.Route)
	notifier.wait(t)

	size, err := set.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	decision, err = router.Route(ctx, msg("+1", "real person now"))
	require.NoError(t, err)
	assert.Equal(t, RouteForwardToAgent, decision.Route)

	size, err = set.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
	assert.Equal(t, 1, notifier.count())
}

func TestRouteHandoffedSenderSkipsMatching(t *testing.T) {
	router, set := newTestRouter(t)
	ctx := context.Background()
	_, err := set.Add(ctx, "+1")
	require.NoError(t, err)

	decision, err := router.Route(ctx, msg("+1", "refund"))
	require.NoError(t, err)
	assert.Equal(t, RouteForwardToAgent, decision.Route)

	decision, err = router.Route(ctx, msg("+2", "refund"))
	require.NoError(t, err)
	assert.Equal(t, RouteFAQ, decision.Route)
}

func TestRouteNotifierFailureIsSwallowed(t *testing.T) {
	notifier := newRecordingNotifier(errors.New("webhook down"))
	router, _ := newTestRouter(t, WithHandoffNotifier(notifier))

	decision, err := router.Route(context.Background(), msg("+1", "talk to agent"))
	require.NoError(t, err)
	assert.Equal(t, RouteHandoff, decision.Route)
	notifier.wait(t)
}

type brokenSet struct{ conversation.HandoffSet }

func (brokenSet) Contains(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRouteHandoffSetError(t *testing.T) {
	router := NewRouter(brokenSet{}, logging.Discard())
	_, err := router.Route(context.Background(), msg("+1", "hello"))
	require.Error(t, err)
}

func TestExtractLocation(t *testing.T) {
	tests := map[string]string{
		"coffee near Union Square": "Union Square",
		"find sushi near":          "sushi",
		"locations at 5th Avenue":  "5th Avenue",
		"any location in Berlin":   "Berlin",
		"find location":            "",
	}
	for text, want := range tests {
		assert.Equal(t, want, ExtractLocation(text), text)
	}
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "llm", RouteLLM.String())
	assert.Equal(t, "forward_to_agent", RouteForwardToAgent.String())
	assert.Equal(t, "location", RouteLocation.String())
}

func TestNewRouterPanicsWithoutSet(t *testing.T) {
	assert.Panics(t, func() { NewRouter(nil, nil) })
}
