package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("aria.internal.intent")

// Route names the path a message takes.
type Route int

const (
	RouteLLM Route = iota
	RouteForwardToAgent
	RouteHandoff
	RouteFAQ
	RouteAppointment
	RouteLocation
)

func (r Route) String() string {
	switch r {
	case RouteForwardToAgent:
		return "forward_to_agent"
	case RouteHandoff:
		return "handoff"
	case RouteFAQ:
		return "faq"
	case RouteAppointment:
		return "appointment"
	case RouteLocation:
		return "location"
	default:
		return "llm"
	}
}

// Decision is the outcome of routing one message. Answer is set for RouteFAQ and
// Location for RouteLocation (it may be empty when no place could be extracted).
type Decision struct {
	Route    Route
	Answer   string
	Location string
}

// HandoffNotifier is told when a sender first asks for a human.
type HandoffNotifier interface {
	NotifyHandoff(ctx context.Context, senderID string, at time.Time) error
}

var handoffPhrases = []string{
	"speak to human",
	"talk to agent",
	"connect to support",
	"real person",
}

var (
	appointmentPattern = regexp.MustCompile(`(?i)(?:schedule|book|make).+appointment`)
	locationPatterns   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)near (.+)`),
		regexp.MustCompile(`(?i)find (.+) near`),
		regexp.MustCompile(`(?i)locations? (?:in|at) (.+)`),
	}
)

// Router classifies inbound messages in a fixed priority order: existing handoff,
// handoff phrase, FAQ keyword, appointment phrase, location phrase, then the model.
type Router struct {
	handoffs      conversation.HandoffSet
	faqs          []FAQRule
	notifier      HandoffNotifier
	logger        *logging.Logger
	notifyTimeout time.Duration
}

// Option customises a Router.
type Option func(*Router)

// WithFAQRules replaces the FAQ table.
func WithFAQRules(rules []FAQRule) Option {
	return func(r *Router) {
		r.faqs = append([]FAQRule(nil), rules...)
	}
}

// WithHandoffNotifier sets the collaborator alerted on new handoffs.
func WithHandoffNotifier(n HandoffNotifier) Option {
	return func(r *Router) {
		r.notifier = n
	}
}

// NewRouter wires a router over the handoff set.
func NewRouter(handoffs conversation.HandoffSet, logger *logging.Logger, opts ...Option) *Router {
	if handoffs == nil {
		panic("intent: handoff set cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Router{
		handoffs:      handoffs,
		faqs:          DefaultFAQRules,
		logger:        logger,
		notifyTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route decides how msg is answered. Only handoff-set failures are returned; a failed
// admin notification is logged and otherwise ignored.
func (r *Router) Route(ctx context.Context, msg conversation.CanonicalMessage) (Decision, error) {
	ctx, span := tracer.Start(ctx, "intent.route")
	defer span.End()

	decision, err := r.route(ctx, msg)
	if err != nil {
		span.RecordError(err)
		return Decision{}, err
	}
	span.SetAttributes(attribute.String("intent.route", decision.Route.String()))
	return decision, nil
}

// InHandoff reports whether senderID already belongs to a human agent.
func (r *Router) InHandoff(ctx context.Context, senderID string) (bool, error) {
	ok, err := r.handoffs.Contains(ctx, senderID)
	if err != nil {
		return false, fmt.Errorf("intent: check handoff: %w", err)
	}
	return ok, nil
}

func (r *Router) route(ctx context.Context, msg conversation.CanonicalMessage) (Decision, error) {
	inHandoff, err := r.InHandoff(ctx, msg.SenderID)
	if err != nil {
		return Decision{}, err
	}
	if inHandoff {
		return Decision{Route: RouteForwardToAgent}, nil
	}

	lower := strings.ToLower(msg.Text)

	if containsAny(lower, handoffPhrases) {
		added, err := r.handoffs.Add(ctx, msg.SenderID)
		if err != nil {
			return Decision{}, fmt.Errorf("intent: add handoff: %w", err)
		}
		if added {
			r.notifyHandoff(ctx, msg.SenderID)
		}
		return Decision{Route: RouteHandoff}, nil
	}

	if rule, ok := matchFAQ(r.faqs, msg.Text); ok {
		return Decision{Route: RouteFAQ, Answer: rule.Answer}, nil
	}

	if appointmentPattern.MatchString(msg.Text) {
		return Decision{Route: RouteAppointment}, nil
	}

	if strings.Contains(lower, "near me") || strings.Contains(lower, "find location") {
		return Decision{Route: RouteLocation, Location: ExtractLocation(msg.Text)}, nil
	}

	return Decision{Route: RouteLLM}, nil
}

// notifyHandoff runs detached from the request so a slow admin endpoint never delays
// the reply.
func (r *Router) notifyHandoff(ctx context.Context, senderID string) {
	if r.notifier == nil {
		return
	}
	at := time.Now().UTC()
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.notifyTimeout)
	go func() {
		defer cancel()
		if err := r.notifier.NotifyHandoff(notifyCtx, senderID, at); err != nil {
			r.logger.Warn("handoff notification failed", "sender", senderID, "error", err)
		}
	}()
}

// ExtractLocation pulls the place out of a location request, trying each capture
// pattern in turn. It returns "" when none match.
func ExtractLocation(text string) string {
	for _, pat := range locationPatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
