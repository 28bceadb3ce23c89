// Package assistant is the WhatsApp message pipeline: it routes each inbound message
// and produces the reply sent back through the Twilio webhook.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/aria-bots/internal/analytics"
	"github.com/wolfman30/aria-bots/internal/appointments"
	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/internal/format"
	"github.com/wolfman30/aria-bots/internal/geo"
	"github.com/wolfman30/aria-bots/internal/i18n"
	"github.com/wolfman30/aria-bots/internal/intent"
	"github.com/wolfman30/aria-bots/internal/llm"
	"github.com/wolfman30/aria-bots/internal/notify"
	"github.com/wolfman30/aria-bots/internal/observability/metrics"
	"github.com/wolfman30/aria-bots/internal/users"
	"github.com/wolfman30/aria-bots/internal/worker"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

var tracer = otel.Tracer("aria.internal.assistant")

const pipeline = "whatsapp"

// Completer produces the assistant's next message for a buffer.
type Completer interface {
	Complete(ctx context.Context, entries []conversation.Entry) (string, error)
}

// Transcriber turns a voice note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// MediaFetcher downloads an inbound attachment.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaURL string) (io.ReadCloser, string, error)
}

// Sender delivers a message outside the webhook response.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// LocationDescriber answers location requests.
type LocationDescriber interface {
	Describe(ctx context.Context, location string) (string, error)
}

// AgentForwarder relays messages of handed-off users to a person.
type AgentForwarder interface {
	Forward(ctx context.Context, msg notify.AgentForward) error
}

// TaskSubmitter runs work after the webhook has been answered.
type TaskSubmitter interface {
	Submit(task worker.Task) error
}

// EventRecorder stores analytics events.
type EventRecorder interface {
	Record(ctx context.Context, event analytics.Event) error
}

// Deps are the collaborators of Service. Router, Buffers, Completer, Users and
// Translator are required; the rest switch features off when nil.
type Deps struct {
	Router       *intent.Router
	Buffers      *conversation.Manager
	Completer    Completer
	Users        users.Repository
	Translator   *i18n.Translator
	Sessions     *users.SessionTracker
	Appointments appointments.Repository
	Analytics    EventRecorder
	Locations    LocationDescriber
	Agent        AgentForwarder
	Transcriber  Transcriber
	Media        MediaFetcher
	Sender       Sender
	Dispatcher   TaskSubmitter
	Metrics      *metrics.BotMetrics
	Logger       *logging.Logger
}

// Service handles inbound WhatsApp messages.
type Service struct {
	Deps
	now func() time.Time
}

// NewService validates deps and builds the pipeline.
func NewService(deps Deps) *Service {
	switch {
	case deps.Router == nil:
		panic("assistant: router cannot be nil")
	case deps.Buffers == nil:
		panic("assistant: conversation manager cannot be nil")
	case deps.Completer == nil:
		panic("assistant: completer cannot be nil")
	case deps.Users == nil:
		panic("assistant: user repository cannot be nil")
	case deps.Translator == nil:
		panic("assistant: translator cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	deps.Logger = deps.Logger.WithComponent("assistant")
	return &Service{Deps: deps, now: time.Now}
}

// HandleMessage returns the reply for msg. It never fails: every error is logged and
// answered with the localized error message.
func (s *Service) HandleMessage(ctx context.Context, msg conversation.CanonicalMessage) string {
	ctx, span := tracer.Start(ctx, "assistant.handle_message")
	defer span.End()
	span.SetAttributes(attribute.String("aria.kind", string(msg.Kind)))

	started := s.now()
	s.Metrics.ObserveInbound(pipeline, string(msg.Kind))

	user, err := s.Users.GetOrCreate(ctx, msg.SenderID)
	if err != nil {
		span.RecordError(err)
		s.Logger.Error("failed to load user", "sender", msg.SenderID, "error", err)
		return s.Translator.T(i18n.English, i18n.KeyError)
	}
	if s.Sessions != nil {
		s.Sessions.Record(msg.SenderID)
	}

	event := analytics.Event{
		UserID:        user.ID.String(),
		MessageType:   string(msg.Kind),
		MessageLength: len(msg.Text),
	}
	defer func() { s.recordEvent(ctx, event) }()

	reply, route, err := s.dispatch(ctx, user, msg)
	s.Metrics.ObserveRoute(pipeline, route)
	span.SetAttributes(attribute.String("aria.route", route))
	if err != nil {
		span.RecordError(err)
		s.Logger.Error("failed to handle message", "sender", msg.SenderID, "route", route, "error", err)
		return s.Translator.T(user.Language, i18n.KeyError)
	}
	if route == intent.RouteLLM.String() {
		event.AIResponseTime = s.now().Sub(started)
	}
	return reply
}

func (s *Service) dispatch(ctx context.Context, user *users.User, msg conversation.CanonicalMessage) (string, string, error) {
	inHandoff, err := s.Router.InHandoff(ctx, msg.SenderID)
	if err != nil {
		return "", intent.RouteForwardToAgent.String(), err
	}
	if inHandoff {
		return s.forwardToAgent(ctx, user, msg), intent.RouteForwardToAgent.String(), nil
	}
	if msg.Kind == conversation.KindVoice && msg.MediaRef != "" {
		return s.handleVoice(ctx, user, msg), "voice", nil
	}

	decision, err := s.Router.Route(ctx, msg)
	if err != nil {
		return "", intent.RouteLLM.String(), err
	}
	route := decision.Route.String()

	switch decision.Route {
	case intent.RouteForwardToAgent:
		return s.forwardToAgent(ctx, user, msg), route, nil
	case intent.RouteHandoff:
		return s.Translator.T(user.Language, i18n.KeyHandoffRequest), route, nil
	case intent.RouteFAQ:
		return decision.Answer, route, nil
	case intent.RouteAppointment:
		return s.handleAppointment(ctx, user, msg.Text), route, nil
	case intent.RouteLocation:
		return s.handleLocation(ctx, user, decision.Location), route, nil
	default:
		reply, err := s.respond(ctx, user, msg.Text)
		return reply, route, err
	}
}

// respond runs one model turn for the user: detect language, append the message,
// complete, and append the formatted reply.
func (s *Service) respond(ctx context.Context, user *users.User, text string) (string, error) {
	s.updateLanguage(ctx, user, text)

	endTurn := s.Buffers.BeginTurn(user.PhoneNumber)
	defer endTurn()

	entries, err := s.Buffers.Append(ctx, user.PhoneNumber, conversation.UserEntry(text, s.now()))
	if err != nil {
		return "", fmt.Errorf("assistant: append user message: %w", err)
	}

	callStarted := s.now()
	reply, err := s.Completer.Complete(ctx, entries)
	s.Metrics.ObserveCompletion(pipeline, s.now().Sub(callStarted).Seconds(), llm.Class(err))
	if err != nil {
		return "", err
	}
	reply = format.Format(reply, format.WhatsApp)

	if _, err := s.Buffers.Append(ctx, user.PhoneNumber, conversation.AssistantEntry(reply, s.now())); err != nil {
		return "", fmt.Errorf("assistant: append reply: %w", err)
	}
	if err := s.Users.Touch(ctx, user.ID, s.now().UTC()); err != nil {
		s.Logger.Warn("failed to update last active", "sender", user.PhoneNumber, "error", err)
	}
	return reply, nil
}

func (s *Service) updateLanguage(ctx context.Context, user *users.User, text string) {
	if user.Language != "" && user.Language != i18n.English {
		return
	}
	detected := i18n.DetectLanguage(text)
	if detected == user.Language {
		return
	}
	if err := s.Users.SetLanguage(ctx, user.ID, detected); err != nil {
		s.Logger.Warn("failed to store detected language", "sender", user.PhoneNumber, "error", err)
		return
	}
	user.Language = detected
}

func (s *Service) handleAppointment(ctx context.Context, user *users.User, text string) string {
	req, err := appointments.Parse(text, s.now())
	if err != nil {
		return s.Translator.T(user.Language, i18n.KeyAppointmentRequest)
	}
	if s.Appointments != nil {
		if err := s.Appointments.Create(ctx, appointments.New(user.ID.String(), req, text)); err != nil {
			s.Logger.Error("failed to save appointment", "sender", user.PhoneNumber, "error", err)
		}
	}
	return s.Translator.T(user.Language, i18n.KeyAppointmentConfirm, appointments.FormatDate(req.DateTime), req.TimeText)
}

func (s *Service) handleLocation(ctx context.Context, user *users.User, location string) string {
	notFound := s.Translator.T(user.Language, i18n.KeyLocationNotFound)
	if s.Locations == nil || strings.TrimSpace(location) == "" {
		return notFound
	}
	reply, err := s.Locations.Describe(ctx, location)
	if err != nil {
		if !errors.Is(err, geo.ErrNotFound) {
			s.Logger.Warn("location lookup failed", "location", location, "error", err)
		}
		return notFound
	}
	return reply
}

func (s *Service) forwardToAgent(ctx context.Context, user *users.User, msg conversation.CanonicalMessage) string {
	if s.Agent != nil {
		fwd := notify.AgentForward{
			User: notify.AgentUser{
				ID:          user.ID.String(),
				PhoneNumber: user.PhoneNumber,
				Name:        user.Name,
			},
			Message: notify.AgentMessage{
				Content:   msg.Text,
				Type:      string(msg.Kind),
				Media:     msg.MediaRef,
				Timestamp: msg.ReceivedAt.UTC().Format(time.RFC3339Nano),
			},
		}
		if err := s.Agent.Forward(ctx, fwd); err != nil {
			s.Logger.Error("failed to forward message to agent", "sender", user.PhoneNumber, "error", err)
		}
	}
	return s.Translator.T(user.Language, i18n.KeyForwarded)
}

func (s *Service) recordEvent(ctx context.Context, event analytics.Event) {
	if s.Analytics == nil {
		return
	}
	if err := s.Analytics.Record(context.WithoutCancel(ctx), event); err != nil {
		s.Logger.Warn("failed to record analytics event", "error", err)
	}
}
