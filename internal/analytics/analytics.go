// Package analytics records per-message events and summarises them for admins.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one inbound message as seen by the WhatsApp pipeline.
type Event struct {
	ID             uuid.UUID
	UserID         string
	MessageType    string
	MessageLength  int
	AIResponseTime time.Duration
	Timestamp      time.Time
}

// TypeCount is the number of events of one message type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Store persists events and answers aggregate queries over them.
type Store interface {
	Record(ctx context.Context, event Event) error
	CountEvents(ctx context.Context) (int, error)
	CountByType(ctx context.Context) ([]TypeCount, error)
	// AverageResponseTime is the mean over events that carry a response time, or 0.
	AverageResponseTime(ctx context.Context) (time.Duration, error)
}

// UserCounter is the slice of the user repository the summary needs.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
}

// Summary is the admin analytics view.
type Summary struct {
	TotalUsers          int         `json:"totalUsers"`
	TotalMessages       int         `json:"totalMessages"`
	ActiveUsers         int         `json:"activeUsers"`
	MessageTypes        []TypeCount `json:"messageTypes"`
	AverageResponseTime float64     `json:"averageResponseTime"`
}

// ActiveWindow is how recently a user must have written to count as active.
const ActiveWindow = 24 * time.Hour

// Service combines event and user counts.
type Service struct {
	events Store
	users  UserCounter
	now    func() time.Time
}

// NewService wires the analytics service.
func NewService(events Store, users UserCounter) *Service {
	if events == nil {
		panic("analytics: store required")
	}
	if users == nil {
		panic("analytics: user counter required")
	}
	return &Service{events: events, users: users, now: time.Now}
}

// Record stores event, filling in an id and timestamp when absent.
func (s *Service) Record(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	return s.events.Record(ctx, event)
}

// Summary gathers the dashboard numbers. AverageResponseTime is in milliseconds.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: count users: %w", err)
	}
	active, err := s.users.CountActiveSince(ctx, s.now().Add(-ActiveWindow))
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: count active users: %w", err)
	}
	totalMessages, err := s.events.CountEvents(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: count events: %w", err)
	}
	types, err := s.events.CountByType(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: count by type: %w", err)
	}
	avg, err := s.events.AverageResponseTime(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: average response time: %w", err)
	}
	if types == nil {
		types = []TypeCount{}
	}
	return Summary{
		TotalUsers:          totalUsers,
		TotalMessages:       totalMessages,
		ActiveUsers:         active,
		MessageTypes:        types,
		AverageResponseTime: float64(avg.Microseconds()) / 1000,
	}, nil
}
