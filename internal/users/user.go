// Package users tracks the people talking to the bots.
package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no user matches.
var ErrNotFound = errors.New("users: not found")

// User is a WhatsApp contact keyed by phone number.
type User struct {
	ID          uuid.UUID
	PhoneNumber string
	Name        string
	Language    string
	LastActive  time.Time
	CreatedAt   time.Time
}

// Repository persists users.
type Repository interface {
	GetOrCreate(ctx context.Context, phoneNumber string) (*User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*User, error)
	SetLanguage(ctx context.Context, id uuid.UUID, language string) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Count(ctx context.Context) (int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
}
