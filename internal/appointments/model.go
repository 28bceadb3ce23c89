package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status values for an appointment.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment is a booking captured from a chat message.
type Appointment struct {
	ID          uuid.UUID
	UserID      string
	DateTime    time.Time
	Description string
	Status      string
	CreatedAt   time.Time
}

// New builds a scheduled appointment for userID from a parsed request.
func New(userID string, req Request, description string) *Appointment {
	return &Appointment{
		ID:          uuid.New(),
		UserID:      userID,
		DateTime:    req.DateTime,
		Description: description,
		Status:      StatusScheduled,
		CreatedAt:   time.Now().UTC(),
	}
}
