package appointments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository stores appointments.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	ListByUser(ctx context.Context, userID string) ([]*Appointment, error)
}

// InMemoryRepository keeps appointments in memory.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items []*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Create(_ context.Context, appt *Appointment) error {
	if appt == nil {
		return errors.New("appointments: appointment required")
	}
	r.mu.Lock()
	copied := *appt
	r.items = append(r.items, &copied)
	r.mu.Unlock()
	return nil
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Appointment
	for _, a := range r.items {
		if a.UserID == userID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

// PgxPool is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores appointments in the appointments table.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository wires a repository over pool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt == nil {
		return errors.New("appointments: appointment required")
	}
	query := `
		INSERT INTO appointments (id, user_id, date_time, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, query,
		appt.ID,
		appt.UserID,
		appt.DateTime,
		appt.Description,
		appt.Status,
		appt.CreatedAt,
	); err != nil {
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*Appointment, error) {
	query := `
		SELECT id, user_id, date_time, description, status, created_at
		FROM appointments
		WHERE user_id = $1
		ORDER BY date_time
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.UserID, &a.DateTime, &a.Description, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}
