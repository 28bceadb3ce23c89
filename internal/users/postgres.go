package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores users in the users table.
type PostgresRepository struct {
	pool rowQuerier
}

// NewPostgresRepository wires a repository over a pgx pool.
func NewPostgresRepository(pool rowQuerier) *PostgresRepository {
	if pool == nil {
		panic("users: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, phone_number, COALESCE(name, ''), language, last_active, created_at`

func (r *PostgresRepository) GetOrCreate(ctx context.Context, phoneNumber string) (*User, error) {
	query := `
		INSERT INTO users (id, phone_number, language, last_active, created_at)
		VALUES ($1, $2, 'en', NOW(), NOW())
		ON CONFLICT (phone_number) DO UPDATE SET phone_number = EXCLUDED.phone_number
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, uuid.New(), phoneNumber))
	if err != nil {
		return nil, fmt.Errorf("users: get or create: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByPhone(ctx context.Context, phoneNumber string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, phoneNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("users: find by phone: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) SetLanguage(ctx context.Context, id uuid.UUID, language string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE users SET language = $2 WHERE id = $1`, id, language)
	if err != nil {
		return fmt.Errorf("users: set language: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	ct, err := r.pool.Exec(ctx, `UPDATE users SET last_active = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("users: touch: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("users: count: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_active >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("users: count active: %w", err)
	}
	return n, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.PhoneNumber, &u.Name, &u.Language, &u.LastActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
