package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the part of pgxpool.Pool used here.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore writes events to analytics_events.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore wires the store over pool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("analytics: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Record(ctx context.Context, event Event) error {
	query := `
		INSERT INTO analytics_events (id, user_id, message_type, message_length, ai_response_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var responseMS *int64
	if event.AIResponseTime > 0 {
		ms := event.AIResponseTime.Milliseconds()
		responseMS = &ms
	}
	if _, err := s.pool.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.MessageType,
		event.MessageLength,
		responseMS,
		event.Timestamp,
	); err != nil {
		return fmt.Errorf("analytics: insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analytics_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("analytics: count events: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT message_type, COUNT(*)
		FROM analytics_events
		GROUP BY message_type
		ORDER BY message_type
	`)
	if err != nil {
		return nil, fmt.Errorf("analytics: count by type: %w", err)
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("analytics: scan type count: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AverageResponseTime(ctx context.Context) (time.Duration, error) {
	var avg float64
	query := `SELECT COALESCE(AVG(ai_response_ms), 0)::float8 FROM analytics_events WHERE ai_response_ms IS NOT NULL`
	if err := s.pool.QueryRow(ctx, query).Scan(&avg); err != nil {
		return 0, fmt.Errorf("analytics: average response: %w", err)
	}
	return time.Duration(avg * float64(time.Millisecond)), nil
}
