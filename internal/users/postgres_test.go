package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

var userRowColumns = []string{"id", "phone_number", "name", "language", "last_active", "created_at"}

func TestPostgresGetOrCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "whatsapp:+1").
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(id, "whatsapp:+1", "", "en", now, now))

	u, err := repo.GetOrCreate(context.Background(), "whatsapp:+1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != id || u.Language != "en" || u.Name != "" {
		t.Fatalf("unexpected user %#v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresFindByPhoneMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery("SELECT id, phone_number").WithArgs("nobody").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.FindByPhone(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresSetLanguageAndTouch(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	id := uuid.New()
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE users SET language").WithArgs(id, "fr").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := repo.SetLanguage(context.Background(), id, "fr"); err != nil {
		t.Fatalf("set language: %v", err)
	}

	mock.ExpectExec("UPDATE users SET last_active").WithArgs(id, at).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := repo.Touch(context.Background(), id, at); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresCounts(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	since := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users$`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE last_active`).WithArgs(since).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.Count(context.Background())
	if err != nil || total != 7 {
		t.Fatalf("count = %d, %v", total, err)
	}
	active, err := repo.CountActiveSince(context.Background(), since)
	if err != nil || active != 3 {
		t.Fatalf("active = %d, %v", active, err)
	}
}
