package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a process-local Repository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byPhone map[string]*User
	now     func() time.Time
}

// NewInMemoryRepository returns an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byPhone: make(map[string]*User), now: time.Now}
}

func (r *InMemoryRepository) GetOrCreate(_ context.Context, phoneNumber string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byPhone[phoneNumber]; ok {
		copied := *u
		return &copied, nil
	}
	now := r.now().UTC()
	u := &User{
		ID:          uuid.New(),
		PhoneNumber: phoneNumber,
		Language:    "en",
		LastActive:  now,
		CreatedAt:   now,
	}
	r.byPhone[phoneNumber] = u
	copied := *u
	return &copied, nil
}

func (r *InMemoryRepository) FindByPhone(_ context.Context, phoneNumber string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byPhone[phoneNumber]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *InMemoryRepository) SetLanguage(_ context.Context, id uuid.UUID, language string) error {
	return r.update(id, func(u *User) { u.Language = language })
}

func (r *InMemoryRepository) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.update(id, func(u *User) { u.LastActive = at })
}

func (r *InMemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPhone), nil
}

func (r *InMemoryRepository) CountActiveSince(_ context.Context, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, u := range r.byPhone {
		if !u.LastActive.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) update(id uuid.UUID, fn func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byPhone {
		if u.ID == id {
			fn(u)
			return nil
		}
	}
	return ErrNotFound
}
