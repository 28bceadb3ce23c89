package conversation

import (
	"context"
	"errors"
	"sync"
)

// ErrConversationNotFound is returned by stores when a sender has no buffer yet.
var ErrConversationNotFound = errors.New("conversation: not found")

// Store persists conversation buffers keyed by sender id.
type Store interface {
	Load(ctx context.Context, senderID string) ([]Entry, error)
	Save(ctx context.Context, senderID string, entries []Entry) error
	Delete(ctx context.Context, senderID string) error
	Count(ctx context.Context) (int, error)
}

// MemoryStore keeps buffers in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	buffers map[string][]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buffers: make(map[string][]Entry)}
}

func (s *MemoryStore) Load(_ context.Context, senderID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.buffers[senderID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return cloneEntries(entries), nil
}

func (s *MemoryStore) Save(_ context.Context, senderID string, entries []Entry) error {
	s.mu.Lock()
	s.buffers[senderID] = cloneEntries(entries)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, senderID string) error {
	s.mu.Lock()
	delete(s.buffers, senderID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buffers), nil
}

func cloneEntries(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
