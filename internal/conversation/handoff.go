package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// HandoffSet records senders whose conversations belong to a human operator.
// Membership only grows; there is no release operation.
type HandoffSet interface {
	// Add flags senderID and reports whether it was newly added.
	Add(ctx context.Context, senderID string) (bool, error)
	Contains(ctx context.Context, senderID string) (bool, error)
	Size(ctx context.Context) (int, error)
}

// MemoryHandoffSet is a process-local HandoffSet.
type MemoryHandoffSet struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

// NewMemoryHandoffSet returns an empty set.
func NewMemoryHandoffSet() *MemoryHandoffSet {
	return &MemoryHandoffSet{members: make(map[string]struct{})}
}

func (s *MemoryHandoffSet) Add(_ context.Context, senderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[senderID]; ok {
		return false, nil
	}
	s.members[senderID] = struct{}{}
	return true, nil
}

func (s *MemoryHandoffSet) Contains(_ context.Context, senderID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[senderID]
	return ok, nil
}

func (s *MemoryHandoffSet) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members), nil
}

// RedisHandoffSet keeps the set in a Redis SET so every replica agrees on membership.
type RedisHandoffSet struct {
	redis *redis.Client
	key   string
}

// NewRedisHandoffSet stores members under "handoff:<prefix>".
func NewRedisHandoffSet(client *redis.Client, prefix string) *RedisHandoffSet {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if prefix == "" {
		prefix = "default"
	}
	return &RedisHandoffSet{redis: client, key: "handoff:" + prefix}
}

func (s *RedisHandoffSet) Add(ctx context.Context, senderID string) (bool, error) {
	added, err := s.redis.SAdd(ctx, s.key, senderID).Result()
	if err != nil {
		return false, fmt.Errorf("conversation: add handoff: %w", err)
	}
	return added == 1, nil
}

func (s *RedisHandoffSet) Contains(ctx context.Context, senderID string) (bool, error) {
	ok, err := s.redis.SIsMember(ctx, s.key, senderID).Result()
	if err != nil {
		return false, fmt.Errorf("conversation: check handoff: %w", err)
	}
	return ok, nil
}

func (s *RedisHandoffSet) Size(ctx context.Context) (int, error) {
	n, err := s.redis.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("conversation: count handoffs: %w", err)
	}
	return int(n), nil
}
