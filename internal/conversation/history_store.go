package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultConversationTTL = 7 * 24 * time.Hour

// RedisStore persists conversation buffers as JSON documents in Redis so the WhatsApp
// pipeline keeps context across restarts.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	tracer trace.Tracer
}

// RedisStoreOption customizes a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithTTL overrides how long an idle buffer is kept. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore returns a store whose keys are namespaced by prefix (e.g. "whatsapp").
func NewRedisStore(client *redis.Client, prefix string, opts ...RedisStoreOption) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if prefix == "" {
		prefix = "default"
	}
	s := &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    defaultConversationTTL,
		tracer: otel.Tracer("aria.internal.conversation.history"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Save(ctx context.Context, senderID string, entries []Entry) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_history")
	defer span.End()

	data, err := json.Marshal(entries)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(senderID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist history: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, senderID string) ([]Entry, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, s.key(senderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrConversationNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
	}
	return entries, nil
}

func (s *RedisStore) Delete(ctx context.Context, senderID string) error {
	if err := s.redis.Del(ctx, s.key(senderID)).Err(); err != nil {
		return fmt.Errorf("conversation: failed to delete history: %w", err)
	}
	return nil
}

// Count scans the namespace. Intended for admin stats, not hot paths.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	pattern := fmt.Sprintf("conversation:%s:*", s.prefix)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("conversation: failed to scan histories: %w", err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

func (s *RedisStore) key(senderID string) string {
	return fmt.Sprintf("conversation:%s:%s", s.prefix, senderID)
}
