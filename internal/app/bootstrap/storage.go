package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/aria-bots/internal/analytics"
	"github.com/wolfman30/aria-bots/internal/appointments"
	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/internal/users"
)

// Repositories are the relational stores of the WhatsApp pipeline.
type Repositories struct {
	Users        users.Repository
	Appointments appointments.Repository
	Events       analytics.Store
}

// BuildRepositories uses Postgres when pool is set and in-memory stores otherwise.
func BuildRepositories(pool *pgxpool.Pool) Repositories {
	if pool == nil {
		return Repositories{
			Users:        users.NewInMemoryRepository(),
			Appointments: appointments.NewInMemoryRepository(),
			Events:       analytics.NewMemoryStore(),
		}
	}
	return Repositories{
		Users:        users.NewPostgresRepository(pool),
		Appointments: appointments.NewPostgresRepository(pool),
		Events:       analytics.NewPostgresStore(pool),
	}
}

// BuildConversationManager keeps buffers in Redis under prefix when a client is given.
func BuildConversationManager(client *redis.Client, prefix, systemPrompt string, limit int) *conversation.Manager {
	var store conversation.Store
	if client != nil {
		store = conversation.NewRedisStore(client, prefix)
	} else {
		store = conversation.NewMemoryStore()
	}
	return conversation.NewManager(store, systemPrompt, limit)
}

// BuildHandoffSet returns the Redis-backed handoff set, or an in-memory one.
func BuildHandoffSet(client *redis.Client, prefix string) conversation.HandoffSet {
	if client == nil {
		return conversation.NewMemoryHandoffSet()
	}
	return conversation.NewRedisHandoffSet(client, prefix)
}
