package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Buffer caps used by the two pipelines.
const (
	WhatsAppBufferLimit = 17
	TelegramBufferLimit = 20
)

// Manager owns the per-sender conversation buffers. Every buffer starts with exactly one
// system entry holding the configured prompt, and is never longer than the limit.
type Manager struct {
	store        Store
	systemPrompt string
	limit        int
	writes       *KeyedMutex
	turns        *KeyedMutex
	now          func() time.Time
}

// NewManager wires a buffer manager over store. limit must leave room for the system
// entry plus at least one message.
func NewManager(store Store, systemPrompt string, limit int) *Manager {
	if store == nil {
		panic("conversation: store cannot be nil")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		panic("conversation: system prompt cannot be empty")
	}
	if limit < 2 {
		panic("conversation: buffer limit must be at least 2")
	}
	return &Manager{
		store:        store,
		systemPrompt: systemPrompt,
		limit:        limit,
		writes:       NewKeyedMutex(),
		turns:        NewKeyedMutex(),
		now:          time.Now,
	}
}

// SystemEntry returns the fixed entry every buffer starts with.
func (m *Manager) SystemEntry() Entry {
	return Entry{Role: RoleSystem, Content: m.systemPrompt}
}

// Limit returns the maximum buffer length.
func (m *Manager) Limit() int {
	return m.limit
}

// BeginTurn blocks until no other turn for senderID is in flight. The returned function
// ends the turn. Appends inside a turn remain safe to call.
func (m *Manager) BeginTurn(senderID string) func() {
	return m.turns.Lock(senderID)
}

// Append adds entry to the sender's buffer, initialising it with the system entry on
// first use and truncating afterwards. It returns the buffer to send to the model.
func (m *Manager) Append(ctx context.Context, senderID string, entry Entry) ([]Entry, error) {
	if entry.Role == RoleSystem {
		return nil, errors.New("conversation: system entries cannot be appended")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now()
	}

	unlock := m.writes.Lock(senderID)
	defer unlock()

	entries, err := m.load(ctx, senderID)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)
	entries = Truncate(entries, m.limit)

	if err := m.store.Save(ctx, senderID, entries); err != nil {
		return nil, err
	}
	return cloneEntries(entries), nil
}

// History returns the sender's current buffer, or just the system entry if none exists.
func (m *Manager) History(ctx context.Context, senderID string) ([]Entry, error) {
	unlock := m.writes.Lock(senderID)
	defer unlock()
	return m.load(ctx, senderID)
}

// Clear resets an existing buffer to exactly the system entry. It reports false when the
// sender had no buffer, in which case nothing is created.
func (m *Manager) Clear(ctx context.Context, senderID string) (bool, error) {
	unlock := m.writes.Lock(senderID)
	defer unlock()

	if _, err := m.store.Load(ctx, senderID); err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := m.store.Save(ctx, senderID, []Entry{m.SystemEntry()}); err != nil {
		return false, err
	}
	return true, nil
}

// ActiveConversations returns how many senders have a buffer.
func (m *Manager) ActiveConversations(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// load reads a buffer and re-establishes the system entry invariant regardless of what
// the store held.
func (m *Manager) load(ctx context.Context, senderID string) ([]Entry, error) {
	stored, err := m.store.Load(ctx, senderID)
	if err != nil && !errors.Is(err, ErrConversationNotFound) {
		return nil, fmt.Errorf("conversation: load buffer for %s: %w", senderID, err)
	}

	entries := make([]Entry, 0, len(stored)+2)
	entries = append(entries, m.SystemEntry())
	for _, e := range stored {
		if e.Role == RoleSystem {
			continue
		}
		entries = append(entries, e)
	}
	return Truncate(entries, m.limit), nil
}

// Truncate keeps the leading system entry plus the most recent limit-1 entries, in their
// original order. entries must already start with the system entry.
func Truncate(entries []Entry, limit int) []Entry {
	if len(entries) <= limit || len(entries) == 0 {
		return entries
	}
	out := make([]Entry, 0, limit)
	out = append(out, entries[0])
	out = append(out, entries[len(entries)-(limit-1):]...)
	return out
}
