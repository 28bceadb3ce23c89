package users

import (
	"sync"
	"time"
)

// Session is the in-process activity record for one sender.
type Session struct {
	ID           string
	StartTime    time.Time
	MessageCount int
	LastActive   time.Time
}

// SessionTracker counts senders and messages seen since the process started.
type SessionTracker struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	totalMessages int64
	started       time.Time
	now           func() time.Time
}

// NewSessionTracker starts the uptime clock.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		sessions: make(map[string]*Session),
		started:  time.Now(),
		now:      time.Now,
	}
}

// Register marks id as active without counting a message.
func (t *SessionTracker) Register(id string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.session(id)
}

// Record counts one message from id.
func (t *SessionTracker) Record(id string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.session(id)
	s.MessageCount++
	s.LastActive = t.now()
	t.totalMessages++
	return *s
}

// Get returns the session for id, if any.
func (t *SessionTracker) Get(id string) (Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// ActiveUsers is the number of distinct senders seen.
func (t *SessionTracker) ActiveUsers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// TotalMessages is the number of recorded messages.
func (t *SessionTracker) TotalMessages() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalMessages
}

// Uptime is the time since the tracker was created.
func (t *SessionTracker) Uptime() time.Duration {
	return t.now().Sub(t.started)
}

func (t *SessionTracker) session(id string) *Session {
	s, ok := t.sessions[id]
	if !ok {
		now := t.now()
		s = &Session{ID: id, StartTime: now, LastActive: now}
		t.sessions[id] = s
	}
	return s
}
