package analytics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps events in process.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) CountEvents(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}

func (s *MemoryStore) CountByType(_ context.Context) ([]TypeCount, error) {
	s.mu.RLock()
	counts := make(map[string]int)
	for _, e := range s.events {
		counts[e.MessageType]++
	}
	s.mu.RUnlock()

	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *MemoryStore) AverageResponseTime(_ context.Context) (time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		total time.Duration
		n     int
	)
	for _, e := range s.events {
		if e.AIResponseTime > 0 {
			total += e.AIResponseTime
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / time.Duration(n), nil
}
