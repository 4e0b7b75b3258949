package auditlog

import (
	"context"
	"slices"
	"sync"
)

// InMemoryStore keeps the log in a mutex-guarded slice.
type InMemoryStore struct {
	mu       sync.RWMutex
	attempts []Attempt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, attempt Attempt, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	if limit > 0 && len(s.attempts) > limit {
		s.attempts = slices.Clone(s.attempts[len(s.attempts)-limit:])
	}
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.attempts), nil
}

var _ Store = (*InMemoryStore)(nil)
