package store

import (
	"context"
	"slices"
	"sync"

	"campus/internal/certificate/models"
	"campus/pkg/platform/sentinel"
)

// InMemoryStore keeps certificates in insertion order. It is safe for
// concurrent use but does not survive restarts.
type InMemoryStore struct {
	mu     sync.RWMutex
	order  []string
	byID   map[string]models.Certificate
	byCode map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[string]models.Certificate),
		byCode: make(map[string]string),
	}
}

func (s *InMemoryStore) Save(_ context.Context, c models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byCode[c.CertificateID]; ok {
		return sentinel.ErrConflict
	}
	s.byID[c.ID] = c
	s.byCode[c.CertificateID] = c.ID
	s.order = append(s.order, c.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.byID[id]; ok {
		return c, nil
	}
	return models.Certificate{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByCertificateID(_ context.Context, certificateID string) (models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byCode[certificateID]; ok {
		return s.byID[id], nil
	}
	return models.Certificate{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Certificate, 0, len(s.order))
	for _, id := range s.order {
		if c := s.byID[id]; filter.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Update replaces the mutable record; the certificate ID itself is immutable.
func (s *InMemoryStore) Update(_ context.Context, c models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.CertificateID = existing.CertificateID
	s.byID[c.ID] = c
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byCode, c.CertificateID)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func (s *InMemoryStore) Exists(_ context.Context, studentID string, certType models.CertificateType, itemID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.byID {
		if c.StudentID == studentID && c.Type == certType && c.RefersTo(itemID) {
			return true, nil
		}
	}
	return false, nil
}

var _ Store = (*InMemoryStore)(nil)
