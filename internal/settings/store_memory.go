package settings

import (
	"context"
	"sync"

	"campus/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	certificate *CertificateSettings
	commission  *CommissionSettings
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Certificate(_ context.Context) (CertificateSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.certificate == nil {
		return CertificateSettings{}, sentinel.ErrNotFound
	}
	return *s.certificate, nil
}

func (s *InMemoryStore) SaveCertificate(_ context.Context, settings CertificateSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certificate = &settings
	return nil
}

func (s *InMemoryStore) Commission(_ context.Context) (CommissionSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.commission == nil {
		return CommissionSettings{}, sentinel.ErrNotFound
	}
	return *s.commission, nil
}

func (s *InMemoryStore) SaveCommission(_ context.Context, settings CommissionSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commission = &settings
	return nil
}

var _ Store = (*InMemoryStore)(nil)
