package store

import (
	"context"

	"campus/internal/certificate/models"
)

// Store persists certificates. Implementations return sentinel.ErrNotFound
// for unknown IDs and sentinel.ErrConflict for a duplicate certificate ID.
type Store interface {
	Save(ctx context.Context, certificate models.Certificate) error
	FindByID(ctx context.Context, id string) (models.Certificate, error)
	FindByCertificateID(ctx context.Context, certificateID string) (models.Certificate, error)
	List(ctx context.Context, filter models.Filter) ([]models.Certificate, error)
	Update(ctx context.Context, certificate models.Certificate) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, studentID string, certType models.CertificateType, itemID string) (bool, error)
}
