// Package events fans certificate lifecycle events out to subscribers such
// as the Kafka exporter and the student notification email.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campus/internal/certificate/models"
	"campus/pkg/platform/middleware/requesttime"
)

type Type string

const TypeCertificateIssued Type = "certificate.issued"

type Event struct {
	ID          string             `json:"id"`
	Type        Type               `json:"type"`
	OccurredAt  time.Time          `json:"occurred_at"`
	Certificate models.Certificate `json:"certificate"`
}

// CertificateIssued builds the event announcing a persisted certificate.
func CertificateIssued(ctx context.Context, c models.Certificate) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        TypeCertificateIssued,
		OccurredAt:  requesttime.Now(ctx).UTC(),
		Certificate: c,
	}
}

// Subscriber handles events. Errors are logged by the bus and never reach
// the publisher.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}
