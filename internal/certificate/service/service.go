// Package service is the certificate application layer: public verification
// with its audit trail, and the administrator operations on issued
// certificates.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campus/internal/certificate/auditlog"
	"campus/internal/certificate/issuance"
	"campus/internal/certificate/metrics"
	"campus/internal/certificate/models"
	"campus/internal/certificate/verifier"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/sentinel"
	"campus/pkg/platform/tracer"
)

// Store is the subset of the certificate store the service needs.
// Error Contract:
// - FindByID, FindByCertificateID, Update and Delete return sentinel.ErrNotFound for unknown IDs
type Store interface {
	FindByID(ctx context.Context, id string) (models.Certificate, error)
	FindByCertificateID(ctx context.Context, certificateID string) (models.Certificate, error)
	List(ctx context.Context, filter models.Filter) ([]models.Certificate, error)
	Update(ctx context.Context, certificate models.Certificate) error
	Delete(ctx context.Context, id string) error
}

type Issuer interface {
	Issue(ctx context.Context, draft issuance.Draft) (*models.Certificate, error)
}

type AuditLog interface {
	Record(ctx context.Context, certificateID string, result models.VerifyResult, client auditlog.Client) (auditlog.Attempt, error)
	Attempts(ctx context.Context, certificateID string) ([]auditlog.Attempt, error)
	Analytics(ctx context.Context, certificateID string) (auditlog.Analytics, error)
}

// Verification outcome labels.
const (
	OutcomeValid    = "valid"
	OutcomeNotFound = "not_found"
	OutcomeRevoked  = "revoked"
	OutcomeError    = "error"
)

type Option func(*Service)

type Service struct {
	store   Store
	issuer  Issuer
	audit   AuditLog
	keyed   *models.Blake2bFingerprinter
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

func New(store Store, issuer Issuer, audit AuditLog, opts ...Option) *Service {
	s := &Service{
		store:  store,
		issuer: issuer,
		audit:  audit,
		logger: slog.New(slog.DiscardHandler),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithKeyedFingerprinter lets Integrity check b2: digests.
func WithKeyedFingerprinter(f *models.Blake2bFingerprinter) Option {
	return func(s *Service) {
		s.keyed = f
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// Verify classifies certificateID and records the attempt. The audit write
// is best-effort: its failure is logged and counted, and the result stands.
func (s *Service) Verify(ctx context.Context, certificateID string, client auditlog.Client) (result models.VerifyResult, err error) {
	start := time.Now()
	wellFormed := models.IsWellFormedCertificateID(certificateID)
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify, tracer.String(tracer.AttrCertificateID, certificateID))
	defer func() { span.End(err) }()

	cert, err := s.store.FindByCertificateID(ctx, certificateID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		result = verifier.NotFound()
	case err != nil:
		s.metrics.ObserveVerification(OutcomeError, wellFormed, start)
		return models.VerifyResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up certificate")
	default:
		result = verifier.Classify(cert, requesttime.Now(ctx).UTC())
	}
	span.SetAttributes(tracer.Bool(tracer.AttrVerifyValid, result.Valid))

	if s.audit != nil {
		if _, auditErr := s.audit.Record(ctx, certificateID, result, client); auditErr != nil {
			s.metrics.IncrementAuditFailure()
			span.AddEvent(tracer.EventAuditFailed)
			s.logger.ErrorContext(ctx, "failed to record verification attempt",
				"certificate_id", certificateID,
				"error", auditErr,
			)
		} else {
			span.AddEvent(tracer.EventAuditRecorded)
		}
	}

	s.metrics.ObserveVerification(outcome(result), wellFormed, start)
	return result, nil
}

func outcome(r models.VerifyResult) string {
	switch {
	case r.Valid:
		return OutcomeValid
	case r.Reason == models.ReasonRevoked:
		return OutcomeRevoked
	default:
		return OutcomeNotFound
	}
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]models.Certificate, error) {
	certs, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certificates")
	}
	return certs, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Certificate, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "certificate id is required")
	}
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load certificate")
	}
	return &c, nil
}

// Issue creates a certificate from an administrator's draft.
func (s *Service) Issue(ctx context.Context, draft issuance.Draft) (*models.Certificate, error) {
	return s.issuer.Issue(ctx, draft)
}

func (s *Service) Revoke(ctx context.Context, id string) (*models.Certificate, error) {
	return s.setStatus(ctx, id, models.StatusRevoked)
}

// Reinstate returns a revoked or pending certificate to issued.
func (s *Service) Reinstate(ctx context.Context, id string) (*models.Certificate, error) {
	return s.setStatus(ctx, id, models.StatusIssued)
}

func (s *Service) setStatus(ctx context.Context, id string, status models.Status) (*models.Certificate, error) {
	return s.mutate(ctx, id, func(c *models.Certificate) {
		c.Status = status
	})
}

// ToggleVerified flips the administrative authenticity flag.
func (s *Service) ToggleVerified(ctx context.Context, id string) (*models.Certificate, error) {
	return s.mutate(ctx, id, func(c *models.Certificate) {
		c.IsVerified = !c.IsVerified
	})
}

// mutate applies fn and saves. The hash is left as issued.
func (s *Service) mutate(ctx context.Context, id string, fn func(*models.Certificate)) (*models.Certificate, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *c
	fn(c)
	c.UpdatedAt = requesttime.Now(ctx).UTC()
	if err := s.store.Update(ctx, *c); err != nil {
		return nil, translate(err, "failed to update certificate")
	}
	s.logger.InfoContext(ctx, "certificate updated",
		"certificate_id", c.CertificateID,
		"status_from", before.Status,
		"status_to", c.Status,
		"is_verified", c.IsVerified,
	)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dErrors.New(dErrors.CodeBadRequest, "certificate id is required")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return translate(err, "failed to delete certificate")
	}
	s.logger.InfoContext(ctx, "certificate deleted", "id", id)
	return nil
}

// IntegrityReport is the outcome of recomputing a certificate's fingerprint.
type IntegrityReport struct {
	ID            string                 `json:"id"`
	CertificateID string                 `json:"certificate_id"`
	Hash          string                 `json:"hash"`
	Status        models.IntegrityStatus `json:"status"`
}

func (s *Service) Integrity(ctx context.Context, id string) (*IntegrityReport, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	report := &IntegrityReport{
		ID:            c.ID,
		CertificateID: c.CertificateID,
		Hash:          c.Hash,
		Status:        models.CheckIntegrity(*c, s.keyed),
	}
	if report.Status == models.IntegrityMismatch {
		s.logger.WarnContext(ctx, "certificate fingerprint mismatch", "certificate_id", c.CertificateID)
	}
	return report, nil
}

// VerificationLog returns the retained attempts for certificateID, or all
// attempts when it is empty.
func (s *Service) VerificationLog(ctx context.Context, certificateID string) ([]auditlog.Attempt, error) {
	if s.audit == nil {
		return []auditlog.Attempt{}, nil
	}
	return s.audit.Attempts(ctx, certificateID)
}

func (s *Service) VerificationAnalytics(ctx context.Context, certificateID string) (auditlog.Analytics, error) {
	if certificateID == "" {
		return auditlog.Analytics{}, dErrors.New(dErrors.CodeBadRequest, "certificate_id is required")
	}
	if s.audit == nil {
		return auditlog.Summarize(certificateID, nil), nil
	}
	return s.audit.Analytics(ctx, certificateID)
}

func translate(err error, msg string) error {
	return dErrors.FromStore(err, dErrors.StoreMessages{NotFound: "certificate not found", Internal: msg})
}
