// Package auditlog records certificate verification attempts in a bounded,
// append-only log and derives per-certificate analytics from it.
package auditlog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"campus/internal/certificate/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/device"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/privacy"
)

// Store appends attempts and evicts from the front beyond limit.
type Store interface {
	Append(ctx context.Context, attempt Attempt, limit int) error
	List(ctx context.Context) ([]Attempt, error)
}

type Option func(*Log)

// Log is the verification audit trail.
type Log struct {
	store     Store
	limit     int
	anonymize bool
	logger    *slog.Logger
}

func New(store Store, opts ...Option) *Log {
	l := &Log{store: store, limit: DefaultCap}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithCap overrides DefaultCap. Non-positive values are ignored.
func WithCap(limit int) Option {
	return func(l *Log) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithAnonymizedIPs truncates requester addresses before they are stored.
func WithAnonymizedIPs(enabled bool) Option {
	return func(l *Log) {
		l.anonymize = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// Record appends an attempt for certificateID classified by result.
func (l *Log) Record(ctx context.Context, certificateID string, result models.VerifyResult, client Client) (Attempt, error) {
	if l.store == nil {
		return Attempt{}, dErrors.New(dErrors.CodeInternal, "verification log store unavailable")
	}

	attempt := Attempt{
		ID:            uuid.NewString(),
		CertificateID: certificateID,
		Timestamp:     requesttime.Now(ctx).UTC(),
		Result:        ResultFailure,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		Client:        client.Descriptor,
	}
	if result.Valid {
		attempt.Result = ResultSuccess
	} else {
		reason := result.Reason
		attempt.Error = &reason
	}
	if attempt.Client == "" {
		attempt.Client = device.Describe(client.UserAgent)
	}
	if attempt.IPAddress == "" {
		attempt.IPAddress = "unknown"
	}
	if l.anonymize {
		attempt.IPAddress = privacy.AnonymizeIP(attempt.IPAddress)
	}

	if err := l.store.Append(ctx, attempt, l.limit); err != nil {
		return Attempt{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification attempt")
	}
	if l.logger != nil {
		l.logger.DebugContext(ctx, "verification attempt recorded",
			"certificate_id", certificateID,
			"result", attempt.Result,
		)
	}
	return attempt, nil
}

// Attempts returns the attempts for certificateID in log order. An empty
// certificateID returns the whole log.
func (l *Log) Attempts(ctx context.Context, certificateID string) ([]Attempt, error) {
	if l.store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "verification log store unavailable")
	}
	all, err := l.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read verification log")
	}
	if certificateID == "" {
		return all, nil
	}
	out := make([]Attempt, 0)
	for _, a := range all {
		if a.CertificateID == certificateID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Analytics derives totals for certificateID from the retained log.
func (l *Log) Analytics(ctx context.Context, certificateID string) (Analytics, error) {
	attempts, err := l.Attempts(ctx, certificateID)
	if err != nil {
		return Analytics{}, err
	}
	return Summarize(certificateID, attempts), nil
}

// Summarize computes analytics over attempts that all belong to certificateID.
func Summarize(certificateID string, attempts []Attempt) Analytics {
	a := Analytics{
		CertificateID: certificateID,
		Total:         len(attempts),
		ByDate:        make(map[string]int),
	}
	for _, attempt := range attempts {
		if attempt.Result == ResultSuccess {
			a.Successful++
		} else {
			a.Failed++
		}
		a.ByDate[attempt.Timestamp.UTC().Format(models.DateLayout)]++
	}
	if len(attempts) > 0 {
		first, last := attempts[0], attempts[len(attempts)-1]
		a.First, a.Last = &first, &last
	}
	return a
}
