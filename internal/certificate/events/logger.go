package events

import (
	"context"
	"log/slog"

	"campus/pkg/platform/privacy"
)

// LogSubscriber writes one structured line per event.
type LogSubscriber struct {
	logger *slog.Logger
}

func NewLogSubscriber(logger *slog.Logger) *LogSubscriber {
	return &LogSubscriber{logger: logger}
}

func (s *LogSubscriber) Name() string { return "log" }

func (s *LogSubscriber) Handle(ctx context.Context, e Event) error {
	c := e.Certificate
	s.logger.InfoContext(ctx, "certificate issued",
		"event_id", e.ID,
		"certificate_id", c.CertificateID,
		"type", c.Type,
		"student_id", c.StudentID,
		"student_email", privacy.MaskEmail(c.StudentEmail),
	)
	return nil
}
