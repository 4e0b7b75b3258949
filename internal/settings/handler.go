package settings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	jwttoken "campus/internal/jwt_token"
	"campus/pkg/platform/httputil"
	"campus/pkg/platform/middleware/auth"
	"campus/pkg/requestcontext"
)

// Settings is the behaviour the handler needs from Service.
type Settings interface {
	Certificate(ctx context.Context) (CertificateSettings, error)
	UpdateCertificate(ctx context.Context, next CertificateSettings) (CertificateSettings, error)
	Commission(ctx context.Context) (CommissionSettings, error)
	UpdateCommission(ctx context.Context, next CommissionSettings) (CommissionSettings, error)
}

type Handler struct {
	service Settings
	logger  *slog.Logger
}

func NewHandler(service Settings, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the settings routes. The router must already require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.With(auth.RequirePermission(jwttoken.PermCertificatesRead, h.logger)).Get("/certificates", h.HandleGetCertificate)
		r.With(auth.RequirePermission(jwttoken.PermSettingsWrite, h.logger)).Put("/certificates", h.HandleUpdateCertificate)
		r.With(auth.RequirePermission(jwttoken.PermPaymentsRead, h.logger)).Get("/commission", h.HandleGetCommission)
		r.With(auth.RequirePermission(jwttoken.PermSettingsWrite, h.logger)).Put("/commission", h.HandleUpdateCommission)
	})
}

// CertificateSettingsRequest is a partial update; omitted fields keep their value.
type CertificateSettingsRequest struct {
	AutoIssueAttendance    *bool    `json:"auto_issue_attendance"`
	AutoIssueExam          *bool    `json:"auto_issue_exam"`
	AutoIssuePath          *bool    `json:"auto_issue_path"`
	AttendanceThreshold    *float64 `json:"attendance_threshold"`
	ExamPassingScore       *float64 `json:"exam_passing_score"`
	PathCompletionRequired *float64 `json:"path_completion_required"`
}

func (r *CertificateSettingsRequest) apply(s CertificateSettings) CertificateSettings {
	set(&s.AutoIssueAttendance, r.AutoIssueAttendance)
	set(&s.AutoIssueExam, r.AutoIssueExam)
	set(&s.AutoIssuePath, r.AutoIssuePath)
	set(&s.AttendanceThreshold, r.AttendanceThreshold)
	set(&s.ExamPassingScore, r.ExamPassingScore)
	set(&s.PathCompletionRequired, r.PathCompletionRequired)
	return s
}

// CommissionSettingsRequest is a partial update; omitted fields keep their value.
type CommissionSettingsRequest struct {
	DefaultRate     *decimal.Decimal `json:"default_rate"`
	MinimumPayout   *decimal.Decimal `json:"minimum_payout"`
	PaymentSchedule *Schedule        `json:"payment_schedule"`
	PaymentMethod   *PaymentMethod   `json:"payment_method"`
	TaxHandling     *TaxHandling     `json:"tax_handling"`
}

func (r *CommissionSettingsRequest) apply(s CommissionSettings) CommissionSettings {
	set(&s.DefaultRate, r.DefaultRate)
	set(&s.MinimumPayout, r.MinimumPayout)
	set(&s.PaymentSchedule, r.PaymentSchedule)
	set(&s.PaymentMethod, r.PaymentMethod)
	set(&s.TaxHandling, r.TaxHandling)
	return s
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Certificate(r.Context())
	if err != nil {
		h.fail(w, r, "failed to read certificate settings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, current)
}

func (h *Handler) HandleUpdateCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CertificateSettingsRequest](w, r, h.logger)
	if !ok {
		return
	}
	current, err := h.service.Certificate(ctx)
	if err != nil {
		h.fail(w, r, "failed to read certificate settings", err)
		return
	}
	updated, err := h.service.UpdateCertificate(ctx, req.apply(current))
	if err != nil {
		h.fail(w, r, "failed to update certificate settings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleGetCommission(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Commission(r.Context())
	if err != nil {
		h.fail(w, r, "failed to read commission settings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, current)
}

func (h *Handler) HandleUpdateCommission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CommissionSettingsRequest](w, r, h.logger)
	if !ok {
		return
	}
	current, err := h.service.Commission(ctx)
	if err != nil {
		h.fail(w, r, "failed to read commission settings", err)
		return
	}
	updated, err := h.service.UpdateCommission(ctx, req.apply(current))
	if err != nil {
		h.fail(w, r, "failed to update commission settings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
