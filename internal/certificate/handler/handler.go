package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"campus/internal/certificate/auditlog"
	"campus/internal/certificate/issuance"
	"campus/internal/certificate/models"
	"campus/internal/certificate/service"
	jwttoken "campus/internal/jwt_token"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/httputil"
	"campus/pkg/platform/middleware/auth"
	platformsync "campus/pkg/platform/sync"
	"campus/pkg/requestcontext"
)

// Service is the certificate application layer used by the handler.
type Service interface {
	Verify(ctx context.Context, certificateID string, client auditlog.Client) (models.VerifyResult, error)
	List(ctx context.Context, filter models.Filter) ([]models.Certificate, error)
	Get(ctx context.Context, id string) (*models.Certificate, error)
	Issue(ctx context.Context, draft issuance.Draft) (*models.Certificate, error)
	Revoke(ctx context.Context, id string) (*models.Certificate, error)
	Reinstate(ctx context.Context, id string) (*models.Certificate, error)
	ToggleVerified(ctx context.Context, id string) (*models.Certificate, error)
	Delete(ctx context.Context, id string) error
	Integrity(ctx context.Context, id string) (*service.IntegrityReport, error)
	VerificationLog(ctx context.Context, certificateID string) ([]auditlog.Attempt, error)
	VerificationAnalytics(ctx context.Context, certificateID string) (auditlog.Analytics, error)
}

// Engine is the auto-issuance entry point behind the trigger endpoints.
type Engine interface {
	IssueAttendance(ctx context.Context, studentID, courseID string, attendance float64) (*models.Certificate, error)
	IssueExam(ctx context.Context, studentID, examID string, score float64, grade string) (*models.Certificate, error)
	IssuePath(ctx context.Context, studentID, pathID string, completion float64) (*models.Certificate, error)
	IssueCourseCompletion(ctx context.Context, studentID, courseID, finalGrade string, finalScore float64) (*models.Certificate, error)
	HasExistingCertificate(ctx context.Context, studentID string, certType models.CertificateType, itemID string) (bool, error)
}

type Option func(*Handler)

type Handler struct {
	service   Service
	engine    Engine
	logger    *slog.Logger
	baseURL   string
	regulated bool
	issuing   *platformsync.ShardedMutex
}

func New(svc Service, engine Engine, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: svc, engine: engine, logger: logger, issuing: platformsync.NewShardedMutex()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithBaseURL sets the public origin used in verification URLs.
func WithBaseURL(baseURL string) Option {
	return func(h *Handler) {
		h.baseURL = baseURL
	}
}

// WithRegulatedMode omits student emails from public verification responses.
func WithRegulatedMode(enabled bool) Option {
	return func(h *Handler) {
		h.regulated = enabled
	}
}

// RegisterPublic mounts the unauthenticated verification routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{certificateID}", h.HandleVerify)
	r.Post("/verify", h.HandleVerifyBody)
}

// Register mounts the admin routes. The router must already require authentication.
func (h *Handler) Register(r chi.Router) {
	read := auth.RequirePermission(jwttoken.PermCertificatesRead, h.logger)
	write := auth.RequirePermission(jwttoken.PermCertificatesWrite, h.logger)

	r.Route("/certificates", func(r chi.Router) {
		r.With(read).Get("/", h.HandleList)
		r.With(write).Post("/", h.HandleIssue)

		r.Route("/triggers", func(r chi.Router) {
			r.Use(write)
			r.Post("/attendance", h.HandleAttendance)
			r.Post("/exam", h.HandleExam)
			r.Post("/learning-path", h.HandlePath)
			r.Post("/course-completion", h.HandleCourseCompletion)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.With(read).Get("/", h.HandleGet)
			r.With(read).Get("/integrity", h.HandleIntegrity)
			r.With(write).Delete("/", h.HandleDelete)
			r.With(write).Post("/revoke", h.HandleRevoke)
			r.With(write).Post("/reinstate", h.HandleReinstate)
			r.With(write).Post("/toggle-verified", h.HandleToggleVerified)
		})
	})

	r.Route("/verifications", func(r chi.Router) {
		r.Use(read)
		r.Get("/", h.HandleVerificationLog)
		r.Get("/{certificateID}/analytics", h.HandleVerificationAnalytics)
	})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, strings.TrimSpace(chi.URLParam(r, "certificateID")))
}

func (h *Handler) HandleVerifyBody(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}
	h.verify(w, r, req.CertificateID)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, certificateID string) {
	ctx := r.Context()
	if certificateID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "certificate_id is required"))
		return
	}
	result, err := h.service.Verify(ctx, certificateID, auditlog.ClientFromContext(ctx))
	if err != nil {
		h.fail(w, r, "certificate verification failed", err)
		return
	}
	resp := VerifyResponse{CertificateID: certificateID, Valid: result.Valid, Reason: result.Reason}
	if result.Certificate != nil {
		c := h.toResponse(*result.Certificate, true)
		resp.Certificate = &c
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	certs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "failed to list certificates", err)
		return
	}
	resp := ListResponse{Certificates: make([]CertificateResponse, 0, len(certs)), Total: len(certs)}
	for _, c := range certs {
		resp.Certificates = append(resp.Certificates, h.toResponse(c, false))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{StudentID: strings.TrimSpace(q.Get("student_id"))}
	if v := q.Get("type"); v != "" {
		t, err := models.ParseCertificateType(v)
		if err != nil {
			return models.Filter{}, err
		}
		filter.Type = t
	}
	if v := q.Get("status"); v != "" {
		s, err := models.ParseStatus(v)
		if err != nil {
			return models.Filter{}, err
		}
		filter.Status = s
	}
	return filter, nil
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger)
	if !ok {
		return
	}
	draft, err := req.Draft()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Issue(r.Context(), draft)
	if err != nil {
		h.fail(w, r, "failed to issue certificate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.toResponse(*c, false))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "failed to load certificate", h.service.Get)
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "failed to revoke certificate", h.service.Revoke)
}

func (h *Handler) HandleReinstate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "failed to reinstate certificate", h.service.Reinstate)
}

func (h *Handler) HandleToggleVerified(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "failed to toggle certificate verification", h.service.ToggleVerified)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, msg string, op func(context.Context, string) (*models.Certificate, error)) {
	c, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.toResponse(*c, false))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "failed to delete certificate", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleIntegrity(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Integrity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "failed to check certificate integrity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleVerificationLog(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.service.VerificationLog(r.Context(), strings.TrimSpace(r.URL.Query().Get("certificate_id")))
	if err != nil {
		h.fail(w, r, "failed to read verification log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"attempts": attempts, "total": len(attempts)})
}

func (h *Handler) HandleVerificationAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.service.VerificationAnalytics(r.Context(), chi.URLParam(r, "certificateID"))
	if err != nil {
		h.fail(w, r, "failed to compute verification analytics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, analytics)
}

func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[AttendanceRequest](w, r, h.logger)
	if !ok {
		return
	}
	h.trigger(w, r, req.SkipIfExists, req.StudentID, models.TypeAttendance, req.CourseID, func(ctx context.Context) (*models.Certificate, error) {
		return h.engine.IssueAttendance(ctx, req.StudentID, req.CourseID, req.AttendancePercentage)
	})
}

func (h *Handler) HandleExam(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ExamRequest](w, r, h.logger)
	if !ok {
		return
	}
	h.trigger(w, r, req.SkipIfExists, req.StudentID, models.TypeExam, req.ExamID, func(ctx context.Context) (*models.Certificate, error) {
		return h.engine.IssueExam(ctx, req.StudentID, req.ExamID, req.Score, req.Grade)
	})
}

func (h *Handler) HandlePath(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[PathRequest](w, r, h.logger)
	if !ok {
		return
	}
	h.trigger(w, r, req.SkipIfExists, req.StudentID, models.TypeLearningPath, req.PathID, func(ctx context.Context) (*models.Certificate, error) {
		return h.engine.IssuePath(ctx, req.StudentID, req.PathID, req.CompletionPercentage)
	})
}

func (h *Handler) HandleCourseCompletion(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[CourseCompletionRequest](w, r, h.logger)
	if !ok {
		return
	}
	h.trigger(w, r, req.SkipIfExists, req.StudentID, models.TypeCourseCompletion, req.CourseID, func(ctx context.Context) (*models.Certificate, error) {
		return h.engine.IssueCourseCompletion(ctx, req.StudentID, req.CourseID, req.FinalGrade, req.FinalScore)
	})
}

// trigger runs an issuance entry point, optionally after the
// existing-certificate check. With the check, concurrent triggers for the
// same student and item are serialized so only one of them issues.
func (h *Handler) trigger(w http.ResponseWriter, r *http.Request, skipIfExists bool, studentID string, certType models.CertificateType, itemID string, issue func(context.Context) (*models.Certificate, error)) {
	ctx := r.Context()
	var (
		c       *models.Certificate
		skipped string
		err     error
	)
	if skipIfExists {
		h.issuing.WithLock(platformsync.Key(studentID, string(certType), itemID), func() {
			var exists bool
			if exists, err = h.engine.HasExistingCertificate(ctx, studentID, certType, itemID); err != nil {
				err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing certificates")
				return
			}
			if exists {
				skipped = skippedExisting
				return
			}
			c, err = issue(ctx)
		})
	} else {
		c, err = issue(ctx)
	}
	if err != nil {
		h.fail(w, r, "certificate trigger failed", err)
		return
	}
	if skipped == "" && c == nil {
		skipped = skippedNotEligible
	}
	if skipped != "" {
		httputil.WriteJSON(w, http.StatusOK, IssuanceResponse{Skipped: skipped})
		return
	}
	resp := h.toResponse(*c, false)
	httputil.WriteJSON(w, http.StatusCreated, IssuanceResponse{Issued: true, Certificate: &resp})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
