// Package issuance mints certificates when attendance, exam, learning path
// or course completion results cross the configured thresholds, and for
// manual administrator requests.
package issuance

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus/internal/certificate/events"
	"campus/internal/certificate/metrics"
	"campus/internal/certificate/models"
	"campus/internal/directory"
	"campus/internal/settings"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/sentinel"
	"campus/pkg/platform/tracer"
)

// Placeholders substituted for directory misses.
const (
	UnknownStudent      = "Unknown Student"
	UnknownEmail        = "unknown@example.com"
	UnknownCourse       = "Unknown Course"
	UnknownInstructor   = "Unknown Instructor"
	UnknownExam         = "Unknown Exam"
	UnknownLearningPath = "Unknown Learning Path"

	DefaultPlatformName = "EduPlatform"
	GradeCompleted      = "Completed"
)

const (
	originAuto   = "auto"
	originManual = "manual"
)

type Store interface {
	Save(ctx context.Context, certificate models.Certificate) error
	Exists(ctx context.Context, studentID string, certType models.CertificateType, itemID string) (bool, error)
}

type Directory interface {
	Student(ctx context.Context, id string) (directory.Student, error)
	Course(ctx context.Context, id string) (directory.Course, error)
	Exam(ctx context.Context, id string) (directory.Exam, error)
	Path(ctx context.Context, id string) (directory.Path, error)
}

type Settings interface {
	Certificate(ctx context.Context) (settings.CertificateSettings, error)
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type Option func(*Engine)

// Engine issues certificates. Issuance is not idempotent; callers that need
// one certificate per item check HasExistingCertificate first.
type Engine struct {
	store         Store
	directory     Directory
	settings      Settings
	publisher     Publisher
	fingerprinter models.Fingerprinter
	platformName  string
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        tracer.Tracer
}

func New(store Store, dir Directory, settings Settings, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		directory:     dir,
		settings:      settings,
		fingerprinter: models.ChecksumFingerprinter{},
		platformName:  DefaultPlatformName,
		logger:        slog.New(slog.DiscardHandler),
		tracer:        tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

func WithFingerprinter(f models.Fingerprinter) Option {
	return func(e *Engine) {
		if f != nil {
			e.fingerprinter = f
		}
	}
}

// WithPlatformName sets the instructor shown on learning path certificates.
func WithPlatformName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.platformName = name
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// IssueAttendance issues an attendance certificate when attendance meets the
// threshold. It returns nil when no certificate is due.
func (e *Engine) IssueAttendance(ctx context.Context, studentID, courseID string, attendance float64) (*models.Certificate, error) {
	if err := requireIDs(studentID, "course_id", courseID); err != nil {
		return nil, err
	}
	if err := requirePercentage("attendance_percentage", attendance); err != nil {
		return nil, err
	}
	rules := e.currentSettings(ctx)
	if !e.due(models.TypeAttendance, rules.AutoIssueAttendance, attendance, rules.AttendanceThreshold) {
		return nil, nil
	}

	c := models.Certificate{
		Type:                 models.TypeAttendance,
		StudentID:            studentID,
		CourseID:             courseID,
		Grade:                GradeCompleted,
		Score:                attendance,
		AttendancePercentage: &attendance,
		Status:               models.StatusIssued,
		IsVerified:           true,
	}
	e.resolveStudent(ctx, &c)
	e.resolveCourse(ctx, &c)
	return e.issueAuto(ctx, c)
}

// IssueExam issues an exam certificate when score meets the passing score.
func (e *Engine) IssueExam(ctx context.Context, studentID, examID string, score float64, grade string) (*models.Certificate, error) {
	if err := requireIDs(studentID, "exam_id", examID); err != nil {
		return nil, err
	}
	if err := requirePercentage("score", score); err != nil {
		return nil, err
	}
	rules := e.currentSettings(ctx)
	if !e.due(models.TypeExam, rules.AutoIssueExam, score, rules.ExamPassingScore) {
		return nil, nil
	}

	c := models.Certificate{
		Type:       models.TypeExam,
		StudentID:  studentID,
		ExamID:     examID,
		Grade:      strings.TrimSpace(grade),
		Score:      score,
		Status:     models.StatusIssued,
		IsVerified: true,
	}
	e.resolveStudent(ctx, &c)
	e.resolveExam(ctx, &c)
	return e.issueAuto(ctx, c)
}

// IssuePath issues a learning path certificate when completion meets the requirement.
func (e *Engine) IssuePath(ctx context.Context, studentID, pathID string, completion float64) (*models.Certificate, error) {
	if err := requireIDs(studentID, "path_id", pathID); err != nil {
		return nil, err
	}
	if err := requirePercentage("completion_percentage", completion); err != nil {
		return nil, err
	}
	rules := e.currentSettings(ctx)
	if !e.due(models.TypeLearningPath, rules.AutoIssuePath, completion, rules.PathCompletionRequired) {
		return nil, nil
	}

	c := models.Certificate{
		Type:                     models.TypeLearningPath,
		StudentID:                studentID,
		PathID:                   pathID,
		Grade:                    GradeCompleted,
		Score:                    completion,
		PathCompletionPercentage: &completion,
		Status:                   models.StatusIssued,
		IsVerified:               true,
	}
	e.resolveStudent(ctx, &c)
	e.resolvePath(ctx, &c)
	return e.issueAuto(ctx, c)
}

// IssueCourseCompletion always issues; completion is decided upstream.
func (e *Engine) IssueCourseCompletion(ctx context.Context, studentID, courseID, finalGrade string, finalScore float64) (*models.Certificate, error) {
	if err := requireIDs(studentID, "course_id", courseID); err != nil {
		return nil, err
	}
	if err := requirePercentage("final_score", finalScore); err != nil {
		return nil, err
	}

	c := models.Certificate{
		Type:       models.TypeCourseCompletion,
		StudentID:  studentID,
		CourseID:   courseID,
		Grade:      strings.TrimSpace(finalGrade),
		Score:      finalScore,
		Status:     models.StatusIssued,
		IsVerified: true,
	}
	e.resolveStudent(ctx, &c)
	e.resolveCourse(ctx, &c)
	return e.issueAuto(ctx, c)
}

// HasExistingCertificate reports whether studentID already holds a
// certificate of certType for itemID (a course, exam or path ID).
func (e *Engine) HasExistingCertificate(ctx context.Context, studentID string, certType models.CertificateType, itemID string) (bool, error) {
	exists, err := e.store.Exists(ctx, studentID, certType, itemID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing certificates")
	}
	return exists, nil
}

// Draft is an administrator's manual issuance request. Empty display fields
// are resolved through the directory.
type Draft struct {
	Type      models.CertificateType
	StudentID string
	ItemID    string

	StudentName    string
	StudentEmail   string
	CourseName     string
	InstructorName string
	ExamTitle      string
	PathName       string

	Grade          string
	Score          float64
	CompletionDate time.Time
	Status         models.Status
	IsVerified     bool
}

// Issue persists a manual certificate. Unlike auto-issuance, a persistence
// failure is returned to the caller.
func (e *Engine) Issue(ctx context.Context, d Draft) (*models.Certificate, error) {
	if _, err := models.ParseCertificateType(string(d.Type)); err != nil {
		return nil, err
	}
	if err := requireIDs(d.StudentID, "item_id", d.ItemID); err != nil {
		return nil, err
	}
	if err := requirePercentage("score", d.Score); err != nil {
		return nil, err
	}
	if d.Status == "" {
		d.Status = models.StatusIssued
	}
	if _, err := models.ParseStatus(string(d.Status)); err != nil {
		return nil, err
	}

	c := models.Certificate{
		Type:           d.Type,
		StudentID:      d.StudentID,
		StudentName:    d.StudentName,
		StudentEmail:   d.StudentEmail,
		CourseName:     d.CourseName,
		InstructorName: d.InstructorName,
		ExamTitle:      d.ExamTitle,
		PathName:       d.PathName,
		Grade:          strings.TrimSpace(d.Grade),
		Score:          d.Score,
		Status:         d.Status,
		IsVerified:     d.IsVerified,
	}
	if !d.CompletionDate.IsZero() {
		y, m, day := d.CompletionDate.UTC().Date()
		c.CompletionDate = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	e.resolveStudent(ctx, &c)
	switch d.Type {
	case models.TypeExam:
		c.ExamID = d.ItemID
		e.resolveExam(ctx, &c)
	case models.TypeLearningPath:
		c.PathID = d.ItemID
		e.resolvePath(ctx, &c)
	default:
		c.CourseID = d.ItemID
		e.resolveCourse(ctx, &c)
	}

	ctx, span := e.tracer.Start(ctx, tracer.SpanIssue, tracer.String(tracer.AttrCertificateType, string(c.Type)))
	c = e.finalize(ctx, c)
	span.SetAttributes(tracer.String(tracer.AttrCertificateID, c.CertificateID))

	if err := e.store.Save(ctx, c); err != nil {
		e.metrics.IncrementPersistFailure()
		span.End(err)
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "certificate ID already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save certificate")
	}
	span.SetAttributes(tracer.Bool(tracer.AttrIssued, true))
	span.End(nil)

	e.metrics.IncrementIssued(string(c.Type), originManual)
	e.logger.InfoContext(ctx, "certificate issued manually",
		"certificate_id", c.CertificateID,
		"type", c.Type,
		"student_id", c.StudentID,
	)
	e.publish(ctx, c)
	return &c, nil
}

func (e *Engine) issueAuto(ctx context.Context, c models.Certificate) (*models.Certificate, error) {
	ctx, span := e.tracer.Start(ctx, tracer.SpanIssue, tracer.String(tracer.AttrCertificateType, string(c.Type)))
	c = e.finalize(ctx, c)
	span.SetAttributes(
		tracer.String(tracer.AttrCertificateID, c.CertificateID),
		tracer.Bool(tracer.AttrIssued, true),
	)

	if err := e.store.Save(ctx, c); err != nil {
		e.metrics.IncrementPersistFailure()
		span.AddEvent(tracer.EventPersistFailed)
		span.End(nil)
		e.logger.ErrorContext(ctx, "failed to persist auto-issued certificate",
			"certificate_id", c.CertificateID,
			"type", c.Type,
			"student_id", c.StudentID,
			"error", err,
		)
		return &c, nil
	}
	span.End(nil)

	e.metrics.IncrementIssued(string(c.Type), originAuto)
	e.logger.InfoContext(ctx, "certificate auto-issued",
		"certificate_id", c.CertificateID,
		"type", c.Type,
		"student_id", c.StudentID,
		"score", c.Score,
	)
	e.publish(ctx, c)
	return &c, nil
}

// finalize assigns identity, dates and the integrity fingerprint.
func (e *Engine) finalize(ctx context.Context, c models.Certificate) models.Certificate {
	now := requesttime.Now(ctx).UTC()
	today := requesttime.Today(ctx)

	c.ID = uuid.NewString()
	c.CertificateID = models.NewCertificateID(now)
	c.IssueDate = today
	if c.CompletionDate.IsZero() {
		c.CompletionDate = today
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Hash = e.fingerprinter.Fingerprint(c)
	return c
}

func (e *Engine) publish(ctx context.Context, c models.Certificate) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, events.CertificateIssued(ctx, c)); err != nil {
		e.logger.WarnContext(ctx, "failed to publish certificate issued event",
			"certificate_id", c.CertificateID,
			"error", err,
		)
	}
}

func (e *Engine) currentSettings(ctx context.Context) settings.CertificateSettings {
	if e.settings == nil {
		return settings.DefaultCertificateSettings()
	}
	current, err := e.settings.Certificate(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to read certificate settings, using defaults", "error", err)
		return settings.DefaultCertificateSettings()
	}
	return current
}

func (e *Engine) due(certType models.CertificateType, enabled bool, metric, threshold float64) bool {
	switch {
	case !enabled:
		e.metrics.IncrementSkipped(string(certType), "disabled")
		return false
	case metric < threshold:
		e.metrics.IncrementSkipped(string(certType), "below_threshold")
		return false
	default:
		return true
	}
}

func (e *Engine) resolveStudent(ctx context.Context, c *models.Certificate) {
	student, err := e.directory.Student(ctx, c.StudentID)
	e.logLookupError(ctx, "student", c.StudentID, err)
	c.StudentName = first(c.StudentName, student.Name, UnknownStudent)
	c.StudentEmail = first(c.StudentEmail, student.Email, UnknownEmail)
}

func (e *Engine) resolveCourse(ctx context.Context, c *models.Certificate) {
	course, err := e.directory.Course(ctx, c.CourseID)
	e.logLookupError(ctx, "course", c.CourseID, err)
	c.CourseName = first(c.CourseName, course.Title, UnknownCourse)
	c.InstructorName = first(c.InstructorName, course.Instructor, UnknownInstructor)
}

func (e *Engine) resolveExam(ctx context.Context, c *models.Certificate) {
	exam, err := e.directory.Exam(ctx, c.ExamID)
	e.logLookupError(ctx, "exam", c.ExamID, err)
	c.ExamTitle = first(c.ExamTitle, exam.Title, UnknownExam)
	c.CourseName = first(c.CourseName, exam.Course, UnknownCourse)
	c.InstructorName = first(c.InstructorName, exam.Instructor, UnknownInstructor)
}

// resolvePath names the course after the path; the platform is the instructor.
func (e *Engine) resolvePath(ctx context.Context, c *models.Certificate) {
	path, err := e.directory.Path(ctx, c.PathID)
	e.logLookupError(ctx, "learning_path", c.PathID, err)
	c.PathName = first(c.PathName, path.Name, UnknownLearningPath)
	c.CourseName = first(c.CourseName, c.PathName)
	c.InstructorName = first(c.InstructorName, e.platformName)
}

func (e *Engine) logLookupError(ctx context.Context, kind, id string, err error) {
	if err == nil || errors.Is(err, sentinel.ErrNotFound) {
		return
	}
	e.logger.WarnContext(ctx, "directory lookup failed, using placeholder",
		"kind", kind,
		"id", id,
		"error", err,
	)
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func requireIDs(studentID, itemField, itemID string) error {
	if strings.TrimSpace(studentID) == "" {
		return dErrors.New(dErrors.CodeValidation, "student_id is required")
	}
	if strings.TrimSpace(itemID) == "" {
		return dErrors.New(dErrors.CodeValidation, itemField+" is required")
	}
	return nil
}

func requirePercentage(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return dErrors.New(dErrors.CodeValidation, field+" must be between 0 and 100")
	}
	return nil
}
