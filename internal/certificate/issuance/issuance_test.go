package issuance_test

//go:generate mockgen -source=issuance.go -destination=mocks/mocks.go -package=mocks Store,Directory,Settings,Publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"campus/internal/certificate/events"
	"campus/internal/certificate/issuance"
	"campus/internal/certificate/issuance/mocks"
	"campus/internal/certificate/metrics"
	"campus/internal/certificate/models"
	"campus/internal/certificate/store"
	"campus/internal/certificate/verifier"
	"campus/internal/directory"
	"campus/internal/settings"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/sentinel"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

var seed = directory.Seed{
	Students: []directory.Student{{ID: "student-1", Name: "Jane Doe", Email: "jane@example.com"}},
	Courses:  []directory.Course{{ID: "course-1", Title: "Go Fundamentals", Instructor: "Rob Pike"}},
	Exams:    []directory.Exam{{ID: "exam-1", Title: "Go Final Exam", Course: "Go Fundamentals", Instructor: "Ken Thompson"}},
	LearningPaths: []directory.Path{
		{ID: "path-1", Name: "Backend Engineer"},
	},
}

type EngineSuite struct {
	suite.Suite
	store     *store.InMemoryStore
	settings  *settings.Service
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	engine    *issuance.Engine
	ctx       context.Context
	now       time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.settings = settings.NewService(settings.NewInMemoryStore(), settings.DefaultCertificateSettings(), settings.CommissionSettings{})
	s.publisher = &recordingPublisher{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.engine = issuance.New(s.store, directory.New(seed), s.settings,
		issuance.WithPublisher(s.publisher),
		issuance.WithMetrics(s.metrics),
	)
	s.now = time.Date(2024, 9, 2, 14, 30, 0, 0, time.UTC)
	s.ctx = requesttime.WithTime(context.Background(), s.now)
}

func (s *EngineSuite) today() time.Time {
	return time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
}

func (s *EngineSuite) TestAttendanceAtThresholdIssues() {
	cert, err := s.engine.IssueAttendance(s.ctx, "student-1", "course-1", 80)
	s.Require().NoError(err)
	s.Require().NotNil(cert)
	s.Equal(80.0, cert.Score)

	cert, err = s.engine.IssueAttendance(s.ctx, "student-1", "course-1", 79)
	s.Require().NoError(err)
	s.Nil(cert)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.IssuanceSkipped.WithLabelValues("attendance", "below_threshold")))
}

func (s *EngineSuite) TestAttendanceCertificateIsVerifiable() {
	cert, err := s.engine.IssueAttendance(s.ctx, "student-1", "course-1", 85)
	s.Require().NoError(err)
	s.Require().NotNil(cert)

	s.Equal(models.TypeAttendance, cert.Type)
	s.Equal(85.0, cert.Score)
	s.Require().NotNil(cert.AttendancePercentage)
	s.Equal(85.0, *cert.AttendancePercentage)
	s.Equal(models.StatusIssued, cert.Status)
	s.True(cert.IsVerified)
	s.Equal(issuance.GradeCompleted, cert.Grade)
	s.Equal("Jane Doe", cert.StudentName)
	s.Equal("jane@example.com", cert.StudentEmail)
	s.Equal("Go Fundamentals", cert.CourseName)
	s.Equal("Rob Pike", cert.InstructorName)
	s.Equal("course-1", cert.CourseID)
	s.Equal(s.today(), cert.IssueDate)
	s.Equal(s.today(), cert.CompletionDate)
	s.Equal(s.now, cert.CreatedAt)
	s.True(models.IsWellFormedCertificateID(cert.CertificateID))
	s.Contains(cert.CertificateID, "CERT-2024-")
	s.Equal(models.Checksum(*cert), cert.Hash)

	all, err := s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	result := verifier.Verify(cert.CertificateID, all, s.now)
	s.True(result.Valid)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(events.TypeCertificateIssued, s.publisher.events[0].Type)
	s.Equal(cert.CertificateID, s.publisher.events[0].Certificate.CertificateID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Issued.WithLabelValues("attendance", "auto")))
}

func (s *EngineSuite) TestExamUsesExamRecord() {
	cert, err := s.engine.IssueExam(s.ctx, "student-1", "exam-1", 70, "B")
	s.Require().NoError(err)
	s.Require().NotNil(cert)
	s.Equal("exam-1", cert.ExamID)
	s.Equal("Go Final Exam", cert.ExamTitle)
	s.Equal("Go Fundamentals", cert.CourseName)
	s.Equal("Ken Thompson", cert.InstructorName)
	s.Equal("B", cert.Grade)
	s.Nil(cert.AttendancePercentage)

	cert, err = s.engine.IssueExam(s.ctx, "student-1", "exam-1", 69.9, "C")
	s.Require().NoError(err)
	s.Nil(cert)
}

func (s *EngineSuite) TestPathUsesPathNameAndPlatform() {
	cert, err := s.engine.IssuePath(s.ctx, "student-1", "path-1", 100)
	s.Require().NoError(err)
	s.Require().NotNil(cert)
	s.Equal("Backend Engineer", cert.PathName)
	s.Equal("Backend Engineer", cert.CourseName)
	s.Equal(issuance.DefaultPlatformName, cert.InstructorName)
	s.Equal(issuance.GradeCompleted, cert.Grade)
	s.Require().NotNil(cert.PathCompletionPercentage)
	s.Equal(100.0, *cert.PathCompletionPercentage)

	cert, err = s.engine.IssuePath(s.ctx, "student-1", "path-1", 99)
	s.Require().NoError(err)
	s.Nil(cert)
}

func (s *EngineSuite) TestPlatformNameOption() {
	engine := issuance.New(s.store, directory.New(seed), s.settings, issuance.WithPlatformName("Campus Academy"))
	cert, err := engine.IssuePath(s.ctx, "student-1", "path-1", 100)
	s.Require().NoError(err)
	s.Equal("Campus Academy", cert.InstructorName)
}

func (s *EngineSuite) TestCourseCompletionIsUnconditional() {
	cert, err := s.engine.IssueCourseCompletion(s.ctx, "student-1", "course-1", "A", 12)
	s.Require().NoError(err)
	s.Require().NotNil(cert)
	s.Equal(models.TypeCourseCompletion, cert.Type)
	s.Equal("A", cert.Grade)
	s.Equal(12.0, cert.Score)
}

func (s *EngineSuite) TestDisabledTriggers() {
	rules := settings.DefaultCertificateSettings()
	rules.AutoIssueAttendance = false
	rules.AutoIssueExam = false
	rules.AutoIssuePath = false
	_, err := s.settings.UpdateCertificate(s.ctx, rules)
	s.Require().NoError(err)

	for name, issue := range map[string]func() (*models.Certificate, error){
		"attendance": func() (*models.Certificate, error) {
			return s.engine.IssueAttendance(s.ctx, "student-1", "course-1", 100)
		},
		"exam": func() (*models.Certificate, error) { return s.engine.IssueExam(s.ctx, "student-1", "exam-1", 100, "A") },
		"path": func() (*models.Certificate, error) { return s.engine.IssuePath(s.ctx, "student-1", "path-1", 100) },
	} {
		cert, err := issue()
		s.Require().NoError(err, name)
		s.Nil(cert, name)
	}
	s.Empty(s.publisher.events)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.IssuanceSkipped.WithLabelValues("exam", "disabled")))
}

func (s *EngineSuite) TestCustomThreshold() {
	rules := settings.DefaultCertificateSettings()
	rules.AttendanceThreshold = 60
	_, err := s.settings.UpdateCertificate(s.ctx, rules)
	s.Require().NoError(err)

	cert, err := s.engine.IssueAttendance(s.ctx, "student-1", "course-1", 65)
	s.Require().NoError(err)
	s.NotNil(cert)
}

func (s *EngineSuite) TestDirectoryMissesUsePlaceholders() {
	cert, err := s.engine.IssueAttendance(s.ctx, "ghost", "course-x", 90)
	s.Require().NoError(err)
	s.Equal(issuance.UnknownStudent, cert.StudentName)
	s.Equal(issuance.UnknownEmail, cert.StudentEmail)
	s.Equal(issuance.UnknownCourse, cert.CourseName)
	s.Equal(issuance.UnknownInstructor, cert.InstructorName)

	exam, err := s.engine.IssueExam(s.ctx, "ghost", "exam-x", 90, "A")
	s.Require().NoError(err)
	s.Equal(issuance.UnknownExam, exam.ExamTitle)

	path, err := s.engine.IssuePath(s.ctx, "ghost", "path-x", 100)
	s.Require().NoError(err)
	s.Equal(issuance.UnknownLearningPath, path.PathName)
	s.Equal(issuance.UnknownLearningPath, path.CourseName)
}

func (s *EngineSuite) TestInvalidInput() {
	tests := []struct {
		name  string
		issue func() (*models.Certificate, error)
	}{
		{"missing student", func() (*models.Certificate, error) { return s.engine.IssueAttendance(s.ctx, "", "course-1", 90) }},
		{"missing course", func() (*models.Certificate, error) { return s.engine.IssueAttendance(s.ctx, "student-1", " ", 90) }},
		{"attendance over 100", func() (*models.Certificate, error) {
			return s.engine.IssueAttendance(s.ctx, "student-1", "course-1", 101)
		}},
		{"negative score", func() (*models.Certificate, error) { return s.engine.IssueExam(s.ctx, "student-1", "exam-1", -1, "F") }},
		{"missing path", func() (*models.Certificate, error) { return s.engine.IssuePath(s.ctx, "student-1", "", 100) }},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			cert, err := tt.issue()
			s.Nil(cert)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *EngineSuite) TestHasExistingCertificate() {
	_, err := s.engine.IssueExam(s.ctx, "student-1", "exam-1", 95, "A")
	s.Require().NoError(err)

	exists, err := s.engine.HasExistingCertificate(s.ctx, "student-1", models.TypeExam, "exam-1")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.engine.HasExistingCertificate(s.ctx, "student-1", models.TypeAttendance, "exam-1")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *EngineSuite) TestIssuanceIsNotIdempotent() {
	first, err := s.engine.IssueAttendance(s.ctx, "student-1", "course-1", 90)
	s.Require().NoError(err)
	second, err := s.engine.IssueAttendance(s.ctx, "student-1", "course-1", 90)
	s.Require().NoError(err)
	s.NotEqual(first.CertificateID, second.CertificateID)
}

func (s *EngineSuite) TestManualIssueDefaults() {
	cert, err := s.engine.Issue(s.ctx, issuance.Draft{
		Type:      models.TypeCourseCompletion,
		StudentID: "student-1",
		ItemID:    "course-1",
		Grade:     "A-",
		Score:     91,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusIssued, cert.Status)
	s.False(cert.IsVerified)
	s.Equal("Go Fundamentals", cert.CourseName)
	s.Equal(s.today(), cert.CompletionDate)

	stored, err := s.store.FindByCertificateID(s.ctx, cert.CertificateID)
	s.Require().NoError(err)
	s.Equal(cert.ID, stored.ID)
	s.Len(s.publisher.events, 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Issued.WithLabelValues("course_completion", "manual")))
}

func (s *EngineSuite) TestManualIssueOverrides() {
	completed := time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC)
	cert, err := s.engine.Issue(s.ctx, issuance.Draft{
		Type:           models.TypeExam,
		StudentID:      "student-1",
		ItemID:         "exam-1",
		StudentName:    "Jane Q. Doe",
		ExamTitle:      "Retake",
		Grade:          "A",
		Score:          88,
		CompletionDate: completed,
		Status:         models.StatusPending,
		IsVerified:     true,
	})
	s.Require().NoError(err)
	s.Equal("Jane Q. Doe", cert.StudentName)
	s.Equal("jane@example.com", cert.StudentEmail)
	s.Equal("Retake", cert.ExamTitle)
	s.Equal(models.StatusPending, cert.Status)
	s.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), cert.CompletionDate)
	s.Equal(s.today(), cert.IssueDate)
}

func (s *EngineSuite) TestManualIssueValidation() {
	_, err := s.engine.Issue(s.ctx, issuance.Draft{Type: "diploma", StudentID: "student-1", ItemID: "course-1"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.engine.Issue(s.ctx, issuance.Draft{Type: models.TypeExam, StudentID: "student-1", ItemID: "exam-1", Status: "archived"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestPersistFailureReturnsCertificateWithoutEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	pub := mocks.NewMockPublisher(ctrl)
	m := metrics.New(prometheus.NewRegistry())

	st.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	engine := issuance.New(st, directory.New(seed), nil, issuance.WithPublisher(pub), issuance.WithMetrics(m))
	cert, err := engine.IssueAttendance(context.Background(), "student-1", "course-1", 95)

	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, "Jane Doe", cert.StudentName)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
	assert.Zero(t, testutil.ToFloat64(m.Issued.WithLabelValues("attendance", "auto")), "unpersisted certificates are not counted as issued")
}

func TestManualIssuePersistFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	gomock.InOrder(
		st.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
		st.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")),
	)
	engine := issuance.New(st, directory.New(seed), nil)
	draft := issuance.Draft{Type: models.TypeAttendance, StudentID: "student-1", ItemID: "course-1"}

	_, err := engine.Issue(context.Background(), draft)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = engine.Issue(context.Background(), draft)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestSettingsFailureFallsBackToDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := mocks.NewMockSettings(ctrl)
	cfg.EXPECT().Certificate(gomock.Any()).Return(settings.CertificateSettings{}, errors.New("redis timeout")).Times(2)

	engine := issuance.New(store.NewInMemoryStore(), directory.New(seed), cfg)

	cert, err := engine.IssueAttendance(context.Background(), "student-1", "course-1", 80)
	require.NoError(t, err)
	assert.NotNil(t, cert, "default threshold 80 should issue")

	cert, err = engine.IssueAttendance(context.Background(), "student-1", "course-1", 79)
	require.NoError(t, err)
	assert.Nil(t, cert)
}

func TestDirectoryErrorsUsePlaceholders(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockDirectory(ctrl)
	dir.EXPECT().Student(gomock.Any(), "student-1").Return(directory.Student{}, errors.New("timeout"))
	dir.EXPECT().Exam(gomock.Any(), "exam-1").Return(directory.Exam{Title: "Midterm"}, nil)

	engine := issuance.New(store.NewInMemoryStore(), dir, nil)
	cert, err := engine.IssueExam(context.Background(), "student-1", "exam-1", 90, "A")
	require.NoError(t, err)
	assert.Equal(t, issuance.UnknownStudent, cert.StudentName)
	assert.Equal(t, "Midterm", cert.ExamTitle)
	assert.Equal(t, issuance.UnknownCourse, cert.CourseName)
}

func TestBlake2bFingerprinter(t *testing.T) {
	fp, err := models.NewBlake2bFingerprinter([]byte("integrity-key"))
	require.NoError(t, err)

	engine := issuance.New(store.NewInMemoryStore(), directory.New(seed), nil, issuance.WithFingerprinter(fp))
	cert, err := engine.IssueAttendance(context.Background(), "student-1", "course-1", 90)
	require.NoError(t, err)
	assert.Equal(t, fp.Fingerprint(*cert), cert.Hash)
	assert.Equal(t, models.IntegrityIntact, models.CheckIntegrity(*cert, fp))
}
