//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"campus/internal/certificate/models"
	"campus/internal/certificate/store"
	"campus/pkg/platform/sentinel"
	"campus/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "certificates"))
}

func (s *PostgresStoreSuite) certificate(certType models.CertificateType, studentID, itemID string) models.Certificate {
	now := time.Now().UTC().Truncate(time.Microsecond)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	attendance := 85.0
	c := models.Certificate{
		ID:                   uuid.NewString(),
		CertificateID:        models.NewCertificateID(now),
		Type:                 certType,
		StudentID:            studentID,
		StudentName:          "Jane Doe",
		StudentEmail:         "jane@example.com",
		CourseName:           "Go Fundamentals",
		InstructorName:       "Rob Pike",
		Grade:                "Completed",
		Score:                85,
		AttendancePercentage: &attendance,
		Status:               models.StatusIssued,
		IsVerified:           true,
		IssueDate:            today,
		CompletionDate:       today,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	switch certType {
	case models.TypeExam:
		c.ExamID = itemID
		c.ExamTitle = "Final Exam"
		c.AttendancePercentage = nil
	case models.TypeLearningPath:
		c.PathID = itemID
		c.PathName = "Backend Path"
		c.AttendancePercentage = nil
	default:
		c.CourseID = itemID
	}
	c.Hash = models.Checksum(c)
	return c
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	c := s.certificate(models.TypeAttendance, "student-1", "course-1")
	s.Require().NoError(s.store.Save(ctx, c))

	got, err := s.store.FindByCertificateID(ctx, c.CertificateID)
	s.Require().NoError(err)
	s.Equal(c.ID, got.ID)
	s.Equal(c.Hash, got.Hash)
	s.Equal("course-1", got.CourseID)
	s.Empty(got.ExamID)
	s.Require().NotNil(got.AttendancePercentage)
	s.InDelta(85.0, *got.AttendancePercentage, 0.0001)
	s.True(c.CompletionDate.Equal(got.CompletionDate))

	byID, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.CertificateID, byID.CertificateID)

	_, err = s.store.FindByCertificateID(ctx, "CERT-2024-ZZZZZZZZ")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateCertificateIDConflicts() {
	ctx := context.Background()
	first := s.certificate(models.TypeExam, "student-1", "exam-1")
	s.Require().NoError(s.store.Save(ctx, first))

	second := s.certificate(models.TypeExam, "student-2", "exam-2")
	second.CertificateID = first.CertificateID
	s.ErrorIs(s.store.Save(ctx, second), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	attendance := s.certificate(models.TypeAttendance, "student-1", "course-1")
	exam := s.certificate(models.TypeExam, "student-1", "exam-1")
	revoked := s.certificate(models.TypeLearningPath, "student-2", "path-1")
	revoked.Status = models.StatusRevoked
	for _, c := range []models.Certificate{attendance, exam, revoked} {
		s.Require().NoError(s.store.Save(ctx, c))
	}

	all, err := s.store.List(ctx, models.Filter{})
	s.Require().NoError(err)
	s.Len(all, 3)

	forStudent, err := s.store.List(ctx, models.Filter{StudentID: "student-1"})
	s.Require().NoError(err)
	s.Len(forStudent, 2)

	revokedOnly, err := s.store.List(ctx, models.Filter{Status: models.StatusRevoked, Type: models.TypeLearningPath})
	s.Require().NoError(err)
	s.Require().Len(revokedOnly, 1)
	s.Equal(revoked.ID, revokedOnly[0].ID)
	s.Equal("Backend Path", revokedOnly[0].PathName)
}

func (s *PostgresStoreSuite) TestUpdateAndDelete() {
	ctx := context.Background()
	c := s.certificate(models.TypeAttendance, "student-1", "course-1")
	s.Require().NoError(s.store.Save(ctx, c))

	c.Status = models.StatusRevoked
	c.IsVerified = false
	c.UpdatedAt = c.UpdatedAt.Add(time.Minute)
	s.Require().NoError(s.store.Update(ctx, c))

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, got.Status)
	s.False(got.IsVerified)
	s.Equal(c.Hash, got.Hash, "hash is never rewritten")

	s.Require().NoError(s.store.Delete(ctx, c.ID))
	s.ErrorIs(s.store.Delete(ctx, c.ID), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(ctx, c), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExistsMatchesAnyItemColumn() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.certificate(models.TypeExam, "student-1", "exam-1")))

	exists, err := s.store.Exists(ctx, "student-1", models.TypeExam, "exam-1")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.Exists(ctx, "student-1", models.TypeAttendance, "exam-1")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresStoreSuite) TestConcurrentSaves() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.Save(ctx, s.certificate(models.TypeAttendance, "student-1", "course-1"))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	all, err := s.store.List(ctx, models.Filter{StudentID: "student-1"})
	s.Require().NoError(err)
	s.Len(all, goroutines)
}
