package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/internal/certificate/models"
	"campus/pkg/platform/sentinel"
	"campus/pkg/testutil"
)

func newCertificate(certificateID string, certType models.CertificateType, studentID, itemID string) models.Certificate {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := models.Certificate{
		ID:            uuid.NewString(),
		CertificateID: certificateID,
		Type:          certType,
		StudentID:     studentID,
		StudentName:   "Jane Doe",
		StudentEmail:  "jane@example.com",
		CourseName:    "Go Fundamentals",
		Status:        models.StatusIssued,
		IssueDate:     now.Truncate(24 * time.Hour),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch certType {
	case models.TypeExam:
		c.ExamID = itemID
	case models.TypeLearningPath:
		c.PathID = itemID
	default:
		c.CourseID = itemID
	}
	c.CompletionDate = c.IssueDate
	return c
}

func TestInMemoryStore_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := newCertificate("CERT-2024-AAAAAAAA", models.TypeAttendance, "student-1", "course-1")

	require.NoError(t, s.Save(ctx, c))

	byID, err := s.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, byID)

	byCode, err := s.FindByCertificateID(ctx, "CERT-2024-AAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byCode.ID)

	_, err = s.FindByCertificateID(ctx, "cert-2024-aaaaaaaa")
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "lookup is case-sensitive")

	_, err = s.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_RejectsDuplicateCertificateID(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Save(ctx, newCertificate("CERT-2024-AAAAAAAA", models.TypeExam, "s1", "e1")))

	err := s.Save(ctx, newCertificate("CERT-2024-AAAAAAAA", models.TypeExam, "s2", "e2"))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryStore_ListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	first := newCertificate("CERT-2024-00000001", models.TypeAttendance, "s1", "c1")
	second := newCertificate("CERT-2024-00000002", models.TypeExam, "s1", "e1")
	third := newCertificate("CERT-2024-00000003", models.TypeAttendance, "s2", "c1")
	third.Status = models.StatusRevoked
	for _, c := range []models.Certificate{first, second, third} {
		require.NoError(t, s.Save(ctx, c))
	}

	all, err := s.List(ctx, models.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	attendance, err := s.List(ctx, models.Filter{Type: models.TypeAttendance, Status: models.StatusIssued})
	require.NoError(t, err)
	require.Len(t, attendance, 1)
	assert.Equal(t, first.ID, attendance[0].ID)

	forStudent, err := s.List(ctx, models.Filter{StudentID: "s1"})
	require.NoError(t, err)
	assert.Len(t, forStudent, 2)
}

func TestInMemoryStore_UpdateKeepsCertificateID(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := newCertificate("CERT-2024-AAAAAAAA", models.TypeAttendance, "s1", "c1")
	require.NoError(t, s.Save(ctx, c))

	c.Status = models.StatusRevoked
	c.CertificateID = "CERT-2024-BBBBBBBB"
	require.NoError(t, s.Update(ctx, c))

	got, err := s.FindByCertificateID(ctx, "CERT-2024-AAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevoked, got.Status)

	missing := newCertificate("CERT-2024-CCCCCCCC", models.TypeAttendance, "s1", "c1")
	assert.ErrorIs(t, s.Update(ctx, missing), sentinel.ErrNotFound)
}

func TestInMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	c := newCertificate("CERT-2024-AAAAAAAA", models.TypeAttendance, "s1", "c1")
	require.NoError(t, s.Save(ctx, c))

	require.NoError(t, s.Delete(ctx, c.ID))
	_, err := s.FindByCertificateID(ctx, c.CertificateID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, c.ID), sentinel.ErrNotFound)

	all, err := s.List(ctx, models.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInMemoryStore_Exists(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Save(ctx, newCertificate("CERT-2024-AAAAAAAA", models.TypeExam, "s1", "exam-1")))

	tests := []struct {
		name     string
		student  string
		certType models.CertificateType
		item     string
		want     bool
	}{
		{"matching exam", "s1", models.TypeExam, "exam-1", true},
		{"other student", "s2", models.TypeExam, "exam-1", false},
		{"other type", "s1", models.TypeAttendance, "exam-1", false},
		{"other item", "s1", models.TypeExam, "exam-2", false},
		{"empty item", "s1", models.TypeExam, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Exists(ctx, tt.student, tt.certType, tt.item)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInMemoryStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Now()

	res := testutil.RunConcurrent(50, func(int) error {
		return s.Save(ctx, newCertificate(models.NewCertificateID(now), models.TypeAttendance, "s1", "c1"))
	})
	assert.Equal(t, int32(50), res.Successes)

	all, err := s.List(ctx, models.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
