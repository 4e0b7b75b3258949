package models

import (
	"strings"
	"time"

	dErrors "campus/pkg/domain-errors"
)

// CertificateType names the achievement a certificate attests to.
type CertificateType string

const (
	TypeAttendance       CertificateType = "attendance"
	TypeExam             CertificateType = "exam"
	TypeLearningPath     CertificateType = "learning_path"
	TypeCourseCompletion CertificateType = "course_completion"
)

func ParseCertificateType(value string) (CertificateType, error) {
	switch t := CertificateType(strings.TrimSpace(value)); t {
	case TypeAttendance, TypeExam, TypeLearningPath, TypeCourseCompletion:
		return t, nil
	case "":
		return "", dErrors.New(dErrors.CodeValidation, "type is required")
	default:
		return "", dErrors.New(dErrors.CodeValidation, "type must be one of [attendance exam learning_path course_completion]")
	}
}

type Status string

const (
	StatusIssued  Status = "issued"
	StatusPending Status = "pending"
	StatusRevoked Status = "revoked"
)

func ParseStatus(value string) (Status, error) {
	switch s := Status(strings.TrimSpace(value)); s {
	case StatusIssued, StatusPending, StatusRevoked:
		return s, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of [issued pending revoked]")
	}
}

// DateLayout is the wire and fingerprint format of calendar dates.
const DateLayout = "2006-01-02"

// Certificate is an issued (or pending, or revoked) attestation.
//
// Exactly one of CourseID, ExamID and PathID is set, matching Type: attendance
// and course_completion use CourseID, exam uses ExamID, learning_path uses PathID.
// Hash is computed once at creation and never recomputed.
type Certificate struct {
	ID            string          `json:"id"`
	CertificateID string          `json:"certificate_id"`
	Type          CertificateType `json:"type"`

	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id,omitempty"`
	ExamID    string `json:"exam_id,omitempty"`
	PathID    string `json:"path_id,omitempty"`

	StudentName    string `json:"student_name"`
	StudentEmail   string `json:"student_email"`
	CourseName     string `json:"course_name"`
	InstructorName string `json:"instructor_name"`
	ExamTitle      string `json:"exam_title,omitempty"`
	PathName       string `json:"path_name,omitempty"`

	Grade string  `json:"grade"`
	Score float64 `json:"score"`

	AttendancePercentage     *float64 `json:"attendance_percentage,omitempty"`
	PathCompletionPercentage *float64 `json:"path_completion_percentage,omitempty"`

	Status     Status `json:"status"`
	IsVerified bool   `json:"is_verified"`
	Hash       string `json:"hash"`

	IssueDate      time.Time  `json:"issue_date"`
	CompletionDate time.Time  `json:"completion_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
}

// ItemID returns whichever of course, exam or path the certificate refers to.
func (c Certificate) ItemID() string {
	switch c.Type {
	case TypeExam:
		return c.ExamID
	case TypeLearningPath:
		return c.PathID
	default:
		return c.CourseID
	}
}

// RefersTo matches itemID against course, exam and path IDs alike.
func (c Certificate) RefersTo(itemID string) bool {
	return itemID != "" && (c.CourseID == itemID || c.ExamID == itemID || c.PathID == itemID)
}

// Verification reasons. These are business outcomes, not errors.
const (
	ReasonNotFound = "Certificate not found"
	ReasonRevoked  = "Certificate has been revoked"
)

// VerifyResult classifies a verification lookup. Certificate is a copy
// stamped with VerifiedAt and is only set when Valid.
type VerifyResult struct {
	Valid       bool
	Reason      string
	Certificate *Certificate
}

// Filter narrows certificate listings; zero fields match everything.
type Filter struct {
	Type      CertificateType
	Status    Status
	StudentID string
}

func (f Filter) Matches(c Certificate) bool {
	return (f.Type == "" || c.Type == f.Type) &&
		(f.Status == "" || c.Status == f.Status) &&
		(f.StudentID == "" || c.StudentID == f.StudentID)
}
