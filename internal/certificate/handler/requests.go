package handler

import (
	"strings"
	"time"

	"campus/internal/certificate/issuance"
	"campus/internal/certificate/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/validation"
)

type VerifyRequest struct {
	CertificateID string `json:"certificate_id" validate:"notblank,max=64"`
}

func (r *VerifyRequest) Normalize() {
	r.CertificateID = strings.TrimSpace(r.CertificateID)
}

func (r *VerifyRequest) Validate() error {
	return validation.Validate(r)
}

type AttendanceRequest struct {
	StudentID            string  `json:"student_id" validate:"notblank"`
	CourseID             string  `json:"course_id" validate:"notblank"`
	AttendancePercentage float64 `json:"attendance_percentage" validate:"gte=0,lte=100"`
	SkipIfExists         bool    `json:"skip_if_exists"`
}

func (r *AttendanceRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.CourseID = strings.TrimSpace(r.CourseID)
}

func (r *AttendanceRequest) Validate() error { return validation.Validate(r) }

type ExamRequest struct {
	StudentID    string  `json:"student_id" validate:"notblank"`
	ExamID       string  `json:"exam_id" validate:"notblank"`
	Score        float64 `json:"score" validate:"gte=0,lte=100"`
	Grade        string  `json:"grade" validate:"max=16"`
	SkipIfExists bool    `json:"skip_if_exists"`
}

func (r *ExamRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.ExamID = strings.TrimSpace(r.ExamID)
	r.Grade = strings.TrimSpace(r.Grade)
}

func (r *ExamRequest) Validate() error { return validation.Validate(r) }

type PathRequest struct {
	StudentID            string  `json:"student_id" validate:"notblank"`
	PathID               string  `json:"path_id" validate:"notblank"`
	CompletionPercentage float64 `json:"completion_percentage" validate:"gte=0,lte=100"`
	SkipIfExists         bool    `json:"skip_if_exists"`
}

func (r *PathRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.PathID = strings.TrimSpace(r.PathID)
}

func (r *PathRequest) Validate() error { return validation.Validate(r) }

type CourseCompletionRequest struct {
	StudentID    string  `json:"student_id" validate:"notblank"`
	CourseID     string  `json:"course_id" validate:"notblank"`
	FinalGrade   string  `json:"final_grade" validate:"max=16"`
	FinalScore   float64 `json:"final_score" validate:"gte=0,lte=100"`
	SkipIfExists bool    `json:"skip_if_exists"`
}

func (r *CourseCompletionRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.CourseID = strings.TrimSpace(r.CourseID)
	r.FinalGrade = strings.TrimSpace(r.FinalGrade)
}

func (r *CourseCompletionRequest) Validate() error { return validation.Validate(r) }

// IssueRequest is a manual issuance. Display fields left empty are looked
// up in the directory.
type IssueRequest struct {
	Type           models.CertificateType `json:"type" validate:"required,oneof=attendance exam learning_path course_completion"`
	StudentID      string                 `json:"student_id" validate:"notblank"`
	ItemID         string                 `json:"item_id" validate:"notblank"`
	StudentName    string                 `json:"student_name" validate:"max=200"`
	StudentEmail   string                 `json:"student_email" validate:"omitempty,email"`
	CourseName     string                 `json:"course_name" validate:"max=200"`
	InstructorName string                 `json:"instructor_name" validate:"max=200"`
	ExamTitle      string                 `json:"exam_title" validate:"max=200"`
	PathName       string                 `json:"path_name" validate:"max=200"`
	Grade          string                 `json:"grade" validate:"max=16"`
	Score          float64                `json:"score" validate:"gte=0,lte=100"`
	CompletionDate string                 `json:"completion_date" validate:"omitempty,datetime=2006-01-02"`
	Status         models.Status          `json:"status" validate:"omitempty,oneof=issued pending revoked"`
	IsVerified     bool                   `json:"is_verified"`
}

func (r *IssueRequest) Sanitize() {
	for _, f := range []*string{&r.StudentID, &r.ItemID, &r.StudentName, &r.StudentEmail,
		&r.CourseName, &r.InstructorName, &r.ExamTitle, &r.PathName, &r.Grade, &r.CompletionDate} {
		*f = strings.TrimSpace(*f)
	}
}

func (r *IssueRequest) Validate() error { return validation.Validate(r) }

func (r *IssueRequest) Draft() (issuance.Draft, error) {
	d := issuance.Draft{
		Type:           r.Type,
		StudentID:      r.StudentID,
		ItemID:         r.ItemID,
		StudentName:    r.StudentName,
		StudentEmail:   r.StudentEmail,
		CourseName:     r.CourseName,
		InstructorName: r.InstructorName,
		ExamTitle:      r.ExamTitle,
		PathName:       r.PathName,
		Grade:          r.Grade,
		Score:          r.Score,
		Status:         r.Status,
		IsVerified:     r.IsVerified,
	}
	if r.CompletionDate != "" {
		date, err := time.Parse(models.DateLayout, r.CompletionDate)
		if err != nil {
			return issuance.Draft{}, dErrors.New(dErrors.CodeValidation, "completion_date must be a date in format 2006-01-02")
		}
		d.CompletionDate = date
	}
	return d, nil
}
