package certificates

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	AdminDo(method, path string, body any) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	Save(name, value string)
	Saved(name string) string
}

// RegisterSteps registers certificate issuance and verification steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &certificateSteps{tc: tc}

	// Issuance steps
	ctx.Step(`^student "([^"]*)" attended course "([^"]*)" at (\d+(?:\.\d+)?) percent$`, steps.attendance)
	ctx.Step(`^student "([^"]*)" scored (\d+(?:\.\d+)?) on exam "([^"]*)"$`, steps.exam)
	ctx.Step(`^student "([^"]*)" completed course "([^"]*)" with grade "([^"]*)"$`, steps.courseCompletion)
	ctx.Step(`^I save the issued certificate$`, steps.saveIssued)

	// Verification steps
	ctx.Step(`^I verify the saved certificate$`, steps.verifySaved)
	ctx.Step(`^I verify certificate "([^"]*)"$`, steps.verify)
	ctx.Step(`^I verify the saved certificate by body with padding$`, steps.verifySavedByBody)

	// Admin steps
	ctx.Step(`^I revoke the saved certificate$`, steps.revokeSaved)
	ctx.Step(`^I reinstate the saved certificate$`, steps.reinstateSaved)
	ctx.Step(`^I request verification analytics for the saved certificate$`, steps.analytics)
}

type certificateSteps struct {
	tc TestContext
}

func (s *certificateSteps) attendance(ctx context.Context, studentID, courseID string, pct float64) error {
	return s.tc.AdminDo(http.MethodPost, "/admin/certificates/triggers/attendance", map[string]any{
		"student_id":            studentID,
		"course_id":             courseID,
		"attendance_percentage": pct,
	})
}

func (s *certificateSteps) exam(ctx context.Context, studentID string, score float64, examID string) error {
	return s.tc.AdminDo(http.MethodPost, "/admin/certificates/triggers/exam", map[string]any{
		"student_id": studentID,
		"exam_id":    examID,
		"score":      score,
	})
}

func (s *certificateSteps) courseCompletion(ctx context.Context, studentID, courseID, grade string) error {
	return s.tc.AdminDo(http.MethodPost, "/admin/certificates/triggers/course-completion", map[string]any{
		"student_id":  studentID,
		"course_id":   courseID,
		"final_grade": grade,
		"final_score": 90,
	})
}

func (s *certificateSteps) saveIssued(ctx context.Context) error {
	if status := s.tc.GetLastResponseStatus(); status != http.StatusCreated {
		return fmt.Errorf("expected an issued certificate, got status %d", status)
	}
	for _, field := range []string{"id", "certificate_id"} {
		v, err := s.tc.GetResponseField("certificate." + field)
		if err != nil {
			return err
		}
		s.tc.Save(field, fmt.Sprint(v))
	}
	return nil
}

func (s *certificateSteps) verifySaved(ctx context.Context) error {
	return s.verify(ctx, s.tc.Saved("certificate_id"))
}

func (s *certificateSteps) verify(ctx context.Context, certificateID string) error {
	return s.tc.GET("/verify/" + certificateID)
}

func (s *certificateSteps) verifySavedByBody(ctx context.Context) error {
	return s.tc.POST("/verify", map[string]any{"certificate_id": "  " + s.tc.Saved("certificate_id") + "  "})
}

func (s *certificateSteps) revokeSaved(ctx context.Context) error {
	return s.tc.AdminDo(http.MethodPost, "/admin/certificates/"+s.tc.Saved("id")+"/revoke", nil)
}

func (s *certificateSteps) reinstateSaved(ctx context.Context) error {
	return s.tc.AdminDo(http.MethodPost, "/admin/certificates/"+s.tc.Saved("id")+"/reinstate", nil)
}

func (s *certificateSteps) analytics(ctx context.Context) error {
	return s.tc.AdminDo(http.MethodGet, "/admin/verifications/"+s.tc.Saved("certificate_id")+"/analytics", nil)
}
