package events

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"campus/internal/certificate/models"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"

	// placeholderEmail is what issuance records when the directory has no address.
	placeholderEmail = "unknown@example.com"
)

// SendFunc performs a SendGrid API request. sendgrid.API in production.
type SendFunc func(request rest.Request) (*rest.Response, error)

type EmailOption func(*EmailSubscriber)

// WithSendFunc replaces the HTTP call to SendGrid.
func WithSendFunc(send SendFunc) EmailOption {
	return func(s *EmailSubscriber) {
		s.send = send
	}
}

// EmailSubscriber tells the student their certificate is ready.
type EmailSubscriber struct {
	apiKey        string
	from          *sgmail.Email
	verifyBaseURL string
	send          SendFunc
}

func NewEmailSubscriber(apiKey, fromName, fromAddress, verifyBaseURL string, opts ...EmailOption) *EmailSubscriber {
	s := &EmailSubscriber{
		apiKey:        apiKey,
		from:          sgmail.NewEmail(fromName, fromAddress),
		verifyBaseURL: verifyBaseURL,
		send:          sendgrid.API,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EmailSubscriber) Name() string { return "email" }

func (s *EmailSubscriber) Handle(ctx context.Context, e Event) error {
	if e.Type != TypeCertificateIssued {
		return nil
	}
	c := e.Certificate
	if c.StudentEmail == "" || c.StudentEmail == placeholderEmail {
		return nil
	}

	req := sendgrid.GetRequest(s.apiKey, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.message(c))

	res, err := s.send(req)
	if err != nil {
		return fmt.Errorf("send certificate email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send certificate email: sendgrid status %d", res.StatusCode)
	}
	return nil
}

func (s *EmailSubscriber) message(c models.Certificate) *sgmail.SGMailV3 {
	link := models.VerificationURL(s.verifyBaseURL, c.CertificateID)
	subject := "Your certificate for " + c.CourseName

	text := fmt.Sprintf(
		"Hi %s,\n\nYour certificate for %s has been issued.\nCertificate ID: %s\nVerify it at: %s\n",
		c.StudentName, c.CourseName, c.CertificateID, link,
	)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your certificate for <strong>%s</strong> has been issued.</p>"+
			"<p>Certificate ID: <code>%s</code></p><p><a href=\"%s\">Verify your certificate</a></p>",
		html.EscapeString(c.StudentName), html.EscapeString(c.CourseName),
		html.EscapeString(c.CertificateID), html.EscapeString(link),
	)

	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail(c.StudentName, c.StudentEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", text),
		sgmail.NewContent("text/html", body),
	)
	return m
}
