package auditlog

import (
	"context"
	"time"

	"campus/pkg/requestcontext"
)

// DefaultCap bounds the verification log; older attempts are evicted first.
const DefaultCap = 1000

type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Attempt is one verification lookup. Attempts are append-only.
type Attempt struct {
	ID            string    `json:"id"`
	CertificateID string    `json:"certificate_id"`
	Timestamp     time.Time `json:"timestamp"`
	Result        Result    `json:"result"`
	Error         *string   `json:"error"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	Client        string    `json:"client"`
}

// Client describes who asked for a verification.
// Descriptor is the display form of UserAgent when the device middleware
// already computed it.
type Client struct {
	IPAddress  string
	UserAgent  string
	Descriptor string
}

// ClientFromContext reads the caller metadata the HTTP middleware stored.
func ClientFromContext(ctx context.Context) Client {
	return Client{
		IPAddress:  requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
		Descriptor: requestcontext.ClientDescriptor(ctx),
	}
}

// Analytics summarises the attempts recorded for one certificate ID.
// First and Last follow log order, not timestamps.
type Analytics struct {
	CertificateID string         `json:"certificate_id"`
	Total         int            `json:"total"`
	Successful    int            `json:"successful"`
	Failed        int            `json:"failed"`
	ByDate        map[string]int `json:"by_date"`
	First         *Attempt       `json:"first,omitempty"`
	Last          *Attempt       `json:"last,omitempty"`
}
