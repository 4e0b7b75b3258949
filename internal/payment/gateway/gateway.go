// Package gateway charges payments. Simulated draws a random outcome after a
// delay; Midtrans opens a Snap transaction settled later by notification.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"campus/internal/payment/models"
)

// Gateway names, also used as metric labels.
const (
	NameSimulated = "simulated"
	NameMidtrans  = "midtrans"
)

type ChargeRequest struct {
	PaymentID   string
	UserID      string
	Email       string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// ChargeResult is the gateway's verdict. Status is completed, failed, or
// pending when settlement arrives later by notification.
type ChargeResult struct {
	Status        models.PaymentStatus
	Reference     string
	FailureReason string
	RedirectURL   string
}

// Gateway charges a payment. A declined charge is a failed ChargeResult,
// not an error; errors mean the gateway could not be reached.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
