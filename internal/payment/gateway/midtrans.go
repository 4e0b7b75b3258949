package gateway

import (
	"cmp"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"campus/internal/payment/models"
)

// SnapClient is the part of snap.Client the gateway uses.
type SnapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// NewSnapClient returns a Snap client for the "production" or "sandbox"
// environment.
func NewSnapClient(serverKey, environment string) *snap.Client {
	env := midtrans.Sandbox
	if strings.EqualFold(environment, "production") {
		env = midtrans.Production
	}
	var c snap.Client
	c.New(serverKey, env)
	return &c
}

// Midtrans opens Snap transactions. Payments stay pending until a verified
// notification settles them.
type Midtrans struct {
	client    SnapClient
	serverKey string
}

func NewMidtrans(client SnapClient, serverKey string) *Midtrans {
	return &Midtrans{client: client, serverKey: serverKey}
}

func (m *Midtrans) Name() string { return NameMidtrans }

// Charge creates the Snap transaction with the payment ID as order ID.
// Midtrans amounts are whole units, so fractional amounts are rounded up.
func (m *Midtrans) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}
	gross := req.Amount.Ceil().IntPart()
	if gross <= 0 {
		return ChargeResult{}, errors.New("midtrans: amount must be positive")
	}
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.PaymentID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: req.Email,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.PaymentID,
			Name:  truncate(cmp.Or(req.Description, "Payment"), 50),
			Price: gross,
			Qty:   1,
		}},
	}
	resp, merr := m.client.CreateTransaction(snapReq)
	if merr != nil {
		return ChargeResult{}, fmt.Errorf("midtrans: create transaction (status %d): %s", merr.GetStatusCode(), merr.GetMessage())
	}
	return ChargeResult{
		Status:      models.PaymentPending,
		Reference:   resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// Notification is the HTTP notification Midtrans posts on status changes.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

// VerifySignature checks signature_key against
// SHA-512(order_id + status_code + gross_amount + server key).
func (m *Midtrans) VerifySignature(n Notification) bool {
	return VerifySignature(n, m.serverKey)
}

func VerifySignature(n Notification, serverKey string) bool {
	if serverKey == "" || n.SignatureKey == "" {
		return false
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SignatureKey))) == 1
}

// Signature is the hex SHA-512 digest Midtrans signs notifications with.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// Outcome maps a notification onto a final payment status. settled is false
// while the transaction is still open or under fraud review.
func (n Notification) Outcome() (status models.PaymentStatus, reason string, settled bool) {
	switch strings.ToLower(n.TransactionStatus) {
	case "settlement":
		return models.PaymentCompleted, "", true
	case "capture":
		switch strings.ToLower(n.FraudStatus) {
		case "", "accept":
			return models.PaymentCompleted, "", true
		case "challenge":
			return "", "", false
		}
		return models.PaymentFailed, "Payment rejected by fraud screening", true
	case "deny":
		return models.PaymentFailed, "Payment denied", true
	case "cancel":
		return models.PaymentFailed, "Payment cancelled", true
	case "expire":
		return models.PaymentFailed, "Payment expired", true
	case "failure":
		return models.PaymentFailed, "Payment failed", true
	}
	return "", "", false
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
