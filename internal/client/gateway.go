package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"campus-market-api/internal/apperr"
)

// Canonical transaction statuses every provider result is normalized to.
const (
	TxSuccessful = "successful"
	TxFailed     = "failed"
	TxPending    = "pending"
)

type ChargeRequest struct {
	Reference   string
	Amount      float64
	Currency    string
	Email       string
	Phone       string
	Name        string
	Description string
	CallbackURL string
	RedirectURL string
}

type ChargeResult struct {
	Accepted bool
	// Provider transaction handle assigned at charge time, when any.
	TransactionID string
	// Card flows: where to send the buyer. Mobile-money flows: empty,
	// the challenge happens on the payer's phone instead.
	PaymentURL string
	// Human-readable prompt for the buyer (STK push confirmation text).
	CustomerMessage string
	DeclineReason   string
}

type VerifyResult struct {
	Status        string // TxSuccessful | TxFailed | TxPending
	TransactionID string // provider's canonical id
	PaymentMethod string
	Amount        float64
	Currency      string
	ReceiptNumber string
	PaidAt        string
	PayerPhone    string
}

// CallbackNotification is the canonical tuple every provider-specific
// webhook payload is parsed into before reconciliation runs.
type CallbackNotification struct {
	TransactionID   string
	Reference       string
	Status          string // TxSuccessful | TxFailed | TxPending
	Description     string
	ReceiptNumber   string
	TransactionDate string
	PayerPhone      string
}

type PaymentGateway interface {
	Name() string
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
	Verify(ctx context.Context, transactionID string) (*VerifyResult, error)
	ParseCallback(body []byte) (*CallbackNotification, error)
}

// gatewayErr classifies a transport failure talking to a provider. A
// deadline hit maps to ErrGatewayTimeout so callers can tell a slow
// provider from an unreachable one.
func gatewayErr(provider string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %v", provider, apperr.ErrGatewayTimeout, err)
	}
	return fmt.Errorf("%s: %w: %v", provider, apperr.ErrGatewayUnavailable, err)
}
