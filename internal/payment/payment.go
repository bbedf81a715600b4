package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Terminal session statuses as reported by the gateway callback.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusCancel  = "cancel"
	StatusError   = "error"
)

// Provider defines the interface for hosted payment session creation.
// Session outcomes flow back only through the gateway callback; a
// terminal session is never silently reattempted by the provider.
type Provider interface {
	// CreateSession opens a hosted payment session for an order and
	// returns the URL the customer is redirected to.
	CreateSession(ctx context.Context, params SessionParams) (*Session, error)
}

// SessionParams contains parameters for creating a payment session.
type SessionParams struct {
	OrderID       string
	OrderNumber   string
	Amount        decimal.Decimal
	Currency      string // defaults to SAR
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
}

// Session is a created hosted payment session.
type Session struct {
	SessionID   string
	RedirectURL string
	Gateway     string
}

// CallbackResult is a terminal status delivered by the gateway callback.
type CallbackResult struct {
	SessionID string
	OrderID   string
	Status    string
	Reference string
}

// IsTerminal reports whether a callback status ends the session.
func IsTerminal(status string) bool {
	return status == StatusSuccess || status == StatusCancel || status == StatusError
}
