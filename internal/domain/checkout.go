package domain

import (
	"context"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/shopspring/decimal"
)

// Checkout session steps. A session walks shipping -> payment -> review ->
// submitted; a failed or abandoned online payment returns it to review.
const (
	StepShipping  = "shipping"
	StepPayment   = "payment"
	StepReview    = "review"
	StepSubmitted = "submitted"
	StepCancelled = "cancelled"
)

var (
	ErrCheckoutNotFound   = &Error{Code: ENOTFOUND, Message: "Checkout session not found"}
	ErrCheckoutInFlight   = &Error{Code: ECONFLICT, Message: "Order submission already in progress"}
	ErrCarrierNotSelected = &Error{Code: EINVALID, Message: "A shipping carrier must be selected"}
)

// CheckoutService orchestrates the checkout flow: customer data capture,
// debounced carrier quoting, totals, order placement, and payment
// callback handling.
type CheckoutService interface {
	// GetSession returns the checkout session for a cart session,
	// creating it on first use.
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// UpdateCustomer merges customer/shipping fields into the session and
	// schedules a debounced quote refresh when the data is complete.
	UpdateCustomer(ctx context.Context, sessionID string, info CustomerInfo) (*CheckoutSession, error)

	// SetPaymentMethod records the chosen payment method and schedules a
	// quote refresh (COD and prepaid price differently).
	SetPaymentMethod(ctx context.Context, sessionID, method string) (*CheckoutSession, error)

	// SelectCarrier picks one of the fetched quotes for the order.
	SelectCarrier(ctx context.Context, sessionID, carrierID string) (*CheckoutSession, error)

	// Quotes returns the most recently fetched carrier quotes.
	Quotes(ctx context.Context, sessionID string) ([]carrier.Quote, error)

	// Totals computes the current money breakdown for the session.
	Totals(ctx context.Context, sessionID string) (*OrderTotal, error)

	// PlaceOrder validates the session and creates the order. COD orders
	// complete immediately; online orders return a payment redirect.
	PlaceOrder(ctx context.Context, params PlaceOrderParams) (*PlaceOrderResult, error)

	// HandlePaymentCallback ingests a terminal payment session status.
	HandlePaymentCallback(ctx context.Context, params PaymentCallbackParams) error
}

// CheckoutSession is the server-held state of one checkout in progress.
type CheckoutSession struct {
	SessionID string
	Step      string

	Customer      CustomerInfo
	PaymentMethod string

	SelectedCarrier *carrier.Quote
	LastQuotes      []carrier.Quote

	// OrderID is set once PlaceOrder creates the order. A payment retry
	// reuses it instead of creating a duplicate.
	OrderID     string
	OrderNumber string
}

// PlaceOrderParams carries an order submission. Customer and shipping
// fields are accepted from the request body and validated against the
// session-held state.
type PlaceOrderParams struct {
	SessionID      string
	Store          StoreContext
	Customer       CustomerInfo
	Shipping       SelectedShipping
	PaymentMethod  string
	IdempotencyKey string
}

// PlaceOrderResult is the outcome of a successful submission.
type PlaceOrderResult struct {
	OrderID     string
	OrderNumber string

	// RedirectURL is the hosted payment page for online methods, or the
	// confirmation path for COD.
	RedirectURL string

	// PaymentPending is true when the order awaits an online payment.
	PaymentPending bool

	Totals OrderTotal
}

// PaymentCallbackParams is a terminal gateway status for an order.
type PaymentCallbackParams struct {
	OrderID   string
	SessionID string
	Status    string
	Reference string
}

// QuoteRequestKey identifies one carrier quote request. Two checkout
// states with equal keys produce identical quotes, so an equal key
// suppresses a refetch.
type QuoteRequestKey struct {
	City          string
	ItemCount     int
	PaymentMethod string
	Subtotal      string
	VendorID      string
}

// NewQuoteRequestKey builds the key from checkout state.
func NewQuoteRequestKey(city string, itemCount int, paymentMethod string, subtotal decimal.Decimal, vendorID string) QuoteRequestKey {
	return QuoteRequestKey{
		City:          city,
		ItemCount:     itemCount,
		PaymentMethod: paymentMethod,
		Subtotal:      subtotal.StringFixed(2),
		VendorID:      vendorID,
	}
}
