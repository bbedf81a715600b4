package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORDER DOMAIN ERRORS
// =============================================================================

var (
	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}
)

// Payment methods accepted at checkout. Values are the wire constants the
// storefront submits.
const (
	PaymentMethodCOD    = "CASH_ON_DELIVERY"
	PaymentMethodCard   = "CREDIT_CARD"
	PaymentMethodTamara = "TAMARA"
)

// PaymentTypeForMethod maps a payment method to the carrier payment type
// used when quoting ("cod" or "prepaid").
func PaymentTypeForMethod(method string) string {
	if method == PaymentMethodCOD {
		return "cod"
	}
	return "prepaid"
}

// IsOnlinePayment reports whether the method requires a payment session.
func IsOnlinePayment(method string) bool {
	return method == PaymentMethodCard || method == PaymentMethodTamara
}

// Order payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusFailed    = "failed"
	PaymentStatusCOD       = "cod" // collected on delivery
)

// Order shipment statuses.
const (
	ShipmentStatusPending = "pending"
	ShipmentStatusCreated = "created"
	ShipmentStatusFailed  = "failed"
)

// CustomerInfo is the shipping recipient captured at checkout.
type CustomerInfo struct {
	Name                string
	Phone               string
	Email               string
	City                string
	Street              string
	NationalAddressCode string
}

// Complete reports whether every required field is filled. Quote fetching
// and order placement are gated on this.
func (c CustomerInfo) Complete() bool {
	return c.Name != "" && c.Phone != "" && c.City != "" &&
		c.Street != "" && c.NationalAddressCode != ""
}

// MissingFields lists the required fields that are empty, for field-level
// validation errors.
func (c CustomerInfo) MissingFields() []string {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Phone == "" {
		missing = append(missing, "phone")
	}
	if c.City == "" {
		missing = append(missing, "city")
	}
	if c.Street == "" {
		missing = append(missing, "street")
	}
	if c.NationalAddressCode == "" {
		missing = append(missing, "national_address_code")
	}
	return missing
}

// SelectedShipping is the carrier option the customer chose.
type SelectedShipping struct {
	ProviderID   string
	ProviderName string
	ProviderCode string
	CostSAR      decimal.Decimal
}

// OrderTotal is the money breakdown of an order.
type OrderTotal struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Order is the durable record of a placed order.
type Order struct {
	ID               string
	OrderNumber      string
	ShopID           string
	VendorID         string
	AffiliateStoreID string

	Customer CustomerInfo

	PaymentMethod    string
	PaymentStatus    string
	PaymentSessionID string

	CarrierID      string
	CarrierName    string
	CarrierCode    string
	AWBNumber      string
	ShipmentStatus string

	Totals OrderTotal
	Items  []OrderItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is an immutable order line.
type OrderItem struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// OrderService provides order creation and lookup.
type OrderService interface {
	// CreateOrder persists a new order with its items. When idempotencyKey is
	// non-empty and an order already exists for it, that order is returned
	// instead of creating a duplicate.
	CreateOrder(ctx context.Context, order *Order, idempotencyKey string) (*Order, error)

	// GetOrder retrieves an order by id.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// GetOrderByNumber retrieves an order by its public order number.
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)

	// SetPaymentStatus updates the payment status (and session id) of an order.
	SetPaymentStatus(ctx context.Context, orderID, status, sessionID string) error

	// MarkPaid transitions an order to paid exactly once, reporting whether
	// this call performed the transition. False means the order was already
	// paid, so payment side effects must not run again.
	MarkPaid(ctx context.Context, orderID, sessionID string) (bool, error)

	// SetShipment records the shipment outcome (AWB number or failure).
	SetShipment(ctx context.Context, orderID, status, awbNumber string) error
}
