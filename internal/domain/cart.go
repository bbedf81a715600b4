package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrCartEmpty        = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
)

// CartService provides business logic for shopping cart operations.
// Carts are session-scoped and ephemeral; orders are the durable record.
type CartService interface {
	// GetOrCreateCart retrieves an existing cart or creates one for the session.
	// Returns the cart and the session ID (new or existing).
	GetOrCreateCart(ctx context.Context, sessionID string) (*CartSummary, string, error)

	// AddItem adds a product to the cart or increments quantity if already present.
	AddItem(ctx context.Context, sessionID string, item CartItem) (*CartSummary, error)

	// UpdateItemQuantity updates the quantity of a cart line.
	// If quantity is 0, the line is removed.
	UpdateItemQuantity(ctx context.Context, sessionID string, productID string, quantity int) (*CartSummary, error)

	// RemoveItem removes a product from the cart.
	RemoveItem(ctx context.Context, sessionID string, productID string) (*CartSummary, error)

	// GetCartSummary retrieves the cart with items and calculated totals.
	GetCartSummary(ctx context.Context, sessionID string) (*CartSummary, error)

	// ClearCart removes all items from the session's cart.
	ClearCart(ctx context.Context, sessionID string) error
}

// CartItem represents a cart line with unit price and quantity.
type CartItem struct {
	ProductID string
	ShopID    string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	WeightKG  float64
	ImageURL  string
}

// LineSubtotal returns unit price x quantity.
func (i CartItem) LineSubtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartSummary aggregates cart contents with calculated totals.
type CartSummary struct {
	SessionID string
	Items     []CartItem
	Subtotal  decimal.Decimal
	ItemCount int
	UpdatedAt time.Time
}
