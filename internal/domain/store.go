package domain

import "context"

// =============================================================================
// STORE DOMAIN ERRORS
// =============================================================================

var (
	// ErrNoShopResolved means no resolution strategy produced a shop.
	// Order placement must be blocked when this is returned.
	ErrNoShopResolved = &Error{Code: ENOTFOUND, Message: "No store could be resolved for this order"}
)

// StoreContext carries every hint a request can provide about which shop
// and vendor an order belongs to. Fields are optional; the resolver walks
// them in priority order.
type StoreContext struct {
	// AffiliateStoreID is an explicit affiliate storefront id.
	AffiliateStoreID string

	// ShopID is an explicit shop id from the request.
	ShopID string

	// StoreSlug is the client-persisted current store slug hint.
	StoreSlug string

	// LastStoreID is the client-persisted last-visited store id hint.
	LastStoreID string

	// FirstCartProductID is the product id of the first cart line, used to
	// derive the owning shop when no explicit hint is present.
	FirstCartProductID string
}

// StoreResolution is the outcome of store resolution: the shop the order
// belongs to and the vendor id to quote and ship under.
type StoreResolution struct {
	ShopID           string
	ShopName         string
	VendorID         string
	AffiliateStoreID string

	// Strategy names which resolution strategy produced the result.
	Strategy string
}

// StoreResolver resolves the owning shop and vendor for an order.
type StoreResolver interface {
	Resolve(ctx context.Context, sc StoreContext) (*StoreResolution, error)
}
