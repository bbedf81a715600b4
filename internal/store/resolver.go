// Package store resolves which shop and vendor an order belongs to.
//
// Requests can carry several competing hints (an explicit affiliate store,
// an explicit shop id, client-persisted slug/last-store hints, or nothing
// at all). Resolution walks an explicit, ordered strategy list; the first
// strategy that yields a shop wins.
package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Shade1269/atlannew-sub000/internal/domain"
)

// ShopInfo is the lookup result a strategy resolves to.
type ShopInfo struct {
	ID               string
	Name             string
	VendorID         string
	AffiliateStoreID string
}

// Lookup is the repository surface the resolver needs.
type Lookup interface {
	GetShopByAffiliateStoreID(ctx context.Context, affiliateStoreID string) (*ShopInfo, error)
	GetShopByID(ctx context.Context, shopID string) (*ShopInfo, error)
	GetShopBySlug(ctx context.Context, slug string) (*ShopInfo, error)
	GetShopByProductID(ctx context.Context, productID string) (*ShopInfo, error)
	GetFirstActiveShop(ctx context.Context) (*ShopInfo, error)
}

// Resolver implements domain.StoreResolver over an ordered strategy list.
type Resolver struct {
	lookup          Lookup
	defaultVendorID string
	logger          *slog.Logger
	strategies      []strategy
}

type strategy struct {
	name string
	run  func(ctx context.Context, sc domain.StoreContext) (*ShopInfo, error)
}

// NewResolver creates a store resolver. defaultVendorID is the sentinel
// vendor used when a resolved shop has no vendor id of its own.
func NewResolver(lookup Lookup, defaultVendorID string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Resolver{
		lookup:          lookup,
		defaultVendorID: defaultVendorID,
		logger:          logger,
	}

	r.strategies = []strategy{
		{"affiliate_store", r.byAffiliateStore},
		{"explicit_shop", r.byExplicitShop},
		{"cart_product", r.byCartProduct},
		{"first_active_shop", r.byFirstActiveShop},
	}

	return r
}

// Resolve walks the strategies in order and returns the first shop found.
// A resolved shop with an empty vendor id gets the default sentinel
// vendor. No shop from any strategy is fatal: order placement must stop.
func (r *Resolver) Resolve(ctx context.Context, sc domain.StoreContext) (*domain.StoreResolution, error) {
	for _, s := range r.strategies {
		shop, err := s.run(ctx, sc)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if shop == nil {
			continue
		}

		vendorID := shop.VendorID
		if vendorID == "" {
			vendorID = r.defaultVendorID
		}

		r.logger.Debug("store resolved",
			"strategy", s.name, "shop_id", shop.ID, "vendor_id", vendorID)

		return &domain.StoreResolution{
			ShopID:           shop.ID,
			ShopName:         shop.Name,
			VendorID:         vendorID,
			AffiliateStoreID: shop.AffiliateStoreID,
			Strategy:         s.name,
		}, nil
	}

	return nil, domain.ErrNoShopResolved
}

func (r *Resolver) byAffiliateStore(ctx context.Context, sc domain.StoreContext) (*ShopInfo, error) {
	if sc.AffiliateStoreID == "" {
		return nil, nil
	}
	return r.lookup.GetShopByAffiliateStoreID(ctx, sc.AffiliateStoreID)
}

// byExplicitShop tries the explicit shop id first, then the client-side
// slug and last-store hints.
func (r *Resolver) byExplicitShop(ctx context.Context, sc domain.StoreContext) (*ShopInfo, error) {
	if sc.ShopID != "" {
		shop, err := r.lookup.GetShopByID(ctx, sc.ShopID)
		if err == nil || !isNotFound(err) {
			return shop, err
		}
	}
	if sc.StoreSlug != "" {
		shop, err := r.lookup.GetShopBySlug(ctx, sc.StoreSlug)
		if err == nil || !isNotFound(err) {
			return shop, err
		}
	}
	if sc.LastStoreID != "" {
		shop, err := r.lookup.GetShopByID(ctx, sc.LastStoreID)
		if err == nil || !isNotFound(err) {
			return shop, err
		}
	}
	return nil, nil
}

func (r *Resolver) byCartProduct(ctx context.Context, sc domain.StoreContext) (*ShopInfo, error) {
	if sc.FirstCartProductID == "" {
		return nil, nil
	}
	return r.lookup.GetShopByProductID(ctx, sc.FirstCartProductID)
}

func (r *Resolver) byFirstActiveShop(ctx context.Context, sc domain.StoreContext) (*ShopInfo, error) {
	return r.lookup.GetFirstActiveShop(ctx)
}

func isNotFound(err error) bool {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code == domain.ENOTFOUND
	}
	return false
}
