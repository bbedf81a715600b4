package repository

import (
	"context"
	"errors"

	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/store"
	"github.com/jackc/pgx/v5"
)

// Compile-time check that Repository implements the resolver's lookup.
var _ store.Lookup = (*Repository)(nil)

const shopColumns = `s.id::text, s.name, s.vendor_id`

// GetShopByAffiliateStoreID resolves a shop through an affiliate storefront.
func (r *Repository) GetShopByAffiliateStoreID(ctx context.Context, affiliateStoreID string) (*store.ShopInfo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+shopColumns+`, a.id::text
		FROM affiliate_stores a
		JOIN shops s ON s.id = a.shop_id
		WHERE a.id::text = $1 OR a.slug = $1
	`, affiliateStoreID)

	var info store.ShopInfo
	if err := row.Scan(&info.ID, &info.Name, &info.VendorID, &info.AffiliateStoreID); err != nil {
		return nil, shopScanError(err, "repository.shop_by_affiliate", affiliateStoreID)
	}
	return &info, nil
}

// GetShopByID retrieves a shop by its id.
func (r *Repository) GetShopByID(ctx context.Context, shopID string) (*store.ShopInfo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+shopColumns+`
		FROM shops s
		WHERE s.id::text = $1
	`, shopID)

	var info store.ShopInfo
	if err := row.Scan(&info.ID, &info.Name, &info.VendorID); err != nil {
		return nil, shopScanError(err, "repository.shop_by_id", shopID)
	}
	return &info, nil
}

// GetShopBySlug retrieves a shop by its public slug.
func (r *Repository) GetShopBySlug(ctx context.Context, slug string) (*store.ShopInfo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+shopColumns+`
		FROM shops s
		WHERE s.slug = $1
	`, slug)

	var info store.ShopInfo
	if err := row.Scan(&info.ID, &info.Name, &info.VendorID); err != nil {
		return nil, shopScanError(err, "repository.shop_by_slug", slug)
	}
	return &info, nil
}

// GetShopByProductID resolves the shop owning a product.
func (r *Repository) GetShopByProductID(ctx context.Context, productID string) (*store.ShopInfo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+shopColumns+`
		FROM products p
		JOIN shops s ON s.id = p.shop_id
		WHERE p.id::text = $1
	`, productID)

	var info store.ShopInfo
	if err := row.Scan(&info.ID, &info.Name, &info.VendorID); err != nil {
		return nil, shopScanError(err, "repository.shop_by_product", productID)
	}
	return &info, nil
}

// GetFirstActiveShop returns the oldest active shop, the resolver's last
// resort.
func (r *Repository) GetFirstActiveShop(ctx context.Context) (*store.ShopInfo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+shopColumns+`
		FROM shops s
		WHERE s.active
		ORDER BY s.created_at
		LIMIT 1
	`)

	var info store.ShopInfo
	if err := row.Scan(&info.ID, &info.Name, &info.VendorID); err != nil {
		return nil, shopScanError(err, "repository.first_active_shop", "")
	}
	return &info, nil
}

func shopScanError(err error, op, identifier string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(op, "Shop", identifier)
	}
	return domain.Internal(err, op, "failed to load shop")
}
