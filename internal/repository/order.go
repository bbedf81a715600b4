package repository

import (
	"context"
	"errors"

	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// CreateOrder inserts an order with its items in one transaction. When
// idempotencyKey is non-empty and an order already exists for it, the
// existing order is returned unchanged.
func (r *Repository) CreateOrder(ctx context.Context, o *domain.Order, idempotencyKey string) (*domain.Order, error) {
	const op = "repository.create_order"

	if idempotencyKey != "" {
		existing, err := r.GetOrderByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !domain.IsCode(err, domain.ENOTFOUND) {
			return nil, err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var key any
	if idempotencyKey != "" {
		key = idempotencyKey
	}

	var affiliateStoreID any
	if o.AffiliateStoreID != "" {
		affiliateStoreID = o.AffiliateStoreID
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (
			order_number, shop_id, vendor_id, affiliate_store_id,
			customer_name, customer_phone, customer_email,
			ship_city, ship_street, ship_national_address_code,
			payment_method, payment_status,
			carrier_id, carrier_name, carrier_code,
			subtotal_sar, shipping_sar, tax_sar, total_sar,
			idempotency_key
		) VALUES (
			$1, $2::uuid, $3, $4::uuid,
			$5, $6, $7,
			$8, $9, $10,
			$11, $12,
			$13, $14, $15,
			$16, $17, $18, $19,
			$20
		)
		RETURNING id::text, created_at, updated_at
	`,
		o.OrderNumber, o.ShopID, o.VendorID, affiliateStoreID,
		o.Customer.Name, o.Customer.Phone, o.Customer.Email,
		o.Customer.City, o.Customer.Street, o.Customer.NationalAddressCode,
		o.PaymentMethod, o.PaymentStatus,
		o.CarrierID, o.CarrierName, o.CarrierCode,
		o.Totals.Subtotal.StringFixed(2), o.Totals.Shipping.StringFixed(2),
		o.Totals.Tax.StringFixed(2), o.Totals.Total.StringFixed(2),
		key,
	)

	created := *o
	if err := row.Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && idempotencyKey != "" {
			// Lost the race against a concurrent submit with the same key.
			return r.GetOrderByIdempotencyKey(ctx, idempotencyKey)
		}
		return nil, domain.Internal(err, op, "failed to insert order")
	}

	for _, item := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, unit_price_sar, quantity)
			VALUES ($1::uuid, $2, $3, $4, $5)
		`, created.ID, item.ProductID, item.Name, item.UnitPrice.StringFixed(2), item.Quantity)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to insert order item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, op, "failed to commit order")
	}

	return &created, nil
}

const orderColumns = `
	o.id::text, o.order_number, o.shop_id::text, o.vendor_id,
	COALESCE(o.affiliate_store_id::text, ''),
	o.customer_name, o.customer_phone, o.customer_email,
	o.ship_city, o.ship_street, o.ship_national_address_code,
	o.payment_method, o.payment_status, o.payment_session_id,
	o.carrier_id, o.carrier_name, o.carrier_code, o.awb_number, o.shipment_status,
	o.subtotal_sar::text, o.shipping_sar::text, o.tax_sar::text, o.total_sar::text,
	o.created_at, o.updated_at`

// GetOrderByID retrieves an order (with items) by id.
func (r *Repository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOrder(ctx, "repository.order_by_id", `o.id::text = $1`, id)
}

// GetOrderByNumber retrieves an order (with items) by public order number.
func (r *Repository) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.getOrder(ctx, "repository.order_by_number", `o.order_number = $1`, number)
}

// GetOrderByIdempotencyKey retrieves the order created under a key.
func (r *Repository) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	return r.getOrder(ctx, "repository.order_by_idempotency_key", `o.idempotency_key = $1`, key)
}

func (r *Repository) getOrder(ctx context.Context, op, where string, arg any) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE `+where, arg)

	var (
		o                                    domain.Order
		subtotal, shipping, taxAmount, total string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.ShopID, &o.VendorID,
		&o.AffiliateStoreID,
		&o.Customer.Name, &o.Customer.Phone, &o.Customer.Email,
		&o.Customer.City, &o.Customer.Street, &o.Customer.NationalAddressCode,
		&o.PaymentMethod, &o.PaymentStatus, &o.PaymentSessionID,
		&o.CarrierID, &o.CarrierName, &o.CarrierCode, &o.AWBNumber, &o.ShipmentStatus,
		&subtotal, &shipping, &taxAmount, &total,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	if o.Totals, err = parseTotals(subtotal, shipping, taxAmount, total); err != nil {
		return nil, domain.Internal(err, op, "failed to parse order totals")
	}

	if o.Items, err = r.orderItems(ctx, o.ID); err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}

	return &o, nil
}

func (r *Repository) orderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, name, unit_price_sar::text, quantity
		FROM order_items
		WHERE order_id = $1::uuid
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item  domain.OrderItem
			price string
		)
		if err := rows.Scan(&item.ProductID, &item.Name, &price, &item.Quantity); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetOrderPaymentStatus updates payment status and session id.
func (r *Repository) SetOrderPaymentStatus(ctx context.Context, orderID, status, sessionID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    payment_session_id = CASE WHEN $3 <> '' THEN $3 ELSE payment_session_id END,
		    updated_at = now()
		WHERE id::text = $1
	`, orderID, status, sessionID)
	if err != nil {
		return domain.Internal(err, "repository.set_payment_status", "failed to update payment status")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// MarkOrderPaid transitions an order to paid with a conditional update.
// Concurrent callers race on the WHERE clause; exactly one sees true.
func (r *Repository) MarkOrderPaid(ctx context.Context, orderID, sessionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    payment_session_id = CASE WHEN $3 <> '' THEN $3 ELSE payment_session_id END,
		    updated_at = now()
		WHERE id::text = $1 AND payment_status <> $2
	`, orderID, domain.PaymentStatusPaid, sessionID)
	if err != nil {
		return false, domain.Internal(err, "repository.mark_paid", "failed to mark order paid")
	}
	return tag.RowsAffected() > 0, nil
}

// SetOrderShipment records the shipment outcome on an order.
func (r *Repository) SetOrderShipment(ctx context.Context, orderID, status, awbNumber string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET shipment_status = $2,
		    awb_number = CASE WHEN $3 <> '' THEN $3 ELSE awb_number END,
		    updated_at = now()
		WHERE id::text = $1
	`, orderID, status, awbNumber)
	if err != nil {
		return domain.Internal(err, "repository.set_shipment", "failed to update shipment")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func parseTotals(subtotal, shipping, tax, total string) (domain.OrderTotal, error) {
	var (
		t   domain.OrderTotal
		err error
	)
	if t.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return t, err
	}
	if t.Shipping, err = decimal.NewFromString(shipping); err != nil {
		return t, err
	}
	if t.Tax, err = decimal.NewFromString(tax); err != nil {
		return t, err
	}
	t.Total, err = decimal.NewFromString(total)
	return t, err
}
