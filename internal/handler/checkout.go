package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
)

// CheckoutHandler drives the checkout flow: customer data, carrier
// quotes, totals, order placement and payment callbacks.
type CheckoutHandler struct {
	checkout domain.CheckoutService
	orders   domain.OrderService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a checkout handler.
func NewCheckoutHandler(checkout domain.CheckoutService, orders domain.OrderService, logger *slog.Logger) *CheckoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutHandler{checkout: checkout, orders: orders, logger: logger}
}

type customerRequest struct {
	Name                string `json:"name"`
	Phone               string `json:"phone"`
	Email               string `json:"email" validate:"omitempty,email"`
	City                string `json:"city"`
	Street              string `json:"street"`
	NationalAddressCode string `json:"national_address_code"`
}

func (c customerRequest) toDomain() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:                c.Name,
		Phone:               c.Phone,
		Email:               c.Email,
		City:                c.City,
		Street:              c.Street,
		NationalAddressCode: c.NationalAddressCode,
	}
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type selectCarrierRequest struct {
	CarrierID string `json:"carrier_id" validate:"required"`
}

type shippingRequest struct {
	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	ProviderCode string `json:"provider_code"`
	Cost         string `json:"cost"`
}

type storeContextRequest struct {
	AffiliateStoreID   string `json:"affiliate_store_id"`
	ShopID             string `json:"shop_id"`
	StoreSlug          string `json:"store_slug"`
	LastStoreID        string `json:"last_store_id"`
	FirstCartProductID string `json:"first_cart_product_id"`
}

type placeOrderRequest struct {
	Customer      customerRequest     `json:"customer"`
	PaymentMethod string              `json:"payment_method"`
	Shipping      shippingRequest     `json:"shipping"`
	Store         storeContextRequest `json:"store"`
}

type paymentCallbackRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	SessionID string `json:"session_id"`
	Status    string `json:"status" validate:"required"`
	Reference string `json:"reference"`
}

type quoteResponse struct {
	CarrierID     string `json:"carrier_id"`
	CarrierName   string `json:"carrier_name"`
	CarrierCode   string `json:"carrier_code,omitempty"`
	ServiceType   string `json:"service_type,omitempty"`
	Price         string `json:"price"`
	EstimatedDays int    `json:"estimated_days"`
}

type totalsResponse struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type sessionResponse struct {
	SessionID       string          `json:"session_id"`
	Step            string          `json:"step"`
	Customer        customerRequest `json:"customer"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	SelectedCarrier *quoteResponse  `json:"selected_carrier,omitempty"`
	OrderID         string          `json:"order_id,omitempty"`
	OrderNumber     string          `json:"order_number,omitempty"`
}

type placeOrderResponse struct {
	OrderID        string         `json:"order_id"`
	OrderNumber    string         `json:"order_number"`
	RedirectURL    string         `json:"redirect_url"`
	PaymentPending bool           `json:"payment_pending"`
	Totals         totalsResponse `json:"totals"`
}

// GetCheckout handles GET /api/checkout.
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("checkout.get", "Session id is required"))
		return
	}

	sess, err := h.checkout.GetSession(r.Context(), sid)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, sessionToResponse(sess))
}

// UpdateCustomer handles POST /api/checkout/customer.
func (h *CheckoutHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("checkout.customer", "Session id is required"))
		return
	}

	var req customerRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	sess, err := h.checkout.UpdateCustomer(r.Context(), sid, req.toDomain())
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, sessionToResponse(sess))
}

// SetPaymentMethod handles POST /api/checkout/payment-method.
func (h *CheckoutHandler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("checkout.payment_method", "Session id is required"))
		return
	}

	var req paymentMethodRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	sess, err := h.checkout.SetPaymentMethod(r.Context(), sid, req.PaymentMethod)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, sessionToResponse(sess))
}

// Quotes handles GET /api/checkout/quotes.
func (h *CheckoutHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("checkout.quotes", "Session id is required"))
		return
	}

	quotes, err := h.checkout.Quotes(r.Context(), sid)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"quotes": quotesToResponse(quotes)})
}

// SelectCarrier handles POST /api/checkout/select-carrier.
func (h *CheckoutHandler) SelectCarrier(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("checkout.select_carrier", "Session id is required"))
		return
	}

	var req selectCarrierRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	sess, err := h.checkout.SelectCarrier(r.Context(), sid, req.CarrierID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, sessionToResponse(sess))
}

// Totals handles GET /api/checkout/totals.
func (h *CheckoutHandler) Totals(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("checkout.totals", "Session id is required"))
		return
	}

	totals, err := h.checkout.Totals(r.Context(), sid)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, totalsToResponse(totals))
}

// PlaceOrder handles POST /api/orders/create.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		ErrorResponse(w, r, domain.Invalid("checkout.place_order", "Session id is required"))
		return
	}

	var req placeOrderRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	cost := decimal.Zero
	if req.Shipping.Cost != "" {
		parsed, err := decimal.NewFromString(req.Shipping.Cost)
		if err != nil {
			ErrorResponse(w, r, domain.Invalid("checkout.place_order", "Invalid shipping cost"))
			return
		}
		cost = parsed
	}

	result, err := h.checkout.PlaceOrder(r.Context(), domain.PlaceOrderParams{
		SessionID: sid,
		Store: domain.StoreContext{
			AffiliateStoreID:   req.Store.AffiliateStoreID,
			ShopID:             req.Store.ShopID,
			StoreSlug:          req.Store.StoreSlug,
			LastStoreID:        req.Store.LastStoreID,
			FirstCartProductID: req.Store.FirstCartProductID,
		},
		Customer: req.Customer.toDomain(),
		Shipping: domain.SelectedShipping{
			ProviderID:   req.Shipping.ProviderID,
			ProviderName: req.Shipping.ProviderName,
			ProviderCode: req.Shipping.ProviderCode,
			CostSAR:      cost,
		},
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: r.Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	JSONResponse(w, http.StatusCreated, placeOrderResponse{
		OrderID:        result.OrderID,
		OrderNumber:    result.OrderNumber,
		RedirectURL:    result.RedirectURL,
		PaymentPending: result.PaymentPending,
		Totals:         totalsToResponse(&result.Totals),
	})
}

// PaymentCallback handles POST /api/payments/callback.
func (h *CheckoutHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req paymentCallbackRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	err := h.checkout.HandlePaymentCallback(r.Context(), domain.PaymentCallbackParams{
		OrderID:   req.OrderID,
		SessionID: req.SessionID,
		Status:    req.Status,
		Reference: req.Reference,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetOrder handles GET /api/orders/{id}.
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, orderToResponse(order))
}

// GetOrderByNumber handles GET /api/orders/number/{number}.
func (h *CheckoutHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrderByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, orderToResponse(order))
}

type orderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type orderResponse struct {
	OrderID        string              `json:"order_id"`
	OrderNumber    string              `json:"order_number"`
	PaymentMethod  string              `json:"payment_method"`
	PaymentStatus  string              `json:"payment_status"`
	CarrierName    string              `json:"carrier_name,omitempty"`
	AWBNumber      string              `json:"awb_number,omitempty"`
	ShipmentStatus string              `json:"shipment_status"`
	Totals         totalsResponse      `json:"totals"`
	Items          []orderItemResponse `json:"items"`
}

func orderToResponse(order *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
		})
	}
	return orderResponse{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PaymentMethod:  order.PaymentMethod,
		PaymentStatus:  order.PaymentStatus,
		CarrierName:    order.CarrierName,
		AWBNumber:      order.AWBNumber,
		ShipmentStatus: order.ShipmentStatus,
		Totals:         totalsToResponse(&order.Totals),
		Items:          items,
	}
}

func sessionToResponse(sess *domain.CheckoutSession) sessionResponse {
	resp := sessionResponse{
		SessionID: sess.SessionID,
		Step:      sess.Step,
		Customer: customerRequest{
			Name:                sess.Customer.Name,
			Phone:               sess.Customer.Phone,
			Email:               sess.Customer.Email,
			City:                sess.Customer.City,
			Street:              sess.Customer.Street,
			NationalAddressCode: sess.Customer.NationalAddressCode,
		},
		PaymentMethod: sess.PaymentMethod,
		OrderID:       sess.OrderID,
		OrderNumber:   sess.OrderNumber,
	}
	if sess.SelectedCarrier != nil {
		q := quoteToResponse(*sess.SelectedCarrier)
		resp.SelectedCarrier = &q
	}
	return resp
}

func quotesToResponse(quotes []carrier.Quote) []quoteResponse {
	out := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, quoteToResponse(q))
	}
	return out
}

func quoteToResponse(q carrier.Quote) quoteResponse {
	return quoteResponse{
		CarrierID:     q.CarrierID,
		CarrierName:   q.CarrierName,
		CarrierCode:   q.CarrierCode,
		ServiceType:   q.ServiceType,
		Price:         q.Price.StringFixed(2),
		EstimatedDays: q.EstimatedDays,
	}
}

func totalsToResponse(t *domain.OrderTotal) totalsResponse {
	return totalsResponse{
		Subtotal: t.Subtotal.StringFixed(2),
		Shipping: t.Shipping.StringFixed(2),
		Tax:      t.Tax.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}
