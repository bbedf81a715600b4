package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/handler"
	"github.com/Shade1269/atlannew-sub000/internal/router"
	"github.com/Shade1269/atlannew-sub000/internal/routes"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCheckoutService is a hand-rolled mock of domain.CheckoutService.
type mockCheckoutService struct {
	GetSessionFunc            func(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)
	UpdateCustomerFunc        func(ctx context.Context, sessionID string, info domain.CustomerInfo) (*domain.CheckoutSession, error)
	SetPaymentMethodFunc      func(ctx context.Context, sessionID, method string) (*domain.CheckoutSession, error)
	SelectCarrierFunc         func(ctx context.Context, sessionID, carrierID string) (*domain.CheckoutSession, error)
	QuotesFunc                func(ctx context.Context, sessionID string) ([]carrier.Quote, error)
	TotalsFunc                func(ctx context.Context, sessionID string) (*domain.OrderTotal, error)
	PlaceOrderFunc            func(ctx context.Context, params domain.PlaceOrderParams) (*domain.PlaceOrderResult, error)
	HandlePaymentCallbackFunc func(ctx context.Context, params domain.PaymentCallbackParams) error
}

func (m *mockCheckoutService) GetSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	return m.GetSessionFunc(ctx, sessionID)
}

func (m *mockCheckoutService) UpdateCustomer(ctx context.Context, sessionID string, info domain.CustomerInfo) (*domain.CheckoutSession, error) {
	return m.UpdateCustomerFunc(ctx, sessionID, info)
}

func (m *mockCheckoutService) SetPaymentMethod(ctx context.Context, sessionID, method string) (*domain.CheckoutSession, error) {
	return m.SetPaymentMethodFunc(ctx, sessionID, method)
}

func (m *mockCheckoutService) SelectCarrier(ctx context.Context, sessionID, carrierID string) (*domain.CheckoutSession, error) {
	return m.SelectCarrierFunc(ctx, sessionID, carrierID)
}

func (m *mockCheckoutService) Quotes(ctx context.Context, sessionID string) ([]carrier.Quote, error) {
	return m.QuotesFunc(ctx, sessionID)
}

func (m *mockCheckoutService) Totals(ctx context.Context, sessionID string) (*domain.OrderTotal, error) {
	return m.TotalsFunc(ctx, sessionID)
}

func (m *mockCheckoutService) PlaceOrder(ctx context.Context, params domain.PlaceOrderParams) (*domain.PlaceOrderResult, error) {
	return m.PlaceOrderFunc(ctx, params)
}

func (m *mockCheckoutService) HandlePaymentCallback(ctx context.Context, params domain.PaymentCallbackParams) error {
	return m.HandlePaymentCallbackFunc(ctx, params)
}

// mockOrderService is a hand-rolled mock of domain.OrderService.
type mockOrderService struct {
	GetOrderFunc func(ctx context.Context, id string) (*domain.Order, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error) {
	panic("not used")
}

func (m *mockOrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return m.GetOrderFunc(ctx, id)
}

func (m *mockOrderService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return nil, domain.NotFound("order.get_by_number", "order", number)
}

func (m *mockOrderService) SetPaymentStatus(ctx context.Context, orderID, status, sessionID string) error {
	return nil
}

func (m *mockOrderService) MarkPaid(ctx context.Context, orderID, sessionID string) (bool, error) {
	return true, nil
}

func (m *mockOrderService) SetShipment(ctx context.Context, orderID, status, awbNumber string) error {
	return nil
}

func TestPlaceOrderEndpoint(t *testing.T) {
	var got domain.PlaceOrderParams
	checkout := &mockCheckoutService{
		PlaceOrderFunc: func(ctx context.Context, params domain.PlaceOrderParams) (*domain.PlaceOrderResult, error) {
			got = params
			return &domain.PlaceOrderResult{
				OrderID:     "order-1",
				OrderNumber: "ORD-20260829-0001",
				RedirectURL: "/order-confirmation/ORD-20260829-0001",
				Totals: domain.OrderTotal{
					Subtotal: decimal.NewFromInt(500),
					Shipping: decimal.NewFromInt(35),
					Tax:      decimal.RequireFromString("80.25"),
					Total:    decimal.RequireFromString("615.25"),
				},
			}, nil
		},
	}
	h := handler.NewCheckoutHandler(checkout, &mockOrderService{}, nil)

	body := `{
		"customer": {"name": "نورة", "phone": "0501234567", "city": "الرياض", "street": "طريق الملك فهد", "national_address_code": "RIYD3456"},
		"payment_method": "CASH_ON_DELIVERY",
		"shipping": {"provider_id": "7", "provider_name": "Aramex", "provider_code": "aramex", "cost": "35"},
		"store": {"store_slug": "noura-store"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(body))
	req.Header.Set(handler.SessionHeader, "sess-1")
	req.Header.Set(handler.IdempotencyKeyHeader, "idem-1")
	rec := httptest.NewRecorder()

	h.PlaceOrder(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "idem-1", got.IdempotencyKey)
	assert.Equal(t, "noura-store", got.Store.StoreSlug)
	assert.Equal(t, "35", got.Shipping.CostSAR.String())
	assert.Equal(t, domain.PaymentMethodCOD, got.PaymentMethod)

	var resp struct {
		OrderNumber string `json:"order_number"`
		Totals      struct {
			Total string `json:"total"`
		} `json:"totals"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ORD-20260829-0001", resp.OrderNumber)
	assert.Equal(t, "615.25", resp.Totals.Total)
}

func TestPlaceOrderEndpoint_RequiresSession(t *testing.T) {
	h := handler.NewCheckoutHandler(&mockCheckoutService{}, &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.PlaceOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrderEndpoint_ValidationFields(t *testing.T) {
	checkout := &mockCheckoutService{
		PlaceOrderFunc: func(ctx context.Context, params domain.PlaceOrderParams) (*domain.PlaceOrderResult, error) {
			var err error
			err = domain.AddFieldError(err, "city", "This field is required")
			err = domain.AddFieldError(err, "shipping", "A shipping carrier must be selected")
			return nil, err
		},
	}
	h := handler.NewCheckoutHandler(checkout, &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/create", strings.NewReader(`{}`))
	req.Header.Set(handler.SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	h.PlaceOrder(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error.Fields, "city")
	assert.Contains(t, resp.Error.Fields, "shipping")
}

func TestQuotesEndpoint(t *testing.T) {
	checkout := &mockCheckoutService{
		QuotesFunc: func(ctx context.Context, sessionID string) ([]carrier.Quote, error) {
			return []carrier.Quote{
				{CarrierID: "7", CarrierName: "Aramex", CarrierCode: "aramex", Price: decimal.NewFromInt(35), EstimatedDays: 2},
			}, nil
		},
	}
	h := handler.NewCheckoutHandler(checkout, &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/checkout/quotes", nil)
	req.Header.Set(handler.SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	h.Quotes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Quotes []struct {
			CarrierName   string `json:"carrier_name"`
			Price         string `json:"price"`
			EstimatedDays int    `json:"estimated_days"`
		} `json:"quotes"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Quotes, 1)
	assert.Equal(t, "Aramex", resp.Quotes[0].CarrierName)
	assert.Equal(t, "35.00", resp.Quotes[0].Price)
	assert.Equal(t, 2, resp.Quotes[0].EstimatedDays)
}

func TestPaymentCallbackEndpoint(t *testing.T) {
	var got domain.PaymentCallbackParams
	checkout := &mockCheckoutService{
		HandlePaymentCallbackFunc: func(ctx context.Context, params domain.PaymentCallbackParams) error {
			got = params
			return nil
		},
	}
	h := handler.NewCheckoutHandler(checkout, &mockOrderService{}, nil)

	body := `{"order_id": "order-1", "status": "success", "reference": "geidea-ref-9"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.PaymentCallback(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order-1", got.OrderID)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "geidea-ref-9", got.Reference)
}

func TestPaymentCallbackEndpoint_MissingFields(t *testing.T) {
	h := handler.NewCheckoutHandler(&mockCheckoutService{}, &mockOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(`{"order_id": "order-1"}`))
	rec := httptest.NewRecorder()
	h.PaymentCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderEndpoint(t *testing.T) {
	orders := &mockOrderService{
		GetOrderFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			if id != "order-1" {
				return nil, domain.NotFound("order.get", "order", id)
			}
			return &domain.Order{
				ID:             "order-1",
				OrderNumber:    "ORD-20260829-0001",
				PaymentMethod:  domain.PaymentMethodCOD,
				PaymentStatus:  domain.PaymentStatusCOD,
				ShipmentStatus: domain.ShipmentStatusCreated,
				AWBNumber:      "AWB-123",
				Totals: domain.OrderTotal{
					Subtotal: decimal.NewFromInt(500),
					Shipping: decimal.NewFromInt(35),
					Tax:      decimal.RequireFromString("80.25"),
					Total:    decimal.RequireFromString("615.25"),
				},
			}, nil
		},
	}

	r := router.New()
	h := handler.NewCheckoutHandler(&mockCheckoutService{}, orders, nil)
	r.Get("/api/orders/{id}", h.GetOrder)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/order-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OrderNumber string `json:"order_number"`
		AWBNumber   string `json:"awb_number"`
		Totals      struct {
			Total string `json:"total"`
		} `json:"totals"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ORD-20260829-0001", resp.OrderNumber)
	assert.Equal(t, "AWB-123", resp.AWBNumber)
	assert.Equal(t, "615.25", resp.Totals.Total)

	req = httptest.NewRequest(http.MethodGet, "/api/orders/missing", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutesRegister(t *testing.T) {
	checkout := &mockCheckoutService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
			return &domain.CheckoutSession{SessionID: sessionID, Step: domain.StepShipping}, nil
		},
	}

	r := router.New()
	routes.Register(r, routes.Deps{
		Cart:     handler.NewCartHandler(newStubCartService(), nil),
		Checkout: handler.NewCheckoutHandler(checkout, &mockOrderService{}, nil),
		Carriers: handler.NewCarrierHandler(carrier.NewMockProvider(), nil, &mockOrderService{}, nil, "59", nil),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/checkout", nil)
	req.Header.Set(handler.SessionHeader, "sess-1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// stubCartService satisfies domain.CartService for route registration.
type stubCartService struct{}

func newStubCartService() domain.CartService { return stubCartService{} }

func (stubCartService) GetOrCreateCart(ctx context.Context, sessionID string) (*domain.CartSummary, string, error) {
	return &domain.CartSummary{SessionID: sessionID}, sessionID, nil
}

func (stubCartService) AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.CartSummary, error) {
	return &domain.CartSummary{SessionID: sessionID}, nil
}

func (stubCartService) UpdateItemQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.CartSummary, error) {
	return &domain.CartSummary{SessionID: sessionID}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.CartSummary, error) {
	return &domain.CartSummary{SessionID: sessionID}, nil
}

func (stubCartService) GetCartSummary(ctx context.Context, sessionID string) (*domain.CartSummary, error) {
	return &domain.CartSummary{SessionID: sessionID}, nil
}

func (stubCartService) ClearCart(ctx context.Context, sessionID string) error {
	return nil
}
