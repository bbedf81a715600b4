package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/geo"
	"github.com/Shade1269/atlannew-sub000/internal/handler"
	"github.com/Shade1269/atlannew-sub000/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordQueue records enqueued job types.
type recordQueue struct {
	mu   sync.Mutex
	jobs []string
}

func (q *recordQueue) EnqueueJob(ctx context.Context, params repository.EnqueueJobParams) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, params.JobType)
	return "job-1", nil
}

func codOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		OrderNumber:   "ORD-20260829-0001",
		PaymentMethod: domain.PaymentMethodCOD,
		PaymentStatus: domain.PaymentStatusCOD,
		CarrierID:     "7",
		Customer: domain.CustomerInfo{
			Name:                "نورة القحطاني",
			Phone:               "0501234567",
			City:                "الرياض",
			Street:              "طريق الملك فهد",
			NationalAddressCode: "RIYD3456",
		},
		Totals: domain.OrderTotal{Total: decimal.RequireFromString("615.25")},
		Items: []domain.OrderItem{
			{ProductID: "prod-1", Quantity: 2},
		},
	}
}

func TestAvailableCarriersEndpoint(t *testing.T) {
	provider := carrier.NewMockProvider()
	h := handler.NewCarrierHandler(provider, geo.NewDirectory(), &mockOrderService{}, nil, "59", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bolesa/available-carriers?destination_city=Jeddah&weight=2&payment_type=cod", nil)
	rec := httptest.NewRecorder()
	h.AvailableCarriers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	calls := provider.QuoteCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "59", calls[0].OriginCityID)
	assert.Equal(t, "3", calls[0].DestinationCityID)
	assert.Equal(t, float64(2), calls[0].Weight)
	assert.Equal(t, carrier.PaymentTypeCOD, calls[0].PaymentType)

	var resp struct {
		Carriers []struct {
			CarrierName string `json:"carrier_name"`
			Price       string `json:"price"`
		} `json:"carriers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Carriers, 1)
	assert.Equal(t, "Mock Express", resp.Carriers[0].CarrierName)
}

func TestAvailableCarriersEndpoint_UnknownCity(t *testing.T) {
	provider := carrier.NewMockProvider()
	h := handler.NewCarrierHandler(provider, geo.NewDirectory(), &mockOrderService{}, nil, "59", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bolesa/available-carriers?destination_city=Atlantis", nil)
	rec := httptest.NewRecorder()
	h.AvailableCarriers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, provider.QuoteCalls())

	var resp struct {
		Carriers []any `json:"carriers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Carriers)
}

func TestAvailableCarriersEndpoint_MissingDestination(t *testing.T) {
	h := handler.NewCarrierHandler(carrier.NewMockProvider(), geo.NewDirectory(), &mockOrderService{}, nil, "59", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bolesa/available-carriers", nil)
	rec := httptest.NewRecorder()
	h.AvailableCarriers(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateShipmentEndpoint(t *testing.T) {
	provider := carrier.NewMockProvider()
	var booked carrier.ShipmentParams
	provider.CreateShipmentFunc = func(ctx context.Context, params carrier.ShipmentParams) (*carrier.Shipment, error) {
		booked = params
		return &carrier.Shipment{AWBNumber: "AWB-789", CarrierID: params.CarrierID}, nil
	}

	orders := &mockOrderService{
		GetOrderFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			return codOrder(), nil
		},
	}
	h := handler.NewCarrierHandler(provider, geo.NewDirectory(), orders, nil, "59", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bolesa/create-order", strings.NewReader(`{"order_id": "order-1"}`))
	rec := httptest.NewRecorder()
	h.CreateShipment(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "7", booked.CarrierID)
	assert.Equal(t, "ORD-20260829-0001", booked.OrderNumber)
	assert.Equal(t, carrier.PaymentTypeCOD, booked.PaymentType)
	assert.Equal(t, "615.25", booked.CODAmount.StringFixed(2))
	assert.Equal(t, "59", booked.Destination.CityID)
	assert.Equal(t, float64(2), booked.Weight)

	var resp struct {
		AWBNumber string `json:"awb_number"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "AWB-789", resp.AWBNumber)
}

func TestCreateShipmentEndpoint_AlreadyBooked(t *testing.T) {
	orders := &mockOrderService{
		GetOrderFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			o := codOrder()
			o.AWBNumber = "AWB-OLD"
			return o, nil
		},
	}
	h := handler.NewCarrierHandler(carrier.NewMockProvider(), geo.NewDirectory(), orders, nil, "59", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bolesa/create-order", strings.NewReader(`{"order_id": "order-1"}`))
	rec := httptest.NewRecorder()
	h.CreateShipment(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateInvoiceEndpoint(t *testing.T) {
	orders := &mockOrderService{
		GetOrderFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			return codOrder(), nil
		},
	}
	queue := &recordQueue{}
	h := handler.NewCarrierHandler(carrier.NewMockProvider(), geo.NewDirectory(), orders, queue, "59", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/zoho/invoice", strings.NewReader(`{"order_id": "order-1"}`))
	rec := httptest.NewRecorder()
	h.CreateInvoice(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"invoice:create"}, queue.jobs)
}

func TestCreateInvoiceEndpoint_OrderNotFound(t *testing.T) {
	orders := &mockOrderService{
		GetOrderFunc: func(ctx context.Context, id string) (*domain.Order, error) {
			return nil, domain.NotFound("order.get", "order", id)
		},
	}
	h := handler.NewCarrierHandler(carrier.NewMockProvider(), geo.NewDirectory(), orders, &recordQueue{}, "59", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/zoho/invoice", strings.NewReader(`{"order_id": "missing"}`))
	rec := httptest.NewRecorder()
	h.CreateInvoice(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
