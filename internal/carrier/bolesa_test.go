package carrier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBolesaProvider(t *testing.T, handler http.HandlerFunc) *carrier.BolesaProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := carrier.NewBolesaProvider(carrier.BolesaConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	})
	require.NoError(t, err)
	return p
}

func TestNewBolesaProvider_RequiresAPIKey(t *testing.T) {
	_, err := carrier.NewBolesaProvider(carrier.BolesaConfig{BaseURL: "http://localhost"})
	assert.ErrorIs(t, err, carrier.ErrMissingAPIKey)
}

func TestBolesaProvider_GetQuotes(t *testing.T) {
	p := newBolesaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bolesa/available-carriers", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "59", r.URL.Query().Get("origin_city_id"))
		assert.Equal(t, "1", r.URL.Query().Get("weight"), "sub-kilogram weights are clamped")
		assert.Equal(t, "cod", r.URL.Query().Get("payment_type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"carriers": [
				{"id": 12, "name": "SMSA Express", "code": "SMSA", "price": "82.50", "estimated_days": 0},
				{"id": 7, "name": "iMile", "code": "IMILE", "price": "21", "estimated_days": 5}
			]
		}`))
	})

	quotes, err := p.GetQuotes(context.Background(), carrier.QuoteParams{
		OriginCityID:      "59",
		DestinationCityID: "3",
		Weight:            0.5,
		PaymentType:       carrier.PaymentTypeCOD,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// iMile first (21 < 35 after the SMSA cod override)
	assert.Equal(t, "7", quotes[0].CarrierID)
	assert.True(t, quotes[0].Price.Equal(decimal.NewFromInt(21)))
	assert.Equal(t, 5, quotes[0].EstimatedDays)

	assert.Equal(t, "12", quotes[1].CarrierID)
	assert.True(t, quotes[1].Price.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, 2, quotes[1].EstimatedDays)
}

func TestBolesaProvider_GetQuotes_UpstreamErrorIsUnavailable(t *testing.T) {
	p := newBolesaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	quotes, err := p.GetQuotes(context.Background(), carrier.QuoteParams{
		DestinationCityID: "3",
		PaymentType:       carrier.PaymentTypePrepaid,
	})
	assert.True(t, carrier.IsUnavailable(err))
	assert.Empty(t, quotes)
}

func TestBolesaProvider_GetQuotes_RequiresDestination(t *testing.T) {
	p := newBolesaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := p.GetQuotes(context.Background(), carrier.QuoteParams{})
	assert.ErrorIs(t, err, carrier.ErrDestinationRequired)
}

func TestBolesaProvider_GetQuotes_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	p := newBolesaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	})

	params := carrier.QuoteParams{DestinationCityID: "3", PaymentType: carrier.PaymentTypePrepaid}
	for i := 0; i < 8; i++ {
		_, err := p.GetQuotes(context.Background(), params)
		assert.True(t, carrier.IsUnavailable(err))
	}

	// After five consecutive failures the breaker short-circuits.
	assert.Equal(t, 5, hits)
}

func TestBolesaProvider_CreateShipment(t *testing.T) {
	p := newBolesaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bolesa/create-order", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "awb_number": "AWB-445871"}`))
	})

	shipment, err := p.CreateShipment(context.Background(), carrier.ShipmentParams{
		CarrierID:    "12",
		OrderNumber:  "ORD-20260829-1234",
		PaymentType:  carrier.PaymentTypeCOD,
		CODAmount:    decimal.NewFromFloat(615.25),
		Weight:       2,
		OriginCityID: "59",
		Destination: carrier.Destination{
			Name:                "Sara",
			Phone:               "0551234567",
			CityID:              "3",
			Street:              "King Fahd Rd",
			NationalAddressCode: "RRRD2929",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "AWB-445871", shipment.AWBNumber)
	assert.Equal(t, "12", shipment.CarrierID)
}

func TestBolesaProvider_CreateShipment_RejectedUpstream(t *testing.T) {
	p := newBolesaProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "message": "carrier capacity exceeded"}`))
	})

	_, err := p.CreateShipment(context.Background(), carrier.ShipmentParams{
		CarrierID:   "12",
		Destination: carrier.Destination{CityID: "3"},
	})
	assert.ErrorContains(t, err, "carrier capacity exceeded")
}
