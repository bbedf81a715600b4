package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/domain"
	"github.com/Shade1269/atlannew-sub000/internal/geo"
	"github.com/Shade1269/atlannew-sub000/internal/jobs"
)

// CarrierHandler exposes the carrier aggregator directly: quote listing
// for a destination and manual shipment booking. Checkout goes through
// the checkout service instead; these endpoints serve operator tooling
// and the storefront's shipping estimator.
type CarrierHandler struct {
	provider     carrier.Provider
	cities       geo.CityDirectory
	orders       domain.OrderService
	queue        jobs.Queue
	originCityID string
	logger       *slog.Logger
}

// NewCarrierHandler creates a carrier handler.
func NewCarrierHandler(provider carrier.Provider, cities geo.CityDirectory, orders domain.OrderService, queue jobs.Queue, originCityID string, logger *slog.Logger) *CarrierHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CarrierHandler{
		provider:     provider,
		cities:       cities,
		orders:       orders,
		queue:        queue,
		originCityID: originCityID,
		logger:       logger,
	}
}

// AvailableCarriers handles GET /api/bolesa/available-carriers.
//
// Query parameters:
//   - destination_city: city display name (Arabic or Latin), or
//   - destination_city_id: aggregator city id
//   - origin_city_id: overrides the configured warehouse origin
//   - weight: shipment weight, defaults to 1
//   - payment_type: "cod" or "prepaid", defaults to prepaid
func (h *CarrierHandler) AvailableCarriers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cityID := q.Get("destination_city_id")
	if cityID == "" {
		city := q.Get("destination_city")
		if city == "" {
			ErrorResponse(w, r, domain.Invalid("carriers.available", "A destination city is required"))
			return
		}
		id, ok := h.cities.LookupCityID(city)
		if !ok {
			// Unknown city is not an error: the storefront shows an
			// empty carrier list and checkout continues.
			JSONResponse(w, http.StatusOK, map[string]any{"carriers": []quoteResponse{}})
			return
		}
		cityID = id
	}

	weight := 1.0
	if raw := q.Get("weight"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			ErrorResponse(w, r, domain.Invalid("carriers.available", "Invalid weight"))
			return
		}
		weight = parsed
	}

	paymentType := q.Get("payment_type")
	if paymentType == "" {
		paymentType = carrier.PaymentTypePrepaid
	}
	if paymentType != carrier.PaymentTypeCOD && paymentType != carrier.PaymentTypePrepaid {
		ErrorResponse(w, r, domain.Invalid("carriers.available", "Invalid payment type"))
		return
	}

	origin := q.Get("origin_city_id")
	if origin == "" {
		origin = h.originCityID
	}

	quotes, err := h.provider.GetQuotes(r.Context(), carrier.QuoteParams{
		OriginCityID:      origin,
		DestinationCityID: cityID,
		Weight:            weight,
		PaymentType:       paymentType,
	})
	if err != nil {
		if carrier.IsUnavailable(err) {
			// Degraded: empty list rather than an error page.
			JSONResponse(w, http.StatusOK, map[string]any{"carriers": []quoteResponse{}})
			return
		}
		ErrorResponse(w, r, mapProviderError(err))
		return
	}

	JSONResponse(w, http.StatusOK, map[string]any{"carriers": quotesToResponse(quotes)})
}

type createShipmentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// CreateShipment handles POST /api/bolesa/create-order. It books the AWB
// for an existing order immediately instead of waiting for the worker,
// for operator-triggered retries after the job went dead.
func (h *CarrierHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), req.OrderID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	if order.AWBNumber != "" {
		ErrorResponse(w, r, domain.Conflict("carriers.create_shipment", "Order already has a shipment"))
		return
	}

	cityID, ok := h.cities.LookupCityID(order.Customer.City)
	if !ok {
		ErrorResponse(w, r, domain.Invalid("carriers.create_shipment", "Order destination city is not serviceable"))
		return
	}

	weight := 0.0
	for _, item := range order.Items {
		weight += float64(item.Quantity)
	}

	params := carrier.ShipmentParams{
		CarrierID:    order.CarrierID,
		OrderNumber:  order.OrderNumber,
		PaymentType:  domain.PaymentTypeForMethod(order.PaymentMethod),
		Weight:       weight,
		OriginCityID: h.originCityID,
		Destination: carrier.Destination{
			CityID:              cityID,
			Name:                order.Customer.Name,
			Phone:               order.Customer.Phone,
			Street:              order.Customer.Street,
			NationalAddressCode: order.Customer.NationalAddressCode,
		},
	}
	if order.PaymentMethod == domain.PaymentMethodCOD {
		params.CODAmount = order.Totals.Total
	}

	shipment, err := h.provider.CreateShipment(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, mapProviderError(err))
		return
	}

	if err := h.orders.SetShipment(r.Context(), order.ID, domain.ShipmentStatusCreated, shipment.AWBNumber); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	h.logger.Info("shipment booked",
		"order_id", order.ID,
		"awb_number", shipment.AWBNumber,
		"carrier_id", shipment.CarrierID,
	)

	JSONResponse(w, http.StatusCreated, map[string]string{
		"order_id":   order.ID,
		"awb_number": shipment.AWBNumber,
	})
}

type createInvoiceRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// CreateInvoice handles POST /api/zoho/invoice. Invoice creation is
// asynchronous: the request enqueues a job and returns 202.
func (h *CarrierHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if _, err := h.orders.GetOrder(r.Context(), req.OrderID); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if err := jobs.EnqueueCreateInvoice(r.Context(), h.queue, req.OrderID); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	JSONResponse(w, http.StatusAccepted, map[string]string{
		"order_id": req.OrderID,
		"status":   "queued",
	})
}
