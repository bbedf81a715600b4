package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const defaultBolesaTimeout = 15 * time.Second

// BolesaProvider implements the Provider interface against the Bolesa
// shipping aggregator API.
type BolesaProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]Quote]
	logger  *slog.Logger
}

// BolesaConfig contains configuration for the Bolesa provider.
type BolesaConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger // Optional: defaults to slog.Default()
}

// NewBolesaProvider creates a new Bolesa carrier provider. The quote
// endpoint is wrapped in a circuit breaker: the aggregator is the most
// failure-prone upstream and a tripped breaker must degrade to "quotes
// unavailable" instead of stacking up slow requests.
func NewBolesaProvider(cfg BolesaConfig) (*BolesaProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultBolesaTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[[]Quote](gobreaker.Settings{
		Name:        "bolesa",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("carrier breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &BolesaProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
		logger:  logger,
	}, nil
}

// bolesaCarrier is one carrier entry in the available-carriers response.
type bolesaCarrier struct {
	ID            json.Number `json:"id"`
	Name          string      `json:"name"`
	Code          string      `json:"code"`
	ServiceType   string      `json:"service_type"`
	Price         json.Number `json:"price"`
	EstimatedDays int         `json:"estimated_days"`
}

type bolesaCarriersResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Carriers []bolesaCarrier `json:"carriers"`
}

// GetQuotes fetches available carriers for the shipment and normalizes
// them. Upstream failures (network, non-2xx, open breaker) come back as a
// typed unavailable error with an empty quote list.
func (p *BolesaProvider) GetQuotes(ctx context.Context, params QuoteParams) ([]Quote, error) {
	if params.DestinationCityID == "" {
		return nil, ErrDestinationRequired
	}

	logger := p.logger.With(
		"origin_city_id", params.OriginCityID,
		"destination_city_id", params.DestinationCityID,
		"payment_type", params.PaymentType,
	)
	logger.Info("fetching carrier quotes")

	quotes, err := p.breaker.Execute(func() ([]Quote, error) {
		return p.fetchQuotes(ctx, params)
	})
	if err != nil {
		logger.Warn("carrier quotes unavailable", "error", err)
		return []Quote{}, ErrUnavailable(err)
	}

	logger.Info("carrier quotes fetched", "quote_count", len(quotes))
	return quotes, nil
}

func (p *BolesaProvider) fetchQuotes(ctx context.Context, params QuoteParams) ([]Quote, error) {
	q := url.Values{}
	q.Set("origin_city_id", params.OriginCityID)
	q.Set("destination_city_id", params.DestinationCityID)
	q.Set("weight", strconv.FormatFloat(params.EffectiveWeight(), 'f', -1, 64))
	q.Set("payment_type", params.PaymentType)

	endpoint := p.baseURL + "/api/bolesa/available-carriers?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build carriers request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("carriers request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("carriers request: unexpected status %d", resp.StatusCode)
	}

	var body bolesaCarriersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode carriers response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("carriers request rejected: %s", body.Message)
	}

	raw := make([]rawCarrier, 0, len(body.Carriers))
	for _, c := range body.Carriers {
		price, err := decimal.NewFromString(c.Price.String())
		if err != nil {
			p.logger.Warn("skipping carrier with unparsable price",
				"carrier", c.Name, "price", c.Price.String())
			continue
		}
		raw = append(raw, rawCarrier{
			ID:            c.ID.String(),
			Name:          c.Name,
			Code:          c.Code,
			ServiceType:   c.ServiceType,
			Price:         price,
			EstimatedDays: c.EstimatedDays,
		})
	}

	return normalizeQuotes(raw, params.PaymentType), nil
}

type bolesaCreateOrderRequest struct {
	CarrierID      string  `json:"carrier_id"`
	OrderNumber    string  `json:"order_number"`
	PaymentType    string  `json:"payment_type"`
	CODAmount      string  `json:"cod_amount,omitempty"`
	Weight         float64 `json:"weight"`
	OriginCityID   string  `json:"origin_city_id"`
	RecipientName  string  `json:"recipient_name"`
	RecipientPhone string  `json:"recipient_phone"`
	CityID         string  `json:"city_id"`
	Street         string  `json:"street"`
	NationalCode   string  `json:"national_address_code"`
}

type bolesaCreateOrderResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AWBNumber string `json:"awb_number"`
}

// CreateShipment books a shipment with the selected carrier. Booking is
// not behind the breaker: it runs from the background worker with its own
// retry schedule, and a half-open breaker must not eat a booking attempt.
func (p *BolesaProvider) CreateShipment(ctx context.Context, params ShipmentParams) (*Shipment, error) {
	if params.CarrierID == "" {
		return nil, ErrCarrierRequired
	}
	if params.Destination.CityID == "" {
		return nil, ErrDestinationRequired
	}

	logger := p.logger.With(
		"carrier_id", params.CarrierID,
		"order_number", params.OrderNumber,
	)
	logger.Info("creating shipment")

	reqBody := bolesaCreateOrderRequest{
		CarrierID:      params.CarrierID,
		OrderNumber:    params.OrderNumber,
		PaymentType:    params.PaymentType,
		Weight:         params.Weight,
		OriginCityID:   params.OriginCityID,
		RecipientName:  params.Destination.Name,
		RecipientPhone: params.Destination.Phone,
		CityID:         params.Destination.CityID,
		Street:         params.Destination.Street,
		NationalCode:   params.Destination.NationalAddressCode,
	}
	if params.PaymentType == PaymentTypeCOD {
		reqBody.CODAmount = params.CODAmount.StringFixed(2)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode shipment request: %w", err)
	}

	endpoint := p.baseURL + "/api/bolesa/create-order"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build shipment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, ErrUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrUnavailable(fmt.Errorf("shipment request: unexpected status %d", resp.StatusCode))
	}

	var body bolesaCreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode shipment response: %w", err)
	}
	if !body.Success || body.AWBNumber == "" {
		return nil, fmt.Errorf("shipment rejected: %s", body.Message)
	}

	logger.Info("shipment created", "awb_number", body.AWBNumber)

	return &Shipment{
		AWBNumber: body.AWBNumber,
		CarrierID: params.CarrierID,
		CreatedAt: time.Now(),
	}, nil
}
