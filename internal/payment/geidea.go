package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultGatewayTimeout = 15 * time.Second

// GeideaProvider implements the Provider interface against the Geidea
// hosted payment page API.
type GeideaProvider struct {
	baseURL     string
	merchantKey string
	apiPassword string
	callbackURL string
	client      *http.Client
	logger      *slog.Logger
}

// GeideaConfig contains configuration for the Geidea provider.
type GeideaConfig struct {
	BaseURL     string
	MerchantKey string
	APIPassword string
	CallbackURL string
	Timeout     time.Duration
	Logger      *slog.Logger // Optional: defaults to slog.Default()
}

// NewGeideaProvider creates a new Geidea payment provider.
func NewGeideaProvider(cfg GeideaConfig) (*GeideaProvider, error) {
	if cfg.MerchantKey == "" || cfg.APIPassword == "" {
		return nil, ErrMissingCredentials
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	return &GeideaProvider{
		baseURL:     cfg.BaseURL,
		merchantKey: cfg.MerchantKey,
		apiPassword: cfg.APIPassword,
		callbackURL: cfg.CallbackURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

type geideaSessionRequest struct {
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	MerchantRefID    string `json:"merchantReferenceId"`
	CallbackURL      string `json:"callbackUrl"`
	CustomerEmail    string `json:"customerEmail,omitempty"`
	CustomerPhone    string `json:"customerPhoneNumber,omitempty"`
	PaymentOperation string `json:"paymentOperation"`
}

type geideaSessionResponse struct {
	Session struct {
		ID          string `json:"id"`
		RedirectURL string `json:"redirectUrl"`
	} `json:"session"`
	ResponseCode    string `json:"responseCode"`
	DetailedMessage string `json:"detailedMessage"`
}

// CreateSession opens a Geidea hosted payment session.
func (p *GeideaProvider) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrAmountRequired
	}

	logger := p.logger.With(
		"gateway", "geidea",
		"order_number", params.OrderNumber,
	)
	logger.Info("creating payment session")

	currency := params.Currency
	if currency == "" {
		currency = "SAR"
	}

	payload, err := json.Marshal(geideaSessionRequest{
		Amount:           params.Amount.StringFixed(2),
		Currency:         currency,
		MerchantRefID:    params.OrderID,
		CallbackURL:      p.callbackURL,
		CustomerEmail:    params.CustomerEmail,
		CustomerPhone:    params.CustomerPhone,
		PaymentOperation: "Pay",
	})
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	endpoint := p.baseURL + "/payment-intent/api/v2/direct/session"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.SetBasicAuth(p.merchantKey, p.apiPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Error("session request failed", "error", err)
		return nil, ErrGateway(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("session request rejected", "status", resp.StatusCode)
		return nil, ErrGateway(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body geideaSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if body.Session.ID == "" {
		return nil, ErrGateway(fmt.Errorf("session rejected: %s", body.DetailedMessage))
	}

	logger.Info("payment session created", "session_id", body.Session.ID)

	return &Session{
		SessionID:   body.Session.ID,
		RedirectURL: body.Session.RedirectURL,
		Gateway:     "geidea",
	}, nil
}
