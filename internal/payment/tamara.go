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

// TamaraProvider implements the Provider interface against the Tamara
// buy-now-pay-later checkout API.
type TamaraProvider struct {
	baseURL     string
	apiToken    string
	callbackURL string
	client      *http.Client
	logger      *slog.Logger
}

// TamaraConfig contains configuration for the Tamara provider.
type TamaraConfig struct {
	BaseURL     string
	APIToken    string
	CallbackURL string
	Timeout     time.Duration
	Logger      *slog.Logger // Optional: defaults to slog.Default()
}

// NewTamaraProvider creates a new Tamara payment provider.
func NewTamaraProvider(cfg TamaraConfig) (*TamaraProvider, error) {
	if cfg.APIToken == "" {
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

	return &TamaraProvider{
		baseURL:     cfg.BaseURL,
		apiToken:    cfg.APIToken,
		callbackURL: cfg.CallbackURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

type tamaraAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type tamaraCheckoutRequest struct {
	TotalAmount tamaraAmount `json:"total_amount"`
	OrderRefID  string       `json:"order_reference_id"`
	PaymentType string       `json:"payment_type"`
	Consumer    struct {
		FirstName   string `json:"first_name"`
		PhoneNumber string `json:"phone_number"`
		Email       string `json:"email,omitempty"`
	} `json:"consumer"`
	MerchantURL struct {
		Success      string `json:"success"`
		Cancel       string `json:"cancel"`
		Failure      string `json:"failure"`
		Notification string `json:"notification"`
	} `json:"merchant_url"`
	CountryCode string `json:"country_code"`
}

type tamaraCheckoutResponse struct {
	CheckoutID  string `json:"checkout_id"`
	CheckoutURL string `json:"checkout_url"`
	Message     string `json:"message"`
}

// CreateSession opens a Tamara checkout session.
func (p *TamaraProvider) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrAmountRequired
	}

	logger := p.logger.With(
		"gateway", "tamara",
		"order_number", params.OrderNumber,
	)
	logger.Info("creating payment session")

	currency := params.Currency
	if currency == "" {
		currency = "SAR"
	}

	reqBody := tamaraCheckoutRequest{
		TotalAmount: tamaraAmount{Amount: params.Amount.StringFixed(2), Currency: currency},
		OrderRefID:  params.OrderID,
		PaymentType: "PAY_BY_INSTALMENTS",
		CountryCode: "SA",
	}
	reqBody.Consumer.FirstName = params.CustomerName
	reqBody.Consumer.PhoneNumber = params.CustomerPhone
	reqBody.Consumer.Email = params.CustomerEmail
	reqBody.MerchantURL.Success = p.callbackURL
	reqBody.MerchantURL.Cancel = p.callbackURL
	reqBody.MerchantURL.Failure = p.callbackURL
	reqBody.MerchantURL.Notification = p.callbackURL

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode checkout request: %w", err)
	}

	endpoint := p.baseURL + "/checkout"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Error("checkout request failed", "error", err)
		return nil, ErrGateway(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("checkout request rejected", "status", resp.StatusCode)
		return nil, ErrGateway(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body tamaraCheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode checkout response: %w", err)
	}
	if body.CheckoutID == "" {
		return nil, ErrGateway(fmt.Errorf("checkout rejected: %s", body.Message))
	}

	logger.Info("payment session created", "session_id", body.CheckoutID)

	return &Session{
		SessionID:   body.CheckoutID,
		RedirectURL: body.CheckoutURL,
		Gateway:     "tamara",
	}, nil
}
