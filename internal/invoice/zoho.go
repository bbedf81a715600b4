package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultZohoTimeout = 15 * time.Second

// ErrMissingCredentials is returned when the Zoho configuration is incomplete.
var ErrMissingCredentials = errors.New("zoho organization id and access token are required")

// ZohoCreator implements Creator against the Zoho Invoice API.
type ZohoCreator struct {
	baseURL        string
	organizationID string
	accessToken    string
	client         *http.Client
	logger         *slog.Logger
}

// ZohoConfig contains configuration for the Zoho invoice client.
type ZohoConfig struct {
	BaseURL        string
	OrganizationID string
	AccessToken    string
	Timeout        time.Duration
	Logger         *slog.Logger // Optional: defaults to slog.Default()
}

// NewZohoCreator creates a new Zoho invoice client.
func NewZohoCreator(cfg ZohoConfig) (*ZohoCreator, error) {
	if cfg.OrganizationID == "" || cfg.AccessToken == "" {
		return nil, ErrMissingCredentials
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultZohoTimeout
	}

	return &ZohoCreator{
		baseURL:        cfg.BaseURL,
		organizationID: cfg.OrganizationID,
		accessToken:    cfg.AccessToken,
		client:         &http.Client{Timeout: timeout},
		logger:         logger,
	}, nil
}

type zohoLineItem struct {
	Name     string `json:"name"`
	Rate     string `json:"rate"`
	Quantity int    `json:"quantity"`
}

type zohoInvoiceRequest struct {
	ReferenceNumber string         `json:"reference_number"`
	CustomerName    string         `json:"customer_name"`
	LineItems       []zohoLineItem `json:"line_items"`
	ShippingCharge  string         `json:"shipping_charge"`
	TaxTotal        string         `json:"tax_total"`
}

type zohoInvoiceResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Invoice struct {
		InvoiceID     string `json:"invoice_id"`
		InvoiceNumber string `json:"invoice_number"`
	} `json:"invoice"`
}

// CreateInvoice creates a Zoho invoice for an order.
func (c *ZohoCreator) CreateInvoice(ctx context.Context, params InvoiceParams) (*Invoice, error) {
	logger := c.logger.With("order_number", params.OrderNumber)
	logger.Info("creating invoice")

	lines := make([]zohoLineItem, 0, len(params.Lines))
	for _, l := range params.Lines {
		lines = append(lines, zohoLineItem{
			Name:     l.Name,
			Rate:     l.UnitPrice.StringFixed(2),
			Quantity: l.Quantity,
		})
	}

	payload, err := json.Marshal(zohoInvoiceRequest{
		ReferenceNumber: params.OrderNumber,
		CustomerName:    params.CustomerName,
		LineItems:       lines,
		ShippingCharge:  params.Shipping.StringFixed(2),
		TaxTotal:        params.Tax.StringFixed(2),
	})
	if err != nil {
		return nil, fmt.Errorf("encode invoice request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/invoices?organization_id=%s", c.baseURL, c.organizationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build invoice request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("invoice request failed", "error", err)
		return nil, fmt.Errorf("invoice request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("invoice request rejected", "status", resp.StatusCode)
		return nil, fmt.Errorf("invoice request: unexpected status %d", resp.StatusCode)
	}

	var body zohoInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode invoice response: %w", err)
	}
	if body.Invoice.InvoiceID == "" {
		return nil, fmt.Errorf("invoice rejected: %s", body.Message)
	}

	logger.Info("invoice created", "invoice_number", body.Invoice.InvoiceNumber)

	return &Invoice{
		InvoiceID:     body.Invoice.InvoiceID,
		InvoiceNumber: body.Invoice.InvoiceNumber,
	}, nil
}
