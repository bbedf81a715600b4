package carrier

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	GetQuotesFunc      func(ctx context.Context, params QuoteParams) ([]Quote, error)
	CreateShipmentFunc func(ctx context.Context, params ShipmentParams) (*Shipment, error)

	mu    sync.Mutex
	calls []QuoteParams
}

// NewMockProvider creates a mock carrier provider returning one default quote.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// GetQuotes delegates to the configured function or returns a default quote.
func (m *MockProvider) GetQuotes(ctx context.Context, params QuoteParams) ([]Quote, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()

	if m.GetQuotesFunc != nil {
		return m.GetQuotesFunc(ctx, params)
	}
	return []Quote{
		{
			CarrierID:     "1",
			CarrierName:   "Mock Express",
			CarrierCode:   "MOCK",
			Price:         decimal.NewFromInt(25),
			EstimatedDays: 3,
		},
	}, nil
}

// QuoteCalls returns a copy of the recorded GetQuotes params. Safe to call
// while a debounced fetch is running.
func (m *MockProvider) QuoteCalls() []QuoteParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]QuoteParams, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CreateShipment delegates to the configured function or returns a default AWB.
func (m *MockProvider) CreateShipment(ctx context.Context, params ShipmentParams) (*Shipment, error) {
	if m.CreateShipmentFunc != nil {
		return m.CreateShipmentFunc(ctx, params)
	}
	return &Shipment{AWBNumber: "AWB-MOCK-0001", CarrierID: params.CarrierID}, nil
}
