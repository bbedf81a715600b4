package invoice

import "context"

// MockCreator is a test implementation of Creator.
type MockCreator struct {
	CreateInvoiceFunc func(ctx context.Context, params InvoiceParams) (*Invoice, error)

	// CreateInvoiceCalls records the params of every invocation.
	CreateInvoiceCalls []InvoiceParams
}

// NewMockCreator creates a mock invoice creator for testing.
func NewMockCreator() *MockCreator {
	return &MockCreator{}
}

// CreateInvoice delegates to the configured function or returns a default invoice.
func (m *MockCreator) CreateInvoice(ctx context.Context, params InvoiceParams) (*Invoice, error) {
	m.CreateInvoiceCalls = append(m.CreateInvoiceCalls, params)
	if m.CreateInvoiceFunc != nil {
		return m.CreateInvoiceFunc(ctx, params)
	}
	return &Invoice{InvoiceID: "inv-mock-1", InvoiceNumber: "INV-000001"}, nil
}
