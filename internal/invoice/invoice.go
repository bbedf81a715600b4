package invoice

import (
	"context"

	"github.com/shopspring/decimal"
)

// Creator defines the interface for invoice generation. Invoicing is
// best-effort: its outcome never changes order state, only logs and the
// retry schedule of the background job that drives it.
type Creator interface {
	CreateInvoice(ctx context.Context, params InvoiceParams) (*Invoice, error)
}

// InvoiceParams describes one order to invoice.
type InvoiceParams struct {
	OrderID       string
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Lines         []Line
	Shipping      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
}

// Line is one invoiced order line.
type Line struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Invoice is a created invoice reference.
type Invoice struct {
	InvoiceID     string
	InvoiceNumber string
}
