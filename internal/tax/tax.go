package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator
type Calculator interface {
	// CalculateTax computes tax for an order's goods and shipping.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
// Saudi VAT applies to the shipped total, so shipping is part of the base.
type TaxParams struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
}

// TaxResult contains the calculated tax amount.
type TaxResult struct {
	Tax  decimal.Decimal
	Rate decimal.Decimal
}
