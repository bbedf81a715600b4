package tax

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PercentageCalculator applies a flat VAT rate to goods plus shipping.
// The default Saudi VAT rate is 15%.
type PercentageCalculator struct {
	rate decimal.Decimal
}

// NewPercentageCalculator creates a calculator with the given rate,
// expressed as a fraction (0.15 for 15%).
func NewPercentageCalculator(rate float64) (*PercentageCalculator, error) {
	if rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("tax rate must be in [0, 1), got %v", rate)
	}
	return &PercentageCalculator{rate: decimal.NewFromFloat(rate)}, nil
}

// CalculateTax returns (subtotal + shipping) x rate, rounded to halalas.
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	base := params.Subtotal.Add(params.Shipping)
	tax := base.Mul(c.rate).Round(2)

	return &TaxResult{Tax: tax, Rate: c.rate}, nil
}

// NoTaxCalculator always returns zero tax. Used in tests and for
// tax-exempt deployments.
type NoTaxCalculator struct{}

func (NoTaxCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	return &TaxResult{Tax: decimal.Zero, Rate: decimal.Zero}, nil
}
