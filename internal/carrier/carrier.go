package carrier

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Payment types the carrier network distinguishes when quoting.
const (
	PaymentTypeCOD     = "cod"
	PaymentTypePrepaid = "prepaid"
)

// Provider defines the interface for carrier network operations.
// Implementations integrate with shipping aggregators like Bolesa.
type Provider interface {
	// GetQuotes returns the available carrier options for a shipment.
	// On upstream failure it returns an empty slice and a typed error;
	// callers treat the failure as "quotes unavailable", never fatal.
	GetQuotes(ctx context.Context, params QuoteParams) ([]Quote, error)

	// CreateShipment books a shipment with the selected carrier and
	// returns the assigned air waybill number.
	CreateShipment(ctx context.Context, params ShipmentParams) (*Shipment, error)
}

// QuoteParams contains parameters for fetching carrier quotes.
type QuoteParams struct {
	OriginCityID      string
	DestinationCityID string

	// Weight in kilograms. Values below 1 are clamped to 1.
	Weight float64

	// PaymentType is "cod" or "prepaid"; it changes both upstream pricing
	// and the fixed-price overrides applied during normalization.
	PaymentType string
}

// EffectiveWeight returns the weight the network is actually quoted with.
func (p QuoteParams) EffectiveWeight() float64 {
	if p.Weight < 1 {
		return 1
	}
	return p.Weight
}

// Quote is one carrier option, normalized and priced in SAR.
type Quote struct {
	CarrierID     string
	CarrierName   string
	CarrierCode   string
	ServiceType   string
	Price         decimal.Decimal
	EstimatedDays int
}

// ShipmentParams contains parameters for booking a shipment.
type ShipmentParams struct {
	CarrierID    string
	OrderNumber  string
	PaymentType  string
	CODAmount    decimal.Decimal
	Weight       float64
	OriginCityID string
	Destination  Destination
}

// Destination is the recipient side of a shipment booking.
type Destination struct {
	Name                string
	Phone               string
	CityID              string
	Street              string
	NationalAddressCode string
}

// Shipment is a booked shipment with its tracking identity.
type Shipment struct {
	AWBNumber string
	CarrierID string
	CreatedAt time.Time
}
