package carrier

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed-price business policy: some carriers are sold at a flat rate
// regardless of what the network quotes, with the COD surcharge baked in.
var (
	fixedPriceCOD     = decimal.NewFromInt(35)
	fixedPricePrepaid = decimal.NewFromInt(30)

	// Carrier names (lowercased substring match) subject to the flat rate.
	fixedPriceCarriers = []string{"smsa", "aramex"}
)

// defaultEstimatedDays is used when the carrier name matches no keyword.
const defaultEstimatedDays = 3

// estimatedDaysByKeyword fills in delivery estimates the network omits,
// keyed by a lowercased substring of the carrier name.
var estimatedDaysByKeyword = []struct {
	keyword string
	days    int
}{
	{"dhl", 1},
	{"smsa", 2},
	{"aramex", 2},
	{"redbox", 4},
}

// rawCarrier is one carrier entry as returned by the network, before
// normalization.
type rawCarrier struct {
	ID            string
	Name          string
	Code          string
	ServiceType   string
	Price         decimal.Decimal
	EstimatedDays int
}

// normalizeQuotes converts raw network carriers into presentable quotes:
// fixed-price overrides are applied, missing delivery estimates are filled
// from the keyword table, non-positive prices are dropped, and the result
// is sorted by (price asc, carrier name asc).
func normalizeQuotes(raw []rawCarrier, paymentType string) []Quote {
	quotes := make([]Quote, 0, len(raw))

	for _, rc := range raw {
		q := Quote{
			CarrierID:     rc.ID,
			CarrierName:   rc.Name,
			CarrierCode:   rc.Code,
			ServiceType:   rc.ServiceType,
			Price:         rc.Price,
			EstimatedDays: rc.EstimatedDays,
		}

		if isFixedPriceCarrier(rc.Name) {
			q.Price = fixedPriceFor(paymentType)
		}

		if q.EstimatedDays <= 0 {
			q.EstimatedDays = estimateDays(rc.Name)
		}

		// Dropped after the override so a zero-quoted flat-rate carrier
		// still survives at its fixed price.
		if !q.Price.IsPositive() {
			continue
		}

		quotes = append(quotes, q)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		if cmp := quotes[i].Price.Cmp(quotes[j].Price); cmp != 0 {
			return cmp < 0
		}
		return quotes[i].CarrierName < quotes[j].CarrierName
	})

	return quotes
}

func isFixedPriceCarrier(name string) bool {
	lower := strings.ToLower(name)
	for _, c := range fixedPriceCarriers {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

func fixedPriceFor(paymentType string) decimal.Decimal {
	if paymentType == PaymentTypeCOD {
		return fixedPriceCOD
	}
	return fixedPricePrepaid
}

func estimateDays(name string) int {
	lower := strings.ToLower(name)
	for _, e := range estimatedDaysByKeyword {
		if strings.Contains(lower, e.keyword) {
			return e.days
		}
	}
	return defaultEstimatedDays
}
