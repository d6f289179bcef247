// internal/domain/checkout/tax.go
package checkout

import "math"

// TaxCalculation represents the tax breakdown for an order total
type TaxCalculation struct {
	TaxRate        float64 `json:"tax_rate"`
	TaxAmount      int64   `json:"tax_amount"` // Minor units
	TotalWithTax   int64   `json:"total_with_tax"`
	TaxDescription string  `json:"tax_description"`
}

// taxRates is the static currency→rate table. Unknown currencies are
// untaxed with an explicit description so the gap is visible on receipts.
var taxRates = map[string]struct {
	rate        float64
	description string
}{
	"AUD": {0.10, "GST 10%"},
	"GBP": {0.20, "VAT 20%"},
}

// CalculateTax computes the tax-inclusive total for a subtotal in minor
// units. Pure function: the orchestrator must use this identically at
// payment-verification time and at order-recording time, otherwise amount
// checks against the gateway would drift.
func CalculateTax(subtotal int64, currency string) TaxCalculation {
	entry, ok := taxRates[currency]
	if !ok {
		return TaxCalculation{
			TaxRate:        0,
			TaxAmount:      0,
			TotalWithTax:   subtotal,
			TaxDescription: "no tax configured",
		}
	}

	taxAmount := int64(math.Round(float64(subtotal) * entry.rate))
	return TaxCalculation{
		TaxRate:        entry.rate,
		TaxAmount:      taxAmount,
		TotalWithTax:   subtotal + taxAmount,
		TaxDescription: entry.description,
	}
}
