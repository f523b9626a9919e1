package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Base unit prices per product type. Unknown types fall back to the
// default so a custom job still gets a sane quote.
var baseUnitPrices = map[string]decimal.Decimal{
	"business-card": decimal.NewFromFloat(0.10),
	"flyer":         decimal.NewFromFloat(0.25),
	"brochure":      decimal.NewFromFloat(1.20),
	"poster":        decimal.NewFromFloat(3.50),
	"banner":        decimal.NewFromFloat(12.00),
	"sticker":       decimal.NewFromFloat(0.40),
}

var defaultUnitPrice = decimal.NewFromFloat(1.00)

func intToDecimal(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// DefaultTaxRate is the sales tax applied when no override is configured.
func DefaultTaxRate() decimal.Decimal {
	return defaultTaxRate
}

// PriceSpec is the structured input to the pricing function. Every
// handler that quotes a price goes through here; there is exactly one
// multiplier table in the system.
type PriceSpec struct {
	ProductType string
	Size        string
	ColorMode   string
	Quantity    int
}

// CostBreakdown is a fully itemized quote.
type CostBreakdown struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"` // subtotal + tax - discount
}

// ComputePrice quotes a line item. Large formats cost 1.5x, full colour
// 1.5x, and volume discounts apply at 500 (5%) and 1000 (10%) units.
func ComputePrice(spec PriceSpec, taxRate decimal.Decimal) CostBreakdown {
	unitPrice, ok := baseUnitPrices[strings.ToLower(strings.TrimSpace(spec.ProductType))]
	if !ok {
		unitPrice = defaultUnitPrice
	}

	if largeFormat(spec.Size) {
		unitPrice = unitPrice.Mul(decimal.NewFromFloat(1.5))
	}
	if !strings.EqualFold(strings.TrimSpace(spec.ColorMode), colorModeBW) {
		unitPrice = unitPrice.Mul(decimal.NewFromFloat(1.5))
	}

	qty := decimal.NewFromInt(int64(spec.Quantity))
	subtotal := unitPrice.Mul(qty)

	discountRate := decimal.Zero
	switch {
	case spec.Quantity >= 1000:
		discountRate = decimal.NewFromFloat(0.10)
	case spec.Quantity >= 500:
		discountRate = decimal.NewFromFloat(0.05)
	}
	discount := subtotal.Mul(discountRate)

	tax := subtotal.Mul(taxRate)
	total := subtotal.Add(tax).Sub(discount)

	return CostBreakdown{
		UnitPrice: unitPrice,
		Subtotal:  subtotal,
		Tax:       tax,
		Discount:  discount,
		Total:     total,
	}
}
