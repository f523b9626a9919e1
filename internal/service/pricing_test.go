package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	assert.True(t, want.Equal(actual), "expected %s, got %s", want, actual)
}

func TestComputePrice_ColourFlyer(t *testing.T) {
	got := ComputePrice(PriceSpec{
		ProductType: "flyer",
		Size:        "A4",
		ColorMode:   "Full Color",
		Quantity:    100,
	}, decimal.NewFromFloat(0.10))

	assertDecimal(t, "0.375", got.UnitPrice) // 0.25 base * 1.5 colour
	assertDecimal(t, "37.5", got.Subtotal)
	assertDecimal(t, "3.75", got.Tax)
	assertDecimal(t, "0", got.Discount)
	assertDecimal(t, "41.25", got.Total)
}

func TestComputePrice_LargeFormatMultiplier(t *testing.T) {
	got := ComputePrice(PriceSpec{
		ProductType: "banner",
		Size:        "A2",
		ColorMode:   "Full Color",
		Quantity:    1,
	}, decimal.Zero)

	assertDecimal(t, "27", got.UnitPrice) // 12 * 1.5 large * 1.5 colour
	assertDecimal(t, "27", got.Total)
}

func TestComputePrice_VolumeDiscounts(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		discount string
	}{
		{"no discount below 500", 499, "0"},
		{"5 percent at 500", 500, "2.5"},   // 500 * 0.10 * 0.05
		{"10 percent at 1000", 1000, "10"}, // 1000 * 0.10 * 0.10
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePrice(PriceSpec{
				ProductType: "business-card",
				ColorMode:   "Black & White",
				Quantity:    tt.quantity,
			}, decimal.Zero)
			assertDecimal(t, tt.discount, got.Discount)
		})
	}
}

func TestComputePrice_UnknownProductFallsBack(t *testing.T) {
	got := ComputePrice(PriceSpec{
		ProductType: "embossed-invitation",
		ColorMode:   "Black & White",
		Quantity:    10,
	}, decimal.Zero)
	assertDecimal(t, "1", got.UnitPrice)
	assertDecimal(t, "10", got.Total)
}

func TestComputePrice_BlackAndWhiteSkipsColourMultiplier(t *testing.T) {
	colour := ComputePrice(PriceSpec{ProductType: "flyer", ColorMode: "CMYK", Quantity: 10}, decimal.Zero)
	bw := ComputePrice(PriceSpec{ProductType: "flyer", ColorMode: "Black & White", Quantity: 10}, decimal.Zero)
	assert.True(t, colour.UnitPrice.GreaterThan(bw.UnitPrice))
	assertDecimal(t, "0.25", bw.UnitPrice)
}
