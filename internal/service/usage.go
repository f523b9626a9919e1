package service

import (
	"math"
	"strings"

	"printshop/internal/model"
)

// materialCatalog maps the customer-facing material label on an order
// item to the concrete stocked raw-material name.
var materialCatalog = map[string]string{
	"Premium Paper (120gsm)": "A4 Premium White Paper",
	"Standard Paper (80gsm)": "A4 Standard White Paper",
	"Glossy Paper (200gsm)":  "A4 Glossy Photo Paper",
	"Matte Paper (150gsm)":   "A4 Matte Coated Paper",
	"Cardstock (250gsm)":     "A4 White Cardstock",
	"Vinyl":                  "Vinyl Banner Roll",
	"Canvas":                 "Canvas Roll",
	"Photo Paper":            "A4 Glossy Photo Paper",
}

// Fixed consumable names used by the ink add-ons.
const (
	colorInkSetName = "CMYK Ink Set"
	blackInkName    = "Black Ink Cartridge"
	colorModeBW     = "Black & White"
	wasteFactor     = 1.10 // fixed 10% production loss allowance
)

// UsageLine is one computed material requirement for a line item.
type UsageLine struct {
	MaterialName string
	Quantity     int
	Unit         string
}

// largeFormat sizes double the base material quantity.
func largeFormat(size string) bool {
	switch strings.ToUpper(strings.TrimSpace(size)) {
	case "A3", "A2", "A1", "A0", "LARGE":
		return true
	}
	return false
}

// rollProduct reports product types measured in roll meters rather than
// sheets; they consume half the base quantity.
func rollProduct(productType string) bool {
	switch strings.ToLower(strings.TrimSpace(productType)) {
	case "banner", "poster":
		return true
	}
	return false
}

// ResolveMaterialName maps a requested material label to the stocked
// raw-material name, falling back to the label itself for custom stock.
func ResolveMaterialName(label string) string {
	if name, ok := materialCatalog[label]; ok {
		return name
	}
	return label
}

// ComputeUsage derives the raw-material requirements for one order line
// item: the primary substrate adjusted for format and waste, a colour
// ink set when the job is not black & white, and black ink always.
func ComputeUsage(item model.OrderItem) []UsageLine {
	if item.Quantity <= 0 {
		return nil
	}

	base := float64(item.Quantity)
	unit := "sheets"
	if largeFormat(item.Size) {
		base *= 2
	}
	if rollProduct(item.ProductType) {
		base *= 0.5
		unit = "meters"
	}
	primaryQty := int(math.Ceil(base * wasteFactor))

	lines := []UsageLine{
		{
			MaterialName: ResolveMaterialName(item.MaterialLabel),
			Quantity:     primaryQty,
			Unit:         unit,
		},
	}

	if !strings.EqualFold(strings.TrimSpace(item.ColorMode), colorModeBW) {
		lines = append(lines, UsageLine{
			MaterialName: colorInkSetName,
			Quantity:     int(math.Ceil(float64(item.Quantity) / 100)),
			Unit:         "sets",
		})
	}

	lines = append(lines, UsageLine{
		MaterialName: blackInkName,
		Quantity:     int(math.Ceil(float64(item.Quantity) / 200)),
		Unit:         "cartridges",
	})

	return lines
}
