package service

import (
	"testing"

	"printshop/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findLine(t *testing.T, lines []UsageLine, materialName string) UsageLine {
	t.Helper()
	for _, line := range lines {
		if line.MaterialName == materialName {
			return line
		}
	}
	t.Fatalf("no usage line for %s", materialName)
	return UsageLine{}
}

func TestComputeUsage_StandardColourJob(t *testing.T) {
	lines := ComputeUsage(model.OrderItem{
		ProductType:   "flyer",
		Quantity:      100,
		MaterialLabel: "Standard Paper (80gsm)",
		Size:          "A4",
		ColorMode:     "Full Color",
	})
	require.Len(t, lines, 3)

	paper := findLine(t, lines, "A4 Standard White Paper")
	assert.Equal(t, 110, paper.Quantity) // 100 * 1.10 waste
	assert.Equal(t, "sheets", paper.Unit)

	ink := findLine(t, lines, "CMYK Ink Set")
	assert.Equal(t, 1, ink.Quantity)
	assert.Equal(t, "sets", ink.Unit)

	black := findLine(t, lines, "Black Ink Cartridge")
	assert.Equal(t, 1, black.Quantity)
	assert.Equal(t, "cartridges", black.Unit)
}

func TestComputeUsage_LargeFormatDoubles(t *testing.T) {
	lines := ComputeUsage(model.OrderItem{
		ProductType:   "flyer",
		Quantity:      100,
		MaterialLabel: "Glossy Paper (200gsm)",
		Size:          "A3",
		ColorMode:     "Full Color",
	})
	paper := findLine(t, lines, "A4 Glossy Photo Paper")
	assert.Equal(t, 220, paper.Quantity) // 100 * 2 * 1.10
}

func TestComputeUsage_RollProductsUseMeters(t *testing.T) {
	lines := ComputeUsage(model.OrderItem{
		ProductType:   "banner",
		Quantity:      10,
		MaterialLabel: "Vinyl",
		ColorMode:     "Full Color",
	})
	vinyl := findLine(t, lines, "Vinyl Banner Roll")
	assert.Equal(t, 6, vinyl.Quantity) // ceil(10 * 0.5 * 1.10)
	assert.Equal(t, "meters", vinyl.Unit)
}

func TestComputeUsage_BlackAndWhiteSkipsColourInk(t *testing.T) {
	lines := ComputeUsage(model.OrderItem{
		ProductType:   "flyer",
		Quantity:      200,
		MaterialLabel: "Standard Paper (80gsm)",
		Size:          "A4",
		ColorMode:     "Black & White",
	})
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.NotEqual(t, "CMYK Ink Set", line.MaterialName)
	}
	black := findLine(t, lines, "Black Ink Cartridge")
	assert.Equal(t, 1, black.Quantity) // ceil(200/200)
}

func TestComputeUsage_InkRoundsUpPerBlock(t *testing.T) {
	lines := ComputeUsage(model.OrderItem{
		ProductType:   "sticker",
		Quantity:      201,
		MaterialLabel: "Standard Paper (80gsm)",
		ColorMode:     "Full Color",
	})
	assert.Equal(t, 3, findLine(t, lines, "CMYK Ink Set").Quantity)        // ceil(201/100)
	assert.Equal(t, 2, findLine(t, lines, "Black Ink Cartridge").Quantity) // ceil(201/200)
}

func TestComputeUsage_ZeroQuantity(t *testing.T) {
	assert.Nil(t, ComputeUsage(model.OrderItem{Quantity: 0}))
	assert.Nil(t, ComputeUsage(model.OrderItem{Quantity: -5}))
}

func TestResolveMaterialName(t *testing.T) {
	assert.Equal(t, "A4 White Cardstock", ResolveMaterialName("Cardstock (250gsm)"))
	// Unknown labels pass through so custom stock still resolves.
	assert.Equal(t, "Transparent Film", ResolveMaterialName("Transparent Film"))
}
