package pdfgen

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceLine is one row of the invoice items table.
type InvoiceLine struct {
	Description string
	Quantity    int
	UnitPrice   string
	Amount      string
}

// InvoiceData carries everything the PDF needs; amounts arrive
// preformatted so the renderer stays free of money math.
type InvoiceData struct {
	InvoiceNo    string
	IssuedAt     string
	ShopName     string
	ShopAddress  string
	CustomerName string
	OrderNo      string
	Lines        []InvoiceLine
	Subtotal     string
	Tax          string
	Discount     string
	Total        string
}

// RenderInvoice builds an A4 invoice PDF and returns the raw bytes.
func RenderInvoice(data InvoiceData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+data.InvoiceNo, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, data.ShopName)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, data.ShopAddress)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "INVOICE "+data.InvoiceNo)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Date: "+data.IssuedAt)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Order: "+data.OrderNo)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Billed to: "+data.CustomerName)
	pdf.Ln(10)

	// items table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range data.Lines {
		pdf.CellFormat(90, 8, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, line.UnitPrice, "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, line.Amount, "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	totals := [][2]string{
		{"Subtotal", data.Subtotal},
		{"Tax", data.Tax},
		{"Discount", data.Discount},
		{"Total", data.Total},
	}
	for i, row := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(150, 7, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, row[1], "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
