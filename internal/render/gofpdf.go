package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nordview/invoicer/internal/domain"
)

// PDFRenderer implements Renderer using gofpdf. The layout is deliberately
// plain: issuing company block, addressee block, service table with
// per-line amounts, totals summary and payment instructions.
type PDFRenderer struct {
	company domain.Company
}

// NewPDFRenderer creates a renderer issuing invoices for company.
func NewPDFRenderer(company domain.Company) *PDFRenderer {
	return &PDFRenderer{company: company}
}

// Render produces the PDF bytes for one invoice.
func (r *PDFRenderer) Render(ctx context.Context, inv domain.Invoice) ([]byte, error) {
	if inv.Number <= 0 {
		return nil, domain.Errorf(domain.EINVALID, "render.render", "invoice number must be positive, got %d", inv.Number)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %d", inv.Number), false)
	pdf.AddPage()

	// Issuing company block
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 8, r.company.Name)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range r.company.Details {
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	// Invoice header
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 7, fmt.Sprintf("Invoice %d", inv.Number))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 5, fmt.Sprintf("Date: %s", inv.IssuedAt.Format("2 January 2006")))
	pdf.Ln(9)

	// Addressee block
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 5, inv.Client.Name)
	pdf.Ln(5)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range inv.Client.Details {
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}
	pdf.Ln(8)

	// Service table
	widths := []float64{70, 30, 18, 25, 17, 30}
	headers := []string{"Description", "Period", "Qty", "Unit price", "Tax", "Total"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range inv.Client.Services {
		pdf.CellFormat(widths[0], 6, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, line.Period, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, line.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, domain.Money(line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, taxPercent(line), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, domain.Money(line.Total()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	// Totals summary. Amounts are exact until this point; Money rounds for
	// display only.
	totals := inv.Totals()
	summary := []struct {
		label string
		value string
	}{
		{"Subtotal", domain.Money(totals.Subtotal)},
		{"Tax", domain.Money(totals.Tax)},
		{"Total due", domain.Money(totals.GrandTotal)},
	}
	for i, row := range summary {
		if i == len(summary)-1 {
			pdf.SetFont("Helvetica", "B", 10)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(160, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, row.value, "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(8)

	// Payment instructions
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 5, "Payment details")
	pdf.Ln(5)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range inv.Client.PaymentDetails {
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, domain.Internal(err, "render.render", fmt.Sprintf("failed to render invoice %d", inv.Number))
	}

	return buf.Bytes(), nil
}

func taxPercent(line domain.ServiceLine) string {
	return line.TaxRate.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}
