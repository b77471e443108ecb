// Package document renders invoices as PDF documents.
package document

import (
	"io"

	"github.com/jung-kurt/gofpdf"
	"receivables.app/invoicing/calculator"
	"receivables.app/invoicing/models"
)

const dateLayout = "02 Jan 2006"

var columnWidths = []float64{80, 20, 30, 20, 40}

type row struct {
	Label string
	Value string
}

// Render writes invoice as an A4 PDF to w.
func Render(w io.Writer, invoice *models.Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; currency symbols need translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Invoice "+invoice.Number, true)
	pdf.SetAuthor(invoice.BusinessName, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(invoice.BusinessName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	for _, r := range headerRows(invoice) {
		pdf.CellFormat(40, 6, tr(r.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(r.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, heading := range []string{"Description", "Qty", "Unit price", "Disc. %", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(columnWidths[i], 8, heading, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range itemRows(invoice) {
		for i, cell := range item {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(columnWidths[i], 7, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	totals := totalRows(invoice)
	for i, r := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 11)
		pdf.CellFormat(150, 7, tr(r.Label), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, tr(r.Value), "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Payment terms", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	terms := calculator.ResolvePaymentTerms(invoice.Configuration)
	pdf.MultiCell(0, 6, tr(terms.Description), "", "L", false)

	if invoice.PaymentMethod != nil {
		if details := invoice.PaymentMethod.Details(); details != nil {
			pdf.Ln(4)
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 7, "How to pay", "", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			for _, line := range details.Lines() {
				pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
			}
		}
	}

	return pdf.Output(w)
}

func headerRows(invoice *models.Invoice) []row {
	return []row{
		{"Invoice", invoice.Number},
		{"Bill to", invoice.CustomerName},
		{"Issued", invoice.IssuedAt.Format(dateLayout)},
		{"Due", invoice.DueDate.Format(dateLayout)},
		{"Status", string(invoice.Status)},
	}
}

func itemRows(invoice *models.Invoice) [][]string {
	currency := invoice.Configuration.Currency
	rows := make([][]string, 0, len(invoice.Configuration.Items))
	for _, item := range invoice.Configuration.Items {
		rows = append(rows, []string{
			item.Description,
			item.Quantity.String(),
			calculator.Format(item.UnitPrice, currency),
			item.DiscountPercentage.String(),
			calculator.Format(calculator.LineTotal(item), currency),
		})
	}
	return rows
}

func totalRows(invoice *models.Invoice) []row {
	currency := invoice.Configuration.Currency
	totals := calculator.CalculateTotals(invoice.Configuration)
	if invoice.Totals != nil {
		totals = *invoice.Totals
	}

	rows := []row{{"Subtotal", calculator.Format(totals.Subtotal, currency)}}
	if invoice.Configuration.IncludeVAT {
		rows = append(rows, row{"VAT (" + invoice.Configuration.VATRate.Shift(2).String() + "%)", calculator.Format(totals.VATAmount, currency)})
	}
	if !invoice.LateFees.IsZero() {
		rows = append(rows, row{"Late fees", calculator.Format(invoice.LateFees, currency)})
	}
	return append(rows, row{"Balance due", calculator.Format(totals.Total.Add(invoice.LateFees), currency)})
}
