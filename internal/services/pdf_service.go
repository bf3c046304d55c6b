package services

import (
	"bytes"
	"fmt"
	"strings"

	"billdesk/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// PDFRenderer turns an invoice into a printable document.
type PDFRenderer interface {
	Render(invoice *models.Invoice) ([]byte, error)
}

type pdfService struct{}

func NewPDFService() PDFRenderer {
	return &pdfService{}
}

// FormatAmount renders v with two decimals, prefixed by the currency code.
func FormatAmount(currency string, v float64) string {
	amount := decimal.NewFromFloat(v).Round(2).StringFixed(2)
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

func formatQuantity(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func (s *pdfService) Render(invoice *models.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	// Issuer header
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	title := invoice.FromBusinessName
	if title == "" {
		title = "INVOICE"
	}
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{invoice.FromAddress, invoice.FromEmail, invoice.FromPhone} {
		if line != "" {
			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}
	}
	if invoice.FromGST != "" {
		pdf.Cell(0, 5, tr("GSTIN: "+invoice.FromGST))
		pdf.Ln(5)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, tr("Invoice Number: "+invoice.InvoiceNumber))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	if invoice.IssueDate != nil {
		pdf.Cell(0, 6, "Invoice Date: "+invoice.IssueDate.Format("02-Jan-2006"))
		pdf.Ln(6)
	}
	if invoice.DueDate != nil {
		pdf.Cell(0, 6, "Due Date: "+invoice.DueDate.Format("02-Jan-2006"))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, "Status: "+strings.ToUpper(string(invoice.Status)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "BILL TO:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{invoice.Client.Name, invoice.Client.Address, invoice.Client.Email, invoice.Client.Phone} {
		if line != "" {
			pdf.Cell(0, 6, tr(line))
			pdf.Ln(6)
		}
	}
	pdf.Ln(4)

	// Items table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	headers := []string{"Description", "Qty", "Rate", "Amount"}
	colWidths := []float64{80, 20, 30, 40}
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, item := range invoice.Items {
		pdf.CellFormat(colWidths[0], 8, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, formatQuantity(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, FormatAmount("", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, FormatAmount("", item.Amount()), "1", 0, "R", false, 0, "")
		pdf.Ln(8)
	}
	pdf.Ln(5)

	// Totals
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 6, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, FormatAmount(invoice.Currency, invoice.Subtotal), "", 0, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 9)
	taxLabel := fmt.Sprintf("Tax (%s%%):", decimal.NewFromFloat(invoice.EffectiveTaxPercent()).String())
	pdf.CellFormat(130, 5, taxLabel, "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 5, FormatAmount(invoice.Currency, invoice.Tax), "", 0, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(130, 8, "TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, FormatAmount(invoice.Currency, invoice.Total), "", 0, "R", false, 0, "")
	pdf.Ln(12)

	if invoice.Notes != "" {
		pdf.SetFont("Arial", "B", 9)
		pdf.Cell(0, 6, "Notes:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(invoice.Notes), "", "L", false)
		pdf.Ln(5)
	}

	if invoice.SignatureName != "" || invoice.SignatureTitle != "" {
		pdf.Ln(10)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, tr(invoice.SignatureName), "", 1, "R", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(0, 5, tr(invoice.SignatureTitle), "", 1, "R", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.Cell(0, 5, "This is a computer generated invoice.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
