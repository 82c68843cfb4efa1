package infra

// pdf.go — document rendering with go-pdf/fpdf.
// Produces an A4 page with the company block and logo on top, the
// customer block, an item table, the totals column and optional notes.
// Layout is shared by all three document kinds; only the title changes.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/money"

	"github.com/go-pdf/fpdf"
)

const pdfMargin = 15.0

// RenderDocumentPDF writes the PDF for doc into storagePath and returns
// the file name relative to it. logo may be nil; the document renders
// without one.
func RenderDocumentPDF(doc *model.Document, company *model.Company, logo *LogoImage, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("document_%s.pdf", doc.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	// ── Company header ────────────────────────────────────────────────────────
	if logo != nil && len(logo.Data) > 0 {
		opts := fpdf.ImageOptions{ImageType: logo.Type, ReadDpi: true}
		pdf.RegisterImageOptionsReader("company-logo", opts, bytes.NewReader(logo.Data))
		// Top-right corner, 30mm wide, height follows aspect ratio
		pdf.ImageOptions("company-logo", pageW-pdfMargin-30, pdfMargin, 30, 0, false, opts, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW-35, 8, company.Name, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	for _, line := range companyContactLines(company) {
		pdf.CellFormat(contentW-35, 4.5, line, "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	// ── Title and number ──────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(contentW, 10, documentTitle(doc.Type), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 5.5, doc.DocumentNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5.5, doc.CreatedAt.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Customer block ────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(contentW, 5, customerLabel(doc.Type), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 6, doc.CustomerName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if doc.CustomerPhone != nil && *doc.CustomerPhone != "" {
		pdf.CellFormat(contentW, 4.5, *doc.CustomerPhone, "", 1, "L", false, 0, "")
	}
	if doc.CustomerEmail != nil && *doc.CustomerEmail != "" {
		pdf.CellFormat(contentW, 4.5, *doc.CustomerEmail, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// ── Item table ────────────────────────────────────────────────────────────
	colDesc := contentW * 0.50
	colQty := contentW * 0.11
	colUnit := contentW * 0.19
	colAmount := contentW * 0.20

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(colDesc, 7, "Description", "B", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, 7, "Qty", "B", 0, "C", true, 0, "")
	pdf.CellFormat(colUnit, 7, "Unit Price", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colAmount, 7, "Amount", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range doc.Items {
		desc := item.Description
		if len(desc) > 48 {
			desc = desc[:47] + "…"
		}
		pdf.CellFormat(colDesc, 6.5, desc, "", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 6.5, fmt.Sprintf("%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(colUnit, 6.5, amount(item.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(colAmount, 6.5, amount(item.Total), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(pdfMargin, pdf.GetY(), pageW-pdfMargin, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	labelW := colDesc + colQty + colUnit

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(labelW, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(colAmount, 6, amount(doc.Subtotal), "", 1, "R", false, 0, "")

	if doc.TaxRate > 0 {
		pdf.CellFormat(labelW, 6, fmt.Sprintf("Tax (%s%%)", money.FormatBasisPercent(doc.TaxRate)), "", 0, "R", false, 0, "")
		pdf.CellFormat(colAmount, 6, amount(doc.TaxAmount), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelW, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(colAmount, 8, amount(doc.Total), "", 1, "R", false, 0, "")

	// ── Notes ─────────────────────────────────────────────────────────────────
	if doc.Notes != nil && *doc.Notes != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(contentW, 4.5, *doc.Notes, "", "L", false)
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(contentW, 4, "Thank you for your business!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return fileName, nil
}

func amount(cents int64) string {
	return money.CurrencyPrefix + " " + money.FormatCents(cents)
}

func documentTitle(t model.DocumentType) string {
	switch t {
	case model.DocQuotation:
		return "QUOTATION"
	case model.DocReceipt:
		return "RECEIPT"
	default:
		return "INVOICE"
	}
}

// customerLabel picks the block heading: a receipt acknowledges a payer,
// the other kinds bill a customer.
func customerLabel(t model.DocumentType) string {
	if t == model.DocReceipt {
		return "RECEIVED FROM"
	}
	return "BILL TO"
}

func companyContactLines(c *model.Company) []string {
	var lines []string
	if c.Address != nil && *c.Address != "" {
		lines = append(lines, *c.Address)
	}
	if c.Phone != nil && *c.Phone != "" {
		lines = append(lines, "Tel: "+*c.Phone)
	}
	if c.Email != nil && *c.Email != "" {
		lines = append(lines, *c.Email)
	}
	return lines
}
