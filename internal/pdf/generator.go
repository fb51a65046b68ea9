package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/money"
)

const embeddedFontName = "LeaseFont"

type Generator struct {
	fontName string
	fontData []byte
}

// NewGenerator loads the UTF-8 font at fontPath. An empty path falls back to
// the built-in Helvetica, which cannot render Thai script.
func NewGenerator(fontPath string) (*Generator, error) {
	if strings.TrimSpace(fontPath) == "" {
		return &Generator{fontName: "Helvetica"}, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf font: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	return &Generator{fontName: embeddedFontName, fontData: data}, nil
}

func (g *Generator) Generate(doc model.ContractDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 18, 20)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle(fmt.Sprintf("Lease %s v%d", doc.Contract.ID, doc.Contract.Version), true)
	pdf.AddPage()

	if g.fontData != nil {
		pdf.AddUTF8FontFromBytes(g.fontName, "", g.fontData)
		pdf.AddUTF8FontFromBytes(g.fontName, "B", g.fontData)
	}

	c := doc.Contract

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "Residential Lease Agreement", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract %s, version %d", c.ID, c.Version), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Prepared %s", formatDate(doc.GeneratedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addPartyBlock(pdf, g.fontName, "Lessor", doc.Owner)
	pdf.Ln(2)
	addPartyBlock(pdf, g.fontName, "Lessee", doc.Tenant)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Premises and term", "", 1, "L", false, 0, "")

	colWidths := []float64{60, 110}
	rows := [][]string{
		{"Building", safeValue(doc.BuildingName)},
		{"Room", fmt.Sprintf("%s (floor %d)", safeValue(doc.RoomNumber), doc.Floor)},
		{"Term", fmt.Sprintf("%s to %s (%d months)", formatDate(c.StartDate), formatDate(c.EndDate), doc.TermMonths)},
		{"Monthly rent", formatAmount(c.RentAmountTHB) + " THB"},
		{"Security deposit", formatAmount(c.DepositTHB) + " THB"},
		{"Rent due", fmt.Sprintf("day %d of each month", doc.PaymentDay)},
	}
	drawTableRow(pdf, g.fontName, []string{"Item", "Detail"}, colWidths, true)
	for _, row := range rows {
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Terms", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	for i, clause := range leaseClauses(doc) {
		pdf.MultiCell(0, 5, fmt.Sprintf("%d. %s", i+1, clause), "", "L", false)
		pdf.Ln(1)
	}

	if c.Notes != nil && strings.TrimSpace(*c.Notes) != "" {
		pdf.Ln(2)
		pdf.SetFont(g.fontName, "B", 11)
		pdf.CellFormat(0, 6, "Additional notes", "", 1, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, *c.Notes, "", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Signatures", "", 1, "L", false, 0, "")

	signatureBlock(pdf, g.fontName, "Lessor", doc.Owner.Name)
	signatureBlock(pdf, g.fontName, "Lessee", doc.Tenant.Name)

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func leaseClauses(doc model.ContractDocument) []string {
	c := doc.Contract
	return []string{
		fmt.Sprintf("The lessee pays %s THB per month no later than day %d of each month.", formatAmount(c.RentAmountTHB), doc.PaymentDay),
		fmt.Sprintf("A deposit of %s THB is held for the term and returned within 30 days after the premises are handed back, less any unpaid rent or damage.", formatAmount(c.DepositTHB)),
		"The premises are used for residential purposes only and may not be sublet without written consent of the lessor.",
		"Either party may decline renewal by notice given at least 30 days before the end of the term.",
	}
}

func addPartyBlock(pdf *gofpdf.Fpdf, fontName, title string, party model.Party) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		safeValue(party.Name),
		fmt.Sprintf("ID card: %s", safeValue(party.IDCard)),
		fmt.Sprintf("Address: %s", safeValue(party.Address)),
		fmt.Sprintf("Phone: %s", safeValue(party.Phone)),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label, name string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s: ______________________ (%s)", label, safeValue(name)), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64) string {
	return money.Amount(value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
