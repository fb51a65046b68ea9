package excel

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/money"
)

const maxSheetNameLen = 31

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the ledger as a workbook: a summary sheet followed by one
// sheet per building.
func (g *Generator) Generate(ledger model.PaymentLedger) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, ledger)

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, group := range ledger.Groups {
		sheetName := buildSheetName(group.BuildingName, group.BuildingID, usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		g.writeBuilding(file, sheetName, ledger, group)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, ledger model.PaymentLedger) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}
	c := ledger.Collection

	set("A1", "Period")
	set("B1", fmt.Sprintf("%04d-%02d", ledger.Year, ledger.Month))
	set("C1", money.Period(ledger.Year, ledger.Month))
	set("A2", "Expected (THB)")
	set("B2", c.Expected)
	set("A3", "Collected (THB)")
	set("B3", c.Collected)
	set("A4", "Collection rate (%)")
	set("B4", c.Rate)
	set("A5", "Overdue (THB)")
	set("B5", c.Overdue)
	set("A6", "Overdue payments")
	set("B6", c.OverdueCount)

	tableRow := 8
	set(fmt.Sprintf("A%d", tableRow), "Building")
	set(fmt.Sprintf("B%d", tableRow), "Payments")
	set(fmt.Sprintf("C%d", tableRow), "Expected (THB)")
	set(fmt.Sprintf("D%d", tableRow), "Collected (THB)")

	for i, group := range ledger.Groups {
		expected, collected := groupTotals(group)
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), group.BuildingName)
		set(fmt.Sprintf("B%d", row), len(group.Payments))
		set(fmt.Sprintf("C%d", row), expected)
		set(fmt.Sprintf("D%d", row), collected)
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "D", 18)
}

func (g *Generator) writeBuilding(file *excelize.File, sheet string, ledger model.PaymentLedger, group model.LedgerGroup) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}
	expected, collected := groupTotals(group)

	set("A1", "Building")
	set("B1", group.BuildingName)
	set("A2", "Period")
	set("B2", fmt.Sprintf("%04d-%02d", ledger.Year, ledger.Month))
	set("A3", "Expected (THB)")
	set("B3", expected)
	set("A4", "Collected (THB)")
	set("B4", collected)

	tableRow := 6
	headers := []string{"Room", "Tenant", "Due date", "Amount (THB)", "Paid (THB)", "Outstanding (THB)", "Status", "Paid date", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, p := range group.Payments {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), roomNumber(p))
		set(fmt.Sprintf("B%d", row), tenantName(p))
		set(fmt.Sprintf("C%d", row), p.DueDate.Format("2006-01-02"))
		set(fmt.Sprintf("D%d", row), p.AmountTHB)
		set(fmt.Sprintf("E%d", row), p.PaidTHB)
		set(fmt.Sprintf("F%d", row), p.Outstanding())
		set(fmt.Sprintf("G%d", row), string(p.Status))
		if p.PaidDate != nil {
			set(fmt.Sprintf("H%d", row), p.PaidDate.Format("2006-01-02"))
		}
		if p.Notes != nil {
			set(fmt.Sprintf("I%d", row), *p.Notes)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 12)
	_ = file.SetColWidth(sheet, "B", "B", 28)
	_ = file.SetColWidth(sheet, "C", "H", 16)
	_ = file.SetColWidth(sheet, "I", "I", 40)
}

func groupTotals(group model.LedgerGroup) (expected, collected float64) {
	for _, p := range group.Payments {
		if p.Status == model.PaymentStatusCancelled {
			continue
		}
		expected += p.AmountTHB
		collected += p.PaidTHB
	}
	return expected, collected
}

func roomNumber(p model.Payment) string {
	if p.Contract == nil || p.Contract.Room == nil {
		return ""
	}
	return p.Contract.Room.RoomNumber
}

func tenantName(p model.Payment) string {
	if p.Contract == nil || p.Contract.Tenant == nil {
		return ""
	}
	return p.Contract.Tenant.Name
}

func buildSheetName(name string, id uuid.UUID, used map[string]struct{}) string {
	base := sanitizeSheetName(name)
	if base == "" {
		base = id.String()
	}
	base = truncateRunes(base, maxSheetNameLen)

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		candidate = truncateRunes(base, maxSheetNameLen-len(suffix)) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	return strings.TrimSpace(replacer.Replace(strings.TrimSpace(value)))
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}
