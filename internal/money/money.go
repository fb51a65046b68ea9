// Package money formats Thai baht amounts and Thai calendar dates.
package money

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Thai)

// THB formats an amount with digit grouping and the baht sign. Whole
// amounts drop the decimals.
func THB(amount float64) string {
	return "฿" + Amount(amount)
}

// Amount formats with digit grouping and no currency sign.
func Amount(amount float64) string {
	if amount == math.Trunc(amount) {
		return printer.Sprintf("%d", int64(amount))
	}
	return printer.Sprintf("%.2f", amount)
}

var thaiMonths = [...]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// MonthName returns the Thai name of month 1..12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return thaiMonths[month-1]
}

var thaiShortMonths = [...]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

func ShortMonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return thaiShortMonths[month-1]
}

// BuddhistYear converts a Gregorian year to the Thai solar calendar.
func BuddhistYear(year int) int {
	return year + 543
}

// Period renders "มกราคม 2567".
func Period(year, month int) string {
	return fmt.Sprintf("%s %d", MonthName(month), BuddhistYear(year))
}

// ThaiDate renders "1 มกราคม 2567".
func ThaiDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%d %s %d", t.Day(), MonthName(int(t.Month())), BuddhistYear(t.Year()))
}
