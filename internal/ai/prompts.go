package ai

import (
	"strings"
	"text/template"
)

const SystemPrompt = `คุณเป็นผู้ช่วยวิเคราะห์ข้อมูลการเช่าอาคาร ให้ข้อมูลเป็นภาษาไทยที่เข้าใจง่าย
สั้นกระชับ เป็นมิตร และนำไปปฏิบัติได้จริง

กฎสำคัญ:
1. ตอบเฉพาะข้อมูลที่ได้รับ ห้ามคิดเองหรือสมมติตัวเลข
2. ถ้าข้อมูลไม่พอ ให้บอกว่าไม่มีข้อมูล
3. ใช้อีโมจิให้เหมาะสม
4. ตอบไม่เกิน 300 ตัวอักษร
5. ห้ามแนะนำการลงทุนหรือตัดสินใจแทน เป็นแค่ข้อมูลประกอบ`

type MonthlySummaryData struct {
	MonthName      string
	BuddhistYear   int
	TotalIncome    string
	Buildings      []BuildingLine
	CollectionRate int
	OverdueAmount  string
	OverdueCount   int
	OccupancyRate  int
	VacantCount    int
	ExpiringCount  int
}

type BuildingLine struct {
	Name   string
	Amount string
}

type RentAdviceData struct {
	Room          string
	Building      string
	TenantName    string
	TenantYears   int
	CurrentRent   string
	OriginalRent  string
	InflationPct  float64
	RentGrowthPct float64
	Gap           float64
	SuggestedRent string
}

type AnomalyData struct {
	Trend         []TrendLine
	CurrentMonth  string
	CurrentIncome string
	AverageIncome string
	DeviationPct  float64
}

type TrendLine struct {
	Month  string
	Amount string
}

type ExpiryData struct {
	Contracts []ExpiryLine
}

type ExpiryLine struct {
	Room     string
	Tenant   string
	DaysLeft int
}

var prompts = template.Must(template.New("prompts").Parse(`
{{define "monthly_summary"}}สรุปรายได้เดือน {{.MonthName}} {{.BuddhistYear}}

ข้อมูล:
- รายได้รวม: {{.TotalIncome}} บาท
- แยกตามตึก: {{range $i, $b := .Buildings}}{{if $i}}, {{end}}{{$b.Name}}: ฿{{$b.Amount}}{{end}}
- อัตราเก็บเงิน: {{.CollectionRate}}%
- ค้างชำระ: {{.OverdueAmount}} บาท ({{.OverdueCount}} ราย)
- Occupancy: {{.OccupancyRate}}%
- ห้องว่าง: {{.VacantCount}} ห้อง
- สัญญาใกล้หมด: {{.ExpiringCount}} สัญญา

ช่วยสรุปเป็นข้อความสั้นๆ เป็นมิตร พร้อมข้อเสนอแนะ (ถ้ามี){{end}}

{{define "rent_advice"}}วิเคราะห์การปรับค่าเช่าสำหรับห้อง {{.Room}} ตึก {{.Building}}

ข้อมูล:
- ผู้เช่า: {{.TenantName}} (อยู่มา {{.TenantYears}} ปี)
- ค่าเช่าปัจจุบัน: {{.CurrentRent}} บาท
- ค่าเช่าเริ่มต้น: {{.OriginalRent}} บาท
- เงินเฟ้อสะสม: {{printf "%.1f" .InflationPct}}%
- ค่าเช่าเพิ่มขึ้น: {{printf "%.1f" .RentGrowthPct}}%
- ช่องว่าง (Growth - Inflation): {{printf "%.1f" .Gap}}%
- ค่าเช่าแนะนำ: {{.SuggestedRent}} บาท

ช่วยอธิบายสถานการณ์และแนะนำแบบเป็นมิตร{{end}}

{{define "anomaly"}}ตรวจสอบความผิดปกติของรายได้

ข้อมูลย้อนหลัง {{len .Trend}} เดือน:
{{range .Trend}}{{.Month}}: ฿{{.Amount}}
{{end}}
เดือนปัจจุบัน: {{.CurrentMonth}}
รายได้เดือนนี้: {{.CurrentIncome}} บาท
ค่าเฉลี่ย: {{.AverageIncome}} บาท
ส่วนเบี่ยงเบน: {{printf "%.1f" .DeviationPct}}%

มีอะไรผิดปกติไหม? อธิบายสั้นๆ{{end}}

{{define "expiry"}}สัญญาใกล้หมดอายุ

รายการ:
{{range .Contracts}}- ห้อง {{.Room}}: {{.Tenant}} (เหลือ {{.DaysLeft}} วัน)
{{end}}
ช่วยสรุปและแนะนำว่าควรดำเนินการอย่างไร{{end}}
`))

func MonthlySummaryPrompt(data MonthlySummaryData) (string, error) {
	return render("monthly_summary", data)
}

func RentAdvicePrompt(data RentAdviceData) (string, error) {
	return render("rent_advice", data)
}

func AnomalyPrompt(data AnomalyData) (string, error) {
	return render("anomaly", data)
}

func ExpiryPrompt(data ExpiryData) (string, error) {
	return render("expiry", data)
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
