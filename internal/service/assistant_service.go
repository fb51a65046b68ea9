package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/nurpe/rentals/internal/ai"
	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/money"
)

const (
	anomalyTrendMonths = 6
	anomalyBandPct     = 10
)

// Completer answers a system and user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AssistantResponse is returned by every assistant operation. Fallback is
// set when the text was produced without the model.
type AssistantResponse struct {
	Content  string `json:"content"`
	Fallback bool   `json:"fallback"`
	Error    string `json:"error,omitempty"`
}

type AssistantService struct {
	analytics *AnalyticsService
	inflation *InflationService
	contracts *ContractService
	completer Completer
	opts      options
}

// NewAssistantService builds the summary assistant. completer may be nil, in
// which case every answer is a fallback.
func NewAssistantService(analytics *AnalyticsService, inflation *InflationService, contracts *ContractService, completer Completer, opts ...Option) *AssistantService {
	return &AssistantService{
		analytics: analytics,
		inflation: inflation,
		contracts: contracts,
		completer: completer,
		opts:      newOptions(opts),
	}
}

func (s *AssistantService) MonthlySummary(ctx context.Context, year, month int) (*AssistantResponse, error) {
	if year == 0 || month == 0 {
		year, month = s.opts.currentPeriod()
	}
	if !validPeriod(year, month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, year, month)
	}

	snapshot, err := s.analytics.Snapshot(ctx, year, month)
	if err != nil {
		return failed("❌ ไม่สามารถสร้างสรุปได้", err), nil
	}

	buildings := make([]ai.BuildingLine, 0, len(snapshot.Income.ByBuilding))
	for _, b := range snapshot.Income.ByBuilding {
		buildings = append(buildings, ai.BuildingLine{Name: b.BuildingName, Amount: money.Amount(b.Total)})
	}
	prompt, err := ai.MonthlySummaryPrompt(ai.MonthlySummaryData{
		MonthName:      money.ShortMonthName(month),
		BuddhistYear:   money.BuddhistYear(year),
		TotalIncome:    money.Amount(snapshot.Income.Total),
		Buildings:      buildings,
		CollectionRate: snapshot.Collection.Rate,
		OverdueAmount:  money.Amount(snapshot.Collection.Overdue),
		OverdueCount:   len(snapshot.Overdue),
		OccupancyRate:  snapshot.Occupancy.OccupancyRate,
		VacantCount:    len(snapshot.VacantRooms),
		ExpiringCount:  len(snapshot.Expiring),
	})
	if err != nil {
		return nil, err
	}

	return s.complete(ctx, prompt, func() string {
		return SummaryFallback(snapshot)
	}), nil
}

func (s *AssistantService) RentAdvice(ctx context.Context, contractID uuid.UUID) (*AssistantResponse, error) {
	contract, err := s.contracts.FindByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return failed("❌ ไม่สามารถวิเคราะห์ได้", err), nil
	}
	adjustment, err := s.inflation.CalculateRentAdjustment(ctx, contractID)
	if err != nil {
		return failed("❌ ไม่สามารถวิเคราะห์ได้", err), nil
	}

	data := ai.RentAdviceData{
		TenantYears:   adjustment.TenantYears,
		CurrentRent:   money.Amount(adjustment.CurrentRent),
		OriginalRent:  money.Amount(adjustment.OriginalRent),
		InflationPct:  adjustment.InflationPct,
		RentGrowthPct: adjustment.RentGrowthPct,
		Gap:           adjustment.Gap,
		SuggestedRent: money.Amount(adjustment.SuggestedRent),
	}
	if contract.Room != nil {
		data.Room = contract.Room.RoomNumber
		if contract.Room.Building != nil {
			data.Building = contract.Room.Building.Name
		}
	}
	if contract.Tenant != nil {
		data.TenantName = contract.Tenant.Name
	}
	prompt, err := ai.RentAdvicePrompt(data)
	if err != nil {
		return nil, err
	}

	return s.complete(ctx, prompt, func() string {
		return adjustment.Reasoning
	}), nil
}

// DetectAnomalies compares the current month's income with the average of
// the last six months.
func (s *AssistantService) DetectAnomalies(ctx context.Context) (*AssistantResponse, error) {
	trend, err := s.analytics.IncomeTrend(ctx, anomalyTrendMonths)
	if err != nil {
		return failed("❌ ไม่สามารถตรวจสอบได้", err), nil
	}

	total := 0.0
	for _, p := range trend {
		total += p.Total
	}
	if total == 0 {
		return &AssistantResponse{Content: "📊 ยังไม่มีข้อมูลเพียงพอสำหรับการวิเคราะห์", Fallback: true}, nil
	}

	average := total / float64(len(trend))
	current := trend[len(trend)-1]
	deviation := IncomeDeviation(current.Total, average)

	lines := make([]ai.TrendLine, 0, len(trend))
	for _, p := range trend {
		lines = append(lines, ai.TrendLine{Month: money.ShortMonthName(p.Month), Amount: money.Amount(p.Total)})
	}
	prompt, err := ai.AnomalyPrompt(ai.AnomalyData{
		Trend:         lines,
		CurrentMonth:  money.ShortMonthName(current.Month),
		CurrentIncome: money.Amount(current.Total),
		AverageIncome: money.Amount(math.Round(average)),
		DeviationPct:  deviation,
	})
	if err != nil {
		return nil, err
	}

	return s.complete(ctx, prompt, func() string {
		return AnomalyFallback(deviation)
	}), nil
}

func (s *AssistantService) ExpiryReminder(ctx context.Context) (*AssistantResponse, error) {
	expiring, err := s.analytics.ExpiringContracts(ctx)
	if err != nil {
		return failed("❌ ไม่สามารถตรวจสอบได้", err), nil
	}
	if len(expiring) == 0 {
		return &AssistantResponse{Content: "✅ ไม่มีสัญญาที่จะหมดในเดือนหน้า"}, nil
	}

	lines := make([]ai.ExpiryLine, 0, len(expiring))
	for _, c := range expiring {
		lines = append(lines, ai.ExpiryLine{Room: c.RoomNumber, Tenant: c.TenantName, DaysLeft: c.DaysLeft})
	}
	prompt, err := ai.ExpiryPrompt(ai.ExpiryData{Contracts: lines})
	if err != nil {
		return nil, err
	}

	return s.complete(ctx, prompt, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "⚠️ สัญญาใกล้หมด %d รายการ\n", len(expiring))
		for _, c := range expiring {
			fmt.Fprintf(&b, "\n- ห้อง %s: %s (เหลือ %d วัน)", c.RoomNumber, c.TenantName, c.DaysLeft)
		}
		return b.String()
	}), nil
}

func (s *AssistantService) complete(ctx context.Context, prompt string, fallback func() string) *AssistantResponse {
	if s.completer != nil {
		content, err := s.completer.Complete(ctx, ai.SystemPrompt, prompt)
		if err == nil {
			return &AssistantResponse{Content: content}
		}
		if !errors.Is(err, ai.ErrNotConfigured) {
			s.opts.log.Warn().Err(err).Msg("assistant completion failed, using fallback")
		}
	}
	return &AssistantResponse{Content: fallback(), Fallback: true}
}

func failed(content string, err error) *AssistantResponse {
	return &AssistantResponse{Content: content, Fallback: true, Error: err.Error()}
}

// SummaryFallback renders the monthly summary without the model.
func SummaryFallback(snapshot *model.Snapshot) string {
	parts := []string{
		fmt.Sprintf("📊 รายได้เดือนนี้: %s", money.THB(snapshot.Income.Total)),
		fmt.Sprintf("💰 เก็บเงินได้ %d%%", snapshot.Collection.Rate),
		fmt.Sprintf("🏠 Occupancy %d%%", snapshot.Occupancy.OccupancyRate),
	}
	if n := len(snapshot.Overdue); n > 0 {
		parts = append(parts, fmt.Sprintf("⚠️ ค้างชำระ %d ราย", n))
	}
	if n := len(snapshot.Expiring); n > 0 {
		parts = append(parts, fmt.Sprintf("📅 สัญญาใกล้หมด %d สัญญา", n))
	}
	return strings.Join(parts, "\n")
}

// IncomeDeviation is the percentage distance of current from average.
func IncomeDeviation(current, average float64) float64 {
	if average == 0 {
		return 0
	}
	return (current - average) / average * 100
}

// AnomalyFallback classifies deviation against a ±10% band.
func AnomalyFallback(deviation float64) string {
	status := "✅ รายได้ปกติ"
	switch {
	case math.Abs(deviation) < anomalyBandPct:
	case deviation > 0:
		status = "📈 รายได้สูงกว่าปกติ"
	default:
		status = "📉 รายได้ต่ำกว่าปกติ"
	}
	sign := ""
	if deviation > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s (%s%.1f%% จากค่าเฉลี่ย)", status, sign, deviation)
}
