package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
)

type InflationService struct {
	store *repository.Store
	opts  options
}

type UpsertInflationInput struct {
	Year    int
	Month   int
	RatePct float64
	Source  string
}

func NewInflationService(store *repository.Store, opts ...Option) *InflationService {
	return &InflationService{store: store, opts: newOptions(opts)}
}

// GetInflation returns the newest record for the period.
func (s *InflationService) GetInflation(ctx context.Context, year, month int) (*model.InflationIndex, error) {
	if !validPeriod(year, month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, year, month)
	}
	idx, err := s.store.Inflation.Latest(ctx, year, month)
	if err != nil {
		return nil, storeError(err, "inflation data")
	}
	return idx, nil
}

func (s *InflationService) GetAllInflation(ctx context.Context) ([]model.InflationIndex, error) {
	return s.store.Inflation.List(ctx)
}

// UpsertInflation overwrites the newest record of the period or creates one.
func (s *InflationService) UpsertInflation(ctx context.Context, input UpsertInflationInput) (*model.InflationIndex, error) {
	if !validPeriod(input.Year, input.Month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, input.Year, input.Month)
	}
	if math.IsNaN(input.RatePct) || math.IsInf(input.RatePct, 0) || input.RatePct <= -100 {
		return nil, fmt.Errorf("%w: rate_pct is out of range", ErrInvalidInput)
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = "manual"
	}

	var idx *model.InflationIndex
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		existing, err := tx.Inflation.Latest(ctx, input.Year, input.Month)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			idx = &model.InflationIndex{Year: input.Year, Month: input.Month, RatePct: input.RatePct, Source: source}
			return tx.Inflation.Create(ctx, idx)
		case err != nil:
			return err
		}
		existing.RatePct = input.RatePct
		existing.Source = source
		idx = existing
		return tx.Inflation.Save(ctx, existing)
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// CumulativeInflation compounds the monthly rates of every calendar month in
// [start, end]. Months without data are left out of the product and counted
// in MonthsMissing.
func (s *InflationService) CumulativeInflation(ctx context.Context, startYear, startMonth, endYear, endMonth int) (*model.CumulativeInflation, error) {
	if !validPeriod(startYear, startMonth) || !validPeriod(endYear, endMonth) {
		return nil, fmt.Errorf("%w: invalid period", ErrInvalidInput)
	}
	from, to := periodKey(startYear, startMonth), periodKey(endYear, endMonth)
	if from > to {
		return nil, fmt.Errorf("%w: start period is after end period", ErrInvalidInput)
	}

	rows, err := s.store.Inflation.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first within a period; the first one wins.
	seen := make(map[int]bool, len(rows))
	rates := make([]float64, 0, len(rows))
	for _, row := range rows {
		key := periodKey(row.Year, row.Month)
		if seen[key] {
			continue
		}
		seen[key] = true
		rates = append(rates, row.RatePct)
	}

	result := &model.CumulativeInflation{
		StartYear:     startYear,
		StartMonth:    startMonth,
		EndYear:       endYear,
		EndMonth:      endMonth,
		CumulativePct: CompoundRates(rates),
		MonthsCovered: len(rates),
		MonthsMissing: to - from + 1 - len(rates),
	}
	if result.MonthsMissing > 0 {
		s.opts.log.Debug().
			Int("missing", result.MonthsMissing).
			Int("covered", result.MonthsCovered).
			Msg("inflation data incomplete for range")
	}
	return result, nil
}

// CalculateRentAdjustment compares the contract's rent growth against
// inflation since its start month.
func (s *InflationService) CalculateRentAdjustment(ctx context.Context, contractID uuid.UUID) (*model.RentAdjustment, error) {
	contract, err := s.store.Contracts.GetWithParties(ctx, contractID)
	if err != nil {
		return nil, storeError(err, "contract")
	}
	return s.adjustmentFor(ctx, contract)
}

// GetAllRentAdjustments evaluates every billable contract. A contract that
// fails is logged and left out.
func (s *InflationService) GetAllRentAdjustments(ctx context.Context) ([]model.RentAdjustmentItem, error) {
	contracts, err := s.store.Contracts.ListByStatuses(ctx, model.BillableContractStatuses)
	if err != nil {
		return nil, err
	}

	items := make([]model.RentAdjustmentItem, 0, len(contracts))
	for i := range contracts {
		contract := &contracts[i]
		adjustment, err := s.adjustmentFor(ctx, contract)
		if err != nil {
			s.opts.log.Error().Err(err).Str("contract_id", contract.ID.String()).Msg("rent adjustment failed")
			continue
		}
		item := model.RentAdjustmentItem{RentAdjustment: *adjustment}
		if contract.Room != nil {
			item.RoomNumber = contract.Room.RoomNumber
			if contract.Room.Building != nil {
				item.BuildingName = contract.Room.Building.Name
			}
		}
		if contract.Tenant != nil {
			item.TenantName = contract.Tenant.Name
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *InflationService) adjustmentFor(ctx context.Context, contract *model.Contract) (*model.RentAdjustment, error) {
	if contract.Room == nil {
		return nil, fmt.Errorf("contract %s has no room loaded", contract.ID)
	}
	now := s.opts.now()
	endYear, endMonth := s.opts.currentPeriod()
	startYear, startMonth := contract.StartDate.Year(), int(contract.StartDate.Month())

	inflationPct := 0.0
	if periodKey(startYear, startMonth) <= periodKey(endYear, endMonth) {
		cumulative, err := s.CumulativeInflation(ctx, startYear, startMonth, endYear, endMonth)
		if err != nil {
			return nil, err
		}
		inflationPct = cumulative.CumulativePct
	}

	adjustment := EvaluateRentAdjustment(RentAdjustmentInput{
		OriginalRent: contract.Room.BaseRentTHB,
		CurrentRent:  contract.RentAmountTHB,
		InflationPct: inflationPct,
		StartDate:    contract.StartDate,
		Now:          now,
	})
	adjustment.ContractID = contract.ID
	return &adjustment, nil
}

// CompoundRates returns Π(1 + r/100) - 1 as a percentage.
func CompoundRates(ratesPct []float64) float64 {
	cumulative := 1.0
	for _, r := range ratesPct {
		cumulative *= 1 + r/100
	}
	return (cumulative - 1) * 100
}

type RentAdjustmentInput struct {
	OriginalRent float64
	CurrentRent  float64
	InflationPct float64
	StartDate    time.Time
	Now          time.Time
}

// EvaluateRentAdjustment is the pure recommendation rule.
func EvaluateRentAdjustment(in RentAdjustmentInput) model.RentAdjustment {
	rentGrowthPct := 0.0
	if in.OriginalRent > 0 {
		rentGrowthPct = (in.CurrentRent - in.OriginalRent) / in.OriginalRent * 100
	}
	gap := rentGrowthPct - in.InflationPct
	minimumRent := roundHalfUp(in.OriginalRent * (1 + in.InflationPct/100))

	tenantYears := int(math.Floor(in.Now.Sub(in.StartDate).Hours() / 24 / 365))
	if tenantYears < 0 {
		tenantYears = 0
	}
	tenantFactor := loyaltyFactor(tenantYears)
	suggestedRent := roundHalfUp(minimumRent * (1 - tenantFactor))

	adjustmentPct := 0.0
	if in.CurrentRent > 0 {
		adjustmentPct = (suggestedRent - in.CurrentRent) / in.CurrentRent * 100
	}

	recommendation, reasoning := recommend(gap)
	if tenantFactor > 0 {
		reasoning += fmt.Sprintf(" (ผู้เช่าอยู่มา %d ปี ให้ส่วนลด %.0f%%)", tenantYears, tenantFactor*100)
	}

	return model.RentAdjustment{
		OriginalRent:   in.OriginalRent,
		CurrentRent:    in.CurrentRent,
		InflationPct:   in.InflationPct,
		RentGrowthPct:  rentGrowthPct,
		Gap:            gap,
		MinimumRent:    minimumRent,
		SuggestedRent:  suggestedRent,
		AdjustmentPct:  adjustmentPct,
		TenantYears:    tenantYears,
		TenantFactor:   tenantFactor,
		Recommendation: recommendation,
		Reasoning:      reasoning,
	}
}

func loyaltyFactor(tenantYears int) float64 {
	switch {
	case tenantYears >= 5:
		return 0.05
	case tenantYears >= 3:
		return 0.03
	case tenantYears >= 1:
		return 0.01
	}
	return 0
}

func recommend(gap float64) (model.Recommendation, string) {
	switch {
	case gap < -5:
		return model.RecommendationIncrease, fmt.Sprintf("ค่าเช่าต่ำกว่าเงินเฟ้อ %.1f%% ควรปรับขึ้น", math.Abs(gap))
	case gap < -2:
		return model.RecommendationIncrease, "ค่าเช่าต่ำกว่าเงินเฟ้อเล็กน้อย แนะนำปรับ"
	case gap < 2:
		return model.RecommendationMaintain, "ค่าเช่าสอดคล้องกับเงินเฟ้อ ไม่จำเป็นต้องปรับ"
	case gap < 5:
		return model.RecommendationMaintain, "ค่าเช่าสูงกว่าเงินเฟ้อเล็กน้อย"
	}
	return model.RecommendationReview, "ค่าเช่าสูงกว่าเงินเฟ้อมาก ระวังผู้เช่าย้าย"
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
