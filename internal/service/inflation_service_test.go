package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/testutil"
)

func TestCompoundRates(t *testing.T) {
	assert.InDelta(t, 1.9898, CompoundRates([]float64{1, 2, -1}), 1e-4)
	assert.Zero(t, CompoundRates(nil))
	assert.InDelta(t, 5.0, CompoundRates([]float64{5}), 1e-9)
}

func TestEvaluateRentAdjustment(t *testing.T) {
	now := testutil.Date(2024, time.March, 10)
	tests := []struct {
		name      string
		in        RentAdjustmentInput
		rec       model.Recommendation
		years     int
		factor    float64
		minimum   float64
		suggested float64
	}{
		{
			name:      "long tenant behind inflation",
			in:        RentAdjustmentInput{OriginalRent: 10000, CurrentRent: 10000, InflationPct: 5, StartDate: now.AddDate(-6, 0, -10), Now: now},
			rec:       model.RecommendationIncrease,
			years:     6,
			factor:    0.05,
			minimum:   10500,
			suggested: 9975,
		},
		{
			name:      "in line with inflation",
			in:        RentAdjustmentInput{OriginalRent: 8000, CurrentRent: 8160, InflationPct: 2, StartDate: now.AddDate(0, -6, 0), Now: now},
			rec:       model.RecommendationMaintain,
			minimum:   8160,
			suggested: 8160,
		},
		{
			name:      "far ahead of inflation",
			in:        RentAdjustmentInput{OriginalRent: 8000, CurrentRent: 9000, InflationPct: 1, StartDate: now.AddDate(-2, 0, -1), Now: now},
			rec:       model.RecommendationReview,
			years:     2,
			factor:    0.01,
			minimum:   8080,
			suggested: 7999,
		},
		{
			name:      "slightly behind",
			in:        RentAdjustmentInput{OriginalRent: 8000, CurrentRent: 8000, InflationPct: 3, StartDate: now, Now: now},
			rec:       model.RecommendationIncrease,
			minimum:   8240,
			suggested: 8240,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateRentAdjustment(tt.in)
			assert.Equal(t, tt.rec, got.Recommendation)
			assert.Equal(t, tt.years, got.TenantYears)
			assert.InDelta(t, tt.factor, got.TenantFactor, 1e-9)
			assert.Equal(t, tt.minimum, got.MinimumRent)
			assert.Equal(t, tt.suggested, got.SuggestedRent)
			assert.NotEmpty(t, got.Reasoning)
		})
	}
}

func TestEvaluateRentAdjustmentGap(t *testing.T) {
	got := EvaluateRentAdjustment(RentAdjustmentInput{OriginalRent: 10000, CurrentRent: 10000, InflationPct: 5, Now: time.Now(), StartDate: time.Now()})
	assert.Zero(t, got.RentGrowthPct)
	assert.InDelta(t, -5, got.Gap, 1e-9)
	assert.InDelta(t, 5, got.AdjustmentPct, 1e-9)
}

func TestInflationUpsertAndCumulative(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewInflationService(store, at(2024, time.March, 10)...)
	ctx := context.Background()

	for m, rate := range map[int]float64{1: 1, 2: 5, 3: -1} {
		_, err := svc.UpsertInflation(ctx, UpsertInflationInput{Year: 2024, Month: m, RatePct: rate})
		require.NoError(t, err)
	}
	updated, err := svc.UpsertInflation(ctx, UpsertInflationInput{Year: 2024, Month: 2, RatePct: 2, Source: "BOT"})
	require.NoError(t, err)
	assert.Equal(t, "BOT", updated.Source)

	all, err := svc.GetAllInflation(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	feb, err := svc.GetInflation(ctx, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, feb.RatePct)

	_, err = svc.GetInflation(ctx, 2023, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	cumulative, err := svc.CumulativeInflation(ctx, 2023, 12, 2024, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1.9898, cumulative.CumulativePct, 1e-4)
	assert.Equal(t, 3, cumulative.MonthsCovered)
	assert.Equal(t, 1, cumulative.MonthsMissing)

	_, err = svc.CumulativeInflation(ctx, 2024, 3, 2024, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpsertInflation(ctx, UpsertInflationInput{Year: 2024, Month: 4, RatePct: -100})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculateRentAdjustment(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewInflationService(store, at(2024, time.March, 10)...)
	ctx := context.Background()

	for m, rate := range []float64{1, 2, -1} {
		_, err := svc.UpsertInflation(ctx, UpsertInflationInput{Year: 2024, Month: m + 1, RatePct: rate})
		require.NoError(t, err)
	}
	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive, Rent: 8400})

	adjustment, err := svc.CalculateRentAdjustment(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.ID, adjustment.ContractID)
	assert.InDelta(t, 5.0, adjustment.RentGrowthPct, 1e-9)
	assert.InDelta(t, 1.9898, adjustment.InflationPct, 1e-4)
	assert.Equal(t, model.RecommendationMaintain, adjustment.Recommendation)
	assert.Equal(t, 8159.0, adjustment.MinimumRent)

	items, err := svc.GetAllRentAdjustments(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "101", items[0].RoomNumber)
	assert.Equal(t, "Baan Suan", items[0].BuildingName)
	assert.Equal(t, "Somchai", items[0].TenantName)
}
