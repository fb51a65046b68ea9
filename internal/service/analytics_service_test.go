package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/testutil"
)

type memoryCache struct {
	items map[string][]byte
	hits  int
}

func newMemoryCache() *memoryCache { return &memoryCache{items: map[string][]byte{}} }

func (c *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *memoryCache) DeletePrefix(_ context.Context, prefix string) error {
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func insertPayment(t *testing.T, gdb *gorm.DB, contractID uuid.UUID, year, month int, amount, paid float64, status model.PaymentStatus) *model.Payment {
	t.Helper()
	p := &model.Payment{
		ContractID:  contractID,
		PeriodYear:  year,
		PeriodMonth: month,
		AmountTHB:   amount,
		PaidTHB:     paid,
		DueDate:     time.Date(year, time.Month(month), 5, 0, 0, 0, 0, time.UTC),
		Status:      status,
	}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func TestOccupancy(t *testing.T) {
	store, gdb := newTestStore(t)
	b := testutil.CreateBuilding(t, gdb, "Baan Suan")
	for i := 0; i < 10; i++ {
		room := testutil.CreateRoom(t, gdb, b.ID, fmt.Sprintf("%d", 101+i), 5000)
		status := model.RoomStatusOccupied
		switch {
		case i >= 9:
			status = model.RoomStatusMaintenance
		case i >= 7:
			status = model.RoomStatusVacant
		}
		require.NoError(t, gdb.Model(room).Update("status", status).Error)
	}
	svc := NewAnalyticsService(store, nil, 0, 30)

	report, err := svc.Occupancy(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 10, report.Total)
	assert.EqualValues(t, 7, report.Occupied)
	assert.EqualValues(t, 2, report.Vacant)
	assert.EqualValues(t, 1, report.Maintenance)
	assert.Equal(t, 70, report.OccupancyRate)

	vacant, err := svc.VacantRooms(context.Background())
	require.NoError(t, err)
	assert.Len(t, vacant, 2)
}

func TestOccupancyEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	report, err := NewAnalyticsService(store, nil, 0, 30).Occupancy(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Zero(t, report.OccupancyRate)
}

func TestIncomeAndCollection(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewAnalyticsService(store, nil, 0, 30, at(2024, time.March, 10)...)
	ctx := context.Background()

	rooms := []*model.Room{fx.Room, testutil.CreateRoom(t, gdb, fx.Building.ID, "102", 7000), testutil.CreateRoom(t, gdb, fx.Building.ID, "103", 6000)}
	contracts := make([]*model.Contract, len(rooms))
	for i, r := range rooms {
		contracts[i] = testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: r.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive, Rent: r.BaseRentTHB})
	}
	insertPayment(t, gdb, contracts[0].ID, 2024, 1, 8000, 8000, model.PaymentStatusPaid)
	insertPayment(t, gdb, contracts[0].ID, 2024, 3, 8000, 8000, model.PaymentStatusPaid)
	insertPayment(t, gdb, contracts[1].ID, 2024, 3, 7000, 0, model.PaymentStatusOverdue)
	insertPayment(t, gdb, contracts[2].ID, 2024, 3, 6000, 0, model.PaymentStatusCancelled)

	collection, err := svc.CollectionRate(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 21000.0, collection.Expected)
	assert.Equal(t, 8000.0, collection.Collected)
	assert.Equal(t, 38, collection.Rate)
	assert.Equal(t, 7000.0, collection.Overdue)
	assert.EqualValues(t, 1, collection.OverdueCount)

	income, err := svc.MonthlyIncome(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, income.Total)
	require.Len(t, income.ByBuilding, 1)
	assert.Equal(t, "Baan Suan", income.ByBuilding[0].BuildingName)

	trend, err := svc.IncomeTrend(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []model.IncomePoint{
		{Year: 2024, Month: 1, Total: 8000},
		{Year: 2024, Month: 2, Total: 0},
		{Year: 2024, Month: 3, Total: 8000},
	}, trend)

	_, err = svc.IncomeTrend(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	byRoom, err := svc.IncomeByRoom(ctx, 2024, 3)
	require.NoError(t, err)
	require.Len(t, byRoom, 2)
	assert.Equal(t, "101", byRoom[0].RoomNumber)
	assert.Equal(t, model.PaymentStatusOverdue, byRoom[1].Status)

	overdue, err := svc.OverdueItems(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, 7000.0, overdue[0].Outstanding)
	assert.Equal(t, 6, overdue[0].DaysPastDue)
}

func TestIncomeByRoomDerivesStatus(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	svc := NewAnalyticsService(store, nil, 0, 30)
	ctx := context.Background()

	numbers := []string{"101", "102", "103", "104", "105"}
	rooms := []*model.Room{fx.Room}
	for _, n := range numbers[1:] {
		rooms = append(rooms, testutil.CreateRoom(t, gdb, fx.Building.ID, n, 8000))
	}
	contractFor := func(i int) uuid.UUID {
		return testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: rooms[i].ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive}).ID
	}
	insertPayment(t, gdb, contractFor(0), 2024, 5, 8000, 8000, model.PaymentStatusPaid)
	insertPayment(t, gdb, contractFor(1), 2024, 5, 8000, 3000, model.PaymentStatusOverdue)
	insertPayment(t, gdb, contractFor(2), 2024, 5, 8000, 0, model.PaymentStatusOverdue)
	insertPayment(t, gdb, contractFor(3), 2024, 5, 8000, 2000, model.PaymentStatusPartial)
	insertPayment(t, gdb, contractFor(4), 2024, 5, 8000, 0, model.PaymentStatusPending)

	byRoom, err := svc.IncomeByRoom(ctx, 2024, 5)
	require.NoError(t, err)
	require.Len(t, byRoom, 5)
	got := make(map[string]model.PaymentStatus, len(byRoom))
	for _, r := range byRoom {
		got[r.RoomNumber] = r.Status
	}
	assert.Equal(t, map[string]model.PaymentStatus{
		"101": model.PaymentStatusPaid,
		"102": model.PaymentStatusPartial,
		"103": model.PaymentStatusOverdue,
		"104": model.PaymentStatusPartial,
		"105": model.PaymentStatusPending,
	}, got)
}

func TestIncomeTrendCrossesYear(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewAnalyticsService(store, nil, 0, 30, at(2024, time.February, 1)...)

	trend, err := svc.IncomeTrend(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, trend, 4)
	assert.Equal(t, 2023, trend[0].Year)
	assert.Equal(t, 11, trend[0].Month)
	assert.Equal(t, 2024, trend[3].Year)
	assert.Equal(t, 2, trend[3].Month)
}

func TestSnapshotCaching(t *testing.T) {
	store, gdb := newTestStore(t)
	fx := testutil.NewFixture(t, gdb)
	cache := newMemoryCache()
	svc := NewAnalyticsService(store, cache, time.Hour, 30, at(2024, time.December, 10)...)
	ctx := context.Background()

	contract := testutil.CreateContract(t, gdb, testutil.ContractSpec{RoomID: fx.Room.ID, TenantID: fx.Tenant.ID, Status: model.ContractStatusActive})
	insertPayment(t, gdb, contract.ID, 2024, 11, 8000, 8000, model.PaymentStatusPaid)
	insertPayment(t, gdb, contract.ID, 2024, 12, 8000, 4000, model.PaymentStatusPartial)
	_, err := NewInflationService(store).UpsertInflation(ctx, UpsertInflationInput{Year: 2024, Month: 12, RatePct: 0.4})
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(ctx, 2024, 12)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, snapshot.Income.Total)
	assert.Equal(t, -4000.0, snapshot.IncomeDelta)
	assert.InDelta(t, -50, snapshot.IncomeDeltaPct, 1e-9)
	require.NotNil(t, snapshot.InflationRatePct)
	assert.Equal(t, 0.4, *snapshot.InflationRatePct)
	require.Len(t, snapshot.Expiring, 1)
	assert.Equal(t, 21, snapshot.Expiring[0].DaysLeft)
	assert.Zero(t, cache.hits)

	cached, err := svc.Snapshot(ctx, 2024, 12)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, snapshot.Income.Total, cached.Income.Total)

	svc.InvalidateSnapshots(ctx)
	assert.Empty(t, cache.items)
}
