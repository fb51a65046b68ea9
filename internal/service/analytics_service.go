package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
)

const (
	defaultExpiryWindowDays = 30
	maxTrendMonths          = 60
)

// SnapshotCache stores assembled snapshots. Implementations report a miss as
// (false, nil).
type SnapshotCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

const snapshotKeyPrefix = "rentals:snapshot:"

type AnalyticsService struct {
	store      *repository.Store
	cache      SnapshotCache
	cacheTTL   time.Duration
	expiryDays int
	opts       options
}

// NewAnalyticsService builds the read-side rollups. cache may be nil.
func NewAnalyticsService(store *repository.Store, cache SnapshotCache, cacheTTL time.Duration, expiryDays int, opts ...Option) *AnalyticsService {
	if expiryDays <= 0 {
		expiryDays = defaultExpiryWindowDays
	}
	return &AnalyticsService{
		store:      store,
		cache:      cache,
		cacheTTL:   cacheTTL,
		expiryDays: expiryDays,
		opts:       newOptions(opts),
	}
}

func (s *AnalyticsService) CurrentPeriod() (int, int) {
	return s.opts.currentPeriod()
}

func (s *AnalyticsService) MonthlyIncome(ctx context.Context, year, month int) (*model.MonthlyIncome, error) {
	if !validPeriod(year, month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, year, month)
	}
	byBuilding, err := s.store.Analytics.IncomeByBuilding(ctx, year, month)
	if err != nil {
		return nil, err
	}
	income := &model.MonthlyIncome{Year: year, Month: month, ByBuilding: byBuilding}
	if income.ByBuilding == nil {
		income.ByBuilding = []model.BuildingIncome{}
	}
	for _, b := range byBuilding {
		income.Total += b.Total
	}
	return income, nil
}

func (s *AnalyticsService) Occupancy(ctx context.Context) (*model.OccupancyReport, error) {
	counts, err := s.store.Rooms.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	report := &model.OccupancyReport{
		Occupied:    counts[model.RoomStatusOccupied],
		Vacant:      counts[model.RoomStatusVacant],
		Maintenance: counts[model.RoomStatusMaintenance],
	}
	for _, n := range counts {
		report.Total += n
	}
	report.OccupancyRate = percent(float64(report.Occupied), float64(report.Total))
	return report, nil
}

func (s *AnalyticsService) CollectionRate(ctx context.Context, year, month int) (*model.CollectionReport, error) {
	if !validPeriod(year, month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, year, month)
	}
	totals, err := s.store.Analytics.CollectionTotals(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return &model.CollectionReport{
		Year:         year,
		Month:        month,
		Expected:     totals.Expected,
		Collected:    totals.Collected,
		Rate:         percent(totals.Collected, totals.Expected),
		Overdue:      totals.Overdue,
		OverdueCount: totals.OverdueCount,
	}, nil
}

// IncomeTrend returns n consecutive months ending with the current one,
// oldest first. Months without paid rows report zero.
func (s *AnalyticsService) IncomeTrend(ctx context.Context, n int) ([]model.IncomePoint, error) {
	if n < 1 || n > maxTrendMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", ErrInvalidInput, maxTrendMonths)
	}
	year, month := s.opts.currentPeriod()
	to := periodKey(year, month)
	from := to - n + 1

	totals, err := s.store.Analytics.PaidTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byKey := make(map[int]float64, len(totals))
	for _, t := range totals {
		byKey[periodKey(t.Year, t.Month)] = t.Total
	}

	points := make([]model.IncomePoint, 0, n)
	for key := from; key <= to; key++ {
		y, m := periodFromKey(key)
		points = append(points, model.IncomePoint{Year: y, Month: m, Total: byKey[key]})
	}
	return points, nil
}

func (s *AnalyticsService) IncomeByRoom(ctx context.Context, year, month int) ([]model.RoomIncome, error) {
	if !validPeriod(year, month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, year, month)
	}
	rows, err := s.store.Analytics.IncomeByRoom(ctx, year, month, []model.PaymentStatus{
		model.PaymentStatusPending,
		model.PaymentStatusPartial,
		model.PaymentStatusPaid,
		model.PaymentStatusOverdue,
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.RoomIncome{}
	}
	for i := range rows {
		rows[i].Status = roomPaymentStatus(rows[i].Status, rows[i].Collected)
	}
	return rows, nil
}

// roomPaymentStatus folds a payment row into the per-room view: any money
// received on an unpaid row shows as PARTIAL, even once it is overdue.
func roomPaymentStatus(status model.PaymentStatus, collected float64) model.PaymentStatus {
	switch {
	case status == model.PaymentStatusPaid:
		return model.PaymentStatusPaid
	case collected > 0:
		return model.PaymentStatusPartial
	case status == model.PaymentStatusOverdue:
		return model.PaymentStatusOverdue
	}
	return model.PaymentStatusPending
}

func (s *AnalyticsService) ExpiringContracts(ctx context.Context) ([]model.ExpiringContract, error) {
	today := s.opts.today()
	contracts, err := s.store.Contracts.ListEndingBetween(ctx, today, today.AddDate(0, 0, s.expiryDays))
	if err != nil {
		return nil, err
	}
	out := make([]model.ExpiringContract, 0, len(contracts))
	for _, c := range contracts {
		item := model.ExpiringContract{
			ContractID: c.ID,
			EndDate:    c.EndDate.Format("2006-01-02"),
			DaysLeft:   daysBetween(today, c.EndDate),
		}
		if c.Room != nil {
			item.RoomNumber = c.Room.RoomNumber
			if c.Room.Building != nil {
				item.BuildingName = c.Room.Building.Name
			}
		}
		if c.Tenant != nil {
			item.TenantName = c.Tenant.Name
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *AnalyticsService) VacantRooms(ctx context.Context) ([]model.VacantRoom, error) {
	status := model.RoomStatusVacant
	rooms, err := s.store.Rooms.List(ctx, repository.RoomFilter{Status: &status})
	if err != nil {
		return nil, err
	}
	out := make([]model.VacantRoom, 0, len(rooms))
	for _, r := range rooms {
		item := model.VacantRoom{RoomID: r.ID, RoomNumber: r.RoomNumber, BaseRentTHB: r.BaseRentTHB}
		if r.Building != nil {
			item.BuildingName = r.Building.Name
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *AnalyticsService) OverdueItems(ctx context.Context) ([]model.OverdueItem, error) {
	rows, err := s.store.Analytics.OverdueRows(ctx)
	if err != nil {
		return nil, err
	}
	now := s.opts.now()
	out := make([]model.OverdueItem, 0, len(rows))
	for _, row := range rows {
		days := int(math.Ceil(now.Sub(row.DueDate).Hours() / 24))
		if days < 0 {
			days = 0
		}
		out = append(out, model.OverdueItem{
			PaymentID:   row.PaymentID,
			RoomNumber:  row.RoomNumber,
			TenantName:  row.TenantName,
			Outstanding: row.Outstanding,
			DaysPastDue: days,
		})
	}
	return out, nil
}

// Snapshot assembles every rollup for the period. Cached snapshots are
// served when available; cache errors only cost a recomputation.
func (s *AnalyticsService) Snapshot(ctx context.Context, year, month int) (*model.Snapshot, error) {
	if !validPeriod(year, month) {
		return nil, fmt.Errorf("%w: invalid period %d-%d", ErrInvalidInput, year, month)
	}
	key := fmt.Sprintf("%s%04d-%02d", snapshotKeyPrefix, year, month)
	if s.cache != nil {
		var cached model.Snapshot
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.opts.log.Warn().Err(err).Str("key", key).Msg("snapshot cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	snapshot, err := s.buildSnapshot(ctx, year, month)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, snapshot, s.cacheTTL); err != nil {
			s.opts.log.Warn().Err(err).Str("key", key).Msg("snapshot cache write failed")
		}
	}
	return snapshot, nil
}

// InvalidateSnapshots drops cached snapshots after payment data changes.
func (s *AnalyticsService) InvalidateSnapshots(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, snapshotKeyPrefix); err != nil {
		s.opts.log.Warn().Err(err).Msg("snapshot cache invalidation failed")
	}
}

func (s *AnalyticsService) buildSnapshot(ctx context.Context, year, month int) (*model.Snapshot, error) {
	income, err := s.MonthlyIncome(ctx, year, month)
	if err != nil {
		return nil, err
	}
	prevYear, prevMonth := periodFromKey(periodKey(year, month) - 1)
	previous, err := s.MonthlyIncome(ctx, prevYear, prevMonth)
	if err != nil {
		return nil, err
	}
	occupancy, err := s.Occupancy(ctx)
	if err != nil {
		return nil, err
	}
	collection, err := s.CollectionRate(ctx, year, month)
	if err != nil {
		return nil, err
	}
	expiring, err := s.ExpiringContracts(ctx)
	if err != nil {
		return nil, err
	}
	vacant, err := s.VacantRooms(ctx)
	if err != nil {
		return nil, err
	}
	overdue, err := s.OverdueItems(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &model.Snapshot{
		Year:        year,
		Month:       month,
		Income:      *income,
		Occupancy:   *occupancy,
		Collection:  *collection,
		Expiring:    expiring,
		VacantRooms: vacant,
		Overdue:     overdue,
		IncomeDelta: income.Total - previous.Total,
	}
	if previous.Total > 0 {
		snapshot.IncomeDeltaPct = (income.Total - previous.Total) / previous.Total * 100
	}

	idx, err := s.store.Inflation.Latest(ctx, year, month)
	switch {
	case err == nil:
		rate := idx.RatePct
		snapshot.InflationRatePct = &rate
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return snapshot, nil
}

// percent returns round(part/whole*100), or 0 when whole is 0.
func percent(part, whole float64) int {
	if whole == 0 {
		return 0
	}
	return int(roundHalfUp(part / whole * 100))
}

func daysBetween(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}
