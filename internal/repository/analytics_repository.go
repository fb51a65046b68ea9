package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
)

// AnalyticsRepository runs the read-side rollups over payments, contracts
// and rooms.
type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) IncomeByBuilding(ctx context.Context, year, month int) ([]model.BuildingIncome, error) {
	var rows []model.BuildingIncome
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			b.id AS building_id,
			b.name AS building_name,
			COALESCE(SUM(p.paid_thb), 0) AS total
		FROM payments p
		JOIN contracts c ON c.id = p.contract_id
		JOIN rooms r ON r.id = c.room_id
		JOIN buildings b ON b.id = r.building_id
		WHERE p.period_year = ?
			AND p.period_month = ?
		GROUP BY b.id, b.name
		ORDER BY b.name ASC
	`, year, month).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type CollectionTotals struct {
	Expected     float64
	Collected    float64
	Overdue      float64
	OverdueCount int64
}

// CollectionTotals sums every payment row of a period.
func (r *AnalyticsRepository) CollectionTotals(ctx context.Context, year, month int) (*CollectionTotals, error) {
	var row CollectionTotals
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(amount_thb), 0) AS expected,
			COALESCE(SUM(paid_thb), 0) AS collected,
			COALESCE(SUM(CASE WHEN status = ? THEN amount_thb - paid_thb ELSE 0 END), 0) AS overdue,
			COUNT(CASE WHEN status = ? THEN 1 END) AS overdue_count
		FROM payments
		WHERE period_year = ?
			AND period_month = ?
	`, model.PaymentStatusOverdue, model.PaymentStatusOverdue, year, month).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// PaidTotals sums PAID payments per period for periods in [from, to], given
// as year*12 + month - 1. Periods without paid rows are absent.
func (r *AnalyticsRepository) PaidTotals(ctx context.Context, from, to int) ([]model.IncomePoint, error) {
	var rows []model.IncomePoint
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			period_year AS year,
			period_month AS month,
			COALESCE(SUM(paid_thb), 0) AS total
		FROM payments
		WHERE status = ?
			AND (period_year * 12 + period_month - 1) BETWEEN ? AND ?
		GROUP BY period_year, period_month
	`, model.PaymentStatusPaid, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AnalyticsRepository) IncomeByRoom(ctx context.Context, year, month int, statuses []model.PaymentStatus) ([]model.RoomIncome, error) {
	baseQuery := `
		SELECT
			r.id AS room_id,
			r.room_number,
			b.name AS building_name,
			p.amount_thb AS expected,
			p.paid_thb AS collected,
			p.status
		FROM payments p
		JOIN contracts c ON c.id = p.contract_id
		JOIN rooms r ON r.id = c.room_id
		JOIN buildings b ON b.id = r.building_id
		WHERE p.period_year = ?
			AND p.period_month = ?
	`
	args := []interface{}{year, month}
	baseQuery, args = appendStatusFilter(baseQuery, args, "p.status", statuses)
	baseQuery += " ORDER BY b.name ASC, r.room_number ASC"

	var rows []model.RoomIncome
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type OverdueRow struct {
	PaymentID   uuid.UUID
	RoomNumber  string
	TenantName  string
	Outstanding float64
	DueDate     time.Time
}

func (r *AnalyticsRepository) OverdueRows(ctx context.Context) ([]OverdueRow, error) {
	var rows []OverdueRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			p.id AS payment_id,
			r.room_number,
			t.name AS tenant_name,
			p.amount_thb - p.paid_thb AS outstanding,
			p.due_date
		FROM payments p
		JOIN contracts c ON c.id = p.contract_id
		JOIN rooms r ON r.id = c.room_id
		JOIN tenants t ON t.id = c.tenant_id
		WHERE p.status = ?
		ORDER BY p.due_date ASC
	`, model.PaymentStatusOverdue).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func appendStatusFilter[S ~string](query string, args []interface{}, column string, statuses []S) (string, []interface{}) {
	if len(statuses) == 0 {
		return query, args
	}
	placeholders := make([]string, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args = append(args, string(status))
	}
	query += fmt.Sprintf(" AND %s IN (%s)", column, strings.Join(placeholders, ","))
	return query, args
}
