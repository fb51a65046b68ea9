package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
)

type PaymentFilter struct {
	ContractID *uuid.UUID
	Year       *int
	Month      *int
	Status     *model.PaymentStatus
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts the payment. A second row for the same contract and period
// fails with gorm.ErrDuplicatedKey.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Omit("Contract").Create(p).Error
}

func (r *PaymentRepository) Save(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Omit("Contract").Save(p).Error
}

func (r *PaymentRepository) ExistsForPeriod(ctx context.Context, contractID uuid.UUID, year, month int) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("contract_id = ? AND period_year = ? AND period_month = ?", contractID, year, month).
		Count(&n).Error
	return n > 0, err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).Clauses(forUpdate()).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetWithContract loads the payment with its contract, room, building and
// tenant.
func (r *PaymentRepository) GetWithContract(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Preload("Contract.Room.Building").
		Preload("Contract.Tenant").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) List(ctx context.Context, filter PaymentFilter) ([]model.Payment, error) {
	q := r.db.WithContext(ctx).
		Preload("Contract.Room.Building").
		Preload("Contract.Tenant")
	if filter.ContractID != nil {
		q = q.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.Year != nil {
		q = q.Where("period_year = ?", *filter.Year)
	}
	if filter.Month != nil {
		q = q.Where("period_month = ?", *filter.Month)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	var payments []model.Payment
	err := q.Order("period_year DESC, period_month DESC, due_date").Find(&payments).Error
	return payments, err
}

// ListOverdue returns every OVERDUE payment, oldest due date first.
func (r *PaymentRepository) ListOverdue(ctx context.Context) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Preload("Contract.Room.Building").
		Preload("Contract.Tenant").
		Where("status = ?", model.PaymentStatusOverdue).
		Order("due_date").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkOverdueBefore moves unsettled payments due strictly before cutoff to
// OVERDUE and returns how many rows changed.
func (r *PaymentRepository) MarkOverdueBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("status IN ? AND due_date < ?", model.UnsettledPaymentStatuses, cutoff).
		Updates(map[string]any{"status": model.PaymentStatusOverdue, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}
