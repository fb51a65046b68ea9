package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/rentals/internal/model"
)

type ContractFilter struct {
	Status   *model.ContractStatus
	RoomID   *uuid.UUID
	TenantID *uuid.UUID
}

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, c *model.Contract) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

// Save writes the contract's own columns.
func (r *ContractRepository) Save(ctx context.Context, c *model.Contract) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetForUpdate loads the contract and locks its row until the surrounding
// transaction ends. Drivers without row locks ignore the clause.
func (r *ContractRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	if err := r.db.WithContext(ctx).Clauses(forUpdate()).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetWithParties loads the contract with its room, building and tenant.
func (r *ContractRepository) GetWithParties(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).
		Preload("Room.Building").
		Preload("Tenant").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetDetailed loads the contract with parties, history, signatures and
// payments.
func (r *ContractRepository) GetDetailed(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).
		Preload("Room.Building").
		Preload("Tenant").
		Preload("Previous").
		Preload("Transitions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Signatures", func(db *gorm.DB) *gorm.DB { return db.Order("signed_at") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("period_year DESC, period_month DESC") }).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContractRepository) List(ctx context.Context, filter ContractFilter) ([]model.Contract, error) {
	q := r.db.WithContext(ctx).Preload("Room.Building").Preload("Tenant")
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.RoomID != nil {
		q = q.Where("room_id = ?", *filter.RoomID)
	}
	if filter.TenantID != nil {
		q = q.Where("tenant_id = ?", *filter.TenantID)
	}
	var contracts []model.Contract
	err := q.Order("created_at DESC").Find(&contracts).Error
	return contracts, err
}

// GetSuccessor returns the renewal created from previousID, with parties.
func (r *ContractRepository) GetSuccessor(ctx context.Context, previousID uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).
		Preload("Room.Building").
		Preload("Tenant").
		Where("previous_id = ?", previousID).
		Order("version DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByStatuses returns contracts in any of statuses with parties loaded.
func (r *ContractRepository) ListByStatuses(ctx context.Context, statuses []model.ContractStatus) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Preload("Room.Building").
		Preload("Tenant").
		Where("status IN ?", statuses).
		Order("end_date").
		Find(&contracts).Error
	return contracts, err
}

// ListEndingBetween returns billable contracts whose end date falls in
// [from, to].
func (r *ContractRepository) ListEndingBetween(ctx context.Context, from, to time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Preload("Room.Building").
		Preload("Tenant").
		Where("status IN ?", model.BillableContractStatuses).
		Where("end_date >= ? AND end_date <= ?", from, to).
		Order("end_date").
		Find(&contracts).Error
	return contracts, err
}

// ListBillableOverlapping returns billable contracts whose term overlaps
// [periodStart, periodEnd].
func (r *ContractRepository) ListBillableOverlapping(ctx context.Context, periodStart, periodEnd time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("status IN ?", model.BillableContractStatuses).
		Where("start_date <= ? AND end_date >= ?", periodEnd, periodStart).
		Order("created_at").
		Find(&contracts).Error
	return contracts, err
}

func (r *ContractRepository) CountOpenForRoom(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("room_id = ? AND status IN ?", roomID, model.OpenContractStatuses).
		Count(&n).Error
	return n, err
}

func (r *ContractRepository) CountOpenForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("tenant_id = ? AND status IN ?", tenantID, model.OpenContractStatuses).
		Count(&n).Error
	return n, err
}

// CompareAndSetStatus moves the contract from one status to another and
// reports whether the row was still in the expected status.
func (r *ContractRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.ContractStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ContractRepository) SetPdfURL(ctx context.Context, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).Model(&model.Contract{}).Where("id = ?", id).Update("pdf_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the contract with its transition log and signatures.
func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("contract_id = ?", id).Delete(&model.ContractStateTransition{}).Error; err != nil {
		return err
	}
	if err := db.Where("contract_id = ?", id).Delete(&model.ContractSignature{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Contract{}, "id = ?", id).Error
}

func (r *ContractRepository) AddTransition(ctx context.Context, t *model.ContractStateTransition) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *ContractRepository) ListTransitions(ctx context.Context, contractID uuid.UUID) ([]model.ContractStateTransition, error) {
	var transitions []model.ContractStateTransition
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at DESC").
		Find(&transitions).Error
	return transitions, err
}
