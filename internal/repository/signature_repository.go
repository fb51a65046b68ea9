package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
)

type SignatureRepository struct {
	db *gorm.DB
}

func NewSignatureRepository(db *gorm.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

// Create inserts the signature. A second signature for the same contract
// and role fails with gorm.ErrDuplicatedKey.
func (r *SignatureRepository) Create(ctx context.Context, s *model.ContractSignature) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SignatureRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ContractSignature, error) {
	var s model.ContractSignature
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SignatureRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.ContractSignature, error) {
	var signatures []model.ContractSignature
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("signed_at").
		Find(&signatures).Error
	return signatures, err
}

func (r *SignatureRepository) ExistsForRole(ctx context.Context, contractID uuid.UUID, role model.SignerRole) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ContractSignature{}).
		Where("contract_id = ? AND signer_role = ?", contractID, role).
		Count(&n).Error
	return n > 0, err
}

// SignedRoles returns the distinct roles that have signed the contract.
func (r *SignatureRepository) SignedRoles(ctx context.Context, contractID uuid.UUID) ([]model.SignerRole, error) {
	var roles []model.SignerRole
	err := r.db.WithContext(ctx).Model(&model.ContractSignature{}).
		Where("contract_id = ?", contractID).
		Distinct().
		Pluck("signer_role", &roles).Error
	return roles, err
}

func (r *SignatureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ContractSignature{}, "id = ?", id).Error
}
