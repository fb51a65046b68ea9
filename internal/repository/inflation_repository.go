package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
)

type InflationRepository struct {
	db *gorm.DB
}

func NewInflationRepository(db *gorm.DB) *InflationRepository {
	return &InflationRepository{db: db}
}

func (r *InflationRepository) Create(ctx context.Context, idx *model.InflationIndex) error {
	return r.db.WithContext(ctx).Create(idx).Error
}

func (r *InflationRepository) Save(ctx context.Context, idx *model.InflationIndex) error {
	return r.db.WithContext(ctx).Save(idx).Error
}

// Latest returns the most recently created record for the period.
func (r *InflationRepository) Latest(ctx context.Context, year, month int) (*model.InflationIndex, error) {
	var idx model.InflationIndex
	err := r.db.WithContext(ctx).
		Where("year = ? AND month = ?", year, month).
		Order("created_at DESC").
		First(&idx).Error
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

func (r *InflationRepository) List(ctx context.Context) ([]model.InflationIndex, error) {
	var rows []model.InflationIndex
	err := r.db.WithContext(ctx).Order("year, month, created_at DESC").Find(&rows).Error
	return rows, err
}

// ListRange returns records whose period lies in [from, to], both given as
// year*12 + month - 1. Within a period the newest record comes first.
func (r *InflationRepository) ListRange(ctx context.Context, from, to int) ([]model.InflationIndex, error) {
	var rows []model.InflationIndex
	err := r.db.WithContext(ctx).
		Where("(year * 12 + month - 1) BETWEEN ? AND ?", from, to).
		Order("year, month, created_at DESC").
		Find(&rows).Error
	return rows, err
}
