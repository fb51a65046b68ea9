package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
)

type BuildingRepository struct {
	db *gorm.DB
}

func NewBuildingRepository(db *gorm.DB) *BuildingRepository {
	return &BuildingRepository{db: db}
}

func (r *BuildingRepository) Create(ctx context.Context, b *model.Building) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BuildingRepository) Save(ctx context.Context, b *model.Building) error {
	return r.db.WithContext(ctx).Omit("Rooms").Save(b).Error
}

func (r *BuildingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Building, error) {
	var b model.Building
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BuildingRepository) GetWithRooms(ctx context.Context, id uuid.UUID) (*model.Building, error) {
	var b model.Building
	err := r.db.WithContext(ctx).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB { return db.Order("floor, room_number") }).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	b.RoomCount = int64(len(b.Rooms))
	return &b, nil
}

func (r *BuildingRepository) List(ctx context.Context) ([]model.Building, error) {
	var buildings []model.Building
	if err := r.db.WithContext(ctx).Order("name").Find(&buildings).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		BuildingID uuid.UUID
		Total      int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT building_id, COUNT(*) AS total
		FROM rooms
		GROUP BY building_id
	`).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byID[c.BuildingID] = c.Total
	}
	for i := range buildings {
		buildings[i].RoomCount = byID[buildings[i].ID]
	}
	return buildings, nil
}

func (r *BuildingRepository) CountRooms(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Room{}).Where("building_id = ?", id).Count(&n).Error
	return n, err
}

func (r *BuildingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Building{}, "id = ?", id).Error
}

type RoomFilter struct {
	BuildingID *uuid.UUID
	Status     *model.RoomStatus
}

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).Omit("Building").Create(room).Error
}

func (r *RoomRepository) Save(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).Omit("Building").Save(room).Error
}

func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	var room model.Room
	if err := r.db.WithContext(ctx).Preload("Building").First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) List(ctx context.Context, filter RoomFilter) ([]model.Room, error) {
	q := r.db.WithContext(ctx).Preload("Building").
		Joins("JOIN buildings ON buildings.id = rooms.building_id")
	if filter.BuildingID != nil {
		q = q.Where("rooms.building_id = ?", *filter.BuildingID)
	}
	if filter.Status != nil {
		q = q.Where("rooms.status = ?", *filter.Status)
	}
	var rooms []model.Room
	err := q.Order("buildings.name, rooms.floor, rooms.room_number").Find(&rooms).Error
	return rooms, err
}

func (r *RoomRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RoomStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Room{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Room{}, "id = ?", id).Error
}

// StatusCounts returns the number of rooms per status.
func (r *RoomRepository) StatusCounts(ctx context.Context) (map[model.RoomStatus]int64, error) {
	var rows []struct {
		Status model.RoomStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT status, COUNT(*) AS total
		FROM rooms
		GROUP BY status
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.RoomStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, t *model.Tenant) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TenantRepository) Save(ctx context.Context, t *model.Tenant) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) GetByPhone(ctx context.Context, phone string) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.WithContext(ctx).First(&t, "phone = ?", phone).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) GetByLineUserID(ctx context.Context, lineUserID string) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.WithContext(ctx).First(&t, "line_user_id = ?", lineUserID).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) List(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := r.db.WithContext(ctx).Order("name").Find(&tenants).Error
	return tenants, err
}

func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Tenant{}, "id = ?", id).Error
}
