package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
)

var phonePattern = regexp.MustCompile(`^\d{3}-?\d{3}-?\d{4}$`)

type BuildingInput struct {
	Name    string
	Address *string
}

type RoomInput struct {
	BuildingID  uuid.UUID
	RoomNumber  string
	Floor       *int
	SizeSqm     *float64
	BaseRentTHB float64
	Status      model.RoomStatus
	Description *string
}

type RoomUpdateInput struct {
	RoomNumber  *string
	Floor       *int
	SizeSqm     *float64
	BaseRentTHB *float64
	Description *string
}

type TenantInput struct {
	Name       string
	Phone      string
	Email      *string
	IDCard     *string
	LineUserID *string
	Address    *string
}

// PropertyService manages buildings, rooms and tenants.
type PropertyService struct {
	store *repository.Store
	opts  options
}

func NewPropertyService(store *repository.Store, opts ...Option) *PropertyService {
	return &PropertyService{store: store, opts: newOptions(opts)}
}

func (s *PropertyService) CreateBuilding(ctx context.Context, input BuildingInput) (*model.Building, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: building name is required", ErrInvalidInput)
	}
	b := &model.Building{Name: name, Address: trimmedOrNil(input.Address)}
	if err := s.store.Buildings.Create(ctx, b); err != nil {
		return nil, storeError(err, "building")
	}
	return b, nil
}

func (s *PropertyService) UpdateBuilding(ctx context.Context, id uuid.UUID, input BuildingInput) (*model.Building, error) {
	b, err := s.store.Buildings.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "building")
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		b.Name = name
	}
	if input.Address != nil {
		b.Address = trimmedOrNil(input.Address)
	}
	if err := s.store.Buildings.Save(ctx, b); err != nil {
		return nil, storeError(err, "building")
	}
	return b, nil
}

func (s *PropertyService) GetBuilding(ctx context.Context, id uuid.UUID) (*model.Building, error) {
	b, err := s.store.Buildings.GetWithRooms(ctx, id)
	if err != nil {
		return nil, storeError(err, "building")
	}
	return b, nil
}

func (s *PropertyService) ListBuildings(ctx context.Context) ([]model.Building, error) {
	return s.store.Buildings.List(ctx)
}

func (s *PropertyService) DeleteBuilding(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Buildings.GetByID(ctx, id); err != nil {
		return storeError(err, "building")
	}
	rooms, err := s.store.Buildings.CountRooms(ctx, id)
	if err != nil {
		return err
	}
	if rooms > 0 {
		return fmt.Errorf("%w: building still has %d rooms", ErrInvalidState, rooms)
	}
	return storeError(s.store.Buildings.Delete(ctx, id), "building")
}

func (s *PropertyService) CreateRoom(ctx context.Context, input RoomInput) (*model.Room, error) {
	if _, err := s.store.Buildings.GetByID(ctx, input.BuildingID); err != nil {
		return nil, storeError(err, "building")
	}
	number := strings.TrimSpace(input.RoomNumber)
	if number == "" {
		return nil, fmt.Errorf("%w: room number is required", ErrInvalidInput)
	}
	if input.BaseRentTHB <= 0 {
		return nil, fmt.Errorf("%w: base rent must be positive", ErrInvalidInput)
	}
	status := input.Status
	if status == "" {
		status = model.RoomStatusVacant
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", ErrInvalidInput, status)
	}
	floor := 1
	if input.Floor != nil {
		floor = *input.Floor
	}

	room := &model.Room{
		BuildingID:  input.BuildingID,
		RoomNumber:  number,
		Floor:       floor,
		SizeSqm:     input.SizeSqm,
		BaseRentTHB: input.BaseRentTHB,
		Status:      status,
		Description: trimmedOrNil(input.Description),
	}
	if err := s.store.Rooms.Create(ctx, room); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: room %s already exists in this building", ErrConflict, number)
		}
		return nil, err
	}
	return room, nil
}

func (s *PropertyService) UpdateRoom(ctx context.Context, id uuid.UUID, input RoomUpdateInput) (*model.Room, error) {
	room, err := s.store.Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "room")
	}
	if input.RoomNumber != nil {
		number := strings.TrimSpace(*input.RoomNumber)
		if number == "" {
			return nil, fmt.Errorf("%w: room number is required", ErrInvalidInput)
		}
		room.RoomNumber = number
	}
	if input.BaseRentTHB != nil {
		if *input.BaseRentTHB <= 0 {
			return nil, fmt.Errorf("%w: base rent must be positive", ErrInvalidInput)
		}
		room.BaseRentTHB = *input.BaseRentTHB
	}
	if input.Floor != nil {
		room.Floor = *input.Floor
	}
	if input.SizeSqm != nil {
		room.SizeSqm = input.SizeSqm
	}
	if input.Description != nil {
		room.Description = trimmedOrNil(input.Description)
	}
	room.Building = nil
	if err := s.store.Rooms.Save(ctx, room); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: room %s already exists in this building", ErrConflict, room.RoomNumber)
		}
		return nil, err
	}
	return room, nil
}

func (s *PropertyService) UpdateRoomStatus(ctx context.Context, id uuid.UUID, status model.RoomStatus) (*model.Room, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", ErrInvalidInput, status)
	}
	if err := s.store.Rooms.UpdateStatus(ctx, id, status); err != nil {
		return nil, storeError(err, "room")
	}
	return s.GetRoom(ctx, id)
}

func (s *PropertyService) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	room, err := s.store.Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "room")
	}
	return room, nil
}

func (s *PropertyService) ListRooms(ctx context.Context, filter repository.RoomFilter) ([]model.Room, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", ErrInvalidInput, *filter.Status)
	}
	return s.store.Rooms.List(ctx, filter)
}

func (s *PropertyService) ListVacantRooms(ctx context.Context) ([]model.Room, error) {
	status := model.RoomStatusVacant
	return s.store.Rooms.List(ctx, repository.RoomFilter{Status: &status})
}

func (s *PropertyService) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Rooms.GetByID(ctx, id); err != nil {
		return storeError(err, "room")
	}
	open, err := s.store.Contracts.CountOpenForRoom(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return fmt.Errorf("%w: cannot delete room with active contracts", ErrInvalidState)
	}
	return storeError(s.store.Rooms.Delete(ctx, id), "room")
}

func (s *PropertyService) CreateTenant(ctx context.Context, input TenantInput) (*model.Tenant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", ErrInvalidInput)
	}
	phone, err := normalizePhone(input.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePhoneFree(ctx, phone, uuid.Nil); err != nil {
		return nil, err
	}
	lineUserID := trimmedOrNil(input.LineUserID)
	if lineUserID != nil {
		if err := s.ensureLineUserFree(ctx, *lineUserID, uuid.Nil); err != nil {
			return nil, err
		}
	}

	tenant := &model.Tenant{
		Name:       name,
		Phone:      phone,
		Email:      trimmedOrNil(input.Email),
		IDCard:     trimmedOrNil(input.IDCard),
		LineUserID: lineUserID,
		Address:    trimmedOrNil(input.Address),
	}
	if err := s.store.Tenants.Create(ctx, tenant); err != nil {
		return nil, storeError(err, "tenant with this phone or LINE user")
	}
	return tenant, nil
}

// UpdateTenant applies non-empty fields of input.
func (s *PropertyService) UpdateTenant(ctx context.Context, id uuid.UUID, input TenantInput) (*model.Tenant, error) {
	tenant, err := s.store.Tenants.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "tenant")
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		tenant.Name = name
	}
	if strings.TrimSpace(input.Phone) != "" {
		phone, err := normalizePhone(input.Phone)
		if err != nil {
			return nil, err
		}
		if phone != tenant.Phone {
			if err := s.ensurePhoneFree(ctx, phone, id); err != nil {
				return nil, err
			}
			tenant.Phone = phone
		}
	}
	if input.LineUserID != nil {
		lineUserID := trimmedOrNil(input.LineUserID)
		if lineUserID != nil {
			if err := s.ensureLineUserFree(ctx, *lineUserID, id); err != nil {
				return nil, err
			}
		}
		tenant.LineUserID = lineUserID
	}
	if input.Email != nil {
		tenant.Email = trimmedOrNil(input.Email)
	}
	if input.IDCard != nil {
		tenant.IDCard = trimmedOrNil(input.IDCard)
	}
	if input.Address != nil {
		tenant.Address = trimmedOrNil(input.Address)
	}
	if err := s.store.Tenants.Save(ctx, tenant); err != nil {
		return nil, storeError(err, "tenant with this phone or LINE user")
	}
	return tenant, nil
}

func (s *PropertyService) LinkLineUser(ctx context.Context, id uuid.UUID, lineUserID string) (*model.Tenant, error) {
	lineUserID = strings.TrimSpace(lineUserID)
	if lineUserID == "" {
		return nil, fmt.Errorf("%w: line_user_id is required", ErrInvalidInput)
	}
	return s.UpdateTenant(ctx, id, TenantInput{LineUserID: &lineUserID})
}

func (s *PropertyService) GetTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.store.Tenants.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "tenant")
	}
	return tenant, nil
}

func (s *PropertyService) FindTenantByPhone(ctx context.Context, phone string) (*model.Tenant, error) {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	tenant, err := s.store.Tenants.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, storeError(err, "tenant")
	}
	return tenant, nil
}

func (s *PropertyService) FindTenantByLineUserID(ctx context.Context, lineUserID string) (*model.Tenant, error) {
	tenant, err := s.store.Tenants.GetByLineUserID(ctx, lineUserID)
	if err != nil {
		return nil, storeError(err, "tenant")
	}
	return tenant, nil
}

func (s *PropertyService) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	return s.store.Tenants.List(ctx)
}

func (s *PropertyService) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Tenants.GetByID(ctx, id); err != nil {
		return storeError(err, "tenant")
	}
	open, err := s.store.Contracts.CountOpenForTenant(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return fmt.Errorf("%w: cannot delete tenant with active contracts", ErrInvalidState)
	}
	return storeError(s.store.Tenants.Delete(ctx, id), "tenant")
}

func (s *PropertyService) ensurePhoneFree(ctx context.Context, phone string, self uuid.UUID) error {
	existing, err := s.store.Tenants.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("%w: phone number already registered", ErrConflict)
	}
	return nil
}

func (s *PropertyService) ensureLineUserFree(ctx context.Context, lineUserID string, self uuid.UUID) error {
	existing, err := s.store.Tenants.GetByLineUserID(ctx, lineUserID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("%w: LINE user ID already registered", ErrConflict)
	}
	return nil
}

// normalizePhone strips whitespace and checks the NNN-NNN-NNNN shape.
func normalizePhone(raw string) (string, error) {
	phone := strings.Join(strings.Fields(raw), "")
	if phone == "" {
		return "", fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	if !phonePattern.MatchString(phone) {
		return "", fmt.Errorf("%w: invalid phone number format", ErrInvalidInput)
	}
	return phone, nil
}
