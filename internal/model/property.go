package model

import (
	"time"

	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomStatusVacant      RoomStatus = "VACANT"
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusVacant, RoomStatusOccupied, RoomStatusMaintenance:
		return true
	}
	return false
}

type Building struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Rooms     []Room    `gorm:"foreignKey:BuildingID" json:"rooms,omitempty"`
	RoomCount int64     `gorm:"-" json:"room_count"`
}

func (Building) TableName() string { return "buildings" }

type Room struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BuildingID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_rooms_building_number" json:"building_id"`
	Building    *Building  `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	RoomNumber  string     `gorm:"size:32;not null;uniqueIndex:uq_rooms_building_number" json:"room_number"`
	Floor       int        `gorm:"not null" json:"floor"`
	SizeSqm     *float64   `json:"size_sqm,omitempty"`
	BaseRentTHB float64    `gorm:"column:base_rent_thb;not null" json:"base_rent_thb"`
	Status      RoomStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }

type Tenant struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Phone      string    `gorm:"size:32;not null;uniqueIndex:uq_tenants_phone" json:"phone"`
	Email      *string   `json:"email,omitempty"`
	IDCard     *string   `gorm:"column:id_card;size:32" json:"id_card,omitempty"`
	LineUserID *string   `gorm:"column:line_user_id;size:64;uniqueIndex:uq_tenants_line_user" json:"line_user_id,omitempty"`
	Address    *string   `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }

// Party is one side of a lease as printed on the contract document.
type Party struct {
	Name    string
	IDCard  string
	Address string
	Phone   string
}
