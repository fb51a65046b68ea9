package model

import "github.com/google/uuid"

type BuildingIncome struct {
	BuildingID   uuid.UUID `json:"building_id"`
	BuildingName string    `json:"building_name"`
	Total        float64   `json:"total"`
}

type MonthlyIncome struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Total      float64          `json:"total"`
	ByBuilding []BuildingIncome `json:"by_building"`
}

type OccupancyReport struct {
	Total         int64 `json:"total"`
	Occupied      int64 `json:"occupied"`
	Vacant        int64 `json:"vacant"`
	Maintenance   int64 `json:"maintenance"`
	OccupancyRate int   `json:"occupancy_rate"`
}

type CollectionReport struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	Expected     float64 `json:"expected"`
	Collected    float64 `json:"collected"`
	Rate         int     `json:"rate"`
	Overdue      float64 `json:"overdue"`
	OverdueCount int64   `json:"overdue_count"`
}

type IncomePoint struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
}

type RoomIncome struct {
	RoomID       uuid.UUID     `json:"room_id"`
	RoomNumber   string        `json:"room_number"`
	BuildingName string        `json:"building_name"`
	Expected     float64       `json:"expected"`
	Collected    float64       `json:"collected"`
	Status       PaymentStatus `json:"status"`
}

type ExpiringContract struct {
	ContractID   uuid.UUID `json:"contract_id"`
	RoomNumber   string    `json:"room_number"`
	BuildingName string    `json:"building_name"`
	TenantName   string    `json:"tenant_name"`
	EndDate      string    `json:"end_date"`
	DaysLeft     int       `json:"days_left"`
}

type VacantRoom struct {
	RoomID       uuid.UUID `json:"room_id"`
	RoomNumber   string    `json:"room_number"`
	BuildingName string    `json:"building_name"`
	BaseRentTHB  float64   `json:"base_rent_thb"`
}

type OverdueItem struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	RoomNumber  string    `json:"room_number"`
	TenantName  string    `json:"tenant_name"`
	Outstanding float64   `json:"outstanding"`
	DaysPastDue int       `json:"days_past_due"`
}

type Snapshot struct {
	Year             int                `json:"year"`
	Month            int                `json:"month"`
	Income           MonthlyIncome      `json:"income"`
	Occupancy        OccupancyReport    `json:"occupancy"`
	Collection       CollectionReport   `json:"collection"`
	Expiring         []ExpiringContract `json:"expiring"`
	VacantRooms      []VacantRoom       `json:"vacant_rooms"`
	Overdue          []OverdueItem      `json:"overdue"`
	InflationRatePct *float64           `json:"inflation_rate_pct,omitempty"`
	IncomeDelta      float64            `json:"income_delta"`
	IncomeDeltaPct   float64            `json:"income_delta_pct"`
}
