package model

import (
	"time"

	"github.com/google/uuid"
)

type InflationIndex struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Year      int       `gorm:"not null;index:idx_inflation_period,priority:1" json:"year"`
	Month     int       `gorm:"not null;index:idx_inflation_period,priority:2" json:"month"`
	RatePct   float64   `gorm:"column:rate_pct;not null" json:"rate_pct"`
	Source    string    `gorm:"size:64;not null" json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func (InflationIndex) TableName() string { return "inflation_indices" }

type Recommendation string

const (
	RecommendationIncrease Recommendation = "INCREASE"
	RecommendationMaintain Recommendation = "MAINTAIN"
	RecommendationReview   Recommendation = "REVIEW"
)

type RentAdjustment struct {
	ContractID     uuid.UUID      `json:"contract_id"`
	OriginalRent   float64        `json:"original_rent"`
	CurrentRent    float64        `json:"current_rent"`
	InflationPct   float64        `json:"inflation_pct"`
	RentGrowthPct  float64        `json:"rent_growth_pct"`
	Gap            float64        `json:"gap"`
	MinimumRent    float64        `json:"minimum_rent"`
	SuggestedRent  float64        `json:"suggested_rent"`
	AdjustmentPct  float64        `json:"adjustment_pct"`
	TenantYears    int            `json:"tenant_years"`
	TenantFactor   float64        `json:"tenant_factor"`
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
}

type RentAdjustmentItem struct {
	RentAdjustment
	RoomNumber   string `json:"room_number"`
	BuildingName string `json:"building_name"`
	TenantName   string `json:"tenant_name"`
}

type CumulativeInflation struct {
	StartYear     int     `json:"start_year"`
	StartMonth    int     `json:"start_month"`
	EndYear       int     `json:"end_year"`
	EndMonth      int     `json:"end_month"`
	CumulativePct float64 `json:"cumulative_pct"`
	MonthsCovered int     `json:"months_covered"`
	MonthsMissing int     `json:"months_missing"`
}

// FirstOfMonth returns midnight UTC on the first day of the month.
func FirstOfMonth(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
