// Package testutil provides an in-memory store and record fixtures for
// package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/db"
	"github.com/nurpe/rentals/internal/model"
)

// NewDB opens a migrated sqlite database private to the test. A single
// connection is used, so code running inside a transaction must only touch
// the transaction handle.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	gdb, err := db.Open(sqlite.Open(dsn), zerolog.Nop())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Clock returns a fixed clock for services.
func Clock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func CreateBuilding(t *testing.T, gdb *gorm.DB, name string) *model.Building {
	t.Helper()
	b := &model.Building{Name: name}
	require.NoError(t, gdb.Create(b).Error)
	return b
}

func CreateRoom(t *testing.T, gdb *gorm.DB, buildingID uuid.UUID, number string, baseRent float64) *model.Room {
	t.Helper()
	r := &model.Room{
		BuildingID:  buildingID,
		RoomNumber:  number,
		Floor:       1,
		BaseRentTHB: baseRent,
		Status:      model.RoomStatusVacant,
	}
	require.NoError(t, gdb.Create(r).Error)
	return r
}

func CreateTenant(t *testing.T, gdb *gorm.DB, name, phone string) *model.Tenant {
	t.Helper()
	tn := &model.Tenant{Name: name, Phone: phone}
	require.NoError(t, gdb.Create(tn).Error)
	return tn
}

// ContractSpec describes a fixture contract. Zero values get sensible
// defaults.
type ContractSpec struct {
	RoomID    uuid.UUID
	TenantID  uuid.UUID
	Status    model.ContractStatus
	StartDate time.Time
	EndDate   time.Time
	Rent      float64
	Version   int
}

func CreateContract(t *testing.T, gdb *gorm.DB, spec ContractSpec) *model.Contract {
	t.Helper()
	if spec.Status == "" {
		spec.Status = model.ContractStatusDraft
	}
	if spec.StartDate.IsZero() {
		spec.StartDate = Date(2024, time.January, 1)
	}
	if spec.EndDate.IsZero() {
		spec.EndDate = spec.StartDate.AddDate(1, 0, -1)
	}
	if spec.Rent == 0 {
		spec.Rent = 8000
	}
	if spec.Version == 0 {
		spec.Version = 1
	}
	c := &model.Contract{
		RoomID:        spec.RoomID,
		TenantID:      spec.TenantID,
		StartDate:     spec.StartDate,
		EndDate:       spec.EndDate,
		RentAmountTHB: spec.Rent,
		DepositTHB:    spec.Rent * 2,
		Status:        spec.Status,
		Version:       spec.Version,
	}
	require.NoError(t, gdb.Create(c).Error)
	return c
}

// Fixture is a building with one room and one tenant.
type Fixture struct {
	Building *model.Building
	Room     *model.Room
	Tenant   *model.Tenant
}

func NewFixture(t *testing.T, gdb *gorm.DB) Fixture {
	t.Helper()
	b := CreateBuilding(t, gdb, "Baan Suan")
	r := CreateRoom(t, gdb, b.ID, "101", 8000)
	tn := CreateTenant(t, gdb, "Somchai", "081-234-5678")
	return Fixture{Building: b, Room: r, Tenant: tn}
}
