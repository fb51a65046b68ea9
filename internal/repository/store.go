package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories over one database handle. A Store built
// inside Atomic shares a single transaction across all of them.
type Store struct {
	db *gorm.DB

	Buildings  *BuildingRepository
	Rooms      *RoomRepository
	Tenants    *TenantRepository
	Contracts  *ContractRepository
	Signatures *SignatureRepository
	Payments   *PaymentRepository
	Inflation  *InflationRepository
	Analytics  *AnalyticsRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Buildings:  NewBuildingRepository(db),
		Rooms:      NewRoomRepository(db),
		Tenants:    NewTenantRepository(db),
		Contracts:  NewContractRepository(db),
		Signatures: NewSignatureRepository(db),
		Payments:   NewPaymentRepository(db),
		Inflation:  NewInflationRepository(db),
		Analytics:  NewAnalyticsRepository(db),
	}
}

// Atomic runs fn in one transaction. Any error returned by fn rolls back
// every write made through tx.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func forUpdate() clause.Expression {
	return clause.Locking{Strength: "UPDATE"}
}
