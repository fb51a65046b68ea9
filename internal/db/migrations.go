package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/model"
)

// Statements run after AutoMigrate. They must stay valid on both postgres
// and sqlite.
var migrationStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_open_room ON contracts (room_id)
		WHERE status IN ('PENDING_SIGNATURE', 'SIGNED', 'ACTIVE', 'EXPIRING');`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status_end_date ON contracts (status, end_date);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status_due_date ON payments (status, due_date);`,
	`CREATE INDEX IF NOT EXISTS idx_transitions_contract_created ON contract_state_transitions (contract_id, created_at);`,
}

func models() []any {
	return []any{
		&model.Building{},
		&model.Room{},
		&model.Tenant{},
		&model.Contract{},
		&model.ContractStateTransition{},
		&model.ContractSignature{},
		&model.Payment{},
		&model.InflationIndex{},
	}
}

// Migrate brings the schema up to date. It is idempotent.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
