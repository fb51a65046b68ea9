package model

import "github.com/google/uuid"

// PaymentLedger is one period's payments grouped by building.
type PaymentLedger struct {
	Year       int
	Month      int
	Collection CollectionReport
	Groups     []LedgerGroup
}

type LedgerGroup struct {
	BuildingID   uuid.UUID
	BuildingName string
	Payments     []Payment
}
