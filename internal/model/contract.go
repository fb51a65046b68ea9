package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusDraft            ContractStatus = "DRAFT"
	ContractStatusPendingSignature ContractStatus = "PENDING_SIGNATURE"
	ContractStatusSigned           ContractStatus = "SIGNED"
	ContractStatusActive           ContractStatus = "ACTIVE"
	ContractStatusExpiring         ContractStatus = "EXPIRING"
	ContractStatusRenewed          ContractStatus = "RENEWED"
	ContractStatusTerminated       ContractStatus = "TERMINATED"
)

// contractTransitions is the complete lease lifecycle graph. Statuses
// without an entry are terminal.
var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusDraft:            {ContractStatusPendingSignature},
	ContractStatusPendingSignature: {ContractStatusSigned, ContractStatusDraft},
	ContractStatusSigned:           {ContractStatusActive},
	ContractStatusActive:           {ContractStatusExpiring},
	ContractStatusExpiring:         {ContractStatusRenewed, ContractStatusTerminated},
}

// OpenContractStatuses hold a room: at most one contract per room may be in
// any of them at a time.
var OpenContractStatuses = []ContractStatus{
	ContractStatusPendingSignature,
	ContractStatusSigned,
	ContractStatusActive,
	ContractStatusExpiring,
}

// BillableContractStatuses are the statuses that generate monthly payments.
var BillableContractStatuses = []ContractStatus{
	ContractStatusActive,
	ContractStatusExpiring,
}

func ContractStatuses() []ContractStatus {
	return []ContractStatus{
		ContractStatusDraft,
		ContractStatusPendingSignature,
		ContractStatusSigned,
		ContractStatusActive,
		ContractStatusExpiring,
		ContractStatusRenewed,
		ContractStatusTerminated,
	}
}

func (s ContractStatus) Valid() bool {
	for _, status := range ContractStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

func (s ContractStatus) Terminal() bool {
	return s.Valid() && len(contractTransitions[s]) == 0
}

// NextStatuses returns the statuses reachable from s in one step.
func (s ContractStatus) NextStatuses() []ContractStatus {
	next := contractTransitions[s]
	out := make([]ContractStatus, len(next))
	copy(out, next)
	return out
}

func CanTransitionContract(from, to ContractStatus) bool {
	for _, next := range contractTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Contract struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"room_id"`
	Room          *Room          `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Tenant        *Tenant        `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	StartDate     time.Time      `gorm:"not null" json:"start_date"`
	EndDate       time.Time      `gorm:"not null;index" json:"end_date"`
	RentAmountTHB float64        `gorm:"column:rent_amount_thb;not null" json:"rent_amount_thb"`
	DepositTHB    float64        `gorm:"column:deposit_thb;not null" json:"deposit_thb"`
	Status        ContractStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	Version       int            `gorm:"not null" json:"version"`
	PreviousID    *uuid.UUID     `gorm:"type:uuid" json:"previous_id,omitempty"`
	Previous      *Contract      `gorm:"foreignKey:PreviousID" json:"previous,omitempty"`
	PdfURL        *string        `gorm:"column:pdf_url" json:"pdf_url,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	Transitions []ContractStateTransition `gorm:"foreignKey:ContractID" json:"transitions,omitempty"`
	Signatures  []ContractSignature       `gorm:"foreignKey:ContractID" json:"signatures,omitempty"`
	Payments    []Payment                 `gorm:"foreignKey:ContractID" json:"payments,omitempty"`
}

func (Contract) TableName() string { return "contracts" }

// ContractStateTransition is an append-only audit row.
type ContractStateTransition struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"contract_id"`
	FromState   ContractStatus `gorm:"type:varchar(32);not null" json:"from_state"`
	ToState     ContractStatus `gorm:"type:varchar(32);not null" json:"to_state"`
	Reason      *string        `json:"reason,omitempty"`
	TriggeredBy string         `gorm:"size:64;not null" json:"triggered_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (ContractStateTransition) TableName() string { return "contract_state_transitions" }

// ContractEvent is published after a committed status change.
type ContractEvent struct {
	ContractID  uuid.UUID      `json:"contract_id"`
	From        ContractStatus `json:"from"`
	To          ContractStatus `json:"to"`
	Reason      string         `json:"reason,omitempty"`
	TriggeredBy string         `json:"triggered_by"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// ContractDocument carries everything printed on the lease.
type ContractDocument struct {
	Contract     Contract
	Owner        Party
	Tenant       Party
	BuildingName string
	RoomNumber   string
	Floor        int
	TermMonths   int
	PaymentDay   int
	GeneratedAt  time.Time
}
